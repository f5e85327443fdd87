package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation-core/api"
)

func (app *Application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")

				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// requestLogger attaches a logger carrying the request id to the context.
func (app *Application) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := app.logger.With(
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"uri", r.URL.RequestURI(),
		)

		ctx := context.WithValue(r.Context(), contextKeyLogger, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *Application) contextGetLogger(r *http.Request) *slog.Logger {
	logger, ok := r.Context().Value(contextKeyLogger).(*slog.Logger)
	if !ok {
		return app.logger
	}

	return logger
}

// ensureGuestUserSession gives every browsing session a stable guest id. The
// id, not the session token, is what locks and events are keyed by, so it
// survives token renewal.
func (app *Application) ensureGuestUserSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.sessionManager.GetString(r.Context(), SessionKeyGuestID.String()) == "" {
			app.sessionManager.Put(r.Context(), SessionKeyGuestID.String(), uuid.NewString())
		}

		next.ServeHTTP(w, r)
	})
}

// authenticate accepts an optional staff bearer token. Requests without one
// continue as guests; a present but invalid token is rejected.
func (app *Application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			app.unauthorizedAccessResponse(w, r)
			return
		}

		claims, err := app.parseStaffToken(raw)
		if err != nil {
			app.contextGetLogger(r).Warn("rejected staff token", "error", err)
			app.unauthorizedAccessResponse(w, r)
			return
		}

		next.ServeHTTP(w, contextSetStaff(r, claims))
	})
}

func (app *Application) requireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := contextGetStaff(r); !ok {
				app.unauthorizedAccessResponse(w, r)
				return
			}

			if !isStaff(r, roles...) {
				app.forbiddenResponse(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// authorize enforces the staff roles an operation lists under its bearerAuth
// security requirement. Operations without one are open to guests.
func (app *Application) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scopes, ok := r.Context().Value(api.BearerAuthScopes).([]string)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		roles := make([]Role, 0, len(scopes))
		for _, scope := range scopes {
			roles = append(roles, Role(scope))
		}

		app.requireRole(roles...)(next).ServeHTTP(w, r)
	})
}

func (app *Application) parseStaffToken(raw string) (*StaffClaims, error) {
	claims := &StaffClaims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(app.config.Auth.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(app.config.Auth.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	switch claims.Role {
	case RoleBoxOffice, RolePaymentService, RoleAdmin:
	default:
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}

	return claims, nil
}
