package app

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

type sessionKey string

const (
	SessionKeyGuestID = sessionKey("guestID")
)

func (s sessionKey) String() string {
	return string(s)
}

type contextKey string

const (
	contextKeyLogger = contextKey("logger")
	contextKeyStaff  = contextKey("staff")
)

type Role string

const (
	RoleBoxOffice      Role = "box_office"
	RolePaymentService Role = "payment_service"
	RoleAdmin          Role = "admin"
)

// StaffClaims are carried by tokens issued to box-office clerks, the payment
// confirmation service and administrators.
type StaffClaims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

func contextSetStaff(r *http.Request, claims *StaffClaims) *http.Request {
	ctx := context.WithValue(r.Context(), contextKeyStaff, claims)
	return r.WithContext(ctx)
}

func contextGetStaff(r *http.Request) (*StaffClaims, bool) {
	claims, ok := r.Context().Value(contextKeyStaff).(*StaffClaims)
	return claims, ok
}

// requesterRef identifies the caller as a lock holder and event recipient:
// "staff:<subject>" for staff tokens, "guest:<id>" for browsing sessions.
func (app *Application) requesterRef(r *http.Request) string {
	if staff, ok := contextGetStaff(r); ok {
		return "staff:" + staff.Subject
	}

	return "guest:" + app.sessionManager.GetString(r.Context(), SessionKeyGuestID.String())
}

func isStaff(r *http.Request, roles ...Role) bool {
	staff, ok := contextGetStaff(r)
	if !ok {
		return false
	}

	if staff.Role == RoleAdmin {
		return true
	}

	for _, role := range roles {
		if staff.Role == role {
			return true
		}
	}

	return false
}
