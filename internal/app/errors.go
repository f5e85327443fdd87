package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/seat-reservation-core/api"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
	appvalidator "github.com/metinatakli/seat-reservation-core/internal/validator"
)

const (
	ErrInternalServer    = "The server encountered a problem and could not process your request"
	ErrNotFound          = "The requested resource not found"
	ErrUnauthorized      = "You must be authenticated to access this resource"
	ErrForbidden         = "You are not allowed to perform this action"
	ErrTemporarilyFailed = "The request could not be completed right now, please retry"
)

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.contextGetLogger(r).Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	app.writeError(w, r, status, api.ErrorResponse{Message: message})
}

func (app *Application) writeError(w http.ResponseWriter, r *http.Request, status int, resp api.ErrorResponse) {
	resp.RequestId = middleware.GetReqID(r.Context())
	resp.Timestamp = time.Now()

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, ErrNotFound)
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

// paramErrorResponse reports a path or query parameter the router could not
// bind to its declared type.
func (app *Application) paramErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var paramErr *api.InvalidParamFormatError
	if !errors.As(err, &paramErr) {
		app.badRequestResponse(w, r, err)
		return
	}

	switch paramErr.ParamName {
	case "showtimeId":
		err = errors.New("showtime ID must be greater than zero")
	case "seatId":
		err = errors.New("seat ID must be greater than zero")
	case "bookingId":
		err = errors.New("booking ID must be a valid UUID")
	default:
		err = fmt.Errorf("%s must be an integer", paramErr.ParamName)
	}

	app.badRequestResponse(w, r, err)
}

func (app *Application) unauthorizedAccessResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	app.errorResponse(w, r, http.StatusUnauthorized, ErrUnauthorized)
}

func (app *Application) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusForbidden, ErrForbidden)
}

func (app *Application) editConflictResponseWithErr(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusConflict, err.Error())
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		app.badRequestResponse(w, r, err)
		return
	}

	resp := api.ValidationErrorResponse{
		Message:   "One or more fields are invalid",
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	for _, fieldErr := range validationErrs {
		resp.ValidationErrors = append(resp.ValidationErrors, api.ValidationError{
			Field: fieldPath(fieldErr),
			Issue: appvalidator.ValidationMessage(fieldErr),
		})
	}

	err = app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// bookingErrorResponse maps errors coming out of the booking service to their
// HTTP representation.
func (app *Application) bookingErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		conflict  *domain.SeatConflictError
		selection *domain.InvalidSeatSelectionError
	)

	switch {
	case errors.As(err, &conflict):
		app.writeError(w, r, http.StatusConflict, api.ErrorResponse{
			Message:            domain.ErrSeatAlreadyBooked.Error(),
			ConflictingSeatIds: conflict.SeatIDs,
		})
	case errors.As(err, &selection):
		app.writeError(w, r, http.StatusBadRequest, api.ErrorResponse{
			Message:        selection.Reason,
			InvalidSeatIds: selection.SeatIDs,
		})
	case errors.Is(err, domain.ErrShowtimeNotFound),
		errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	case errors.Is(err, domain.ErrShowtimeNotBookable):
		app.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrHoldExpired):
		app.editConflictResponseWithErr(w, r, domain.ErrHoldExpired)
	case errors.Is(err, domain.ErrInvalidStateTransition), errors.Is(err, domain.ErrSeatInUse):
		app.editConflictResponseWithErr(w, r, err)
	case errors.Is(err, domain.ErrPaymentDeclined):
		app.errorResponse(w, r, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, domain.ErrUnsupportedPaymentMethod):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, domain.ErrTransient):
		app.logError(r, err)
		w.Header().Set("Retry-After", "1")
		app.errorResponse(w, r, http.StatusServiceUnavailable, ErrTemporarilyFailed)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

// fieldPath renders a validation error's location as the JSON path of the
// request body, e.g. "payment.reference".
func fieldPath(fieldErr validator.FieldError) string {
	namespace := fieldErr.Namespace()
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}

	return namespace
}
