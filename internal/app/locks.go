package app

import (
	"net/http"

	"github.com/metinatakli/seat-reservation-core/api"
)

// LockSeatsHandler holds seats for the browsing session while the customer
// makes up their mind. The locks move to the booking once it is created.
func (app *Application) LockSeatsHandler(w http.ResponseWriter, r *http.Request, showtimeID int) {
	err := checkID(showtimeID, "showtime")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.LockSeatsHandlerJSONRequestBody

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	grant, err := app.bookings.AcquireLocks(r.Context(), showtimeID, input.SeatIdList, app.requesterRef(r))
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	resp := api.LockSeatsResponse{
		ShowtimeId: grant.ShowtimeID,
		SeatIds:    grant.SeatIDs,
		ExpiresAt:  grant.ExpiresAt,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ReleaseSeatsHandler(w http.ResponseWriter, r *http.Request, showtimeID int) {
	err := checkID(showtimeID, "showtime")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.ReleaseSeatsHandlerJSONRequestBody

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	released, err := app.bookings.ReleaseLocks(r.Context(), showtimeID, input.SeatIdList, app.requesterRef(r))
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.ReleaseSeatsResponse{Released: released}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
