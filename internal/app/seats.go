package app

import (
	"net/http"

	"github.com/metinatakli/seat-reservation-core/api"
	"github.com/metinatakli/seat-reservation-core/internal/booking"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
)

func (app *Application) GetSeatMapHandler(w http.ResponseWriter, r *http.Request, showtimeID int) {
	err := checkID(showtimeID, "showtime")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	seatMap, err := app.bookings.GetSeatMap(r.Context(), showtimeID)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if len(seatMap.Seats) == 0 {
		app.contextGetLogger(r).Warn("seat map not found for showtime", "showtime_id", showtimeID)
		app.notFoundResponse(w, r)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toSeatMapResponse(seatMap), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetAvailabilityHandler(w http.ResponseWriter, r *http.Request, showtimeID int) {
	err := checkID(showtimeID, "showtime")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	availability, err := app.bookings.GetAvailability(r.Context(), showtimeID)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	resp := api.AvailabilityResponse{
		ShowtimeId:    showtimeID,
		LockedSeatIds: availability.LockedSeatIDs,
		BookedSeatIds: availability.BookedSeatIDs,
	}

	err = app.writeJSON(w, http.StatusOK, resp, http.Header{"Cache-Control": []string{"no-store"}})
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateSeatStatusHandler(w http.ResponseWriter, r *http.Request, seatID int) {
	err := checkID(seatID, "seat")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.UpdateSeatStatusHandlerJSONRequestBody

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

	seat, err := app.bookings.SetSeatAdminStatus(r.Context(), seatID, domain.AdminStatus(input.AdminStatus))
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	app.contextGetLogger(r).Info("seat admin status changed", "seat_id", seatID, "admin_status", seat.AdminStatus)

	resp := api.Seat{
		Id:     seat.ID,
		Row:    seat.Row,
		Number: seat.Number,
		Label:  seat.Label(),
		Type:   string(seat.Type),
		Status: string(seat.AdminStatus),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toSeatMapResponse(seatMap *booking.SeatMap) api.SeatMapResponse {
	seats := make([]api.Seat, 0, len(seatMap.Seats))

	for _, seat := range seatMap.Seats {
		seats = append(seats, api.Seat{
			Id:     seat.ID,
			Row:    seat.Row,
			Number: seat.Number,
			Label:  seat.Label(),
			Type:   string(seat.Type),
			Price:  seatMap.Showtime.SeatPrice(seat.Type),
			Status: string(seatMap.Availability.StatusOf(seat)),
		})
	}

	return api.SeatMapResponse{
		ShowtimeId:    seatMap.Showtime.ID,
		RoomId:        seatMap.Showtime.RoomID,
		StartTime:     seatMap.Showtime.StartTime,
		Seats:         seats,
		LockedSeatIds: seatMap.Availability.LockedSeatIDs,
		BookedSeatIds: seatMap.Availability.BookedSeatIDs,
	}
}
