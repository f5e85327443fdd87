package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/metinatakli/seat-reservation-core/api"
	"github.com/metinatakli/seat-reservation-core/internal/booking"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/oapi-codegen/runtime/types"
)

func (app *Application) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.CreateBookingHandlerJSONRequestBody

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	bookingType := domain.BookingType(input.BookingType)

	if bookingType == domain.BookingTypeOffline && !isStaff(r, RoleBoxOffice) {
		logger.Warn("offline booking attempted without box office role")
		app.forbiddenResponse(w, r)
		return
	}

	if input.PayAtCounter && bookingType != domain.BookingTypeOffline {
		app.badRequestResponse(w, r, errors.New("pay_at_counter is only available for OFFLINE bookings"))
		return
	}

	in := booking.CreateBookingInput{
		ShowtimeID:   input.ShowtimeId,
		SeatIDs:      input.SeatIdList,
		RequesterRef: app.requesterRef(r),
		Type:         bookingType,
	}

	if input.UserRef != "" {
		in.UserRef = &input.UserRef
	}

	if input.PayAtCounter {
		staff, _ := contextGetStaff(r)
		evidence := toPaymentEvidence(*input.Payment, staff.Subject)
		in.CounterPayment = &evidence
	}

	b, err := app.bookings.CreateBooking(r.Context(), in)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	headers := http.Header{"Location": []string{fmt.Sprintf("/bookings/%s", b.ID)}}

	err = app.writeJSON(w, http.StatusCreated, api.BookingResponse{Booking: toApiBooking(b)}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBookingHandler(w http.ResponseWriter, r *http.Request, bookingID types.UUID) {
	b, ok := app.loadOwnedBooking(w, r, bookingID)
	if !ok {
		return
	}

	err := app.writeJSON(w, http.StatusOK, api.BookingResponse{Booking: toApiBooking(b)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ConfirmPaymentHandler is called by the payment confirmation service or a
// box-office clerk once money has been received. Evidence is verified before
// the booking is confirmed; rejected evidence cancels the booking.
func (app *Application) ConfirmPaymentHandler(w http.ResponseWriter, r *http.Request, id types.UUID) {
	logger := app.contextGetLogger(r)

	var input api.ConfirmPaymentHandlerJSONRequestBody

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	staff, _ := contextGetStaff(r)
	evidence := toPaymentEvidence(input, staff.Subject)

	current, err := app.bookings.GetBooking(r.Context(), id)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	if current.Status == domain.BookingStatusPending {
		err = app.payments.Verify(r.Context(), current, evidence)
		if errors.Is(err, domain.ErrPaymentDeclined) {
			logger.Warn("payment declined, canceling booking", "booking_id", id, "payment_method", evidence.Method, "error", err)

			_, cancelErr := app.bookings.CancelBooking(r.Context(), id, domain.CancelReasonPaymentFailed)
			if cancelErr != nil && !errors.Is(cancelErr, domain.ErrInvalidStateTransition) {
				logger.Error("failed to cancel booking after declined payment", "booking_id", id, "error", cancelErr)
			}
		}

		if err != nil {
			app.bookingErrorResponse(w, r, err)
			return
		}
	}

	b, err := app.bookings.ConfirmPayment(r.Context(), id, evidence)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.BookingResponse{Booking: toApiBooking(b)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CancelBookingHandler(w http.ResponseWriter, r *http.Request, bookingID types.UUID) {
	var input api.CancelBookingHandlerJSONRequestBody

	err := app.readOptionalJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	current, ok := app.loadOwnedBooking(w, r, bookingID)
	if !ok {
		return
	}

	b, err := app.bookings.CancelBooking(r.Context(), current.ID, input.Reason)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.BookingResponse{Booking: toApiBooking(b)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CompleteBookingHandler(w http.ResponseWriter, r *http.Request, id types.UUID) {
	b, err := app.bookings.MarkCompleted(r.Context(), id)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, api.BookingResponse{Booking: toApiBooking(b)}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ListShowtimeBookingsHandler(
	w http.ResponseWriter,
	r *http.Request,
	showtimeID int,
	params api.ListShowtimeBookingsHandlerParams) {

	err := checkID(showtimeID, "showtime")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	bookings, metadata, err := app.bookings.ListBookings(r.Context(), showtimeID, toPagination(params))
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	resp := api.BookingListResponse{
		Bookings: make([]api.Booking, 0, len(bookings)),
		Metadata: toApiMetadata(metadata),
	}

	for i := range bookings {
		resp.Bookings = append(resp.Bookings, toApiBooking(&bookings[i]))
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// loadOwnedBooking fetches the booking named in the URL. Customers only see
// their own bookings; anyone else gets a 404.
func (app *Application) loadOwnedBooking(w http.ResponseWriter, r *http.Request, id types.UUID) (*domain.Booking, bool) {
	b, err := app.bookings.GetBooking(r.Context(), id)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return nil, false
	}

	if !isStaff(r, RoleBoxOffice, RolePaymentService) && b.RequesterRef != app.requesterRef(r) {
		app.contextGetLogger(r).Warn("booking accessed by another requester", "booking_id", id)
		app.notFoundResponse(w, r)
		return nil, false
	}

	return b, true
}

func toPagination(params api.ListShowtimeBookingsHandlerParams) domain.Pagination {
	var page, pageSize int

	if params.Page != nil {
		page = *params.Page
	}
	if params.PageSize != nil {
		pageSize = *params.PageSize
	}

	return domain.NewPagination(page, pageSize)
}

func toPaymentEvidence(input api.PaymentEvidenceRequest, verifiedBy string) domain.PaymentEvidence {
	return domain.PaymentEvidence{
		Method:     domain.PaymentMethod(input.Method),
		Reference:  input.Reference,
		Amount:     input.Amount,
		VerifiedBy: verifiedBy,
	}
}

func toApiBooking(b *domain.Booking) api.Booking {
	resp := api.Booking{
		Id:            b.ID,
		ShowtimeId:    b.ShowtimeID,
		SeatIds:       b.SeatIDs,
		Status:        string(b.Status),
		BookingType:   string(b.Type),
		TotalAmount:   b.TotalAmount,
		HoldExpiresAt: b.HoldExpiresAt,
		PaymentRef:    b.PaymentRef,
		CancelReason:  b.CancelReason,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}

	if b.PaymentMethod != nil {
		method := string(*b.PaymentMethod)
		resp.PaymentMethod = &method
	}

	return resp
}

func toApiMetadata(metadata *domain.Metadata) *api.Metadata {
	if metadata == nil {
		return nil
	}

	return &api.Metadata{
		CurrentPage:  metadata.CurrentPage,
		FirstPage:    metadata.FirstPage,
		LastPage:     metadata.LastPage,
		PageSize:     metadata.PageSize,
		TotalRecords: metadata.TotalRecords,
	}
}
