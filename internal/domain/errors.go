package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrRecordNotFound           = errors.New("record not found")
	ErrInvalidSeatSelection     = errors.New("invalid seat selection")
	ErrSeatAlreadyBooked        = errors.New("seat(s) are already booked or held by another customer")
	ErrBookingNotFound          = errors.New("booking not found")
	ErrShowtimeNotFound         = errors.New("showtime not found")
	ErrInvalidStateTransition   = errors.New("invalid booking state transition")
	ErrShowtimeNotBookable      = errors.New("showtime is no longer open for booking")
	ErrHoldExpired              = errors.New("the seat hold for this booking has expired")
	ErrTransient                = errors.New("temporary storage failure")
	ErrSeatInUse                = errors.New("seat has active holds or bookings")
	ErrPaymentDeclined          = errors.New("payment could not be verified")
	ErrUnsupportedPaymentMethod = errors.New("unsupported payment method")
)

// SeatConflictError lists every requested seat that could not be claimed.
type SeatConflictError struct {
	SeatIDs []int
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSeatAlreadyBooked, joinIDs(e.SeatIDs))
}

func (e *SeatConflictError) Is(target error) bool {
	return target == ErrSeatAlreadyBooked
}

type InvalidSeatSelectionError struct {
	Reason  string
	SeatIDs []int
}

func (e *InvalidSeatSelectionError) Error() string {
	if len(e.SeatIDs) == 0 {
		return e.Reason
	}

	return fmt.Sprintf("%s: %s", e.Reason, joinIDs(e.SeatIDs))
}

func (e *InvalidSeatSelectionError) Is(target error) bool {
	return target == ErrInvalidSeatSelection
}

type TransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move booking from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}

	return strings.Join(parts, ", ")
}
