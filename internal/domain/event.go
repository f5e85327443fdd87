package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const EventTypeBookingStatusChanged = "booking.status_changed"

// BookingStatusChanged is the single event shape emitted for every booking
// state transition, whatever triggered it.
type BookingStatusChanged struct {
	Type           string        `json:"type"`
	BookingID      uuid.UUID     `json:"booking_id"`
	ShowtimeID     int           `json:"showtime_id"`
	Status         BookingStatus `json:"status"`
	PreviousStatus BookingStatus `json:"previous_status,omitempty"`
	RequesterRef   string        `json:"requester_ref"`
	Reason         string        `json:"reason,omitempty"`
	OccurredAt     time.Time     `json:"occurred_at"`
}

func NewBookingStatusChanged(b *Booking, previous BookingStatus, at time.Time) BookingStatusChanged {
	event := BookingStatusChanged{
		Type:           EventTypeBookingStatusChanged,
		BookingID:      b.ID,
		ShowtimeID:     b.ShowtimeID,
		Status:         b.Status,
		PreviousStatus: previous,
		RequesterRef:   b.RequesterRef,
		OccurredAt:     at.UTC(),
	}

	if b.CancelReason != nil {
		event.Reason = *b.CancelReason
	}

	return event
}

// EventPublisher delivers booking events on a best-effort basis.
type EventPublisher interface {
	Publish(ctx context.Context, event BookingStatusChanged) error
}
