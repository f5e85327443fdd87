package domain

import (
	"context"
	"time"
)

type SeatStatus string

const (
	SeatStatusAvailable   SeatStatus = "AVAILABLE"
	SeatStatusLocked      SeatStatus = "LOCKED"
	SeatStatusBooked      SeatStatus = "BOOKED"
	SeatStatusMaintenance SeatStatus = "MAINTENANCE"
	SeatStatusBlocked     SeatStatus = "BLOCKED"
)

// Availability is the per-showtime snapshot clients poll to render a seat map.
type Availability struct {
	ShowtimeID    int        `json:"showtime_id"`
	LockedSeatIDs []int      `json:"locked_seat_ids"`
	BookedSeatIDs []int      `json:"booked_seat_ids"`
	NextExpiry    *time.Time `json:"next_expiry,omitempty"`
}

func NewAvailability(showtimeID int, locks []SeatLock, bookedSeatIDs []int) *Availability {
	a := &Availability{
		ShowtimeID:    showtimeID,
		LockedSeatIDs: make([]int, 0, len(locks)),
		BookedSeatIDs: make([]int, 0, len(bookedSeatIDs)),
	}

	booked := make(map[int]struct{}, len(bookedSeatIDs))
	for _, id := range bookedSeatIDs {
		booked[id] = struct{}{}
		a.BookedSeatIDs = append(a.BookedSeatIDs, id)
	}

	for _, l := range locks {
		if _, ok := booked[l.SeatID]; ok {
			continue
		}

		a.LockedSeatIDs = append(a.LockedSeatIDs, l.SeatID)

		if a.NextExpiry == nil || l.ExpiresAt.Before(*a.NextExpiry) {
			expiresAt := l.ExpiresAt
			a.NextExpiry = &expiresAt
		}
	}

	return a
}

// StatusOf derives the effective status of a seat: booked wins over locked,
// locked wins over the administrative status.
func (a *Availability) StatusOf(seat Seat) SeatStatus {
	for _, id := range a.BookedSeatIDs {
		if id == seat.ID {
			return SeatStatusBooked
		}
	}

	for _, id := range a.LockedSeatIDs {
		if id == seat.ID {
			return SeatStatusLocked
		}
	}

	switch seat.AdminStatus {
	case AdminStatusMaintenance:
		return SeatStatusMaintenance
	case AdminStatusBlocked:
		return SeatStatusBlocked
	}

	return SeatStatusAvailable
}

type AvailabilityCache interface {
	Get(ctx context.Context, showtimeID int) (*Availability, error)
	Set(ctx context.Context, availability *Availability, ttl time.Duration) error
	Invalidate(ctx context.Context, showtimeID int) error
}
