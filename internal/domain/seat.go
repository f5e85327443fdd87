package domain

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type SeatType string

const (
	SeatTypeRegular SeatType = "REGULAR"
	SeatTypeVIP     SeatType = "VIP"
	SeatTypeCouple  SeatType = "COUPLE"
)

var seatTypeMultipliers = map[SeatType]decimal.Decimal{
	SeatTypeRegular: decimal.NewFromInt(1),
	SeatTypeVIP:     decimal.RequireFromString("1.5"),
	SeatTypeCouple:  decimal.NewFromInt(2),
}

// Multiplier returns the fixed price factor applied to a showtime's base price.
// Unknown seat types are priced like regular seats.
func (t SeatType) Multiplier() decimal.Decimal {
	m, ok := seatTypeMultipliers[t]
	if !ok {
		return seatTypeMultipliers[SeatTypeRegular]
	}

	return m
}

type AdminStatus string

const (
	AdminStatusAvailable   AdminStatus = "AVAILABLE"
	AdminStatusMaintenance AdminStatus = "MAINTENANCE"
	AdminStatusBlocked     AdminStatus = "BLOCKED"
)

func (s AdminStatus) Valid() bool {
	switch s {
	case AdminStatusAvailable, AdminStatusMaintenance, AdminStatusBlocked:
		return true
	}

	return false
}

type Seat struct {
	ID          int
	RoomID      int
	Row         string
	Number      int
	Type        SeatType
	AdminStatus AdminStatus
}

// Label renders the seat the way it is printed on tickets, e.g. "A7".
func (s Seat) Label() string {
	return s.Row + strconv.Itoa(s.Number)
}

type Showtime struct {
	ID        int
	RoomID    int
	StartTime time.Time
	EndTime   time.Time
	BasePrice decimal.Decimal
}

// Bookable reports whether seats may still be claimed for the showtime.
func (s Showtime) Bookable(now time.Time) bool {
	return now.Before(s.StartTime)
}

// SeatPrice is the price of a single seat of the given type for this showtime.
func (s Showtime) SeatPrice(t SeatType) decimal.Decimal {
	return s.BasePrice.Mul(t.Multiplier()).Round(2)
}

type SeatRepository interface {
	GetShowtime(ctx context.Context, showtimeID int) (*Showtime, error)
	GetSeatsForRoom(ctx context.Context, roomID int) ([]Seat, error)
	GetSeat(ctx context.Context, seatID int) (*Seat, error)
	UpdateAdminStatus(ctx context.Context, seatID int, status AdminStatus) error
}
