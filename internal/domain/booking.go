package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCanceled  BookingStatus = "CANCELED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCanceled},
	BookingStatusConfirmed: {BookingStatusCompleted},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// HoldsSeats reports whether a booking in this status keeps its seats out of sale.
func (s BookingStatus) HoldsSeats() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed || s == BookingStatusCompleted
}

type BookingType string

const (
	BookingTypeOnline  BookingType = "ONLINE"
	BookingTypeOffline BookingType = "OFFLINE"
)

const (
	CancelReasonRequested     = "requested"
	CancelReasonHoldExpired   = "hold_expired"
	CancelReasonPaymentFailed = "payment_failed"
)

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodCrypto   PaymentMethod = "crypto"
)

type PaymentEvidence struct {
	Method    PaymentMethod
	Reference string
	Amount    *decimal.Decimal
	// VerifiedBy is the staff member or service that vouched for the payment.
	VerifiedBy string
}

type Booking struct {
	ID            uuid.UUID
	UserRef       *string
	RequesterRef  string
	ShowtimeID    int
	SeatIDs       []int
	Status        BookingStatus
	Type          BookingType
	TotalAmount   decimal.Decimal
	HoldExpiresAt *time.Time
	PaymentMethod *PaymentMethod
	PaymentRef    *string
	CancelReason  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (b *Booking) HoldExpired(now time.Time) bool {
	return b.Status == BookingStatusPending && b.HoldExpiresAt != nil && !now.Before(*b.HoldExpiresAt)
}

// BookingUpdate is the outcome a TransitionFunc decides for a locked booking row.
// Returning the current status leaves the row untouched.
type BookingUpdate struct {
	Status        BookingStatus
	CancelReason  string
	PaymentMethod PaymentMethod
	PaymentRef    string
}

// TransitionFunc runs while the booking row is locked. now is the store's clock.
type TransitionFunc func(current Booking, now time.Time) (BookingUpdate, error)

type BookingRepository interface {
	// Create locks the requested seats on behalf of the booking and persists it,
	// all in one transaction. A booking created as CONFIRMED has its locks
	// promoted before commit. A PENDING booking gets HoldExpiresAt set from the
	// store's clock, lock.TTL after the claim.
	Create(ctx context.Context, booking *Booking, lock LockRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	Transition(ctx context.Context, id uuid.UUID, fn TransitionFunc) (before, after *Booking, err error)
	ExpirePending(ctx context.Context, showtimeID *int, limit int) ([]Booking, error)
	GetBookedSeatIDs(ctx context.Context, showtimeID int) ([]int, error)
	ListByShowtime(ctx context.Context, showtimeID int, pagination Pagination) ([]Booking, *Metadata, error)
}
