package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SeatLock struct {
	ShowtimeID int
	SeatID     int
	HolderRef  string
	BookingID  *uuid.UUID
	AcquiredAt time.Time
	ExpiresAt  time.Time
}

func (l SeatLock) Live(now time.Time) bool {
	return now.Before(l.ExpiresAt)
}

type LockRequest struct {
	ShowtimeID int
	SeatIDs    []int
	HolderRef  string
	TTL        time.Duration

	// TransferFrom names a holder whose live locks may be taken over by HolderRef,
	// e.g. a browsing session handing its selected seats to the booking it creates.
	TransferFrom string
}

type SeatLockRepository interface {
	// AcquireLocks grants or renews locks on every requested seat, or on none of
	// them. A failed request returns a *SeatConflictError naming each seat that
	// is held by another holder or already booked.
	AcquireLocks(ctx context.Context, req LockRequest) ([]SeatLock, error)
	ReleaseLocks(ctx context.Context, showtimeID int, seatIDs []int, holderRef string) (int, error)
	GetLiveLocks(ctx context.Context, showtimeID int) ([]SeatLock, error)
	DeleteExpiredLocks(ctx context.Context) (int, error)
}
