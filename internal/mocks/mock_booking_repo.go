package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepo struct {
	mock.Mock
	domain.BookingRepository
}

func (m *MockBookingRepo) Create(ctx context.Context, booking *domain.Booking, lock domain.LockRequest) error {
	args := m.Called(ctx, booking, lock)
	return args.Error(0)
}

func (m *MockBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

// Transition hands the stored booking to fn like the real repository does. The
// first return value is the booking as it is before the update; the mocked
// store clock is the second.
func (m *MockBookingRepo) Transition(
	ctx context.Context,
	id uuid.UUID,
	fn domain.TransitionFunc) (*domain.Booking, *domain.Booking, error) {

	args := m.Called(ctx, id, fn)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}

	current := *args.Get(0).(*domain.Booking)
	now := args.Get(1).(StoreClock)

	update, err := fn(current, now())
	if err != nil {
		return nil, nil, err
	}

	if err := args.Error(2); err != nil {
		return nil, nil, err
	}

	after := current
	if update.Status != current.Status {
		if !current.Status.CanTransitionTo(update.Status) {
			return nil, nil, &domain.TransitionError{From: current.Status, To: update.Status}
		}

		after.Status = update.Status
		if update.CancelReason != "" {
			after.CancelReason = &update.CancelReason
		}
		if update.PaymentMethod != "" {
			method := update.PaymentMethod
			after.PaymentMethod = &method
		}
		if update.PaymentRef != "" {
			after.PaymentRef = &update.PaymentRef
		}
	}

	return &current, &after, nil
}

func (m *MockBookingRepo) ExpirePending(ctx context.Context, showtimeID *int, limit int) ([]domain.Booking, error) {
	args := m.Called(ctx, showtimeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) GetBookedSeatIDs(ctx context.Context, showtimeID int) ([]int, error) {
	args := m.Called(ctx, showtimeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockBookingRepo) ListByShowtime(
	ctx context.Context,
	showtimeID int,
	pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {

	args := m.Called(ctx, showtimeID, pagination)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.Booking), args.Get(1).(*domain.Metadata), args.Error(2)
}
