package mocks

import (
	"context"

	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockSeatLockRepo struct {
	mock.Mock
	domain.SeatLockRepository
}

func (m *MockSeatLockRepo) AcquireLocks(ctx context.Context, req domain.LockRequest) ([]domain.SeatLock, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatLock), args.Error(1)
}

func (m *MockSeatLockRepo) ReleaseLocks(ctx context.Context, showtimeID int, seatIDs []int, holderRef string) (int, error) {
	args := m.Called(ctx, showtimeID, seatIDs, holderRef)
	return args.Int(0), args.Error(1)
}

func (m *MockSeatLockRepo) GetLiveLocks(ctx context.Context, showtimeID int) ([]domain.SeatLock, error) {
	args := m.Called(ctx, showtimeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeatLock), args.Error(1)
}

func (m *MockSeatLockRepo) DeleteExpiredLocks(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
