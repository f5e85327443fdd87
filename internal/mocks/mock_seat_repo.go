package mocks

import (
	"context"

	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockSeatRepo struct {
	mock.Mock
	domain.SeatRepository
}

func (m *MockSeatRepo) GetShowtime(ctx context.Context, showtimeID int) (*domain.Showtime, error) {
	args := m.Called(ctx, showtimeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Showtime), args.Error(1)
}

func (m *MockSeatRepo) GetSeatsForRoom(ctx context.Context, roomID int) ([]domain.Seat, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockSeatRepo) GetSeat(ctx context.Context, seatID int) (*domain.Seat, error) {
	args := m.Called(ctx, seatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Seat), args.Error(1)
}

func (m *MockSeatRepo) UpdateAdminStatus(ctx context.Context, seatID int, status domain.AdminStatus) error {
	args := m.Called(ctx, seatID, status)
	return args.Error(0)
}
