package mocks

import (
	"context"
	"time"

	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockAvailabilityCache struct {
	mock.Mock
}

func (m *MockAvailabilityCache) Get(ctx context.Context, showtimeID int) (*domain.Availability, error) {
	args := m.Called(ctx, showtimeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Availability), args.Error(1)
}

func (m *MockAvailabilityCache) Set(ctx context.Context, availability *domain.Availability, ttl time.Duration) error {
	args := m.Called(ctx, availability, ttl)
	return args.Error(0)
}

func (m *MockAvailabilityCache) Invalidate(ctx context.Context, showtimeID int) error {
	args := m.Called(ctx, showtimeID)
	return args.Error(0)
}
