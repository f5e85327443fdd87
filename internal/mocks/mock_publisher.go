package mocks

import (
	"context"

	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.BookingStatusChanged) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockPaymentVerifier struct {
	mock.Mock
}

func (m *MockPaymentVerifier) Verify(ctx context.Context, booking *domain.Booking, evidence domain.PaymentEvidence) error {
	args := m.Called(ctx, booking, evidence)
	return args.Error(0)
}
