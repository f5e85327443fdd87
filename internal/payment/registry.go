// Package payment verifies the evidence a payment collaborator submits before a
// booking is confirmed.
package payment

import (
	"context"
	"fmt"

	"github.com/metinatakli/seat-reservation-core/internal/domain"
)

// Registry dispatches verification to the verifier registered for the
// evidence's payment method.
type Registry struct {
	verifiers map[domain.PaymentMethod]domain.PaymentVerifier
}

func NewRegistry() *Registry {
	return &Registry{verifiers: make(map[domain.PaymentMethod]domain.PaymentVerifier)}
}

func (r *Registry) Register(method domain.PaymentMethod, verifier domain.PaymentVerifier) *Registry {
	r.verifiers[method] = verifier
	return r
}

func (r *Registry) Verify(ctx context.Context, booking *domain.Booking, evidence domain.PaymentEvidence) error {
	verifier, ok := r.verifiers[evidence.Method]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedPaymentMethod, evidence.Method)
	}

	return verifier.Verify(ctx, booking, evidence)
}

func checkAmount(booking *domain.Booking, evidence domain.PaymentEvidence) error {
	if evidence.Amount == nil || evidence.Amount.Equal(booking.TotalAmount) {
		return nil
	}

	return fmt.Errorf("%w: paid %s, booking total is %s",
		domain.ErrPaymentDeclined, evidence.Amount.StringFixed(2), booking.TotalAmount.StringFixed(2))
}
