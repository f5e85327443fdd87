package payment

import (
	"context"

	"github.com/metinatakli/seat-reservation-core/internal/domain"
)

// StaticVerifier answers every verification with the same result. It stands
// in for card processing in local environments without a Stripe key.
type StaticVerifier struct {
	err error
}

func NewStaticVerifier(err error) *StaticVerifier {
	return &StaticVerifier{err: err}
}

func (v *StaticVerifier) Verify(context.Context, *domain.Booking, domain.PaymentEvidence) error {
	return v.err
}
