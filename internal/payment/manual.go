package payment

import (
	"context"
	"fmt"

	"github.com/metinatakli/seat-reservation-core/internal/domain"
)

// ManualVerifier accepts payments a staff member or payment service vouches
// for, such as cash at the counter or a bank transfer matched by hand.
type ManualVerifier struct {
	requireReference bool
}

func NewManualVerifier(requireReference bool) *ManualVerifier {
	return &ManualVerifier{requireReference: requireReference}
}

func (v *ManualVerifier) Verify(_ context.Context, booking *domain.Booking, evidence domain.PaymentEvidence) error {
	if evidence.VerifiedBy == "" {
		return fmt.Errorf("%w: %s payment was not acknowledged by staff", domain.ErrPaymentDeclined, evidence.Method)
	}

	if v.requireReference && evidence.Reference == "" {
		return fmt.Errorf("%w: %s payment needs a reference", domain.ErrPaymentDeclined, evidence.Method)
	}

	return checkAmount(booking, evidence)
}
