package domain

import "context"

// PaymentVerifier checks the evidence a payment collaborator supplies before a
// booking is confirmed. A rejected payment returns ErrPaymentDeclined.
type PaymentVerifier interface {
	Verify(ctx context.Context, booking *Booking, evidence PaymentEvidence) error
}
