package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// BookingIDMetadataKey is the PaymentIntent metadata entry that ties a card
// payment to the booking it pays for.
const BookingIDMetadataKey = "booking_id"

type intentGetter func(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)

// StripeVerifier checks card payments against the PaymentIntent named in the
// evidence reference.
type StripeVerifier struct {
	getIntent intentGetter
}

func NewStripeVerifier() *StripeVerifier {
	return &StripeVerifier{getIntent: paymentintent.Get}
}

func (v *StripeVerifier) Verify(ctx context.Context, booking *domain.Booking, evidence domain.PaymentEvidence) error {
	if evidence.Reference == "" {
		return fmt.Errorf("%w: card payment needs a payment intent id", domain.ErrPaymentDeclined)
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := v.getIntent(evidence.Reference, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: payment intent %s not found", domain.ErrPaymentDeclined, evidence.Reference)
		}

		return fmt.Errorf("fetching payment intent %s: %w", evidence.Reference, err)
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("%w: payment intent %s is %s", domain.ErrPaymentDeclined, intent.ID, intent.Status)
	}

	if ref := intent.Metadata[BookingIDMetadataKey]; ref != booking.ID.String() {
		return fmt.Errorf("%w: payment intent %s belongs to booking %q", domain.ErrPaymentDeclined, intent.ID, ref)
	}

	paid := decimal.New(intent.AmountReceived, -2)
	if !paid.Equal(booking.TotalAmount) {
		return fmt.Errorf("%w: paid %s, booking total is %s",
			domain.ErrPaymentDeclined, paid.StringFixed(2), booking.TotalAmount.StringFixed(2))
	}

	return nil
}
