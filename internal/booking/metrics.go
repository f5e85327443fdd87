package booking

import (
	"context"

	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/metinatakli/seat-reservation-core/internal/booking"

type metrics struct {
	transitions metric.Int64Counter
	conflicts   metric.Int64Counter
}

// newMetrics uses the global meter provider, which is a no-op until telemetry
// is initialized.
func newMetrics() *metrics {
	meter := otel.Meter(instrumentationName)

	transitions, _ := meter.Int64Counter(
		"booking.transitions",
		metric.WithDescription("Booking state transitions by resulting status"),
	)

	conflicts, _ := meter.Int64Counter(
		"booking.lock_conflicts",
		metric.WithDescription("Seats rejected because another holder or booking owns them"),
		metric.WithUnit("{seat}"),
	)

	return &metrics{
		transitions: transitions,
		conflicts:   conflicts,
	}
}

func (m *metrics) recordTransition(ctx context.Context, status domain.BookingStatus) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
}

func (m *metrics) recordConflict(ctx context.Context, seats int) {
	m.conflicts.Add(ctx, int64(seats))
}
