// Package notify delivers booking status events to the durable event stream,
// to other API instances and to connected clients.
package notify

import (
	"context"
	"errors"

	"github.com/metinatakli/seat-reservation-core/internal/domain"
)

// MultiPublisher forwards every event to all of its publishers. A failing
// publisher does not stop delivery to the rest.
type MultiPublisher []domain.EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, event domain.BookingStatusChanged) error {
	var errs []error

	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
