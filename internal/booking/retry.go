package booking

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v5"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
)

// retry runs op again when the store reports a transient failure, up to the
// configured number of attempts. Any other error ends the loop immediately so
// contention is never retried into a different answer.
func retry[T any](ctx context.Context, s *Service, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryBaseDelay
	b.MaxInterval = 20 * s.retryBaseDelay

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !errors.Is(err, domain.ErrTransient) {
			return v, backoff.Permanent(err)
		}

		if err != nil {
			s.logger.Warn("transient store failure, retrying", "error", err)
		}

		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(max(s.retryAttempts, 1)))
}
