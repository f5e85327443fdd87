package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation-core/internal/booking"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/stretchr/testify/suite"
)

type ExpiryTestSuite struct {
	BaseSuite
}

func TestExpirySuite(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}

	suite.Run(t, new(ExpiryTestSuite))
}

func (s *ExpiryTestSuite) createPending(requester string, seats ...int) *domain.Booking {
	b, err := s.app.Bookings.CreateBooking(context.Background(), booking.CreateBookingInput{
		ShowtimeID:   1,
		SeatIDs:      seats,
		RequesterRef: requester,
		Type:         domain.BookingTypeOnline,
	})
	s.Require().NoError(err)

	return b
}

// expireHold moves a booking's hold and its locks into the past.
func (s *ExpiryTestSuite) expireHold(id uuid.UUID) {
	executeSQL(s.T(), s.app.DB,
		`UPDATE bookings SET hold_expires_at = NOW() - INTERVAL '1 minute' WHERE id = $1`, id)
	executeSQL(s.T(), s.app.DB,
		`UPDATE seat_locks SET expires_at = NOW() - INTERVAL '1 minute' WHERE booking_id = $1`, id)
}

func (s *ExpiryTestSuite) TestExpiredHoldIsReclaimedOnNextClaim() {
	ctx := context.Background()

	stale := s.createPending("guest:slow", 1, 2)
	s.expireHold(stale.ID)

	fresh := s.createPending("guest:fast", 2, 3)
	s.Equal(domain.BookingStatusPending, fresh.Status)

	reloaded, err := s.app.Bookings.GetBooking(ctx, stale.ID)
	s.Require().NoError(err)
	s.Equal(domain.BookingStatusCanceled, reloaded.Status)
	s.Require().NotNil(reloaded.CancelReason)
	s.Equal(domain.CancelReasonHoldExpired, *reloaded.CancelReason)
}

func (s *ExpiryTestSuite) TestLateConfirmationCancelsTheBooking() {
	ctx := context.Background()

	b := s.createPending("guest:late", 4)
	s.expireHold(b.ID)

	evidence := domain.PaymentEvidence{Method: domain.PaymentMethodTransfer, Reference: "TRX-9", VerifiedBy: "payments"}

	canceled, err := s.app.Bookings.ConfirmPayment(ctx, b.ID, evidence)
	s.Require().Error(err)
	s.ErrorIs(err, domain.ErrHoldExpired)
	s.ErrorIs(err, domain.ErrInvalidStateTransition)
	s.Require().NotNil(canceled)
	s.Equal(domain.BookingStatusCanceled, canceled.Status)

	_, err = s.app.Bookings.ConfirmPayment(ctx, b.ID, evidence)
	s.ErrorIs(err, domain.ErrInvalidStateTransition)

	availability, err := s.app.Bookings.GetAvailability(ctx, 1)
	s.Require().NoError(err)
	s.NotContains(availability.BookedSeatIDs, 4)
	s.NotContains(availability.LockedSeatIDs, 4)
}

func (s *ExpiryTestSuite) TestSweepExpiresInBatches() {
	ctx := context.Background()

	// Every claim expires stale holds of its showtime first, so all claims are
	// made before anything is backdated.
	var stale []uuid.UUID
	for _, seat := range []int{1, 2, 3} {
		stale = append(stale, s.createPending("guest:sweep", seat).ID)
	}

	live := s.createPending("guest:live", 5)

	_, err := s.app.Bookings.AcquireLocks(ctx, 1, []int{8}, "guest:browsing")
	s.Require().NoError(err)

	for _, id := range stale {
		s.expireHold(id)
	}
	executeSQL(s.T(), s.app.DB, `UPDATE seat_locks SET expires_at = NOW() - INTERVAL '1 second' WHERE seat_id = 8`)

	result, err := s.app.Bookings.SweepExpired(ctx)
	s.Require().NoError(err)
	s.Equal(3, result.ExpiredBookings)
	s.GreaterOrEqual(result.ReleasedLocks, 1)

	var pending, locks int
	s.Require().NoError(s.app.DB.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE status = 'PENDING'`).Scan(&pending))
	s.Require().NoError(s.app.DB.QueryRow(ctx, `SELECT COUNT(*) FROM seat_locks`).Scan(&locks))
	s.Equal(1, pending)
	s.Equal(1, locks, "only the live booking's lock remains")

	reloaded, err := s.app.Bookings.GetBooking(ctx, live.ID)
	s.Require().NoError(err)
	s.Equal(domain.BookingStatusPending, reloaded.Status)

	again, err := s.app.Bookings.SweepExpired(ctx)
	s.Require().NoError(err)
	s.Zero(again.ExpiredBookings)
}

func (s *ExpiryTestSuite) TestExpiredLocksDisappearFromAvailability() {
	ctx := context.Background()

	_, err := s.app.Bookings.AcquireLocks(ctx, 1, []int{9, 10}, "guest:poll")
	s.Require().NoError(err)

	availability, err := s.app.Bookings.GetAvailability(ctx, 1)
	s.Require().NoError(err)
	s.ElementsMatch([]int{9, 10}, availability.LockedSeatIDs)
	s.Require().NotNil(availability.NextExpiry)

	executeSQL(s.T(), s.app.DB, `UPDATE seat_locks SET expires_at = NOW() + INTERVAL '1 second' WHERE seat_id = 10`)
	s.app.Redis.FlushAll(ctx)

	s.Eventually(func() bool {
		a, err := s.app.Bookings.GetAvailability(ctx, 1)
		return err == nil && len(a.LockedSeatIDs) == 1 && a.LockedSeatIDs[0] == 9
	}, 5*time.Second, 100*time.Millisecond, "a lock past its expiry is no longer reported")
}

func (s *ExpiryTestSuite) TestRelockingRenewsTheHold() {
	ctx := context.Background()

	executeSQL(s.T(), s.app.DB, `INSERT INTO seat_locks (showtime_id, seat_id, holder_ref, expires_at)
		VALUES (1, 6, 'guest:renew', NOW() + INTERVAL '30 seconds')`)

	grant, err := s.app.Bookings.AcquireLocks(ctx, 1, []int{6}, "guest:renew")
	s.Require().NoError(err)
	s.True(grant.ExpiresAt.After(time.Now().Add(5*time.Minute)))

	_, err = s.app.Bookings.AcquireLocks(ctx, 1, []int{6}, "guest:other")
	s.ErrorIs(err, domain.ErrSeatAlreadyBooked)
}

func (s *ExpiryTestSuite) TestHoldExpiryMatchesLockExpiry() {
	ctx := context.Background()

	b := s.createPending("guest:clock", 8, 9)
	s.Require().NotNil(b.HoldExpiresAt)

	var (
		stored    time.Time
		lockTimes []time.Time
	)
	err := s.app.DB.QueryRow(ctx, `
		SELECT b.hold_expires_at, array_agg(l.expires_at)
		FROM bookings b
		JOIN seat_locks l ON l.booking_id = b.id
		WHERE b.id = $1
		GROUP BY b.hold_expires_at`, b.ID).Scan(&stored, &lockTimes)
	s.Require().NoError(err)

	s.True(b.HoldExpiresAt.Equal(stored), "returned %s, stored %s", b.HoldExpiresAt, stored)
	s.Require().Len(lockTimes, 2)
	for _, expiresAt := range lockTimes {
		s.True(expiresAt.Equal(stored), "lock expires %s, hold expires %s", expiresAt, stored)
	}
}
