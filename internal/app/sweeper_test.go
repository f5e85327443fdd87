package app

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation-core/internal/booking"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/metinatakli/seat-reservation-core/internal/mocks"
	"github.com/stretchr/testify/mock"
)

func TestSweepExpiredHolds(t *testing.T) {
	bookingRepo := new(mocks.MockBookingRepo)
	lockRepo := new(mocks.MockSeatLockRepo)
	publisher := new(mocks.MockEventPublisher)

	app := newTestApplication(func(a *Application) {
		a.bookingRepo = bookingRepo
		a.lockRepo = lockRepo
		a.publishers = append(a.publishers, publisher)
		a.config.Booking.SweepInterval = time.Second
	})

	expired := domain.Booking{
		ID:           uuid.New(),
		ShowtimeID:   1,
		RequesterRef: "guest:someone",
		Status:       domain.BookingStatusCanceled,
		CancelReason: ptr(domain.CancelReasonHoldExpired),
	}

	bookingRepo.On("ExpirePending", mock.Anything, (*int)(nil), booking.DefaultSweepBatchSize).
		Return([]domain.Booking{expired}, nil)
	lockRepo.On("DeleteExpiredLocks", mock.Anything).Return(3, nil)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.BookingStatusChanged) bool {
		return e.BookingID == expired.ID &&
			e.PreviousStatus == domain.BookingStatusPending &&
			e.Reason == domain.CancelReasonHoldExpired
	})).Return(nil)

	app.sweepExpiredHolds()

	bookingRepo.AssertExpectations(t)
	lockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestStartSweeperRejectsInvalidInterval(t *testing.T) {
	app := newTestApplication()

	_, err := app.startSweeper()
	if err == nil {
		t.Fatal("expected an error for a zero sweep interval")
	}
}
