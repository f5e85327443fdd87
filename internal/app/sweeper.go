package app

import (
	"context"

	"github.com/go-co-op/gocron/v2"
)

// startSweeper schedules the expired hold sweep. Singleton mode keeps a slow
// run from overlapping the next one on this instance; concurrent runs on other
// instances skip each other's rows in the store.
func (app *Application) startSweeper() (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(app.config.Booking.SweepInterval),
		gocron.NewTask(app.sweepExpiredHolds),
		gocron.WithName("expired-hold-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		scheduler.Shutdown()
		return nil, err
	}

	scheduler.Start()

	return scheduler, nil
}

func (app *Application) sweepExpiredHolds() {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.Booking.SweepInterval)
	defer cancel()

	result, err := app.bookings.SweepExpired(ctx)
	if err != nil {
		app.logger.Error("expired hold sweep failed", "error", err)
		return
	}

	if result.ExpiredBookings > 0 || result.ReleasedLocks > 0 {
		app.logger.Info("expired holds swept",
			"expired_bookings", result.ExpiredBookings,
			"released_locks", result.ReleasedLocks)
	}
}
