package integration_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/metinatakli/seat-reservation-core/internal/booking"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/stretchr/testify/suite"
)

type ConcurrencyTestSuite struct {
	BaseSuite
}

func TestConcurrencySuite(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}

	suite.Run(t, new(ConcurrencyTestSuite))
}

type attempt struct {
	seats   []int
	booking *domain.Booking
	err     error
}

func (s *ConcurrencyTestSuite) race(requests [][]int) []attempt {
	results := make([]attempt, len(requests))

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
	)

	for i, seats := range requests {
		wg.Add(1)

		go func() {
			defer wg.Done()
			<-start

			b, err := s.app.Bookings.CreateBooking(context.Background(), booking.CreateBookingInput{
				ShowtimeID:   1,
				SeatIDs:      seats,
				RequesterRef: fmt.Sprintf("guest:racer-%d", i),
				Type:         domain.BookingTypeOnline,
			})

			results[i] = attempt{seats: seats, booking: b, err: err}
		}()
	}

	close(start)
	wg.Wait()

	return results
}

func (s *ConcurrencyTestSuite) TestExactlyOneWinnerForTheSameSeats() {
	requests := make([][]int, 20)
	for i := range requests {
		requests[i] = []int{3, 4}
	}

	var winners int

	for _, r := range s.race(requests) {
		switch {
		case r.err == nil:
			winners++
		default:
			var conflict *domain.SeatConflictError
			s.Require().True(errors.As(r.err, &conflict), "unexpected error: %v", r.err)
			s.ElementsMatch([]int{3, 4}, conflict.SeatIDs)
		}
	}

	s.Equal(1, winners)

	var locks int
	s.Require().NoError(s.app.DB.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM seat_locks WHERE showtime_id = 1 AND seat_id IN (3, 4)`).Scan(&locks))
	s.Equal(2, locks)
}

func (s *ConcurrencyTestSuite) TestOverlappingRequestsNeverShareSeats() {
	open := []int{1, 2, 3, 4, 5, 6, 8, 9, 10}

	for round := range 5 {
		s.Run(fmt.Sprintf("round %d", round), func() {
			resetState(s.T(), s.app)

			rng := rand.New(rand.NewPCG(uint64(round), 42))

			requests := make([][]int, 30)
			for i := range requests {
				perm := rng.Perm(len(open))
				n := 1 + rng.IntN(3)

				seats := make([]int, 0, n)
				for _, p := range perm[:n] {
					seats = append(seats, open[p])
				}

				requests[i] = seats
			}

			owner := make(map[int]string)
			attempts := s.race(requests)

			for _, r := range attempts {
				if r.err != nil {
					continue
				}

				for _, seat := range r.booking.SeatIDs {
					prev, taken := owner[seat]
					s.Require().False(taken, "seat %d granted to %s and %s", seat, prev, r.booking.ID)
					owner[seat] = r.booking.ID.String()
				}
			}

			// A loser is told exactly which of its seats went to someone else.
			for _, r := range attempts {
				if r.err == nil {
					continue
				}

				var conflict *domain.SeatConflictError
				s.Require().True(errors.As(r.err, &conflict), "unexpected error: %v", r.err)
				s.Require().NotEmpty(conflict.SeatIDs)

				for _, seat := range conflict.SeatIDs {
					s.Contains(r.seats, seat)
					s.Contains(owner, seat, "seat %d reported as conflicting but nobody holds it", seat)
				}
			}

			booked, err := s.app.Bookings.GetAvailability(context.Background(), 1)
			s.Require().NoError(err)

			var locked []int
			for seat := range owner {
				locked = append(locked, seat)
			}

			s.ElementsMatch(locked, booked.LockedSeatIDs)
		})
	}
}
