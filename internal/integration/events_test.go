package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/metinatakli/seat-reservation-core/api"
	"github.com/metinatakli/seat-reservation-core/internal/app"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/metinatakli/seat-reservation-core/internal/notify"
)

func (s *BookingFlowTestSuite) listenForEvents(ctx context.Context) <-chan domain.BookingStatusChanged {
	channel := s.app.Config.Redis.EventChannel
	events := make(chan domain.BookingStatusChanged, 16)

	listener := notify.NewRedisPublisher(s.app.Redis, channel, slog.New(slog.NewTextHandler(io.Discard, nil)))

	go func() {
		_ = listener.Listen(ctx, func(e domain.BookingStatusChanged) { events <- e })
	}()

	s.Require().Eventually(func() bool {
		subs, err := s.app.Redis.PubSubNumSub(ctx, channel).Result()
		return err == nil && subs[channel] > 0
	}, 5*time.Second, 50*time.Millisecond)

	return events
}

func (s *BookingFlowTestSuite) nextEvent(events <-chan domain.BookingStatusChanged) domain.BookingStatusChanged {
	select {
	case e := <-events:
		return e
	case <-time.After(5 * time.Second):
		s.FailNow("no booking event received")
		return domain.BookingStatusChanged{}
	}
}

func (s *BookingFlowTestSuite) TestTransitionsArePublishedToRedis() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := s.listenForEvents(ctx)

	guest := s.newBrowser()
	payments := s.newStaff(app.RolePaymentService, "payments")

	res := guest.do(http.MethodPost, "/bookings", api.CreateBookingRequest{ShowtimeId: 1, SeatIdList: []int{1}, BookingType: "ONLINE"})
	requireStatus(s.T(), res, http.StatusCreated)
	created := decodeJSON[api.BookingResponse](s.T(), res).Booking

	pending := s.nextEvent(events)
	s.Equal(created.Id, pending.BookingID)
	s.Equal(domain.BookingStatusPending, pending.Status)
	s.Empty(pending.PreviousStatus)
	s.Regexp(`^guest:`, pending.RequesterRef)

	res = payments.do(http.MethodPatch, "/bookings/"+created.Id.String()+"/confirm",
		api.PaymentEvidenceRequest{Method: "cash"})
	requireStatus(s.T(), res, http.StatusOK)

	confirmed := s.nextEvent(events)
	s.Equal(domain.BookingStatusConfirmed, confirmed.Status)
	s.Equal(domain.BookingStatusPending, confirmed.PreviousStatus)
	s.Equal(pending.RequesterRef, confirmed.RequesterRef)

	res = payments.do(http.MethodPatch, "/bookings/"+created.Id.String()+"/confirm",
		api.PaymentEvidenceRequest{Method: "cash"})
	requireStatus(s.T(), res, http.StatusOK)

	select {
	case e := <-events:
		s.Failf("unexpected event", "repeated confirmation emitted %s", e.Status)
	case <-time.After(300 * time.Millisecond):
	}
}

func (s *BookingFlowTestSuite) TestDeclinedPaymentCancelsAndPublishes() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := s.listenForEvents(ctx)

	guest := s.newBrowser()
	payments := s.newStaff(app.RolePaymentService, "payments")

	res := guest.do(http.MethodPost, "/bookings", api.CreateBookingRequest{ShowtimeId: 1, SeatIdList: []int{2}, BookingType: "ONLINE"})
	requireStatus(s.T(), res, http.StatusCreated)
	created := decodeJSON[api.BookingResponse](s.T(), res).Booking
	s.nextEvent(events)

	// Card payments are declined while no Stripe key is configured.
	res = payments.do(http.MethodPatch, "/bookings/"+created.Id.String()+"/confirm",
		api.PaymentEvidenceRequest{Method: "card", Reference: "pi_missing"})
	requireStatus(s.T(), res, http.StatusPaymentRequired)

	canceled := s.nextEvent(events)
	s.Equal(domain.BookingStatusCanceled, canceled.Status)
	s.Equal(domain.CancelReasonPaymentFailed, canceled.Reason)
}
