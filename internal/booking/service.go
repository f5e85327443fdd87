// Package booking coordinates seat locks and the booking state machine on top
// of the shared store. Every write to seat or booking state goes through it.
package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	DefaultHoldTTL        = 10 * time.Minute
	DefaultMaxSeats       = 8
	DefaultSweepBatchSize = 200
	DefaultCacheTTL       = 2 * time.Second
	DefaultRetryAttempts  = 3

	// lazySweepLimit bounds the expiry work done inline before a claim.
	lazySweepLimit = 50
)

type Service struct {
	seats     domain.SeatRepository
	locks     domain.SeatLockRepository
	bookings  domain.BookingRepository
	publisher domain.EventPublisher
	cache     domain.AvailabilityCache
	logger    *slog.Logger
	metrics   *metrics
	now       func() time.Time

	holdTTL        time.Duration
	maxSeats       int
	sweepBatchSize int
	cacheTTL       time.Duration
	retryAttempts  uint
	retryBaseDelay time.Duration
}

type Option func(*Service)

func WithHoldTTL(ttl time.Duration) Option {
	return func(s *Service) { s.holdTTL = ttl }
}

func WithMaxSeats(n int) Option {
	return func(s *Service) { s.maxSeats = n }
}

func WithSweepBatchSize(n int) Option {
	return func(s *Service) { s.sweepBatchSize = n }
}

func WithAvailabilityCache(cache domain.AvailabilityCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

func WithRetry(attempts uint, baseDelay time.Duration) Option {
	return func(s *Service) {
		s.retryAttempts = attempts
		s.retryBaseDelay = baseDelay
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	seats domain.SeatRepository,
	locks domain.SeatLockRepository,
	bookings domain.BookingRepository,
	publisher domain.EventPublisher,
	opts ...Option) *Service {

	s := &Service{
		seats:          seats,
		locks:          locks,
		bookings:       bookings,
		publisher:      publisher,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:        newMetrics(),
		now:            time.Now,
		holdTTL:        DefaultHoldTTL,
		maxSeats:       DefaultMaxSeats,
		sweepBatchSize: DefaultSweepBatchSize,
		cacheTTL:       DefaultCacheTTL,
		retryAttempts:  DefaultRetryAttempts,
		retryBaseDelay: 25 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) HoldTTL() time.Duration {
	return s.holdTTL
}

func (s *Service) MaxSeats() int {
	return s.maxSeats
}

// SeatMap is a showtime's seats together with the current availability snapshot.
type SeatMap struct {
	Showtime     *domain.Showtime
	Seats        []domain.Seat
	Availability *domain.Availability
}

func (s *Service) GetSeatMap(ctx context.Context, showtimeID int) (*SeatMap, error) {
	showtime, err := s.getShowtime(ctx, showtimeID)
	if err != nil {
		return nil, err
	}

	seats, err := retry(ctx, s, func() ([]domain.Seat, error) {
		return s.seats.GetSeatsForRoom(ctx, showtime.RoomID)
	})
	if err != nil {
		return nil, err
	}

	availability, err := s.GetAvailability(ctx, showtimeID)
	if err != nil {
		return nil, err
	}

	return &SeatMap{Showtime: showtime, Seats: seats, Availability: availability}, nil
}

// GetAvailability returns the locked and booked seat ids of a showtime. Expired
// locks never appear in the result. Snapshots are cached for at most the
// configured TTL and never past the earliest lock expiry they contain.
func (s *Service) GetAvailability(ctx context.Context, showtimeID int) (*domain.Availability, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, showtimeID)
		if err != nil {
			s.logger.Warn("availability cache read failed", "showtime_id", showtimeID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	locks, err := retry(ctx, s, func() ([]domain.SeatLock, error) {
		return s.locks.GetLiveLocks(ctx, showtimeID)
	})
	if err != nil {
		return nil, err
	}

	booked, err := retry(ctx, s, func() ([]int, error) {
		return s.bookings.GetBookedSeatIDs(ctx, showtimeID)
	})
	if err != nil {
		return nil, err
	}

	availability := domain.NewAvailability(showtimeID, locks, booked)

	if s.cache != nil {
		ttl := s.cacheTTL
		if availability.NextExpiry != nil {
			ttl = min(ttl, availability.NextExpiry.Sub(s.now()))
		}

		err = s.cache.Set(ctx, availability, ttl)
		if err != nil {
			s.logger.Warn("availability cache write failed", "showtime_id", showtimeID, "error", err)
		}
	}

	return availability, nil
}

// LockGrant describes locks held by a browsing session.
type LockGrant struct {
	ShowtimeID int
	SeatIDs    []int
	HolderRef  string
	ExpiresAt  time.Time
}

// AcquireLocks claims all requested seats for holderRef or none of them.
func (s *Service) AcquireLocks(
	ctx context.Context,
	showtimeID int,
	seatIDs []int,
	holderRef string) (*LockGrant, error) {

	if holderRef == "" {
		return nil, errors.New("lock holder reference is required")
	}

	if _, _, err := s.validateSelection(ctx, showtimeID, seatIDs); err != nil {
		return nil, err
	}

	s.expireShowtimeHolds(ctx, showtimeID)

	req := domain.LockRequest{
		ShowtimeID: showtimeID,
		SeatIDs:    seatIDs,
		HolderRef:  holderRef,
		TTL:        s.holdTTL,
	}

	locks, err := retry(ctx, s, func() ([]domain.SeatLock, error) {
		return s.locks.AcquireLocks(ctx, req)
	})
	if err != nil {
		s.recordConflict(ctx, showtimeID, err)
		return nil, err
	}

	s.invalidate(ctx, showtimeID)

	grant := &LockGrant{ShowtimeID: showtimeID, HolderRef: holderRef}
	for _, l := range locks {
		grant.SeatIDs = append(grant.SeatIDs, l.SeatID)
		if grant.ExpiresAt.IsZero() || l.ExpiresAt.Before(grant.ExpiresAt) {
			grant.ExpiresAt = l.ExpiresAt
		}
	}

	return grant, nil
}

// ReleaseLocks drops the holder's locks on the given seats. Seats the holder
// does not hold are ignored, so the call is safe to repeat.
func (s *Service) ReleaseLocks(ctx context.Context, showtimeID int, seatIDs []int, holderRef string) (int, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}

	released, err := retry(ctx, s, func() (int, error) {
		return s.locks.ReleaseLocks(ctx, showtimeID, seatIDs, holderRef)
	})
	if err != nil {
		return 0, err
	}

	if released > 0 {
		s.invalidate(ctx, showtimeID)
	}

	return released, nil
}

type CreateBookingInput struct {
	ShowtimeID   int
	SeatIDs      []int
	RequesterRef string
	UserRef      *string
	Type         domain.BookingType

	// CounterPayment settles an OFFLINE booking in the same call. The booking
	// is created CONFIRMED and its locks are promoted before commit.
	CounterPayment *domain.PaymentEvidence
}

func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (*domain.Booking, error) {
	if in.CounterPayment != nil && in.Type != domain.BookingTypeOffline {
		return nil, &domain.InvalidSeatSelectionError{Reason: "only box office bookings can be paid at the counter"}
	}

	showtime, seats, err := s.validateSelection(ctx, in.ShowtimeID, in.SeatIDs)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, seat := range seats {
		total = total.Add(showtime.SeatPrice(seat.Type))
	}

	if in.CounterPayment != nil && in.CounterPayment.Amount != nil && !in.CounterPayment.Amount.Equal(total) {
		return nil, fmt.Errorf("%w: counter payment %s does not match total %s",
			domain.ErrPaymentDeclined, in.CounterPayment.Amount, total)
	}

	s.expireShowtimeHolds(ctx, in.ShowtimeID)

	booking := &domain.Booking{
		ID:           uuid.New(),
		UserRef:      in.UserRef,
		RequesterRef: in.RequesterRef,
		ShowtimeID:   in.ShowtimeID,
		SeatIDs:      slices.Clone(in.SeatIDs),
		Status:       domain.BookingStatusPending,
		Type:         in.Type,
		TotalAmount:  total,
	}

	if in.CounterPayment != nil {
		method := in.CounterPayment.Method
		booking.Status = domain.BookingStatusConfirmed
		booking.PaymentMethod = &method
		booking.PaymentRef = nonEmpty(in.CounterPayment.Reference)
	}

	req := domain.LockRequest{
		ShowtimeID:   in.ShowtimeID,
		SeatIDs:      in.SeatIDs,
		HolderRef:    booking.ID.String(),
		TTL:          s.holdTTL,
		TransferFrom: in.RequesterRef,
	}

	_, err = retry(ctx, s, func() (struct{}, error) {
		return struct{}{}, s.bookings.Create(ctx, booking, req)
	})
	if err != nil {
		s.recordConflict(ctx, in.ShowtimeID, err)
		return nil, err
	}

	s.invalidate(ctx, in.ShowtimeID)

	s.metrics.recordTransition(ctx, domain.BookingStatusPending)
	if booking.Status == domain.BookingStatusConfirmed {
		s.metrics.recordTransition(ctx, domain.BookingStatusConfirmed)
	}

	s.logger.Info("booking created",
		"booking_id", booking.ID,
		"showtime_id", booking.ShowtimeID,
		"seat_ids", booking.SeatIDs,
		"status", booking.Status,
		"booking_type", booking.Type)

	s.publish(ctx, booking, "")

	return booking, nil
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return retry(ctx, s, func() (*domain.Booking, error) {
		return s.bookings.GetByID(ctx, id)
	})
}

func (s *Service) ListBookings(
	ctx context.Context,
	showtimeID int,
	pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {

	if _, err := s.getShowtime(ctx, showtimeID); err != nil {
		return nil, nil, err
	}

	type page struct {
		bookings []domain.Booking
		metadata *domain.Metadata
	}

	p, err := retry(ctx, s, func() (page, error) {
		bookings, metadata, err := s.bookings.ListByShowtime(ctx, showtimeID, pagination)
		return page{bookings, metadata}, err
	})
	if err != nil {
		return nil, nil, err
	}

	return p.bookings, p.metadata, nil
}

// ConfirmPayment promotes a PENDING booking to CONFIRMED. Confirming a booking
// that is already CONFIRMED or COMPLETED returns it unchanged and emits nothing.
// A booking whose hold ran out before the confirmation arrived is canceled.
func (s *Service) ConfirmPayment(
	ctx context.Context,
	id uuid.UUID,
	evidence domain.PaymentEvidence) (*domain.Booking, error) {

	before, after, err := s.transition(ctx, id, func(current domain.Booking, now time.Time) (domain.BookingUpdate, error) {
		switch current.Status {
		case domain.BookingStatusConfirmed, domain.BookingStatusCompleted:
			return domain.BookingUpdate{Status: current.Status}, nil
		case domain.BookingStatusPending:
			if current.HoldExpired(now) {
				return domain.BookingUpdate{
					Status:       domain.BookingStatusCanceled,
					CancelReason: domain.CancelReasonHoldExpired,
				}, nil
			}

			return domain.BookingUpdate{
				Status:        domain.BookingStatusConfirmed,
				PaymentMethod: evidence.Method,
				PaymentRef:    evidence.Reference,
			}, nil
		}

		return domain.BookingUpdate{}, &domain.TransitionError{From: current.Status, To: domain.BookingStatusConfirmed}
	})
	if err != nil {
		return nil, err
	}

	if before.Status == domain.BookingStatusPending && after.Status == domain.BookingStatusCanceled {
		s.logger.Error("invalid state transition: payment confirmed after hold expired",
			"booking_id", id,
			"payment_method", evidence.Method,
			"payment_ref", evidence.Reference)

		return after, fmt.Errorf("%w: %w", domain.ErrInvalidStateTransition, domain.ErrHoldExpired)
	}

	return after, nil
}

// CancelBooking cancels a PENDING booking and frees its seats at once.
// Canceling an already CANCELED booking is a no-op.
func (s *Service) CancelBooking(ctx context.Context, id uuid.UUID, reason string) (*domain.Booking, error) {
	if reason == "" {
		reason = domain.CancelReasonRequested
	}

	_, after, err := s.transition(ctx, id, func(current domain.Booking, _ time.Time) (domain.BookingUpdate, error) {
		switch current.Status {
		case domain.BookingStatusCanceled:
			return domain.BookingUpdate{Status: current.Status}, nil
		case domain.BookingStatusPending:
			return domain.BookingUpdate{Status: domain.BookingStatusCanceled, CancelReason: reason}, nil
		}

		return domain.BookingUpdate{}, &domain.TransitionError{From: current.Status, To: domain.BookingStatusCanceled}
	})

	return after, err
}

// MarkCompleted records that a CONFIRMED booking has been redeemed.
func (s *Service) MarkCompleted(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	_, after, err := s.transition(ctx, id, func(current domain.Booking, _ time.Time) (domain.BookingUpdate, error) {
		switch current.Status {
		case domain.BookingStatusCompleted:
			return domain.BookingUpdate{Status: current.Status}, nil
		case domain.BookingStatusConfirmed:
			return domain.BookingUpdate{Status: domain.BookingStatusCompleted}, nil
		}

		return domain.BookingUpdate{}, &domain.TransitionError{From: current.Status, To: domain.BookingStatusCompleted}
	})

	return after, err
}

func (s *Service) transition(
	ctx context.Context,
	id uuid.UUID,
	fn domain.TransitionFunc) (*domain.Booking, *domain.Booking, error) {

	type result struct {
		before, after *domain.Booking
	}

	res, err := retry(ctx, s, func() (result, error) {
		before, after, err := s.bookings.Transition(ctx, id, fn)
		return result{before, after}, err
	})
	if err != nil {
		var te *domain.TransitionError
		if errors.As(err, &te) {
			s.logger.Error("invalid state transition rejected",
				"booking_id", id,
				"from", te.From,
				"to", te.To)
		}

		return nil, nil, err
	}

	if res.before.Status != res.after.Status {
		s.invalidate(ctx, res.after.ShowtimeID)
		s.metrics.recordTransition(ctx, res.after.Status)

		s.logger.Info("booking status changed",
			"booking_id", id,
			"from", res.before.Status,
			"to", res.after.Status)

		s.publish(ctx, res.after, res.before.Status)
	}

	return res.before, res.after, nil
}

// SweepResult summarizes one expiry sweep.
type SweepResult struct {
	ExpiredBookings int
	ReleasedLocks   int
}

// SweepExpired cancels PENDING bookings whose hold ran out and deletes expired
// session locks. It is safe to run from several instances at once.
func (s *Service) SweepExpired(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	for {
		expired, err := retry(ctx, s, func() ([]domain.Booking, error) {
			return s.bookings.ExpirePending(ctx, nil, s.sweepBatchSize)
		})
		if err != nil {
			return result, err
		}

		s.afterExpiry(ctx, expired)
		result.ExpiredBookings += len(expired)

		if len(expired) < s.sweepBatchSize {
			break
		}
	}

	released, err := retry(ctx, s, func() (int, error) {
		return s.locks.DeleteExpiredLocks(ctx)
	})
	if err != nil {
		return result, err
	}

	result.ReleasedLocks = released

	return result, nil
}

// expireShowtimeHolds applies the expiry rule to one showtime before a claim so
// that seats of lapsed bookings are immediately claimable. Failures only delay
// the release until the background sweep.
func (s *Service) expireShowtimeHolds(ctx context.Context, showtimeID int) {
	expired, err := s.bookings.ExpirePending(ctx, &showtimeID, lazySweepLimit)
	if err != nil {
		s.logger.Warn("inline hold expiry failed", "showtime_id", showtimeID, "error", err)
		return
	}

	s.afterExpiry(ctx, expired)
}

func (s *Service) afterExpiry(ctx context.Context, expired []domain.Booking) {
	showtimes := make(map[int]struct{})

	for i := range expired {
		b := &expired[i]
		showtimes[b.ShowtimeID] = struct{}{}

		s.metrics.recordTransition(ctx, b.Status)
		s.logger.Info("booking hold expired", "booking_id", b.ID, "showtime_id", b.ShowtimeID)
		s.publish(ctx, b, domain.BookingStatusPending)
	}

	for showtimeID := range showtimes {
		s.invalidate(ctx, showtimeID)
	}
}

// SetSeatAdminStatus changes a seat's administrative status. Taking a seat out
// of sale is refused while it is held or booked for an upcoming showtime.
func (s *Service) SetSeatAdminStatus(ctx context.Context, seatID int, status domain.AdminStatus) (*domain.Seat, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown admin status %q", status)
	}

	_, err := retry(ctx, s, func() (struct{}, error) {
		return struct{}{}, s.seats.UpdateAdminStatus(ctx, seatID, status)
	})
	if err != nil {
		return nil, err
	}

	return s.seats.GetSeat(ctx, seatID)
}

// validateSelection rejects malformed requests before any lock is attempted
// and returns the selected seats in request order.
func (s *Service) validateSelection(
	ctx context.Context,
	showtimeID int,
	seatIDs []int) (*domain.Showtime, []domain.Seat, error) {

	if len(seatIDs) == 0 {
		return nil, nil, &domain.InvalidSeatSelectionError{Reason: "at least one seat must be selected"}
	}

	if len(seatIDs) > s.maxSeats {
		return nil, nil, &domain.InvalidSeatSelectionError{
			Reason: fmt.Sprintf("at most %d seats can be selected at once", s.maxSeats),
		}
	}

	if dups := duplicates(seatIDs); len(dups) > 0 {
		return nil, nil, &domain.InvalidSeatSelectionError{Reason: "seats are selected more than once", SeatIDs: dups}
	}

	showtime, err := s.getShowtime(ctx, showtimeID)
	if err != nil {
		return nil, nil, err
	}

	if !showtime.Bookable(s.now()) {
		return nil, nil, domain.ErrShowtimeNotBookable
	}

	roomSeats, err := retry(ctx, s, func() ([]domain.Seat, error) {
		return s.seats.GetSeatsForRoom(ctx, showtime.RoomID)
	})
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[int]domain.Seat, len(roomSeats))
	for _, seat := range roomSeats {
		byID[seat.ID] = seat
	}

	var (
		selected []domain.Seat
		foreign  []int
		closed   []int
	)

	for _, id := range seatIDs {
		seat, ok := byID[id]

		switch {
		case !ok:
			foreign = append(foreign, id)
		case seat.AdminStatus != domain.AdminStatusAvailable:
			closed = append(closed, id)
		default:
			selected = append(selected, seat)
		}
	}

	if len(foreign) > 0 {
		return nil, nil, &domain.InvalidSeatSelectionError{
			Reason:  "seats do not belong to the showtime's room",
			SeatIDs: foreign,
		}
	}

	if len(closed) > 0 {
		return nil, nil, &domain.InvalidSeatSelectionError{Reason: "seats are not open for sale", SeatIDs: closed}
	}

	return showtime, selected, nil
}

func (s *Service) getShowtime(ctx context.Context, showtimeID int) (*domain.Showtime, error) {
	showtime, err := retry(ctx, s, func() (*domain.Showtime, error) {
		return s.seats.GetShowtime(ctx, showtimeID)
	})
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrShowtimeNotFound
		}

		return nil, err
	}

	return showtime, nil
}

func (s *Service) publish(ctx context.Context, b *domain.Booking, previous domain.BookingStatus) {
	if s.publisher == nil {
		return
	}

	event := domain.NewBookingStatusChanged(b, previous, s.now())

	err := s.publisher.Publish(ctx, event)
	if err != nil {
		s.logger.Warn("failed to publish booking event",
			"booking_id", b.ID,
			"status", b.Status,
			"error", err)
	}
}

func (s *Service) invalidate(ctx context.Context, showtimeID int) {
	if s.cache == nil {
		return
	}

	err := s.cache.Invalidate(ctx, showtimeID)
	if err != nil {
		s.logger.Warn("availability cache invalidation failed", "showtime_id", showtimeID, "error", err)
	}
}

func (s *Service) recordConflict(ctx context.Context, showtimeID int, err error) {
	var conflict *domain.SeatConflictError
	if !errors.As(err, &conflict) {
		return
	}

	s.metrics.recordConflict(ctx, len(conflict.SeatIDs))
	s.logger.Warn("seat claim conflict", "showtime_id", showtimeID, "seat_ids", conflict.SeatIDs)
}

func duplicates(ids []int) []int {
	seen := make(map[int]int, len(ids))
	var dups []int

	for _, id := range ids {
		seen[id]++
		if seen[id] == 2 {
			dups = append(dups, id)
		}
	}

	slices.Sort(dups)

	return dups
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
