package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/shopspring/decimal"
)

const bookingColumns = `
	b.id, b.user_ref, b.requester_ref, b.showtime_id, b.status, b.booking_type,
	b.total_amount, b.hold_expires_at, b.payment_method, b.payment_ref,
	b.cancel_reason, b.created_at, b.updated_at,
	COALESCE((
		SELECT array_agg(bs.seat_id ORDER BY bs.seat_id)
		FROM booking_seats bs
		WHERE bs.booking_id = b.id
	), '{}')
`

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

// Create inserts the booking, claims its seats and records the per-seat prices
// in one transaction. A PENDING booking's hold_expires_at is taken from the
// database clock, the same instant its seat locks expire at.
func (p *PostgresBookingRepository) Create(
	ctx context.Context,
	booking *domain.Booking,
	lock domain.LockRequest) error {

	prices, err := p.seatPrices(ctx, booking.ShowtimeID, lock.SeatIDs)
	if err != nil {
		return err
	}

	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO bookings (
				id, user_ref, requester_ref, showtime_id, status, booking_type,
				total_amount, hold_expires_at, payment_method, payment_ref
			)
			VALUES (
				$1, $2, $3, $4, $5, $6, $7,
				CASE WHEN $5 = 'PENDING' THEN NOW() + make_interval(secs => $8) END,
				$9, $10
			)
			RETURNING hold_expires_at, created_at, updated_at
		`

		err := tx.QueryRow(
			ctx,
			query,
			booking.ID,
			booking.UserRef,
			booking.RequesterRef,
			booking.ShowtimeID,
			booking.Status,
			booking.Type,
			booking.TotalAmount,
			lock.TTL.Seconds(),
			booking.PaymentMethod,
			booking.PaymentRef,
		).Scan(&booking.HoldExpiresAt, &booking.CreatedAt, &booking.UpdatedAt)
		if err != nil {
			return err
		}

		_, err = acquireLocks(ctx, tx, lock, &booking.ID)
		if err != nil {
			return err
		}

		rows := make([][]any, 0, len(lock.SeatIDs))
		for _, seatID := range lock.SeatIDs {
			rows = append(rows, []any{
				booking.ID,
				booking.ShowtimeID,
				seatID,
				prices[seatID],
			})
		}

		err = insertBookingSeats(ctx, tx, booking, rows)
		if err != nil {
			return err
		}

		if booking.Status == domain.BookingStatusConfirmed {
			_, err = tx.Exec(ctx, `DELETE FROM seat_locks WHERE booking_id = $1`, booking.ID)
			if err != nil {
				return err
			}
		}

		booking.SeatIDs = lock.SeatIDs

		return nil
	})
}

// insertBookingSeats copies the seat rows under a savepoint. When another
// booking already holds some of the seats, the transaction is rolled back to
// the savepoint and only those seats are reported as conflicting.
func insertBookingSeats(ctx context.Context, tx pgx.Tx, booking *domain.Booking, rows [][]any) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}

	_, err = sp.CopyFrom(
		ctx,
		pgx.Identifier{"booking_seats"},
		[]string{"booking_id", "showtime_id", "seat_id", "price"},
		pgx.CopyFromRows(rows),
	)
	if err == nil {
		return sp.Commit(ctx)
	}

	if !isUniqueViolation(err) {
		return err
	}

	if rbErr := sp.Rollback(ctx); rbErr != nil {
		return errors.Join(err, rbErr)
	}

	seatIDs := make([]int, 0, len(rows))
	for _, row := range rows {
		seatIDs = append(seatIDs, row[2].(int))
	}

	taken, err := activeBookedSeats(ctx, tx, booking.ShowtimeID, seatIDs, &booking.ID)
	if err != nil {
		return err
	}

	return &domain.SeatConflictError{SeatIDs: overlapping(seatIDs, taken)}
}

// overlapping returns the ids of seatIDs found in taken, in ascending order.
// With nothing found, every requested seat is reported.
func overlapping(seatIDs []int, taken map[int]struct{}) []int {
	conflicts := make([]int, 0, len(taken))
	for _, id := range seatIDs {
		if _, ok := taken[id]; ok {
			conflicts = append(conflicts, id)
		}
	}

	if len(conflicts) == 0 {
		conflicts = slices.Clone(seatIDs)
	}

	slices.Sort(conflicts)

	return conflicts
}

func (p *PostgresBookingRepository) seatPrices(
	ctx context.Context,
	showtimeID int,
	seatIDs []int) (map[int]decimal.Decimal, error) {

	query := `
		SELECT se.id, se.seat_type, sh.base_price
		FROM seats se
		JOIN showtimes sh ON sh.room_id = se.room_id
		WHERE sh.id = $1 AND se.id = ANY($2)
	`

	rows, err := p.db.Query(ctx, query, showtimeID, seatIDs)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	prices := make(map[int]decimal.Decimal, len(seatIDs))

	for rows.Next() {
		var (
			seatID    int
			seatType  domain.SeatType
			basePrice decimal.Decimal
		)

		err = rows.Scan(&seatID, &seatType, &basePrice)
		if err != nil {
			return nil, err
		}

		prices[seatID] = domain.Showtime{BasePrice: basePrice}.SeatPrice(seatType)
	}

	if err = rows.Err(); err != nil {
		return nil, translateError(err)
	}

	return prices, nil
}

func (p *PostgresBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`

	rows, err := p.db.Query(ctx, query, id)
	if err != nil {
		return nil, translateError(err)
	}

	booking, err := pgx.CollectExactlyOneRow(rows, scanBooking)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}

		return nil, translateError(err)
	}

	return &booking, nil
}

// Transition locks the booking row, lets fn decide the next state and applies
// the seat side effects of that state in the same transaction. Confirming
// deletes the booking's locks; canceling also releases its seats.
func (p *PostgresBookingRepository) Transition(
	ctx context.Context,
	id uuid.UUID,
	fn domain.TransitionFunc) (*domain.Booking, *domain.Booking, error) {

	var before, after domain.Booking

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `SELECT ` + bookingColumns + `, NOW() FROM bookings b WHERE b.id = $1 FOR UPDATE OF b`

		row := tx.QueryRow(ctx, query, id)

		now, err := scanBookingAt(row, &before)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrBookingNotFound
			}

			return err
		}

		update, err := fn(before, now)
		if err != nil {
			return err
		}

		after = before
		if update.Status == before.Status {
			return nil
		}

		if !before.Status.CanTransitionTo(update.Status) {
			return &domain.TransitionError{From: before.Status, To: update.Status}
		}

		query = `
			UPDATE bookings
			SET status = $2,
				cancel_reason = COALESCE(NULLIF($3::text, ''), cancel_reason),
				payment_method = COALESCE(NULLIF($4::text, ''), payment_method),
				payment_ref = COALESCE(NULLIF($5::text, ''), payment_ref),
				updated_at = NOW()
			WHERE id = $1
			RETURNING status, cancel_reason, payment_method, payment_ref, updated_at
		`

		err = tx.QueryRow(
			ctx,
			query,
			id,
			update.Status,
			update.CancelReason,
			string(update.PaymentMethod),
			update.PaymentRef,
		).Scan(&after.Status, &after.CancelReason, &after.PaymentMethod, &after.PaymentRef, &after.UpdatedAt)
		if err != nil {
			return err
		}

		return applySeatSideEffects(ctx, tx, []uuid.UUID{id}, after.Status)
	})
	if err != nil {
		return nil, nil, err
	}

	return &before, &after, nil
}

func applySeatSideEffects(ctx context.Context, tx pgx.Tx, ids []uuid.UUID, status domain.BookingStatus) error {
	switch status {
	case domain.BookingStatusConfirmed:
		_, err := tx.Exec(ctx, `DELETE FROM seat_locks WHERE booking_id = ANY($1)`, ids)
		return err
	case domain.BookingStatusCanceled:
		_, err := tx.Exec(ctx, `UPDATE booking_seats SET active = FALSE WHERE booking_id = ANY($1)`, ids)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `DELETE FROM seat_locks WHERE booking_id = ANY($1)`, ids)
		return err
	}

	return nil
}

// ExpirePending cancels PENDING bookings whose hold has run out, optionally
// limited to one showtime. Rows locked by an in-flight transition are skipped
// and picked up by a later sweep, so a booking that is being confirmed is
// never expired underneath it.
func (p *PostgresBookingRepository) ExpirePending(
	ctx context.Context,
	showtimeID *int,
	limit int) ([]domain.Booking, error) {

	var expired []domain.Booking

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			WITH due AS (
				SELECT id
				FROM bookings
				WHERE status = 'PENDING'
					AND hold_expires_at <= NOW()
					AND ($1::bigint IS NULL OR showtime_id = $1)
				ORDER BY hold_expires_at
				LIMIT $2
				FOR UPDATE SKIP LOCKED
			)
			UPDATE bookings b
			SET status = 'CANCELED', cancel_reason = $3, updated_at = NOW()
			FROM due
			WHERE b.id = due.id
			RETURNING ` + bookingColumns

		rows, err := tx.Query(ctx, query, showtimeID, limit, domain.CancelReasonHoldExpired)
		if err != nil {
			return err
		}

		expired, err = pgx.CollectRows(rows, scanBooking)
		if err != nil {
			return err
		}

		if len(expired) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(expired))
		for i, b := range expired {
			ids[i] = b.ID
		}

		return applySeatSideEffects(ctx, tx, ids, domain.BookingStatusCanceled)
	})
	if err != nil {
		return nil, err
	}

	return expired, nil
}

func (p *PostgresBookingRepository) GetBookedSeatIDs(ctx context.Context, showtimeID int) ([]int, error) {
	query := `
		SELECT bs.seat_id
		FROM booking_seats bs
		JOIN bookings b ON b.id = bs.booking_id
		WHERE bs.showtime_id = $1
			AND bs.active
			AND b.status IN ('CONFIRMED', 'COMPLETED')
		ORDER BY bs.seat_id
	`

	rows, err := p.db.Query(ctx, query, showtimeID)
	if err != nil {
		return nil, translateError(err)
	}

	seatIDs, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, translateError(err)
	}

	return seatIDs, nil
}

func (p *PostgresBookingRepository) ListByShowtime(
	ctx context.Context,
	showtimeID int,
	pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {

	query := `
		SELECT COUNT(*) OVER(), ` + bookingColumns + `
		FROM bookings b
		WHERE b.showtime_id = $1
		ORDER BY b.created_at DESC, b.id
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.Query(ctx, query, showtimeID, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, translateError(err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	totalRecords := 0

	for rows.Next() {
		var booking domain.Booking

		dest := append([]any{&totalRecords}, bookingScanTargets(&booking)...)

		err := rows.Scan(dest...)
		if err != nil {
			return nil, nil, err
		}

		bookings = append(bookings, booking)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, translateError(err)
	}

	return bookings, domain.NewMetadata(totalRecords, pagination), nil
}

func bookingScanTargets(b *domain.Booking) []any {
	return []any{
		&b.ID,
		&b.UserRef,
		&b.RequesterRef,
		&b.ShowtimeID,
		&b.Status,
		&b.Type,
		&b.TotalAmount,
		&b.HoldExpiresAt,
		&b.PaymentMethod,
		&b.PaymentRef,
		&b.CancelReason,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.SeatIDs,
	}
}

func scanBooking(row pgx.CollectableRow) (domain.Booking, error) {
	var b domain.Booking

	err := row.Scan(bookingScanTargets(&b)...)
	if err != nil {
		return b, fmt.Errorf("scan booking: %w", err)
	}

	return b, nil
}

func scanBookingAt(row pgx.Row, b *domain.Booking) (now time.Time, err error) {
	err = row.Scan(append(bookingScanTargets(b), &now)...)
	return now, err
}
