package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
)

type PostgresSeatLockRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSeatLockRepository(db *pgxpool.Pool) *PostgresSeatLockRepository {
	return &PostgresSeatLockRepository{
		db: db,
	}
}

func (p *PostgresSeatLockRepository) AcquireLocks(ctx context.Context, req domain.LockRequest) ([]domain.SeatLock, error) {
	var locks []domain.SeatLock

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var err error
		locks, err = acquireLocks(ctx, tx, req, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	return locks, nil
}

// acquireLocks claims every seat of req inside tx or fails with a
// *domain.SeatConflictError. The caller must roll back on error so that no
// partial claim survives.
//
// A seat can be claimed when it has no lock row, when the row is already held
// by the same holder (renewal) or by req.TransferFrom, or when it has expired
// and does not belong to a booking. Expired booking locks are only released by
// expiring the booking itself, which keeps sweep and promotion exclusive.
func acquireLocks(
	ctx context.Context,
	tx pgx.Tx,
	req domain.LockRequest,
	bookingID *uuid.UUID) ([]domain.SeatLock, error) {

	seatIDs := slices.Clone(req.SeatIDs)
	slices.Sort(seatIDs)

	if err := checkSeatsOpenForSale(ctx, tx, seatIDs); err != nil {
		return nil, err
	}

	booked, err := activeBookedSeats(ctx, tx, req.ShowtimeID, seatIDs, bookingID)
	if err != nil {
		return nil, err
	}

	// Seats are inserted in ascending order so concurrent requests over
	// overlapping sets always wait on each other in the same order.
	query := `
		INSERT INTO seat_locks (showtime_id, seat_id, holder_ref, booking_id, acquired_at, expires_at)
		SELECT $1, s.seat_id, $3, $4, NOW(), NOW() + make_interval(secs => $5)
		FROM unnest($2::bigint[]) WITH ORDINALITY AS s(seat_id, ord)
		ORDER BY s.ord
		ON CONFLICT (showtime_id, seat_id) DO UPDATE
		SET holder_ref = EXCLUDED.holder_ref,
			booking_id = EXCLUDED.booking_id,
			acquired_at = EXCLUDED.acquired_at,
			expires_at = EXCLUDED.expires_at
		WHERE seat_locks.holder_ref = EXCLUDED.holder_ref
			OR (seat_locks.holder_ref = $6 AND $6 <> '' AND seat_locks.booking_id IS NULL)
			OR (seat_locks.expires_at <= NOW() AND seat_locks.booking_id IS NULL)
		RETURNING showtime_id, seat_id, holder_ref, booking_id, acquired_at, expires_at
	`

	rows, err := tx.Query(
		ctx,
		query,
		req.ShowtimeID,
		seatIDs,
		req.HolderRef,
		bookingID,
		req.TTL.Seconds(),
		req.TransferFrom,
	)
	if err != nil {
		return nil, err
	}

	locks, err := pgx.CollectRows(rows, scanSeatLock)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &domain.SeatConflictError{SeatIDs: seatIDs}
		}

		return nil, err
	}

	granted := make(map[int]struct{}, len(locks))
	for _, l := range locks {
		granted[l.SeatID] = struct{}{}
	}

	var conflicts []int
	for _, id := range seatIDs {
		_, isGranted := granted[id]
		_, isBooked := booked[id]

		if !isGranted || isBooked {
			conflicts = append(conflicts, id)
		}
	}

	if len(conflicts) > 0 {
		return nil, &domain.SeatConflictError{SeatIDs: conflicts}
	}

	return locks, nil
}

// checkSeatsOpenForSale takes a share lock on the seat rows so that an admin
// status change waits for this claim to commit, then rejects seats that are
// not for sale.
func checkSeatsOpenForSale(ctx context.Context, tx pgx.Tx, seatIDs []int) error {
	query := `
		SELECT id, admin_status
		FROM seats
		WHERE id = ANY($1)
		ORDER BY id
		FOR SHARE
	`

	rows, err := tx.Query(ctx, query, seatIDs)
	if err != nil {
		return err
	}

	type seatStatus struct {
		ID     int
		Status domain.AdminStatus
	}

	statuses, err := pgx.CollectRows(rows, pgx.RowToStructByPos[seatStatus])
	if err != nil {
		return err
	}

	var closed []int
	for _, s := range statuses {
		if s.Status != domain.AdminStatusAvailable {
			closed = append(closed, s.ID)
		}
	}

	if len(closed) > 0 {
		return &domain.InvalidSeatSelectionError{Reason: "seats are not open for sale", SeatIDs: closed}
	}

	if len(statuses) != len(seatIDs) {
		return &domain.InvalidSeatSelectionError{Reason: "one or more seats do not exist"}
	}

	return nil
}

func activeBookedSeats(
	ctx context.Context,
	tx pgx.Tx,
	showtimeID int,
	seatIDs []int,
	bookingID *uuid.UUID) (map[int]struct{}, error) {

	query := `
		SELECT seat_id
		FROM booking_seats
		WHERE showtime_id = $1
			AND seat_id = ANY($2)
			AND active
			AND ($3::uuid IS NULL OR booking_id <> $3)
	`

	rows, err := tx.Query(ctx, query, showtimeID, seatIDs, bookingID)
	if err != nil {
		return nil, err
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, err
	}

	booked := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		booked[id] = struct{}{}
	}

	return booked, nil
}

func (p *PostgresSeatLockRepository) ReleaseLocks(
	ctx context.Context,
	showtimeID int,
	seatIDs []int,
	holderRef string) (int, error) {

	query := `
		DELETE FROM seat_locks
		WHERE showtime_id = $1 AND seat_id = ANY($2) AND holder_ref = $3
	`

	tag, err := p.db.Exec(ctx, query, showtimeID, seatIDs, holderRef)
	if err != nil {
		return 0, translateError(err)
	}

	return int(tag.RowsAffected()), nil
}

func (p *PostgresSeatLockRepository) GetLiveLocks(ctx context.Context, showtimeID int) ([]domain.SeatLock, error) {
	query := `
		SELECT showtime_id, seat_id, holder_ref, booking_id, acquired_at, expires_at
		FROM seat_locks
		WHERE showtime_id = $1 AND expires_at > NOW()
		ORDER BY seat_id
	`

	rows, err := p.db.Query(ctx, query, showtimeID)
	if err != nil {
		return nil, translateError(err)
	}

	locks, err := pgx.CollectRows(rows, scanSeatLock)
	if err != nil {
		return nil, translateError(err)
	}

	return locks, nil
}

// DeleteExpiredLocks removes expired locks held by browsing sessions. Locks
// owned by bookings are cleaned up when their booking expires.
func (p *PostgresSeatLockRepository) DeleteExpiredLocks(ctx context.Context) (int, error) {
	query := `
		DELETE FROM seat_locks
		WHERE expires_at <= NOW() AND booking_id IS NULL
	`

	tag, err := p.db.Exec(ctx, query)
	if err != nil {
		return 0, translateError(err)
	}

	return int(tag.RowsAffected()), nil
}

func scanSeatLock(row pgx.CollectableRow) (domain.SeatLock, error) {
	var l domain.SeatLock

	err := row.Scan(&l.ShowtimeID, &l.SeatID, &l.HolderRef, &l.BookingID, &l.AcquiredAt, &l.ExpiresAt)
	if err != nil {
		return l, fmt.Errorf("scan seat lock: %w", err)
	}

	return l, nil
}
