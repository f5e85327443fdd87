package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
)

type PostgresSeatRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSeatRepository(db *pgxpool.Pool) *PostgresSeatRepository {
	return &PostgresSeatRepository{
		db: db,
	}
}

func (p *PostgresSeatRepository) GetShowtime(ctx context.Context, showtimeID int) (*domain.Showtime, error) {
	query := `
		SELECT id, room_id, start_time, end_time, base_price
		FROM showtimes
		WHERE id = $1
	`

	var showtime domain.Showtime

	err := p.db.QueryRow(ctx, query, showtimeID).Scan(
		&showtime.ID,
		&showtime.RoomID,
		&showtime.StartTime,
		&showtime.EndTime,
		&showtime.BasePrice,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, translateError(err)
	}

	return &showtime, nil
}

func (p *PostgresSeatRepository) GetSeatsForRoom(ctx context.Context, roomID int) ([]domain.Seat, error) {
	query := `
		SELECT id, room_id, seat_row, seat_number, seat_type, admin_status
		FROM seats
		WHERE room_id = $1
		ORDER BY seat_row, seat_number
	`

	rows, err := p.db.Query(ctx, query, roomID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)

	for rows.Next() {
		var seat domain.Seat

		err = rows.Scan(
			&seat.ID,
			&seat.RoomID,
			&seat.Row,
			&seat.Number,
			&seat.Type,
			&seat.AdminStatus,
		)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, translateError(err)
	}

	return seats, nil
}

func (p *PostgresSeatRepository) GetSeat(ctx context.Context, seatID int) (*domain.Seat, error) {
	query := `
		SELECT id, room_id, seat_row, seat_number, seat_type, admin_status
		FROM seats
		WHERE id = $1
	`

	var seat domain.Seat

	err := p.db.QueryRow(ctx, query, seatID).Scan(
		&seat.ID,
		&seat.RoomID,
		&seat.Row,
		&seat.Number,
		&seat.Type,
		&seat.AdminStatus,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, translateError(err)
	}

	return &seat, nil
}

// UpdateAdminStatus changes a seat's administrative status unless the seat is
// held or booked for a showtime that has not ended yet. The seat row is locked
// first so a concurrent lock grant cannot slip in between check and write.
func (p *PostgresSeatRepository) UpdateAdminStatus(
	ctx context.Context,
	seatID int,
	status domain.AdminStatus) error {

	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var current domain.AdminStatus

		err := tx.QueryRow(ctx, `SELECT admin_status FROM seats WHERE id = $1 FOR UPDATE`, seatID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		if current == status {
			return nil
		}

		query := `
			SELECT EXISTS (
				SELECT 1
				FROM seat_locks l
				JOIN showtimes s ON s.id = l.showtime_id
				WHERE l.seat_id = $1 AND l.expires_at > NOW() AND s.end_time > NOW()
			) OR EXISTS (
				SELECT 1
				FROM booking_seats bs
				JOIN showtimes s ON s.id = bs.showtime_id
				WHERE bs.seat_id = $1 AND bs.active AND s.end_time > NOW()
			)
		`

		var inUse bool

		err = tx.QueryRow(ctx, query, seatID).Scan(&inUse)
		if err != nil {
			return err
		}

		if inUse && status != domain.AdminStatusAvailable {
			return domain.ErrSeatInUse
		}

		_, err = tx.Exec(ctx, `UPDATE seats SET admin_status = $2, updated_at = NOW() WHERE id = $1`, seatID, status)

		return err
	})
}
