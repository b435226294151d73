package repository

import (
	"context"
	"errors"

	"github.com/dojokit/booking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttendanceRepository persists the permanent attendance records. Creation is
// idempotent per reservation via the unique reservation_id key.
type AttendanceRepository interface {
	// Create inserts the record unless one already exists for the
	// reservation. It reports whether a row was actually created.
	Create(ctx context.Context, rec *domain.AttendanceRecord) (bool, error)
	GetByReservation(ctx context.Context, reservationID int64) (*domain.AttendanceRecord, error)
}

type PGAttendanceRepository struct {
	db *pgxpool.Pool
}

func NewAttendanceRepository(db *pgxpool.Pool) AttendanceRepository {
	return &PGAttendanceRepository{db: db}
}

func (r *PGAttendanceRepository) Create(ctx context.Context, rec *domain.AttendanceRecord) (bool, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO attendance_records
		(session_id, member_id, reservation_id, mode, status, check_in_at, check_out_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (reservation_id) DO NOTHING
		RETURNING id, created_at`,
		rec.SessionID, rec.MemberID, rec.ReservationID, rec.Mode, rec.Status, rec.CheckInAt, rec.CheckOutAt).
		Scan(&rec.ID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// A record already exists for this reservation.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PGAttendanceRepository) GetByReservation(ctx context.Context, reservationID int64) (*domain.AttendanceRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT id, session_id, member_id, reservation_id, mode, status, check_in_at, check_out_at, created_at
		FROM attendance_records WHERE reservation_id=$1`, reservationID)
	var rec domain.AttendanceRecord
	if err := row.Scan(&rec.ID, &rec.SessionID, &rec.MemberID, &rec.ReservationID, &rec.Mode, &rec.Status, &rec.CheckInAt, &rec.CheckOutAt, &rec.CreatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

var _ AttendanceRepository = (*PGAttendanceRepository)(nil)
