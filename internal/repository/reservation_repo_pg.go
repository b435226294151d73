package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dojokit/booking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReservationRepository persists reservations and owns every waitlist
// mutation. Enqueue, promotion and renumbering run inside one transaction
// holding the session row lock, so positions stay dense under concurrency.
type ReservationRepository interface {
	CreateConfirmed(ctx context.Context, res *domain.Reservation) error
	CreateWaitlisted(ctx context.Context, res *domain.Reservation) (int, error)
	GetByToken(ctx context.Context, token string) (*domain.Reservation, error)
	ListBySession(ctx context.Context, sessionID int64) ([]domain.Reservation, error)
	CancelWaitlisted(ctx context.Context, id int64, reason string) (*domain.Reservation, error)
	CancelConfirmed(ctx context.Context, id int64, reason string) (*domain.Reservation, error)
	MarkCheckedIn(ctx context.Context, id int64, at time.Time) (*domain.Reservation, error)
	// PromoteNext pops the lowest waitlist position into CONFIRMED and
	// renumbers the rest. It returns (nil, nil) on an empty waitlist and
	// ErrSeatNotAvailable when the session is at capacity.
	PromoteNext(ctx context.Context, sessionID int64) (*domain.Reservation, error)
	ListConfirmedNotCheckedIn(ctx context.Context, sessionID int64) ([]domain.Reservation, error)
	MarkNoShow(ctx context.Context, id int64) (*domain.Reservation, error)
	CancelRemainingWaitlisted(ctx context.Context, sessionID int64, reason string) ([]domain.Reservation, error)
}

type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{db: db}
}

const reservationColumns = `id, token, session_id, member_id, kind, status,
	waitlist_position, COALESCE(cancel_reason, '') AS cancel_reason,
	cancelled_at, checked_in_at, created_at, updated_at`

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var r domain.Reservation
	err := row.Scan(&r.ID, &r.Token, &r.SessionID, &r.MemberID, &r.Kind,
		&r.Status, &r.WaitlistPosition, &r.CancelReason, &r.CancelledAt,
		&r.CheckedInAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *PGReservationRepository) CreateConfirmed(ctx context.Context, res *domain.Reservation) error {
	res.Status = domain.ReservationStatusConfirmed
	err := r.db.QueryRow(ctx, `INSERT INTO reservations (token, session_id, member_id, kind, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		res.Token, res.SessionID, res.MemberID, res.Kind, res.Status).
		Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateActiveReservation
	}
	return err
}

func (r *PGReservationRepository) CreateWaitlisted(ctx context.Context, res *domain.Reservation) (int, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if err := lockSession(ctx, tx, res.SessionID); err != nil {
		return 0, err
	}

	var position int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(waitlist_position), 0) + 1 FROM reservations
		WHERE session_id=$1 AND status='WAITLISTED'`, res.SessionID).Scan(&position); err != nil {
		return 0, err
	}

	res.Status = domain.ReservationStatusWaitlisted
	err = tx.QueryRow(ctx, `INSERT INTO reservations (token, session_id, member_id, kind, status, waitlist_position)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		res.Token, res.SessionID, res.MemberID, res.Kind, res.Status, position).
		Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateActiveReservation
		}
		return 0, err
	}
	res.WaitlistPosition = &position

	if _, err := tx.Exec(ctx, `UPDATE sessions SET waitlist_count = waitlist_count + 1, updated_at = now() WHERE id=$1`, res.SessionID); err != nil {
		return 0, err
	}
	return position, tx.Commit(ctx)
}

func (r *PGReservationRepository) GetByToken(ctx context.Context, token string) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE token=$1`, token)
	res, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return res, err
}

func (r *PGReservationRepository) ListBySession(ctx context.Context, sessionID int64) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE session_id=$1 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *PGReservationRepository) CancelWaitlisted(ctx context.Context, id int64, reason string) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var sessionID int64
	if err := tx.QueryRow(ctx, `SELECT session_id FROM reservations WHERE id=$1`, id).Scan(&sessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if err := lockSession(ctx, tx, sessionID); err != nil {
		return nil, err
	}

	// The status condition is the race guard: a concurrent promotion may have
	// confirmed this entry already.
	row := tx.QueryRow(ctx, `UPDATE reservations
		SET status='CANCELLED', cancel_reason=$2, cancelled_at=now(), updated_at=now()
		WHERE id=$1 AND status='WAITLISTED'
		RETURNING `+reservationColumns, id, reason)
	freed, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	if err := renumberAfter(ctx, tx, sessionID, freed.WaitlistPosition); err != nil {
		return nil, err
	}
	freed.WaitlistPosition = nil
	if _, err := tx.Exec(ctx, `UPDATE sessions SET waitlist_count = GREATEST(waitlist_count - 1, 0), updated_at = now() WHERE id=$1`, sessionID); err != nil {
		return nil, err
	}
	return freed, tx.Commit(ctx)
}

func (r *PGReservationRepository) CancelConfirmed(ctx context.Context, id int64, reason string) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `UPDATE reservations
		SET status='CANCELLED', cancel_reason=$2, cancelled_at=now(), updated_at=now()
		WHERE id=$1 AND status='CONFIRMED'
		RETURNING `+reservationColumns, id, reason)
	res, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return res, err
}

func (r *PGReservationRepository) MarkCheckedIn(ctx context.Context, id int64, at time.Time) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `UPDATE reservations
		SET status='CHECKED_IN', checked_in_at=$2, updated_at=now()
		WHERE id=$1 AND status='CONFIRMED'
		RETURNING `+reservationColumns, id, at)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE sessions SET checked_in_count = checked_in_count + 1, updated_at = now() WHERE id=$1`, res.SessionID); err != nil {
		return nil, err
	}
	return res, tx.Commit(ctx)
}

func (r *PGReservationRepository) PromoteNext(ctx context.Context, sessionID int64) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var confirmed, capacity int
	err = tx.QueryRow(ctx, `SELECT s.confirmed_count, COALESCE(s.capacity_override, c.capacity)
		FROM sessions s JOIN classes c ON c.id = s.class_id
		WHERE s.id=$1 FOR UPDATE OF s`, sessionID).Scan(&confirmed, &capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if confirmed >= capacity {
		return nil, ErrSeatNotAvailable
	}

	var id int64
	var position int
	err = tx.QueryRow(ctx, `SELECT id, waitlist_position FROM reservations
		WHERE session_id=$1 AND status='WAITLISTED'
		ORDER BY waitlist_position LIMIT 1`, sessionID).Scan(&id, &position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `UPDATE reservations
		SET status='CONFIRMED', waitlist_position=NULL, updated_at=now()
		WHERE id=$1
		RETURNING `+reservationColumns, id)
	promoted, err := scanReservation(row)
	if err != nil {
		return nil, err
	}
	if err := renumberAfter(ctx, tx, sessionID, &position); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE sessions
		SET confirmed_count = confirmed_count + 1,
		    waitlist_count = GREATEST(waitlist_count - 1, 0),
		    updated_at = now()
		WHERE id=$1`, sessionID); err != nil {
		return nil, err
	}
	return promoted, tx.Commit(ctx)
}

func (r *PGReservationRepository) ListConfirmedNotCheckedIn(ctx context.Context, sessionID int64) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE session_id=$1 AND status='CONFIRMED' ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *PGReservationRepository) MarkNoShow(ctx context.Context, id int64) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `UPDATE reservations
		SET status='NO_SHOW', updated_at=now()
		WHERE id=$1 AND status='CONFIRMED'
		RETURNING `+reservationColumns, id)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE sessions SET no_show_count = no_show_count + 1, updated_at = now() WHERE id=$1`, res.SessionID); err != nil {
		return nil, err
	}
	return res, tx.Commit(ctx)
}

func (r *PGReservationRepository) CancelRemainingWaitlisted(ctx context.Context, sessionID int64, reason string) ([]domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := lockSession(ctx, tx, sessionID); err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `UPDATE reservations
		SET status='CANCELLED', waitlist_position=NULL, cancel_reason=$2, cancelled_at=now(), updated_at=now()
		WHERE session_id=$1 AND status='WAITLISTED'
		RETURNING `+reservationColumns, sessionID, reason)
	if err != nil {
		return nil, err
	}
	cancelled, err := collectReservations(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE sessions SET waitlist_count = 0, updated_at = now() WHERE id=$1`, sessionID); err != nil {
		return nil, err
	}
	return cancelled, tx.Commit(ctx)
}

// lockSession takes the session row lock that serializes all waitlist
// mutations for one session. Cross-session operations never contend.
func lockSession(ctx context.Context, tx pgx.Tx, sessionID int64) error {
	var id int64
	if err := tx.QueryRow(ctx, `SELECT id FROM sessions WHERE id=$1 FOR UPDATE`, sessionID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// renumberAfter closes the gap left at the given position so the waitlist
// stays a dense 1..N sequence.
func renumberAfter(ctx context.Context, tx pgx.Tx, sessionID int64, position *int) error {
	if position == nil {
		return nil
	}
	_, err := tx.Exec(ctx, `UPDATE reservations
		SET waitlist_position = waitlist_position - 1, updated_at = now()
		WHERE session_id=$1 AND status='WAITLISTED' AND waitlist_position > $2`, sessionID, *position)
	return err
}

func collectReservations(rows pgx.Rows) ([]domain.Reservation, error) {
	out := make([]domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}
