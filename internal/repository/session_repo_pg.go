package repository

import (
	"context"
	"errors"

	"github.com/dojokit/booking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository reads sessions and class rules owned by the scheduling
// module and maintains the per-session counters owned by this engine.
type SessionRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Session, error)
	GetClassRules(ctx context.Context, classID int64) (*domain.ClassRules, error)
	// TryReserveSeat atomically increments the confirmed counter while it is
	// below effective capacity. It reports whether the seat was granted and
	// the confirmed count after the attempt.
	TryReserveSeat(ctx context.Context, sessionID int64) (bool, int, error)
	ReleaseSeat(ctx context.Context, sessionID int64) error
	RecordWalkin(ctx context.Context, sessionID int64) error
	ReleaseWalkin(ctx context.Context, sessionID int64) error
	ListUpcoming(ctx context.Context) ([]domain.Session, error)
	ListFinishedUnfinalized(ctx context.Context) ([]int64, error)
	MarkFinalized(ctx context.Context, sessionID int64) error
}

type PGSessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) SessionRepository {
	return &PGSessionRepository{db: db}
}

const sessionColumns = `s.id, s.class_id, s.date, s.starts_at, s.ends_at,
	COALESCE(s.capacity_override, c.capacity) AS capacity, s.status,
	s.confirmed_count, s.waitlist_count, s.checked_in_count, s.no_show_count,
	s.walkin_count, s.finalized_at, s.created_at, s.updated_at`

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.ClassID, &s.Date, &s.StartsAt, &s.EndsAt,
		&s.Capacity, &s.Status, &s.ConfirmedCount, &s.WaitlistCount,
		&s.CheckedInCount, &s.NoShowCount, &s.WalkinCount, &s.FinalizedAt,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGSessionRepository) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions s JOIN classes c ON c.id = s.class_id WHERE s.id=$1`, id)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

func (r *PGSessionRepository) GetClassRules(ctx context.Context, classID int64) (*domain.ClassRules, error) {
	row := r.db.QueryRow(ctx, `SELECT id, active, group_name, belt_whitelist FROM classes WHERE id=$1`, classID)
	var rules domain.ClassRules
	if err := row.Scan(&rules.ClassID, &rules.Active, &rules.Group, &rules.BeltWhitelist); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	return &rules, nil
}

func (r *PGSessionRepository) TryReserveSeat(ctx context.Context, sessionID int64) (bool, int, error) {
	var confirmed int
	err := r.db.QueryRow(ctx, `
		UPDATE sessions s SET confirmed_count = s.confirmed_count + 1, updated_at = now()
		FROM classes c
		WHERE s.id = $1 AND c.id = s.class_id
		  AND s.confirmed_count < COALESCE(s.capacity_override, c.capacity)
		RETURNING s.confirmed_count`, sessionID).Scan(&confirmed)
	if err == nil {
		return true, confirmed, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, 0, err
	}
	// No row updated: either the session is at capacity or it does not exist.
	if err := r.db.QueryRow(ctx, `SELECT confirmed_count FROM sessions WHERE id=$1`, sessionID).Scan(&confirmed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, 0, ErrSessionNotFound
		}
		return false, 0, err
	}
	return false, confirmed, nil
}

func (r *PGSessionRepository) ReleaseSeat(ctx context.Context, sessionID int64) error {
	res, err := r.db.Exec(ctx, `UPDATE sessions SET confirmed_count = GREATEST(confirmed_count - 1, 0), updated_at = now() WHERE id=$1`, sessionID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *PGSessionRepository) RecordWalkin(ctx context.Context, sessionID int64) error {
	res, err := r.db.Exec(ctx, `UPDATE sessions SET walkin_count = walkin_count + 1, updated_at = now() WHERE id=$1`, sessionID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *PGSessionRepository) ReleaseWalkin(ctx context.Context, sessionID int64) error {
	res, err := r.db.Exec(ctx, `UPDATE sessions SET walkin_count = GREATEST(walkin_count - 1, 0), updated_at = now() WHERE id=$1`, sessionID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *PGSessionRepository) ListUpcoming(ctx context.Context) ([]domain.Session, error) {
	rows, err := r.db.Query(ctx, `SELECT `+sessionColumns+` FROM sessions s JOIN classes c ON c.id = s.class_id
		WHERE s.status IN ('SCHEDULED', 'IN_PROGRESS') AND s.ends_at > now() ORDER BY s.starts_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]domain.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (r *PGSessionRepository) ListFinishedUnfinalized(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM sessions WHERE status='FINISHED' AND finalized_at IS NULL ORDER BY ends_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PGSessionRepository) MarkFinalized(ctx context.Context, sessionID int64) error {
	// A second finalize of the same session affects no rows; that is fine.
	_, err := r.db.Exec(ctx, `UPDATE sessions SET finalized_at = now(), updated_at = now() WHERE id=$1 AND finalized_at IS NULL`, sessionID)
	return err
}

var _ SessionRepository = (*PGSessionRepository)(nil)
