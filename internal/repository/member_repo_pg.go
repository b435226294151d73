package repository

import (
	"context"
	"errors"

	"github.com/dojokit/booking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MemberRepository is the read-only view of the membership module.
type MemberRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Member, error)
}

type PGMemberRepository struct {
	db *pgxpool.Pool
}

func NewMemberRepository(db *pgxpool.Pool) MemberRepository {
	return &PGMemberRepository{db: db}
}

func (r *PGMemberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	row := r.db.QueryRow(ctx, `SELECT id, group_name, belt, active, checkin_blocked FROM members WHERE id=$1`, id)
	var m domain.Member
	if err := row.Scan(&m.ID, &m.Group, &m.Belt, &m.Active, &m.CheckinBlocked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

var _ MemberRepository = (*PGMemberRepository)(nil)
