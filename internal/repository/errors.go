package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrClassNotFound       = errors.New("class not found")
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrDuplicateActiveReservation maps the partial unique index on
	// (session_id, member_id) over non-cancelled rows.
	ErrDuplicateActiveReservation = errors.New("active reservation already exists")

	// ErrSeatNotAvailable is returned by promotion when the session is at
	// capacity again.
	ErrSeatNotAvailable = errors.New("no seat available")
)

const (
	pgUniqueViolation   = "23505"
	pgSerializationFail = "40001"
	pgDeadlockDetected  = "40P01"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsRetryable reports whether err is a transient persistence failure worth a
// bounded retry. Only write conflicts and lost connections qualify; business
// rejections never do.
func IsRetryable(err error) bool {
	if pgconn.SafeToRetry(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFail || pgErr.Code == pgDeadlockDetected
	}
	return false
}
