package booking

import (
	"context"

	"github.com/dojokit/booking/internal/repository"
)

// CapacityLedger arbitrates seats. Ordinary reservations go through the
// atomic conditional increment on the session row; exempt walk-ins are
// recorded on a separate counter and never gate on the hard cap, so the
// "is the lesson full" denominator stays untouched by them.
type CapacityLedger struct {
	sessions repository.SessionRepository
	attempts int
}

func NewCapacityLedger(sessions repository.SessionRepository, attempts int) *CapacityLedger {
	if attempts < 1 {
		attempts = 1
	}
	return &CapacityLedger{sessions: sessions, attempts: attempts}
}

// TryReserve attempts to claim a seat. A lost update here directly causes
// overbooking, so transient write conflicts are retried a bounded number of
// times; business outcomes (granted or full) are never retried.
func (l *CapacityLedger) TryReserve(ctx context.Context, sessionID int64, exempt bool) (bool, int, error) {
	if exempt {
		if err := l.sessions.RecordWalkin(ctx, sessionID); err != nil {
			return false, 0, err
		}
		return true, 0, nil
	}

	var lastErr error
	for attempt := 0; attempt < l.attempts; attempt++ {
		granted, confirmed, err := l.sessions.TryReserveSeat(ctx, sessionID)
		if err == nil {
			return granted, confirmed, nil
		}
		if !repository.IsRetryable(err) {
			return false, 0, err
		}
		lastErr = err
	}
	return false, 0, lastErr
}

// Release frees a seat. The repository floors the counter at zero.
func (l *CapacityLedger) Release(ctx context.Context, sessionID int64, exempt bool) error {
	if exempt {
		return l.sessions.ReleaseWalkin(ctx, sessionID)
	}
	return l.sessions.ReleaseSeat(ctx, sessionID)
}
