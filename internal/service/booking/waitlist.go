package booking

import (
	"context"
	"errors"

	"github.com/dojokit/booking/internal/domain"
	"github.com/dojokit/booking/internal/repository"
)

// WaitlistManager keeps the per-session queue ordered and dense. The
// repository serializes each operation on the session row lock; this layer
// owns the policy (arrival order in, lowest position out).
type WaitlistManager struct {
	reservations repository.ReservationRepository
}

func NewWaitlistManager(reservations repository.ReservationRepository) *WaitlistManager {
	return &WaitlistManager{reservations: reservations}
}

// Enqueue appends the reservation at the tail and returns its position.
func (w *WaitlistManager) Enqueue(ctx context.Context, res *domain.Reservation) (int, error) {
	return w.reservations.CreateWaitlisted(ctx, res)
}

// PromoteNext confirms the earliest waitlisted reservation if a seat is
// free. It returns (nil, nil) when there is nothing to promote: empty
// waitlist or no free seat.
func (w *WaitlistManager) PromoteNext(ctx context.Context, sessionID int64) (*domain.Reservation, error) {
	promoted, err := w.reservations.PromoteNext(ctx, sessionID)
	if errors.Is(err, repository.ErrSeatNotAvailable) {
		return nil, nil
	}
	return promoted, err
}

// Remove cancels a waitlisted reservation and renumbers later entries.
func (w *WaitlistManager) Remove(ctx context.Context, id int64, reason string) (*domain.Reservation, error) {
	return w.reservations.CancelWaitlisted(ctx, id, reason)
}
