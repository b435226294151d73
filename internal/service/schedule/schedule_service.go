package schedule

import (
	"context"

	"github.com/dojokit/booking/internal/domain"
	"github.com/dojokit/booking/internal/repository"
)

type ScheduleUseCase interface {
	ListUpcoming(ctx context.Context) ([]domain.SessionAvailability, error)
	GetSession(ctx context.Context, id int64) (*domain.Session, error)
}

type Cache interface {
	GetSchedule(ctx context.Context) ([]domain.SessionAvailability, error)
	SetSchedule(ctx context.Context, schedule []domain.SessionAvailability) error
}

// ScheduleService serves the availability view of upcoming sessions. The
// displayed counts use only ordinary confirmed reservations; exempt walk-ins
// never appear in the denominator.
type ScheduleService struct {
	sessions repository.SessionRepository
	cache    Cache
}

func NewScheduleService(sessions repository.SessionRepository, cache Cache) *ScheduleService {
	return &ScheduleService{sessions: sessions, cache: cache}
}

func (s *ScheduleService) ListUpcoming(ctx context.Context) ([]domain.SessionAvailability, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetSchedule(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	sessions, err := s.sessions.ListUpcoming(ctx)
	if err != nil {
		return nil, err
	}
	schedule := make([]domain.SessionAvailability, 0, len(sessions))
	for i := range sessions {
		schedule = append(schedule, toAvailability(&sessions[i]))
	}
	if s.cache != nil {
		_ = s.cache.SetSchedule(ctx, schedule)
	}
	return schedule, nil
}

func (s *ScheduleService) GetSession(ctx context.Context, id int64) (*domain.Session, error) {
	return s.sessions.GetByID(ctx, id)
}

func toAvailability(s *domain.Session) domain.SessionAvailability {
	return domain.SessionAvailability{
		SessionID:  s.ID,
		ClassID:    s.ClassID,
		StartsAt:   s.StartsAt,
		EndsAt:     s.EndsAt,
		Capacity:   s.Capacity,
		Confirmed:  s.ConfirmedCount,
		Waitlisted: s.WaitlistCount,
		SpotsLeft:  s.SpotsLeft(),
		Full:       s.SpotsLeft() == 0,
	}
}

var _ ScheduleUseCase = (*ScheduleService)(nil)
