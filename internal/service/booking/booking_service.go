package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dojokit/booking/internal/domain"
	"github.com/dojokit/booking/internal/kafka"
	"github.com/dojokit/booking/internal/repository"
	"github.com/google/uuid"
)

const ActorRoleAdmin = "admin"

type BookingUseCase interface {
	CreateReservation(ctx context.Context, input CreateReservationInput) (*domain.Reservation, error)
	CancelReservation(ctx context.Context, token, actorRole, reason string) (*domain.Reservation, error)
	CheckIn(ctx context.Context, token string, now time.Time) (*domain.Reservation, error)
	FinalizeSession(ctx context.Context, sessionID int64) (*FinalizeResult, error)
	ListReservations(ctx context.Context, sessionID int64) ([]domain.Reservation, error)
}

type Locker interface {
	AcquireReservationLock(ctx context.Context, sessionID, memberID int64, ttl time.Duration) (bool, error)
	ReleaseReservationLock(ctx context.Context, sessionID, memberID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateReservationInput struct {
	SessionID int64                  `json:"session_id"`
	MemberID  int64                  `json:"member_id"`
	Kind      domain.ReservationKind `json:"kind"`
}

type FinalizeResult struct {
	Promoted     []string `json:"promoted"`
	AbsentMarked []string `json:"absent_marked"`
}

// Settings are the booking rules owned by the scheduling collaborator.
type Settings struct {
	Window               CheckinWindow
	CancellationCutoff   time.Duration
	WaitlistEnabled      bool
	ReserveRetryAttempts int
	CreateLockTTL        time.Duration
}

// BookingService owns the reservation lifecycle
// (waitlisted/confirmed -> checked_in/cancelled/no_show). Every side effect
// on the capacity ledger, waitlist and attendance records is an explicit
// synchronous call from here; event publication is fire and forget.
type BookingService struct {
	reservations       repository.ReservationRepository
	sessions           repository.SessionRepository
	members            repository.MemberRepository
	ledger             *CapacityLedger
	waitlist           *WaitlistManager
	reconciler         *AttendanceReconciler
	locker             Locker
	producer           Producer
	reservationTopic   string
	notificationsTopic string
	settings           Settings
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	reservations repository.ReservationRepository,
	sessions repository.SessionRepository,
	members repository.MemberRepository,
	attendance repository.AttendanceRepository,
	locker Locker,
	producer Producer,
	reservationTopic string,
	settings Settings,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		reservations:     reservations,
		sessions:         sessions,
		members:          members,
		ledger:           NewCapacityLedger(sessions, settings.ReserveRetryAttempts),
		waitlist:         NewWaitlistManager(reservations),
		reconciler:       NewAttendanceReconciler(attendance),
		locker:           locker,
		producer:         producer,
		reservationTopic: reservationTopic,
		settings:         settings,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateReservation(ctx context.Context, input CreateReservationInput) (*domain.Reservation, error) {
	if input.SessionID <= 0 {
		return nil, domain.NewInvalidInput("session id must be positive")
	}
	if input.MemberID <= 0 {
		return nil, domain.NewInvalidInput("member id must be positive")
	}
	if input.Kind == "" {
		input.Kind = domain.ReservationKindNormal
	}
	if !input.Kind.Valid() {
		return nil, domain.NewInvalidInput("unknown reservation kind")
	}

	session, err := s.sessions.GetByID(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.Bookable() {
		return nil, &domain.Error{
			Kind:      domain.ErrInvalidTransition,
			SessionID: input.SessionID,
			MemberID:  input.MemberID,
			Reason:    "session is not open for reservations",
		}
	}

	member, err := s.members.GetByID(ctx, input.MemberID)
	if err != nil {
		return nil, err
	}
	rules, err := s.sessions.GetClassRules(ctx, session.ClassID)
	if err != nil {
		return nil, err
	}
	if result := CheckEligibility(member, rules); !result.Eligible {
		return nil, domain.NewNotEligible(input.SessionID, input.MemberID, result.Reason)
	}

	if s.locker != nil {
		ok, err := s.locker.AcquireReservationLock(ctx, input.SessionID, input.MemberID, s.settings.CreateLockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.NewDuplicateReservation(input.SessionID, input.MemberID)
		}
		defer func() {
			_ = s.locker.ReleaseReservationLock(ctx, input.SessionID, input.MemberID)
		}()
	}

	exempt := input.Kind.BypassesCapacity()
	granted, _, err := s.ledger.TryReserve(ctx, input.SessionID, exempt)
	if err != nil {
		return nil, err
	}

	res := &domain.Reservation{
		Token:     uuid.NewString(),
		SessionID: input.SessionID,
		MemberID:  input.MemberID,
		Kind:      input.Kind,
	}

	if granted {
		if err := s.reservations.CreateConfirmed(ctx, res); err != nil {
			_ = s.ledger.Release(ctx, input.SessionID, exempt)
			if errors.Is(err, repository.ErrDuplicateActiveReservation) {
				return nil, domain.NewDuplicateReservation(input.SessionID, input.MemberID)
			}
			return nil, err
		}
		res.Status = domain.ReservationStatusConfirmed
		s.publish(ctx, kafka.EventReservationConfirmed, res)
		return res, nil
	}

	if !s.settings.WaitlistEnabled {
		return nil, domain.NewSessionFull(input.SessionID, input.MemberID)
	}
	position, err := s.waitlist.Enqueue(ctx, res)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveReservation) {
			return nil, domain.NewDuplicateReservation(input.SessionID, input.MemberID)
		}
		return nil, err
	}
	res.Status = domain.ReservationStatusWaitlisted
	res.WaitlistPosition = &position
	s.publish(ctx, kafka.EventReservationWaitlisted, res)
	return res, nil
}

func (s *BookingService) CancelReservation(ctx context.Context, token, actorRole, reason string) (*domain.Reservation, error) {
	res, err := s.reservations.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	switch res.Status {
	case domain.ReservationStatusWaitlisted:
		updated, err := s.waitlist.Remove(ctx, res.ID, reason)
		if err != nil {
			if errors.Is(err, repository.ErrReservationNotFound) {
				return nil, domain.NewInvalidTransition(res, "cancel")
			}
			return nil, err
		}
		s.publish(ctx, kafka.EventReservationCancelled, updated)
		return updated, nil

	case domain.ReservationStatusConfirmed:
		session, err := s.sessions.GetByID(ctx, res.SessionID)
		if err != nil {
			return nil, err
		}
		if actorRole != ActorRoleAdmin && !time.Now().Before(session.StartsAt.Add(-s.settings.CancellationCutoff)) {
			return nil, domain.NewCancellationCutoffPassed(res.SessionID, res.MemberID)
		}

		updated, err := s.reservations.CancelConfirmed(ctx, res.ID, reason)
		if err != nil {
			if errors.Is(err, repository.ErrReservationNotFound) {
				return nil, domain.NewInvalidTransition(res, "cancel")
			}
			return nil, err
		}

		// The cancellation has committed; a failed release must not make the
		// caller believe it did not. The finalize sweep reconciles the seat.
		exempt := res.Kind.BypassesCapacity()
		if err := s.ledger.Release(ctx, res.SessionID, exempt); err != nil {
			log.Printf("WARNING: failed to release seat for session %d after cancellation: %v", res.SessionID, err)
		} else if !exempt {
			s.promoteOne(ctx, res.SessionID)
		}
		s.publish(ctx, kafka.EventReservationCancelled, updated)
		return updated, nil

	default:
		// checked_in, cancelled, no_show: presence cannot be retracted and
		// terminal states accept no transitions.
		return nil, domain.NewInvalidTransition(res, "cancel")
	}
}

func (s *BookingService) CheckIn(ctx context.Context, token string, now time.Time) (*domain.Reservation, error) {
	res, err := s.reservations.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if res.Status != domain.ReservationStatusConfirmed {
		return nil, domain.NewInvalidTransition(res, "check-in")
	}

	session, err := s.sessions.GetByID(ctx, res.SessionID)
	if err != nil {
		return nil, err
	}
	if !s.settings.Window.Allows(now, session.StartsAt) {
		return nil, domain.NewOutsideCheckinWindow(res.SessionID, res.MemberID)
	}

	updated, err := s.reservations.MarkCheckedIn(ctx, res.ID, now)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, domain.NewInvalidTransition(res, "check-in")
		}
		return nil, err
	}
	if err := s.reconciler.RecordPresent(ctx, updated, session, now); err != nil {
		return nil, err
	}
	s.publish(ctx, kafka.EventMemberCheckedIn, updated)
	return updated, nil
}

func (s *BookingService) FinalizeSession(ctx context.Context, sessionID int64) (*FinalizeResult, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	result := &FinalizeResult{Promoted: []string{}, AbsentMarked: []string{}}
	if session.FinalizedAt != nil {
		return result, nil
	}
	if session.Status != domain.SessionStatusFinished {
		return nil, &domain.Error{
			Kind:      domain.ErrInvalidTransition,
			SessionID: sessionID,
			Reason:    "session is not finished",
		}
	}

	pending, err := s.reservations.ListConfirmedNotCheckedIn(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Fill seats that were freed but never filled while the session was
	// still open (for example when the scheduler raised capacity late).
	// The session is over, so promoted entries resolve like any other seat
	// that was never used: the no-show pass below picks them up, and no
	// reservation outlives its session in a non-terminal state.
	for {
		promoted, err := s.waitlist.PromoteNext(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if promoted == nil {
			break
		}
		result.Promoted = append(result.Promoted, promoted.Token)
		s.publish(ctx, kafka.EventWaitlistPromoted, promoted)
		pending = append(pending, *promoted)
	}

	for i := range pending {
		updated, err := s.reservations.MarkNoShow(ctx, pending[i].ID)
		if err != nil {
			if errors.Is(err, repository.ErrReservationNotFound) {
				continue
			}
			return nil, err
		}
		if err := s.reconciler.RecordAbsent(ctx, updated, session); err != nil {
			return nil, err
		}
		result.AbsentMarked = append(result.AbsentMarked, updated.Token)
		s.publish(ctx, kafka.EventMemberNoShow, updated)
	}

	cancelled, err := s.reservations.CancelRemainingWaitlisted(ctx, sessionID, "session finished")
	if err != nil {
		return nil, err
	}
	for i := range cancelled {
		s.publish(ctx, kafka.EventReservationCancelled, &cancelled[i])
	}

	if err := s.sessions.MarkFinalized(ctx, sessionID); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *BookingService) ListReservations(ctx context.Context, sessionID int64) ([]domain.Reservation, error) {
	return s.reservations.ListBySession(ctx, sessionID)
}

// promoteOne moves the head of the waitlist into the seat just freed by a
// cancellation. Promotion failure is logged, not returned: the cancellation
// has already committed and the finalize sweep will catch the missed seat.
func (s *BookingService) promoteOne(ctx context.Context, sessionID int64) {
	promoted, err := s.waitlist.PromoteNext(ctx, sessionID)
	if err != nil {
		log.Printf("WARNING: waitlist promotion failed for session %d: %v", sessionID, err)
		return
	}
	if promoted != nil {
		s.publish(ctx, kafka.EventWaitlistPromoted, promoted)
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, res *domain.Reservation) {
	if s.producer == nil || s.reservationTopic == "" {
		return
	}
	event := kafka.ReservationEvent{
		Type:       eventType,
		Token:      res.Token,
		SessionID:  res.SessionID,
		MemberID:   res.MemberID,
		Kind:       string(res.Kind),
		Status:     string(res.Status),
		OccurredAt: time.Now(),
	}
	if res.WaitlistPosition != nil {
		event.WaitlistPosition = *res.WaitlistPosition
	}
	if err := s.producer.Publish(ctx, s.reservationTopic, res.Token, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for reservation %s: %v", eventType, res.Token, err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, res.Token, event); err != nil {
			log.Printf("WARNING: failed to publish %s notification for reservation %s: %v", eventType, res.Token, err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
