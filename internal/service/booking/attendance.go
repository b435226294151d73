package booking

import (
	"context"
	"time"

	"github.com/dojokit/booking/internal/domain"
	"github.com/dojokit/booking/internal/repository"
)

// AttendanceReconciler turns reservation outcomes into permanent attendance
// records. Both entry points are idempotent: the unique reservation key makes
// a second call a no-op, never an error.
type AttendanceReconciler struct {
	attendance repository.AttendanceRepository
}

func NewAttendanceReconciler(attendance repository.AttendanceRepository) *AttendanceReconciler {
	return &AttendanceReconciler{attendance: attendance}
}

// RecordPresent creates the record for a check-in. Arrivals after session
// start are recorded as late.
func (a *AttendanceReconciler) RecordPresent(ctx context.Context, res *domain.Reservation, session *domain.Session, at time.Time) error {
	status := domain.AttendanceStatusPresent
	if at.After(session.StartsAt) {
		status = domain.AttendanceStatusLate
	}
	checkIn := at
	rec := &domain.AttendanceRecord{
		SessionID:     session.ID,
		MemberID:      res.MemberID,
		ReservationID: res.ID,
		Mode:          modeFor(res.Kind),
		Status:        status,
		CheckInAt:     &checkIn,
	}
	_, err := a.attendance.Create(ctx, rec)
	return err
}

// RecordAbsent creates the record for a no-show resolved at finalize time.
func (a *AttendanceReconciler) RecordAbsent(ctx context.Context, res *domain.Reservation, session *domain.Session) error {
	rec := &domain.AttendanceRecord{
		SessionID:     session.ID,
		MemberID:      res.MemberID,
		ReservationID: res.ID,
		Mode:          modeFor(res.Kind),
		Status:        domain.AttendanceStatusAbsent,
	}
	_, err := a.attendance.Create(ctx, rec)
	return err
}

func modeFor(kind domain.ReservationKind) domain.AttendanceMode {
	if kind == domain.ReservationKindExemptWalkin {
		return domain.AttendanceModeWalkin
	}
	return domain.AttendanceModeScheduled
}
