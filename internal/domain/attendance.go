package domain

import "time"

type AttendanceMode string

const (
	AttendanceModeScheduled AttendanceMode = "SCHEDULED"
	AttendanceModeWalkin    AttendanceMode = "WALK_IN"
)

type AttendanceStatus string

const (
	AttendanceStatusPresent    AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent     AttendanceStatus = "ABSENT"
	AttendanceStatusLate       AttendanceStatus = "LATE"
	AttendanceStatusEarlyLeave AttendanceStatus = "EARLY_LEAVE"
)

// AttendanceRecord is the permanent outcome of a reservation: created once
// on check-in or on no-show resolution, never for a cancelled reservation.
type AttendanceRecord struct {
	ID            int64
	SessionID     int64
	MemberID      int64
	ReservationID int64
	Mode          AttendanceMode
	Status        AttendanceStatus
	CheckInAt     *time.Time
	CheckOutAt    *time.Time
	CreatedAt     time.Time
}

// Duration is the attended time span; zero until both timestamps exist.
func (a *AttendanceRecord) Duration() time.Duration {
	if a.CheckInAt == nil || a.CheckOutAt == nil {
		return 0
	}
	return a.CheckOutAt.Sub(*a.CheckInAt)
}
