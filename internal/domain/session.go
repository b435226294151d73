package domain

import "time"

type SessionStatus string

const (
	SessionStatusScheduled  SessionStatus = "SCHEDULED"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusFinished   SessionStatus = "FINISHED"
	SessionStatusCancelled  SessionStatus = "CANCELLED"
	SessionStatusPostponed  SessionStatus = "POSTPONED"
)

// Session is one scheduled occurrence of a class. The scheduling module owns
// the row; this engine reads capacity, status and times and maintains the
// denormalized counters.
type Session struct {
	ID             int64
	ClassID        int64
	Date           time.Time
	StartsAt       time.Time
	EndsAt         time.Time
	Capacity       int
	Status         SessionStatus
	ConfirmedCount int
	WaitlistCount  int
	CheckedInCount int
	NoShowCount    int
	WalkinCount    int
	FinalizedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Bookable reports whether new reservations may target the session.
func (s *Session) Bookable() bool {
	return s.Status == SessionStatusScheduled || s.Status == SessionStatusInProgress
}

// SpotsLeft is the number of seats still open to ordinary reservations.
// Exempt walk-ins are tracked separately and never consume these.
func (s *Session) SpotsLeft() int {
	left := s.Capacity - s.ConfirmedCount
	if left < 0 {
		return 0
	}
	return left
}

// SessionAvailability is the read model served to schedule browsers.
type SessionAvailability struct {
	SessionID  int64     `json:"session_id"`
	ClassID    int64     `json:"class_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	Capacity   int       `json:"capacity"`
	Confirmed  int       `json:"confirmed"`
	Waitlisted int       `json:"waitlisted"`
	SpotsLeft  int       `json:"spots_left"`
	Full       bool      `json:"full"`
}
