package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrInvalidInput             ErrorKind = "INVALID_INPUT"
	ErrNotEligible              ErrorKind = "NOT_ELIGIBLE"
	ErrDuplicateReservation     ErrorKind = "DUPLICATE_RESERVATION"
	ErrSessionFull              ErrorKind = "SESSION_FULL"
	ErrInvalidTransition        ErrorKind = "INVALID_TRANSITION"
	ErrOutsideCheckinWindow     ErrorKind = "OUTSIDE_CHECKIN_WINDOW"
	ErrCancellationCutoffPassed ErrorKind = "CANCELLATION_CUTOFF_PASSED"
)

// Error is a business-rule rejection. It carries enough context for the
// caller to render a precise message; none of these are retried.
type Error struct {
	Kind      ErrorKind
	SessionID int64
	MemberID  int64
	State     ReservationStatus
	Reason    string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s (session=%d member=%d", e.Kind, e.SessionID, e.MemberID)
	if e.State != "" {
		msg += fmt.Sprintf(" state=%s", e.State)
	}
	if e.Reason != "" {
		msg += fmt.Sprintf("): %s", e.Reason)
	} else {
		msg += ")"
	}
	return msg
}

// KindOf returns the domain error kind of err, or "" when err is not a
// domain error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

func NewInvalidInput(reason string) *Error {
	return &Error{Kind: ErrInvalidInput, Reason: reason}
}

func NewNotEligible(sessionID, memberID int64, reason string) *Error {
	return &Error{Kind: ErrNotEligible, SessionID: sessionID, MemberID: memberID, Reason: reason}
}

func NewDuplicateReservation(sessionID, memberID int64) *Error {
	return &Error{Kind: ErrDuplicateReservation, SessionID: sessionID, MemberID: memberID, Reason: "an active reservation already exists for this member and session"}
}

func NewSessionFull(sessionID, memberID int64) *Error {
	return &Error{Kind: ErrSessionFull, SessionID: sessionID, MemberID: memberID, Reason: "session is at capacity and the waitlist is disabled"}
}

func NewInvalidTransition(r *Reservation, event string) *Error {
	return &Error{
		Kind:      ErrInvalidTransition,
		SessionID: r.SessionID,
		MemberID:  r.MemberID,
		State:     r.Status,
		Reason:    fmt.Sprintf("%s is not allowed from state %s", event, r.Status),
	}
}

func NewOutsideCheckinWindow(sessionID, memberID int64) *Error {
	return &Error{Kind: ErrOutsideCheckinWindow, SessionID: sessionID, MemberID: memberID, Reason: "current time is outside the check-in window"}
}

func NewCancellationCutoffPassed(sessionID, memberID int64) *Error {
	return &Error{Kind: ErrCancellationCutoffPassed, SessionID: sessionID, MemberID: memberID, Reason: "cancellation cutoff has passed"}
}
