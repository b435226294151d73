package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusWaitlisted ReservationStatus = "WAITLISTED"
	ReservationStatusConfirmed  ReservationStatus = "CONFIRMED"
	ReservationStatusCheckedIn  ReservationStatus = "CHECKED_IN"
	ReservationStatusCancelled  ReservationStatus = "CANCELLED"
	ReservationStatusNoShow     ReservationStatus = "NO_SHOW"
)

type ReservationKind string

const (
	ReservationKindNormal       ReservationKind = "NORMAL"
	ReservationKindExemptWalkin ReservationKind = "EXEMPT_WALKIN"
	ReservationKindMakeup       ReservationKind = "MAKEUP"
	ReservationKindCourtesy     ReservationKind = "COURTESY"
)

func (k ReservationKind) Valid() bool {
	switch k {
	case ReservationKindNormal, ReservationKindExemptWalkin, ReservationKindMakeup, ReservationKindCourtesy:
		return true
	}
	return false
}

// BypassesCapacity reports whether the kind reserves outside the hard cap.
func (k ReservationKind) BypassesCapacity() bool {
	return k == ReservationKindExemptWalkin
}

type Reservation struct {
	ID               int64
	Token            string
	SessionID        int64
	MemberID         int64
	Kind             ReservationKind
	Status           ReservationStatus
	WaitlistPosition *int
	CancelReason     string
	CancelledAt      *time.Time
	CheckedInAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Terminal reports whether the reservation can accept no further transitions.
func (r *Reservation) Terminal() bool {
	switch r.Status {
	case ReservationStatusCheckedIn, ReservationStatusCancelled, ReservationStatusNoShow:
		return true
	}
	return false
}

// Active reports whether the reservation still counts toward the one-per-member rule.
func (r *Reservation) Active() bool {
	return r.Status != ReservationStatusCancelled
}
