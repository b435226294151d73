package domain

// Group values mirror the class rosters: a class is either adults-only,
// kids-only, or open to both.
const (
	GroupAdults = "ADULTS"
	GroupKids   = "KIDS"
	GroupBoth   = "BOTH"
)

// Member is the slice of the membership module this engine needs for
// eligibility decisions.
type Member struct {
	ID             int64
	Group          string
	Belt           string
	Active         bool
	CheckinBlocked bool
}

// ClassRules are the booking-relevant rules of a session's parent class.
// An empty BeltWhitelist admits every belt.
type ClassRules struct {
	ClassID       int64
	Active        bool
	Group         string
	BeltWhitelist []string
}
