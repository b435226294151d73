package booking

import "time"

// CheckinWindow is the interval around session start during which check-in
// is permitted: [start - Open, start + Close].
type CheckinWindow struct {
	Open  time.Duration
	Close time.Duration
}

func (w CheckinWindow) Allows(now, sessionStart time.Time) bool {
	opensAt := sessionStart.Add(-w.Open)
	closesAt := sessionStart.Add(w.Close)
	return !now.Before(opensAt) && !now.After(closesAt)
}
