package usage

import (
	"time"
)

// Record is the persisted usage counter for one tool.
type Record struct {
	Count     int    `json:"count"`
	ResetDate string `json:"resetDate"` // local calendar day the count applies to
}

// Status is the derived quota state for one tool
type Status struct {
	ToolID         string
	Count          int
	RemainingUses  int
	IsLimitReached bool
	NextReset      time.Time // local midnight at the start of tomorrow
}

// ResetIn returns how long until the quota resets, never negative.
func (s Status) ResetIn(now time.Time) time.Duration {
	d := s.NextReset.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
