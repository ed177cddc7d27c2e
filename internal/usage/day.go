package usage

import "time"

// DayLayout is the format of the calendar day stored in a Record.
const DayLayout = "2006-01-02"

// DayString identifies the calendar day of t in t's own location. Two instants
// are on the same day iff their day strings match.
func DayString(t time.Time) string {
	return t.Format(DayLayout)
}

// NextReset returns local midnight at the start of the day after now.
func NextReset(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}
