package ledger

import (
	"time"
)

const dayLayout = "2006-01-02"

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextStreak computes the streak after a successful generation on today.
//
// Same day keeps the streak (lifting 0 to 1), the day after the last
// activity extends it, and any longer gap or no history restarts it at 1.
func NextStreak(current int, lastActivity *time.Time, today time.Time) int {
	today = Day(today)
	if lastActivity == nil {
		return 1
	}
	last := Day(*lastActivity)

	switch {
	case last.Equal(today):
		if current == 0 {
			return 1
		}
		return current
	case last.Equal(today.AddDate(0, 0, -1)):
		return current + 1
	default:
		return 1
	}
}
