package app

import "time"

// DateLayout is the calendar-date format used for check-in dates.
const DateLayout = "2006-01-02"

// MaxCheckInDay caps the displayed check-in day.
const MaxCheckInDay = 7

// CheckInPolicy decides when a daily check-in is allowed and how the streak
// moves. Dates are compared in Location (time.Local when nil).
type CheckInPolicy struct {
	Location *time.Location
	// ResetStreakOnBreak resets the streak to 1 when a day is missed. When
	// false only the displayed day resets and the streak counter is kept.
	ResetStreakOnBreak bool
}

func (p CheckInPolicy) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

// Today formats now as a calendar date in the policy's location.
func (p CheckInPolicy) Today(now time.Time) string {
	return now.In(p.location()).Format(DateLayout)
}

// IsAvailable reports whether a check-in may be claimed at now.
func (p CheckInPolicy) IsAvailable(lastDate string, now time.Time) bool {
	if lastDate == "" {
		return true
	}
	last, err := time.ParseInLocation(DateLayout, lastDate, p.location())
	if err != nil {
		return true
	}
	return last.Format(DateLayout) != p.Today(now)
}

// Advance computes the streak and check-in day for a check-in at now.
func (p CheckInPolicy) Advance(lastDate string, streak int, now time.Time) (newStreak, day int) {
	if streak < 1 {
		streak = 1
	}
	if lastDate == "" {
		return streak, clampDay(streak)
	}
	last, err := time.ParseInLocation(DateLayout, lastDate, p.location())
	if err != nil {
		return streak, clampDay(streak)
	}

	diffDays := daysBetween(last, now.In(p.location()))
	switch {
	case diffDays == 1:
		newStreak = streak + 1
		return newStreak, clampDay(newStreak)
	case diffDays > 1:
		if p.ResetStreakOnBreak {
			return 1, 1
		}
		return streak, 1
	}
	return streak, clampDay(streak)
}

// daysBetween counts calendar days from a to b, ignoring clock time and DST
// shifts in their location.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func clampDay(streak int) int {
	if streak > MaxCheckInDay {
		return MaxCheckInDay
	}
	if streak < 1 {
		return 1
	}
	return streak
}
