// Package clock computes contest-local calendar days. The leaderboard window
// and the daily question both rotate on the contest timezone, never on the
// host timezone or UTC.
package clock

import "time"

// DayKeyLayout is the calendar-date format used in cache keys.
const DayKeyLayout = "2006-01-02"

// Clock resolves "now" and "today" in a fixed contest timezone.
// The zero value is not usable; construct with New.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Clock for the given location.
func New(loc *time.Location) Clock {
	return NewWithNow(loc, time.Now)
}

// NewWithNow allows tests to pin the current time.
func NewWithNow(loc *time.Location, now func() time.Time) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{loc: loc, now: now}
}

// Now returns the current time in the contest timezone.
func (c Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Location returns the contest timezone.
func (c Clock) Location() *time.Location {
	return c.loc
}

// DayKey returns today's calendar date, contest-local.
func (c Clock) DayKey() string {
	return c.Now().Format(DayKeyLayout)
}

// DayKeyOffset returns the calendar date offset by the given number of days.
func (c Clock) DayKeyOffset(days int) string {
	return c.Now().AddDate(0, 0, days).Format(DayKeyLayout)
}

// DayBounds returns the half-open interval [start, end) of the current
// contest-local day.
func (c Clock) DayBounds() (time.Time, time.Time) {
	now := c.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
	return start, start.AddDate(0, 0, 1)
}
