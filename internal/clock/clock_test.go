package clock

import (
	"testing"
	"time"
)

func parisLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestDayKeyUsesContestTimezone(t *testing.T) {
	loc := parisLocation(t)
	// 23:30 UTC is already the next day in Paris (UTC+1 in winter).
	at := time.Date(2024, time.January, 10, 23, 30, 0, 0, time.UTC)
	c := NewWithNow(loc, func() time.Time { return at })

	if got := c.DayKey(); got != "2024-01-11" {
		t.Fatalf("expected 2024-01-11, got %s", got)
	}
	if got := c.DayKeyOffset(-1); got != "2024-01-10" {
		t.Fatalf("expected 2024-01-10, got %s", got)
	}
}

func TestDayBoundsCoverLocalDay(t *testing.T) {
	loc := parisLocation(t)
	at := time.Date(2024, time.June, 1, 12, 0, 0, 0, loc)
	c := NewWithNow(loc, func() time.Time { return at })

	start, end := c.DayBounds()
	if !start.Before(at) || !end.After(at) {
		t.Fatalf("now %v outside [%v, %v)", at, start, end)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Fatalf("expected 24h day, got %v", end.Sub(start))
	}
	if start.Hour() != 0 || start.Minute() != 0 {
		t.Fatalf("day should start at local midnight, got %v", start)
	}
}

func TestNilLocationDefaultsToUTC(t *testing.T) {
	c := NewWithNow(nil, func() time.Time {
		return time.Date(2024, time.March, 3, 1, 0, 0, 0, time.UTC)
	})
	if got := c.DayKey(); got != "2024-03-03" {
		t.Fatalf("expected 2024-03-03, got %s", got)
	}
}
