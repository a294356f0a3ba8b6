package ledger

import (
	"fmt"
	"strings"
	"time"
)

// DayCode is the lowercase three-letter weekday code stored alongside each skip.
type DayCode string

const (
	Mon DayCode = "mon"
	Tue DayCode = "tue"
	Wed DayCode = "wed"
	Thu DayCode = "thu"
	Fri DayCode = "fri"
	Sat DayCode = "sat"
	Sun DayCode = "sun"
)

// weekOrder lists day codes in ISO order, Monday first.
var weekOrder = []DayCode{Mon, Tue, Wed, Thu, Fri, Sat, Sun}

// ParseDayCode accepts "mon".."sun" in any case.
func ParseDayCode(s string) (DayCode, error) {
	d := DayCode(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range weekOrder {
		if c == d {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown day code %q", s)
}

// DayCodeOf returns the day code for t in its own location.
func DayCodeOf(t time.Time) DayCode {
	// time.Weekday starts at Sunday.
	return weekOrder[(int(t.Weekday())+6)%7]
}

// offset is the number of days since Monday.
func (d DayCode) offset() int {
	for i, c := range weekOrder {
		if c == d {
			return i
		}
	}
	return -1
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns the most recent Monday 00:00 in t's location.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -DayCodeOf(t).offset())
}

// SameDay reports whether a and b fall on the same local calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// InCurrentWeek reports whether t lies in [StartOfWeek(now), now].
func InCurrentWeek(t, now time.Time) bool {
	start := StartOfWeek(now)
	return !t.Before(start) && !t.After(now)
}

// daysBetween counts calendar days from a to b, both truncated to midnight.
func daysBetween(a, b time.Time) int {
	a, b = StartOfDay(a), StartOfDay(b)
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// periodWindow returns the start of the long-period window containing now.
// Windows are anchored at Monday 1970-01-05 so every window starts on a Monday.
func periodWindow(p Period, now time.Time) time.Time {
	length := p.WindowDays()
	anchor := time.Date(1970, 1, 5, 0, 0, 0, 0, now.Location())
	idx := daysBetween(anchor, now) / length
	return anchor.AddDate(0, 0, idx*length)
}
