package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Period is the cadence over which a habit's Frequency occurrences are expected.
type Period string

const (
	Daily       Period = "daily"
	Weekly      Period = "weekly"
	Fortnightly Period = "fortnightly"
	Monthly     Period = "monthly"
	Quarterly   Period = "quarterly"
	Yearly      Period = "yearly"
)

// weeksPerMonth is the average number of weeks in a calendar month.
var weeksPerMonth = decimal.RequireFromString("4.345")

// ParsePeriod converts a raw string into a Period.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown period %q", s)
	}
	return p, nil
}

// Valid reports whether p is one of the known periods.
func (p Period) Valid() bool {
	switch p {
	case Daily, Weekly, Fortnightly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// PeriodsPerYear returns how many times the period repeats in a year.
func (p Period) PeriodsPerYear() int64 {
	switch p {
	case Daily:
		return 365
	case Weekly:
		return 52
	case Fortnightly:
		return 26
	case Monthly:
		return 12
	case Quarterly:
		return 4
	case Yearly:
		return 1
	}
	return 0
}

// WindowDays is the length of the skip window for periods longer than a week.
// Windows are whole weeks so they line up with the Monday week start.
func (p Period) WindowDays() int {
	switch p {
	case Fortnightly:
		return 14
	case Monthly:
		return 28
	case Quarterly:
		return 91
	case Yearly:
		return 364
	}
	return 7
}

// LongerThanWeek reports whether skips for p are gated by period sub-slots.
func (p Period) LongerThanWeek() bool {
	switch p {
	case Fortnightly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// WeeklyOccurrences normalises frequency occurrences per period to a weekly count.
func (p Period) WeeklyOccurrences(frequency int) decimal.Decimal {
	f := decimal.NewFromInt(int64(frequency))
	switch p {
	case Daily:
		return f.Mul(decimal.NewFromInt(7))
	case Weekly:
		return f
	case Fortnightly:
		return f.Div(decimal.NewFromInt(2))
	case Monthly:
		return f.Div(weeksPerMonth)
	case Quarterly:
		return f.Div(decimal.NewFromInt(13))
	case Yearly:
		return f.Div(decimal.NewFromInt(52))
	}
	return decimal.Zero
}
