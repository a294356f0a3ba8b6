package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Progress is a habit's skip goal for the current week.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Bonus     int `json:"bonus"`
	MaxBonus  int `json:"maxBonus"`
}

// Met reports whether the base goal has been reached.
func (p Progress) Met() bool {
	return p.Completed >= p.Total
}

// goalTotal is the weekly target. Daily habits expect frequency per day; the
// other periods expect frequency per week or per period window.
func goalTotal(h *Habit) int {
	if h.Period == Daily {
		return h.Frequency * 7
	}
	return h.Frequency
}

func progressOf(h *Habit, now time.Time) Progress {
	start := StartOfWeek(now)
	if h.Period.LongerThanWeek() {
		start = periodWindow(h.Period, now)
	}
	completed := 0
	for _, l := range h.SkippedDays {
		if l.IsSkip() && !l.Date.Before(start) && !l.Date.After(now) {
			completed++
		}
	}
	p := Progress{Completed: completed, Total: goalTotal(h), MaxBonus: h.Frequency}
	if completed > p.Total {
		p.Bonus = completed - p.Total
	}
	return p
}

// AnnualCost is expense × frequency × periods per year.
func AnnualCost(h Habit) decimal.Decimal {
	return h.Expense.
		Mul(decimal.NewFromInt(int64(h.Frequency))).
		Mul(decimal.NewFromInt(h.Period.PeriodsPerYear()))
}

// SkipAmount is the amount credited by one skip under the habit's model.
// Legacy models credit nothing per log.
func SkipAmount(h Habit) decimal.Decimal {
	switch m := h.Model.(type) {
	case FullSkip:
		return h.Expense
	case FractionalSkip:
		occ := h.Period.WeeklyOccurrences(h.Frequency)
		if occ.IsZero() {
			return decimal.Zero
		}
		return m.WeeklySavingsGoal.Div(occ)
	}
	return decimal.Zero
}

// WeekSavings sums the contributions of h's logs dated in the current week.
func WeekSavings(h Habit, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, l := range h.SkippedDays {
		if InCurrentWeek(l.Date, now) {
			total = total.Add(l.Contribution())
		}
	}
	return total
}

// TotalSavings is the session-lifetime savings of h.
func TotalSavings(h Habit) decimal.Decimal {
	switch h.Model.(type) {
	case LegacyFractional:
		return decimal.NewFromInt(int64(h.Skipped())).Mul(h.Expense)
	case LegacyAllOrNothing:
		weeks := int64(h.Skipped() / 7)
		return decimal.NewFromInt(weeks).Mul(h.Expense).Mul(decimal.NewFromInt(int64(h.Frequency)))
	}
	total := decimal.Zero
	for _, l := range h.SkippedDays {
		total = total.Add(l.Contribution())
	}
	return total
}

// AnnualSavings is the potential yearly saving across the selected habits.
func (l *Ledger) AnnualSavings() decimal.Decimal {
	total := decimal.Zero
	for _, h := range l.selectedPtrs() {
		total = total.Add(AnnualCost(*h))
	}
	return total
}

// WeeklySkipSavings is the current-week savings across the selected habits.
func (l *Ledger) WeeklySkipSavings() decimal.Decimal {
	now := l.now()
	total := decimal.Zero
	for _, h := range l.selectedPtrs() {
		total = total.Add(WeekSavings(*h, now))
	}
	return total
}

// TotalSavings is the lifetime savings across the selected habits.
func (l *Ledger) TotalSavings() decimal.Decimal {
	total := decimal.Zero
	for _, h := range l.selectedPtrs() {
		total = total.Add(TotalSavings(*h))
	}
	return total
}

// WeeklySkipCount counts current-week skips across the selected habits.
func (l *Ledger) WeeklySkipCount() int {
	now := l.now()
	n := 0
	for _, h := range l.selectedPtrs() {
		for _, lg := range h.SkippedDays {
			if lg.IsSkip() && InCurrentWeek(lg.Date, now) {
				n++
			}
		}
	}
	return n
}

// Progress returns the current-week skip goal of one habit.
func (l *Ledger) Progress(id string) (Progress, error) {
	h, err := l.lookup(id)
	if err != nil {
		return Progress{}, err
	}
	return progressOf(h, l.now()), nil
}

// DaysTillNextSkip returns the countdown until the habit can be skipped again.
func (l *Ledger) DaysTillNextSkip(id string) (int, error) {
	h, err := l.lookup(id)
	if err != nil {
		return 0, err
	}
	return daysTillNextSkip(h, l.now()), nil
}
