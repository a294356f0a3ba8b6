package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// HabitView is one habit together with its derived figures.
type HabitView struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Expense            decimal.Decimal  `json:"expense"`
	Frequency          int              `json:"frequency"`
	Period             Period           `json:"period"`
	SavingsModel       ModelKind        `json:"savingsModel"`
	TypicalWeeklySpend *decimal.Decimal `json:"typicalWeeklySpend,omitempty"`
	WeeklySavingsGoal  *decimal.Decimal `json:"weeklySavingsGoal,omitempty"`
	Selected           bool             `json:"selected"`
	Skipped            int              `json:"skipped"`
	SkippedDays        []SkipLog        `json:"skippedDays"`
	IsForfeited        bool             `json:"isForfeited"`
	AnnualCost         decimal.Decimal  `json:"annualCost"`
	WeekSavings        decimal.Decimal  `json:"weekSavings"`
	TotalSavings       decimal.Decimal  `json:"totalSavings"`
	Progress           Progress         `json:"progress"`
	DaysTillNextSkip   int              `json:"daysTillNextSkip"`
}

// Snapshot is the complete derived state of a ledger at one instant.
type Snapshot struct {
	Habits            []HabitView     `json:"habits"`
	Selected          []string        `json:"selected"`
	AnnualSavings     decimal.Decimal `json:"annualSavings"`
	WeeklySkipSavings decimal.Decimal `json:"weeklySkipSavings"`
	WeeklySkipCount   int             `json:"weeklySkipCount"`
	TotalSavings      decimal.Decimal `json:"totalSavings"`
	WeekStart         time.Time       `json:"weekStart"`
	GeneratedAt       time.Time       `json:"generatedAt"`
}

// Snapshot computes every figure in one pass over the current state.
func (l *Ledger) Snapshot() Snapshot {
	now := l.now()
	s := Snapshot{
		Habits:            make([]HabitView, 0, len(l.habits)),
		Selected:          []string{},
		AnnualSavings:     l.AnnualSavings(),
		WeeklySkipSavings: l.WeeklySkipSavings(),
		WeeklySkipCount:   l.WeeklySkipCount(),
		TotalSavings:      l.TotalSavings(),
		WeekStart:         StartOfWeek(now),
		GeneratedAt:       now,
	}
	for _, h := range l.habits {
		s.Habits = append(s.Habits, l.view(h, now))
		if l.selected[h.ID] {
			s.Selected = append(s.Selected, h.ID)
		}
	}
	return s
}

func (l *Ledger) view(h *Habit, now time.Time) HabitView {
	c := h.clone()
	v := HabitView{
		ID:               c.ID,
		Name:             c.Name,
		Expense:          c.Expense,
		Frequency:        c.Frequency,
		Period:           c.Period,
		SavingsModel:     c.Model.Kind(),
		Selected:         l.selected[c.ID],
		Skipped:          c.Skipped(),
		SkippedDays:      c.SkippedDays,
		IsForfeited:      c.Forfeited(now),
		AnnualCost:       AnnualCost(c),
		WeekSavings:      WeekSavings(c, now),
		TotalSavings:     TotalSavings(c),
		Progress:         progressOf(h, now),
		DaysTillNextSkip: daysTillNextSkip(h, now),
	}
	if v.SkippedDays == nil {
		v.SkippedDays = []SkipLog{}
	}
	if m, ok := c.Model.(FractionalSkip); ok {
		v.TypicalWeeklySpend = &m.TypicalWeeklySpend
		v.WeeklySavingsGoal = &m.WeeklySavingsGoal
	}
	return v
}
