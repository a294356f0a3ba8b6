package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"skiipper/internal/validation"
)

// Habit is a trackable discretionary-spending behaviour.
type Habit struct {
	ID        string
	Name      string
	Expense   decimal.Decimal
	Frequency int
	Period    Period
	Model     SavingsModel

	// SkippedDays is kept in insertion order.
	SkippedDays []SkipLog

	IsForfeited bool
	ForfeitedAt time.Time
}

// SkipLog records one slot of a habit: a skip, a spend or a forfeiture.
type SkipLog struct {
	HabitID     string          `json:"habitId"`
	Date        time.Time       `json:"date"`
	Day         DayCode         `json:"day"`
	AmountSaved decimal.Decimal `json:"amountSaved"`
	IsSpent     bool            `json:"isSpent"`
	IsForfeited bool            `json:"isForfeited"`
}

// IsSkip reports whether the log counts as a skip.
func (l SkipLog) IsSkip() bool {
	return !l.IsSpent && !l.IsForfeited
}

// Contribution is the amount this log adds to savings.
func (l SkipLog) Contribution() decimal.Decimal {
	if !l.IsSkip() {
		return decimal.Zero
	}
	return l.AmountSaved
}

// Skipped counts skip events. It is derived from SkippedDays so the two never drift.
func (h *Habit) Skipped() int {
	n := 0
	for _, l := range h.SkippedDays {
		if l.IsSkip() {
			n++
		}
	}
	return n
}

// Forfeited reports whether a forfeiture is active in the week containing now.
func (h *Habit) Forfeited(now time.Time) bool {
	return h.IsForfeited && !h.ForfeitedAt.Before(StartOfWeek(now))
}

func (h *Habit) clone() Habit {
	c := *h
	c.SkippedDays = append([]SkipLog(nil), h.SkippedDays...)
	return c
}

// HabitDefinition is the input to AddHabit.
type HabitDefinition struct {
	Name      string
	Expense   decimal.Decimal
	Frequency int
	Period    Period
	Model     SavingsModel
}

// Validate checks every field, including the fractional-skip parameters.
func (d HabitDefinition) Validate() error {
	if err := validation.ValidateHabitName(d.Name); err != nil {
		return err
	}
	if err := validation.ValidatePositiveAmount("expense", d.Expense); err != nil {
		return err
	}
	if err := validation.ValidateFrequency(d.Frequency); err != nil {
		return err
	}
	if !d.Period.Valid() {
		return validation.ValidationError{Field: "period", Message: "unknown period"}
	}
	switch m := d.Model.(type) {
	case nil:
		return validation.ValidationError{Field: "savingsModel", Message: "savings model is required"}
	case FractionalSkip:
		if err := validation.ValidatePositiveAmount("typicalWeeklySpend", m.TypicalWeeklySpend); err != nil {
			return err
		}
		if err := validation.ValidatePositiveAmount("weeklySavingsGoal", m.WeeklySavingsGoal); err != nil {
			return err
		}
	}
	return nil
}

// HabitPatch holds the fields UpdateHabit merges; nil fields are left alone.
type HabitPatch struct {
	Name      *string
	Expense   *decimal.Decimal
	Frequency *int
	Period    *Period
	Model     SavingsModel
}

func (h *Habit) definition() HabitDefinition {
	return HabitDefinition{
		Name:      h.Name,
		Expense:   h.Expense,
		Frequency: h.Frequency,
		Period:    h.Period,
		Model:     h.Model,
	}
}

func (p HabitPatch) apply(d HabitDefinition) HabitDefinition {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Expense != nil {
		d.Expense = *p.Expense
	}
	if p.Frequency != nil {
		d.Frequency = *p.Frequency
	}
	if p.Period != nil {
		d.Period = *p.Period
	}
	if p.Model != nil {
		d.Model = p.Model
	}
	return d
}
