package models

import (
	"time"

	"github.com/shopspring/decimal"

	"skiipper/internal/ledger"
)

// StoredHabit is a habit row of the dashboard path.
type StoredHabit struct {
	ID                 int64               `json:"id"`
	UserID             int64               `json:"userId"`
	Name               string              `json:"name"`
	Expense            decimal.Decimal     `json:"expense"`
	Frequency          int                 `json:"frequency"`
	Period             string              `json:"period"`
	SavingsModel       string              `json:"savingsModel"`
	TypicalWeeklySpend decimal.NullDecimal `json:"typicalWeeklySpend"`
	WeeklySavingsGoal  decimal.NullDecimal `json:"weeklySavingsGoal"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// Definition converts the row into the ledger's habit definition so the same
// validation applies to both paths.
func (h *StoredHabit) Definition() (ledger.HabitDefinition, error) {
	period, err := ledger.ParsePeriod(h.Period)
	if err != nil {
		return ledger.HabitDefinition{}, err
	}
	model, err := ledger.NewSavingsModel(h.SavingsModel, h.TypicalWeeklySpend.Decimal, h.WeeklySavingsGoal.Decimal)
	if err != nil {
		return ledger.HabitDefinition{}, err
	}
	return ledger.HabitDefinition{
		Name:      h.Name,
		Expense:   h.Expense,
		Frequency: h.Frequency,
		Period:    period,
		Model:     model,
	}, nil
}

// LedgerHabit returns the row as a ledger habit without skip logs.
func (h *StoredHabit) LedgerHabit() (ledger.Habit, error) {
	def, err := h.Definition()
	if err != nil {
		return ledger.Habit{}, err
	}
	return ledger.Habit{
		Name:      def.Name,
		Expense:   def.Expense,
		Frequency: def.Frequency,
		Period:    def.Period,
		Model:     def.Model,
	}, nil
}

// LedgerHabitWithLogs is LedgerHabit with skips attached as the habit's logs.
func (h *StoredHabit) LedgerHabitWithLogs(skips []SkipRecord) (ledger.Habit, error) {
	lh, err := h.LedgerHabit()
	if err != nil {
		return ledger.Habit{}, err
	}
	for _, s := range skips {
		lh.SkippedDays = append(lh.SkippedDays, s.LedgerLog())
	}
	return lh, nil
}

// SkipRecord is one persisted skip or spend of a stored habit.
type SkipRecord struct {
	ID          int64           `json:"id"`
	HabitID     int64           `json:"habitId"`
	UserID      int64           `json:"userId"`
	SkipDate    time.Time       `json:"date"`
	DayCode     string          `json:"day"`
	AmountSaved decimal.Decimal `json:"amountSaved"`
	IsSpent     bool            `json:"isSpent"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// UserWeekStats is one row of the weekly stats report.
type UserWeekStats struct {
	Email        string          `json:"email"`
	TotalSkips   int             `json:"total_skips"`
	TotalSavings decimal.Decimal `json:"total_savings"`
}

// LedgerLog converts the record into a ledger skip log
func (s SkipRecord) LedgerLog() ledger.SkipLog {
	return ledger.SkipLog{
		Date:        s.SkipDate,
		Day:         ledger.DayCode(s.DayCode),
		AmountSaved: s.AmountSaved,
		IsSpent:     s.IsSpent,
	}
}
