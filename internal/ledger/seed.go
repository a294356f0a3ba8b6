package ledger

import "github.com/shopspring/decimal"

// SeedHabits returns the catalog a new session starts with.
func SeedHabits() []Habit {
	d := decimal.NewFromInt
	return []Habit{
		{ID: "seed-coffee", Name: "Morning coffee", Expense: d(5), Frequency: 1, Period: Daily, Model: FullSkip{}},
		{ID: "seed-lunch", Name: "Lunch out", Expense: d(12), Frequency: 3, Period: Weekly, Model: FullSkip{}},
		{ID: "seed-rideshare", Name: "Rideshare", Expense: d(15), Frequency: 2, Period: Weekly, Model: FullSkip{}},
		{ID: "seed-streaming", Name: "Streaming subscription", Expense: d(15), Frequency: 1, Period: Monthly, Model: FullSkip{}},
		{
			ID: "seed-snacks", Name: "Vending snacks", Expense: d(3), Frequency: 1, Period: Daily,
			Model: FractionalSkip{TypicalWeeklySpend: d(21), WeeklySavingsGoal: d(10)},
		},
		{
			ID: "seed-alcohol", Name: "Drinks out", Expense: d(25), Frequency: 2, Period: Weekly,
			Model: FractionalSkip{TypicalWeeklySpend: d(50), WeeklySavingsGoal: d(20)},
		},
	}
}
