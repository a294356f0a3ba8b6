package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"skiipper/internal/validation"
)

var (
	ErrForfeitExpired = errors.New("forfeiture can only be undone in the week it was made")
	ErrForfeitLog     = errors.New("forfeit entries are removed by undoing the forfeiture")
)

// SkipResult describes an accepted skip or spend.
type SkipResult struct {
	HabitID string  `json:"habitId"`
	Log     SkipLog `json:"log"`
	Bonus   bool    `json:"bonus"`
	// Duplicate is set when a day-keyed skip matched an existing log and
	// nothing was recorded.
	Duplicate bool `json:"duplicate"`
}

// SkipHabit logs a skip for today.
func (l *Ledger) SkipHabit(id string) (SkipResult, error) {
	h, err := l.lookup(id)
	if err != nil {
		return SkipResult{}, err
	}
	now := l.now()
	return l.record(h, now, now, nil, false)
}

// SkipBonus logs a skip that must land beyond an already met weekly goal.
func (l *Ledger) SkipBonus(id string) (SkipResult, error) {
	h, err := l.lookup(id)
	if err != nil {
		return SkipResult{}, err
	}
	now := l.now()
	return l.record(h, now, now, nil, true)
}

// SkipHabitOnDay logs a skip for the given weekday of the current week. A
// second skip for the same day is ignored and reported as a duplicate. A nil
// amount applies the habit's savings model.
func (l *Ledger) SkipHabitOnDay(id string, day DayCode, amount *decimal.Decimal) (SkipResult, error) {
	h, err := l.lookup(id)
	if err != nil {
		return SkipResult{}, err
	}
	if day.offset() < 0 {
		return SkipResult{}, validation.ValidationError{Field: "day", Message: fmt.Sprintf("unknown day %q", day)}
	}
	if amount != nil && amount.IsNegative() {
		return SkipResult{}, validation.ValidationError{Field: "amountSaved", Message: "must not be negative"}
	}

	now := l.now()
	at := l.dayInWeek(day, now)
	if at.After(now) {
		return SkipResult{}, limitf(LimitFutureDay, "%s has not happened yet this week", day)
	}
	if err := checkForfeit(h, now); err != nil {
		return SkipResult{}, err
	}
	for _, lg := range h.SkippedDays {
		if lg.IsForfeited {
			continue
		}
		if lg.Day == day && SameDay(lg.Date.In(l.loc), at) {
			return SkipResult{HabitID: id, Log: lg, Duplicate: true}, nil
		}
	}
	return l.record(h, at, now, amount, false)
}

// dayInWeek returns the instant used for a log on day of now's week. Today maps
// to now itself, earlier days to their midnight.
func (l *Ledger) dayInWeek(day DayCode, now time.Time) time.Time {
	if day == DayCodeOf(now) {
		return now
	}
	return StartOfWeek(now).AddDate(0, 0, day.offset())
}

func (l *Ledger) record(h *Habit, at, now time.Time, amount *decimal.Decimal, bonus bool) (SkipResult, error) {
	if err := checkSkip(h, at, now, bonus); err != nil {
		return SkipResult{}, err
	}
	met := progressOf(h, now).Met()

	saved := SkipAmount(*h)
	if amount != nil {
		saved = *amount
	}
	if IsLegacy(h.Model) {
		saved = decimal.Zero
	}
	lg := SkipLog{
		HabitID:     h.ID,
		Date:        at,
		Day:         DayCodeOf(at),
		AmountSaved: saved,
	}
	h.SkippedDays = append(h.SkippedDays, lg)
	return SkipResult{HabitID: h.ID, Log: lg, Bonus: met}, nil
}

// UnskipLog removes the log at index from the habit's skip list.
func (l *Ledger) UnskipLog(id string, index int) error {
	h, err := l.lookup(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(h.SkippedDays) {
		return ErrSkipNotFound
	}
	if h.SkippedDays[index].IsForfeited {
		return ErrForfeitLog
	}
	h.SkippedDays = append(h.SkippedDays[:index], h.SkippedDays[index+1:]...)
	return nil
}

// UnskipHabitOnDay removes the most recent log for day in the current week.
func (l *Ledger) UnskipHabitOnDay(id string, day DayCode) error {
	h, err := l.lookup(id)
	if err != nil {
		return err
	}
	now := l.now()
	for i := len(h.SkippedDays) - 1; i >= 0; i-- {
		lg := h.SkippedDays[i]
		if lg.Day != day || lg.IsForfeited || !InCurrentWeek(lg.Date, now) {
			continue
		}
		h.SkippedDays = append(h.SkippedDays[:i], h.SkippedDays[i+1:]...)
		return nil
	}
	return ErrSkipNotFound
}

// MarkHabitAsSpent fills the pending slot with a spend. Spends occupy the slot
// but save nothing.
func (l *Ledger) MarkHabitAsSpent(id string) (SkipResult, error) {
	h, err := l.lookup(id)
	if err != nil {
		return SkipResult{}, err
	}
	now := l.now()
	if err := checkForfeit(h, now); err != nil {
		return SkipResult{}, err
	}
	if err := checkSlot(h, now, now); err != nil {
		return SkipResult{}, err
	}
	lg := SkipLog{
		HabitID:     h.ID,
		Date:        now,
		Day:         DayCodeOf(now),
		AmountSaved: decimal.Zero,
		IsSpent:     true,
	}
	h.SkippedDays = append(h.SkippedDays, lg)
	return SkipResult{HabitID: h.ID, Log: lg}, nil
}

// ForfeitHabit blocks skips for the rest of the week, or lifts the block when
// undo is set. Existing logs are kept either way.
func (l *Ledger) ForfeitHabit(id string, undo bool) error {
	h, err := l.lookup(id)
	if err != nil {
		return err
	}
	now := l.now()

	if !undo {
		if h.Forfeited(now) {
			return nil
		}
		h.IsForfeited = true
		h.ForfeitedAt = now
		h.SkippedDays = append(h.SkippedDays, SkipLog{
			HabitID:     h.ID,
			Date:        now,
			Day:         DayCodeOf(now),
			AmountSaved: decimal.Zero,
			IsForfeited: true,
		})
		return nil
	}

	if !h.IsForfeited {
		return nil
	}
	if !h.Forfeited(now) {
		return ErrForfeitExpired
	}
	for i := len(h.SkippedDays) - 1; i >= 0; i-- {
		if h.SkippedDays[i].IsForfeited && h.SkippedDays[i].Date.Equal(h.ForfeitedAt) {
			h.SkippedDays = append(h.SkippedDays[:i], h.SkippedDays[i+1:]...)
			break
		}
	}
	h.IsForfeited = false
	h.ForfeitedAt = time.Time{}
	return nil
}

// SuperSkipResult reports the outcome of SuperSkip per habit.
type SuperSkipResult struct {
	Skipped []SkipResult
	Failed  map[string]error
}

// SuperSkip logs one skip, worth the full expense, for every selected daily
// habit that is not forfeited and still has room today. A habit that fails is
// recorded in Failed and does not stop the others.
func (l *Ledger) SuperSkip() SuperSkipResult {
	now := l.now()
	res := SuperSkipResult{Failed: make(map[string]error)}
	for _, h := range l.selectedPtrs() {
		if h.Period != Daily || h.Forfeited(now) || logsOn(h, now) >= h.Frequency {
			continue
		}
		amount := h.Expense
		r, err := l.record(h, now, now, &amount, false)
		if err != nil {
			res.Failed[h.ID] = err
			continue
		}
		res.Skipped = append(res.Skipped, r)
	}
	return res
}

// ResetSkips clears every habit's skip log and forfeiture.
func (l *Ledger) ResetSkips() {
	for _, h := range l.habits {
		h.SkippedDays = nil
		h.IsForfeited = false
		h.ForfeitedAt = time.Time{}
	}
}
