package ledger

import (
	"fmt"
	"time"
)

// LimitKind classifies why a skip was declined.
type LimitKind string

const (
	LimitDailyCap        LimitKind = "daily-cap"
	LimitPeriodLocked    LimitKind = "period-locked"
	LimitForfeited       LimitKind = "forfeited"
	LimitBonusBeforeGoal LimitKind = "bonus-before-goal"
	LimitBonusCap        LimitKind = "bonus-cap"
	LimitFutureDay       LimitKind = "future-day"
)

// LimitError is a declined skip. Reason is safe to show to the user.
type LimitError struct {
	Kind   LimitKind
	Reason string
}

func (e *LimitError) Error() string {
	return e.Reason
}

func limitf(kind LimitKind, format string, args ...any) *LimitError {
	return &LimitError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func daysLabel(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// logsOn counts the skips and spends of h on the calendar day of at.
// Forfeit markers occupy no slot.
func logsOn(h *Habit, at time.Time) int {
	n := 0
	for _, l := range h.SkippedDays {
		if l.IsForfeited {
			continue
		}
		if SameDay(l.Date.In(at.Location()), at) {
			n++
		}
	}
	return n
}

// logsSince counts the skips and spends of h dated in [start, end].
func logsSince(h *Habit, start, end time.Time) int {
	n := 0
	for _, l := range h.SkippedDays {
		if l.IsForfeited {
			continue
		}
		if !l.Date.Before(start) && !l.Date.After(end) {
			n++
		}
	}
	return n
}

// subSlots returns how many weekly sub-slots the window of a long period holds
// and how many of them have unlocked by now. Sub-slot i unlocks on the Sunday
// ending the i-th week of the window.
func subSlots(p Period, now time.Time) (total, unlocked int) {
	total = p.WindowDays() / 7
	elapsed := daysBetween(periodWindow(p, now), now)
	unlocked = (elapsed + 1) / 7
	if unlocked > total {
		unlocked = total
	}
	return total, unlocked
}

// periodAllowance is how many logs a long-period habit may hold in its current
// window as of now.
func periodAllowance(h *Habit, now time.Time) int {
	_, unlocked := subSlots(h.Period, now)
	if unlocked > h.Frequency {
		return h.Frequency
	}
	return unlocked
}

// checkSlot enforces the per-day and per-period slot rules that apply to both
// skips and spends. at is the calendar day the log is for.
func checkSlot(h *Habit, at, now time.Time) error {
	switch {
	case h.Period == Daily:
		if logsOn(h, at) >= h.Frequency {
			return limitf(LimitDailyCap, "next skip available in 1 day")
		}
	case h.Period == Weekly:
		if logsOn(h, at) >= 1 {
			return limitf(LimitDailyCap, "already logged today, next skip available in 1 day")
		}
	case h.Period.LongerThanWeek():
		start := periodWindow(h.Period, now)
		if logsSince(h, start, now) >= periodAllowance(h, now) {
			return limitf(LimitPeriodLocked, "next skip available in %s", daysLabel(daysTillNextSkip(h, now)))
		}
	}
	return nil
}

func checkForfeit(h *Habit, now time.Time) error {
	if h.Forfeited(now) {
		return limitf(LimitForfeited, "%s is forfeited for this week", h.Name)
	}
	return nil
}

// CheckSkip reports whether a skip of h dated at would be accepted at now.
// It applies the same rules as the Ledger's skip operations.
func CheckSkip(h Habit, at, now time.Time) error {
	return checkSkip(&h, at, now, false)
}

// CheckSpend reports whether a spend of h dated at would be accepted at now.
func CheckSpend(h Habit, at, now time.Time) error {
	if err := checkForfeit(&h, now); err != nil {
		return err
	}
	return checkSlot(&h, at, now)
}

// checkSkip applies every rule a new skip must pass. bonus is true when the
// caller explicitly asked for a bonus skip.
func checkSkip(h *Habit, at, now time.Time, bonus bool) error {
	if err := checkForfeit(h, now); err != nil {
		return err
	}
	if err := checkSlot(h, at, now); err != nil {
		return err
	}
	p := progressOf(h, now)
	if bonus && p.Completed < p.Total {
		return limitf(LimitBonusBeforeGoal, "complete all %d skips before logging a bonus skip", p.Total)
	}
	if p.Completed >= p.Total && p.Bonus >= p.MaxBonus {
		return limitf(LimitBonusCap, "bonus limit of %d reached for this week", p.MaxBonus)
	}
	return nil
}

// daysTillNextSkip is the countdown shown next to a habit. Zero means a skip
// can be logged now.
func daysTillNextSkip(h *Habit, now time.Time) int {
	if h.Forfeited(now) {
		return daysBetween(now, StartOfWeek(now).AddDate(0, 0, 7))
	}
	switch {
	case h.Period == Daily:
		if logsOn(h, now) >= h.Frequency {
			return 1
		}
	case h.Period == Weekly:
		p := progressOf(h, now)
		if p.Completed >= p.Total && p.Bonus >= p.MaxBonus {
			return daysBetween(now, StartOfWeek(now).AddDate(0, 0, 7))
		}
		if logsOn(h, now) >= 1 {
			return 1
		}
	case h.Period.LongerThanWeek():
		start := periodWindow(h.Period, now)
		used := logsSince(h, start, now)
		if used < periodAllowance(h, now) {
			return 0
		}
		total, unlocked := subSlots(h.Period, now)
		if used < h.Frequency && unlocked < total {
			unlock := start.AddDate(0, 0, 7*unlocked+6)
			return daysBetween(now, unlock)
		}
		next := start.AddDate(0, 0, h.Period.WindowDays()+6)
		return daysBetween(now, next)
	}
	return 0
}
