// Package ledger owns the habit and skip state of one wizard session and derives
// every savings figure from it.
//
// A Ledger is not safe for concurrent use. Callers that share one across
// goroutines must serialise access themselves (see service.LedgerStore).
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrSkipNotFound  = errors.New("skip not found")
)

// Clock returns the current instant.
type Clock func() time.Time

// Ledger aggregates the habit catalog, the selection and every habit's skip log.
type Ledger struct {
	habits   []*Habit
	index    map[string]*Habit
	selected map[string]bool

	clock Clock
	loc   *time.Location
	newID func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now. Tests use it to pin the current week.
func WithClock(c Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithLocation sets the zone used for calendar days and the Monday week start.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithIDGenerator replaces the uuid generator used for custom habits.
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) { l.newID = fn }
}

// WithCatalog replaces the seed catalog. Habits are copied; none are selected.
func WithCatalog(habits []Habit) Option {
	return func(l *Ledger) {
		l.habits = nil
		l.index = make(map[string]*Habit, len(habits))
		for i := range habits {
			h := habits[i].clone()
			l.habits = append(l.habits, &h)
			l.index[h.ID] = &h
		}
	}
}

// New returns a Ledger holding the seed catalog with nothing selected.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		selected: make(map[string]bool),
		clock:    time.Now,
		loc:      time.Local,
		newID:    func() string { return uuid.New().String() },
	}
	WithCatalog(SeedHabits())(l)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) now() time.Time {
	return l.clock().In(l.loc)
}

// Now exposes the ledger's clock in its location.
func (l *Ledger) Now() time.Time {
	return l.now()
}

func (l *Ledger) lookup(id string) (*Habit, error) {
	h, ok := l.index[id]
	if !ok {
		return nil, ErrHabitNotFound
	}
	return h, nil
}

// AddHabit validates def and appends a new habit, selected by default.
func (l *Ledger) AddHabit(def HabitDefinition) (Habit, error) {
	if err := def.Validate(); err != nil {
		return Habit{}, err
	}
	h := &Habit{
		ID:        l.newID(),
		Name:      def.Name,
		Expense:   def.Expense,
		Frequency: def.Frequency,
		Period:    def.Period,
		Model:     def.Model,
	}
	l.habits = append(l.habits, h)
	l.index[h.ID] = h
	l.selected[h.ID] = true
	return h.clone(), nil
}

// UpdateHabit merges patch into the habit. The merged habit must still be valid;
// skip logs are kept.
func (l *Ledger) UpdateHabit(id string, patch HabitPatch) (Habit, error) {
	h, err := l.lookup(id)
	if err != nil {
		return Habit{}, err
	}
	def := patch.apply(h.definition())
	if err := def.Validate(); err != nil {
		return Habit{}, err
	}
	h.Name = def.Name
	h.Expense = def.Expense
	h.Frequency = def.Frequency
	h.Period = def.Period
	h.Model = def.Model
	return h.clone(), nil
}

// Habit returns a copy of one habit.
func (l *Ledger) Habit(id string) (Habit, bool) {
	h, ok := l.index[id]
	if !ok {
		return Habit{}, false
	}
	return h.clone(), true
}

// Habits returns copies of the whole catalog in insertion order.
func (l *Ledger) Habits() []Habit {
	out := make([]Habit, 0, len(l.habits))
	for _, h := range l.habits {
		out = append(out, h.clone())
	}
	return out
}

// ToggleHabit flips whether id is tracked.
func (l *Ledger) ToggleHabit(id string) error {
	if _, err := l.lookup(id); err != nil {
		return err
	}
	if l.selected[id] {
		delete(l.selected, id)
	} else {
		l.selected[id] = true
	}
	return nil
}

// IsSelected reports whether id is tracked.
func (l *Ledger) IsSelected(id string) bool {
	return l.selected[id]
}

// SelectedHabits returns the tracked habits in catalog order.
func (l *Ledger) SelectedHabits() []Habit {
	var out []Habit
	for _, h := range l.selectedPtrs() {
		out = append(out, h.clone())
	}
	return out
}

func (l *Ledger) selectedPtrs() []*Habit {
	var out []*Habit
	for _, h := range l.habits {
		if l.selected[h.ID] {
			out = append(out, h)
		}
	}
	return out
}
