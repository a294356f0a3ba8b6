package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skiipper/internal/ledger"
)

func TestLedgerStoreIsolation(t *testing.T) {
	store := NewLedgerStore(time.Hour, ledger.WithClock(func() time.Time { return wednesday }), ledger.WithLocation(time.UTC))

	a, b := store.Create(), store.Create()
	require.NotEqual(t, a, b)
	assert.Equal(t, 2, store.Len())

	found, err := store.With(a, func(l *ledger.Ledger) error {
		return l.ToggleHabit("seed-coffee")
	})
	require.True(t, found)
	require.NoError(t, err)

	_, _ = store.With(b, func(l *ledger.Ledger) error {
		assert.False(t, l.IsSelected("seed-coffee"))
		return nil
	})

	found, err = store.With("missing", func(*ledger.Ledger) error { return errors.New("unreachable") })
	assert.False(t, found)
	assert.NoError(t, err)

	store.Delete(a)
	assert.False(t, store.Exists(a))
}

func TestLedgerStoreSerializesAccess(t *testing.T) {
	store := NewLedgerStore(time.Hour, ledger.WithClock(func() time.Time { return wednesday }), ledger.WithLocation(time.UTC))
	id := store.Create()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.With(id, func(l *ledger.Ledger) error {
				_, err := l.AddHabit(ledger.HabitDefinition{
					Name:      "Gum",
					Expense:   dec("1"),
					Frequency: 1,
					Period:    ledger.Daily,
					Model:     ledger.FullSkip{},
				})
				return err
			})
		}()
	}
	wg.Wait()

	_, _ = store.With(id, func(l *ledger.Ledger) error {
		assert.Len(t, l.Habits(), len(ledger.SeedHabits())+20)
		return nil
	})
}

func TestLedgerStoreCleanup(t *testing.T) {
	now := wednesday
	store := NewLedgerStore(time.Hour)
	store.now = func() time.Time { return now }

	stale := store.Create()
	now = now.Add(45 * time.Minute)
	fresh := store.Create()
	now = now.Add(30 * time.Minute)

	assert.Equal(t, 1, store.Cleanup())
	assert.False(t, store.Exists(stale))
	assert.True(t, store.Exists(fresh))
}

func TestLedgerStoreSessionBinding(t *testing.T) {
	store := NewLedgerStore(time.Hour)
	bound, loose := store.Create(), store.Create()

	store.Bind(bound, "sess-1")
	store.Bind("pending", "sess-1")
	assert.True(t, store.Exists("pending"), "binding opens a ledger not stored yet")

	assert.Equal(t, 0, store.DeleteBySession(""))
	assert.Equal(t, 2, store.DeleteBySession("sess-1"))
	assert.False(t, store.Exists(bound))
	assert.False(t, store.Exists("pending"))
	assert.True(t, store.Exists(loose))
}

func TestLedgerStoreDiscardOnSignOut(t *testing.T) {
	store := NewLedgerStore(time.Hour)
	id := store.Create()
	store.Bind(id, "sess-1")

	listener := store.DiscardOnSignOut()
	listener(SignedIn, 1, "sess-1")
	assert.True(t, store.Exists(id))

	listener(SignedOut, 1, "sess-1")
	assert.False(t, store.Exists(id))
}

func TestLedgerStoreOpensLazily(t *testing.T) {
	store := NewLedgerStore(time.Hour)

	var habits int
	store.View("not-yet", func(l *ledger.Ledger) {
		habits = len(l.Habits())
		require.NoError(t, l.ToggleHabit("seed-coffee"))
	})
	assert.NotZero(t, habits, "an unstored ledger reads as a fresh one")
	assert.Equal(t, 0, store.Len())

	assert.True(t, store.Open("not-yet"))
	assert.False(t, store.Open("not-yet"))
	assert.Equal(t, 1, store.Len())

	store.View("not-yet", func(l *ledger.Ledger) {
		assert.Empty(t, l.SelectedHabits(), "changes to a throwaway ledger are not kept")
	})
}
