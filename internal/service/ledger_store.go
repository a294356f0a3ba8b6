package service

import (
	"sync"
	"time"

	"skiipper/internal/ledger"
	"skiipper/internal/logger"
	"skiipper/internal/security"
)

type ledgerEntry struct {
	mu       sync.Mutex
	ledger   *ledger.Ledger
	lastUsed time.Time
	// sessionID is the auth session that adopted the ledger, if any.
	sessionID string
}

// LedgerStore keeps one Ledger per wizard session. Calls on the same ledger
// are serialized; different sessions never share state.
type LedgerStore struct {
	mu      sync.Mutex
	entries map[string]*ledgerEntry
	ttl     time.Duration
	now     func() time.Time
	opts    []ledger.Option
}

// NewLedgerStore creates a store whose ledgers are built with opts. Ledgers
// idle for longer than ttl are removed by Cleanup.
func NewLedgerStore(ttl time.Duration, opts ...ledger.Option) *LedgerStore {
	return &LedgerStore{
		entries: make(map[string]*ledgerEntry),
		ttl:     ttl,
		now:     time.Now,
		opts:    opts,
	}
}

// Create starts a fresh ledger and returns its id
func (s *LedgerStore) Create() string {
	id := security.GenerateSessionID()
	s.Open(id)
	return id
}

// Open makes sure a ledger exists under id and reports whether it had to be
// created.
func (s *LedgerStore) Open(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.lastUsed = s.now()
		return false
	}
	s.entries[id] = &ledgerEntry{ledger: ledger.New(s.opts...), lastUsed: s.now()}
	return true
}

// Exists reports whether id names a live ledger
func (s *LedgerStore) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

// With runs fn with exclusive access to the ledger id. It reports false when
// the ledger does not exist.
func (s *LedgerStore) With(id string, fn func(l *ledger.Ledger) error) (bool, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		e.lastUsed = s.now()
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return true, fn(e.ledger)
}

// View runs fn against the ledger id, or against an empty throwaway ledger
// when none has been stored yet. Nothing fn does to the throwaway is kept.
func (s *LedgerStore) View(id string, fn func(l *ledger.Ledger)) {
	found, _ := s.With(id, func(l *ledger.Ledger) error {
		fn(l)
		return nil
	})
	if !found {
		fn(ledger.New(s.opts...))
	}
}

// Delete drops a ledger
func (s *LedgerStore) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Bind ties the ledger id to an auth session so signing out discards it. The
// ledger is opened first if it has not been stored yet.
func (s *LedgerStore) Bind(id, sessionID string) {
	s.Open(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.sessionID = sessionID
	}
}

// DeleteBySession drops every ledger bound to sessionID
func (s *LedgerStore) DeleteBySession(sessionID string) int {
	if sessionID == "" {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if e.sessionID == sessionID {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// DiscardOnSignOut returns a listener for AuthService.OnAuthStateChange that
// drops the ledgers adopted by a session when it ends
func (s *LedgerStore) DiscardOnSignOut() AuthStateListener {
	return func(event AuthEvent, userID int64, sessionID string) {
		if event != SignedOut {
			return
		}
		if n := s.DeleteBySession(sessionID); n > 0 {
			logger.Debug("Discarded ledgers on sign-out", "user_id", userID, "count", n)
		}
	}
}

// Len returns the number of live ledgers
func (s *LedgerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup evicts idle ledgers and returns how many were removed
func (s *LedgerStore) Cleanup() int {
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if e.lastUsed.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	if removed > 0 {
		logger.Debug("Evicted idle ledgers", "count", removed, "remaining", len(s.entries))
	}
	return removed
}
