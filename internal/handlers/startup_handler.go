package handlers

import (
	"net/http"
	"sync"
)

// Startup step names, in the order main completes them.
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepServices   = "Initializing services"
	StepReady      = "Server ready"
)

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	ready    bool
	current  string
	progress int
	steps    []StartupStep
}

// StartupStep is one initialization step
type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

type startupResponse struct {
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
}

// NewStartupStatus creates a tracker for the standard steps
func NewStartupStatus() *StartupStatus {
	s := &StartupStatus{current: "Initializing..."}
	for _, name := range []string{StepDatabase, StepMigrations, StepServices, StepReady} {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
}

// CompleteStep marks a step as completed and updates progress
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.steps {
		if s.steps[i].Name == stepName {
			s.steps[i].Completed = true
			break
		}
	}

	completed := 0
	for _, step := range s.steps {
		if step.Completed {
			completed++
		}
	}
	s.progress = (completed * 100) / len(s.steps)
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.steps {
		s.steps[i].Completed = true
	}
	s.ready = true
	s.current = StepReady
	s.progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// ServeHTTP reports progress as JSON: 200 once ready, 503 before
func (s *StartupStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := startupResponse{
		Ready:    s.ready,
		Current:  s.current,
		Progress: s.progress,
		Steps:    append([]StartupStep(nil), s.steps...),
	}
	s.mu.RUnlock()

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}

// Gate answers 503 with the progress report until the server is ready
func (s *StartupStatus) Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.IsReady() {
			s.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
