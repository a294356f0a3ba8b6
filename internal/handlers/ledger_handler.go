package handlers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"skiipper/internal/ledger"
	"skiipper/internal/service"
	"skiipper/internal/validation"
)

const maxGrowthYears = 50

// LedgerHandler serves the wizard flow. Every request works on the caller's
// own ledger, attached by the LedgerSession middleware.
type LedgerHandler struct {
	ledgers       *service.LedgerStore
	reportService *service.ReportService
	growthRate    decimal.Decimal
}

// NewLedgerHandler creates a ledger handler. growthRate is the annual percent
// used by the growth projection when the request names none.
func NewLedgerHandler(ledgers *service.LedgerStore, reportService *service.ReportService, growthRate decimal.Decimal) *LedgerHandler {
	return &LedgerHandler{
		ledgers:       ledgers,
		reportService: reportService,
		growthRate:    growthRate,
	}
}

// habitRequest is the body of add and update. Add requires every field except
// the fractional amounts; update merges whatever is present.
type habitRequest struct {
	Name               *string          `json:"name"`
	Expense            *decimal.Decimal `json:"expense"`
	Frequency          *int             `json:"frequency"`
	Period             *string          `json:"period"`
	SavingsModel       *string          `json:"savingsModel"`
	TypicalWeeklySpend *decimal.Decimal `json:"typicalWeeklySpend"`
	WeeklySavingsGoal  *decimal.Decimal `json:"weeklySavingsGoal"`
}

func (req habitRequest) period() (*ledger.Period, error) {
	if req.Period == nil {
		return nil, nil
	}
	p, err := ledger.ParsePeriod(*req.Period)
	if err != nil {
		return nil, validation.ValidationError{Field: "period", Message: err.Error()}
	}
	return &p, nil
}

func (req habitRequest) model() (ledger.SavingsModel, error) {
	if req.SavingsModel == nil {
		return nil, nil
	}
	var typical, goal decimal.Decimal
	if req.TypicalWeeklySpend != nil {
		typical = *req.TypicalWeeklySpend
	}
	if req.WeeklySavingsGoal != nil {
		goal = *req.WeeklySavingsGoal
	}
	m, err := ledger.NewSavingsModel(*req.SavingsModel, typical, goal)
	if err != nil {
		return nil, validation.ValidationError{Field: "savingsModel", Message: err.Error()}
	}
	return m, nil
}

func (req habitRequest) patch() (ledger.HabitPatch, error) {
	period, err := req.period()
	if err != nil {
		return ledger.HabitPatch{}, err
	}
	model, err := req.model()
	if err != nil {
		return ledger.HabitPatch{}, err
	}
	return ledger.HabitPatch{
		Name:      req.Name,
		Expense:   req.Expense,
		Frequency: req.Frequency,
		Period:    period,
		Model:     model,
	}, nil
}

func (req habitRequest) definition() (ledger.HabitDefinition, error) {
	p, err := req.patch()
	if err != nil {
		return ledger.HabitDefinition{}, err
	}
	switch {
	case p.Name == nil:
		return ledger.HabitDefinition{}, validation.ValidationError{Field: "name", Message: "name is required"}
	case p.Expense == nil:
		return ledger.HabitDefinition{}, validation.ValidationError{Field: "expense", Message: "expense is required"}
	case p.Frequency == nil:
		return ledger.HabitDefinition{}, validation.ValidationError{Field: "frequency", Message: "frequency is required"}
	case p.Period == nil:
		return ledger.HabitDefinition{}, validation.ValidationError{Field: "period", Message: "period is required"}
	}
	return ledger.HabitDefinition{
		Name:      *p.Name,
		Expense:   *p.Expense,
		Frequency: *p.Frequency,
		Period:    *p.Period,
		Model:     p.Model,
	}, nil
}

type mutationResponse struct {
	Result   interface{}     `json:"result,omitempty"`
	Snapshot ledger.Snapshot `json:"snapshot"`
}

// mutate runs fn against the caller's ledger and answers with fn's result and
// the resulting snapshot. On error nothing is written besides the error.
func (h *LedgerHandler) mutate(w http.ResponseWriter, r *http.Request, status int, logMsg string, fn func(l *ledger.Ledger) (interface{}, error)) {
	var resp mutationResponse
	found, err := h.ledgers.With(GetLedgerIDFromContext(r.Context()), func(l *ledger.Ledger) error {
		result, err := fn(l)
		if err != nil {
			return err
		}
		resp = mutationResponse{Result: result, Snapshot: l.Snapshot()}
		return nil
	})
	if !found {
		respondWithError(w, http.StatusNotFound, "Ledger session not found", "", nil)
		return
	}
	if err != nil {
		respondWithServiceError(w, err, logMsg)
		return
	}
	respondJSON(w, status, resp)
}

// GetSnapshot returns every derived figure of the caller's ledger
func (h *LedgerHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap ledger.Snapshot
	h.ledgers.View(GetLedgerIDFromContext(r.Context()), func(l *ledger.Ledger) {
		snap = l.Snapshot()
	})
	respondJSON(w, http.StatusOK, snap)
}

// AddHabit adds a custom habit to the catalog
func (h *LedgerHandler) AddHabit(w http.ResponseWriter, r *http.Request) {
	var req habitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	def, err := req.definition()
	if err != nil {
		respondWithServiceError(w, err, "")
		return
	}
	h.mutate(w, r, http.StatusCreated, "Error adding habit", func(l *ledger.Ledger) (interface{}, error) {
		habit, err := l.AddHabit(def)
		if err != nil {
			return nil, err
		}
		return map[string]string{"id": habit.ID}, nil
	})
}

// UpdateHabit merges the request into an existing habit
func (h *LedgerHandler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	var req habitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	patch, err := req.patch()
	if err != nil {
		respondWithServiceError(w, err, "")
		return
	}
	id := r.PathValue("id")
	h.mutate(w, r, http.StatusOK, "Error updating habit", func(l *ledger.Ledger) (interface{}, error) {
		_, err := l.UpdateHabit(id, patch)
		return nil, err
	})
}

// ToggleHabit flips whether a habit is selected
func (h *LedgerHandler) ToggleHabit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.mutate(w, r, http.StatusOK, "Error toggling habit", func(l *ledger.Ledger) (interface{}, error) {
		return nil, l.ToggleHabit(id)
	})
}

type skipRequest struct {
	Bonus bool `json:"bonus"`
}

// SkipHabit logs a skip for today. With bonus set the skip must land beyond a
// met weekly goal.
func (h *LedgerHandler) SkipHabit(w http.ResponseWriter, r *http.Request) {
	var req skipRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
			return
		}
	}
	id := r.PathValue("id")
	h.mutate(w, r, http.StatusOK, "Error skipping habit", func(l *ledger.Ledger) (interface{}, error) {
		if req.Bonus {
			return l.SkipBonus(id)
		}
		return l.SkipHabit(id)
	})
}

type skipDayRequest struct {
	Day         string           `json:"day"`
	AmountSaved *decimal.Decimal `json:"amountSaved"`
}

// SkipHabitOnDay logs a skip for a weekday of the current week
func (h *LedgerHandler) SkipHabitOnDay(w http.ResponseWriter, r *http.Request) {
	var req skipDayRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	day, err := ledger.ParseDayCode(req.Day)
	if err != nil {
		respondWithServiceError(w, validation.ValidationError{Field: "day", Message: err.Error()}, "")
		return
	}
	id := r.PathValue("id")
	h.mutate(w, r, http.StatusOK, "Error skipping habit", func(l *ledger.Ledger) (interface{}, error) {
		return l.SkipHabitOnDay(id, day, req.AmountSaved)
	})
}

// UnskipLog removes one log by its position in the habit's skip list
func (h *LedgerHandler) UnskipLog(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		respondWithServiceError(w, validation.ValidationError{Field: "index", Message: "index must be a number"}, "")
		return
	}
	id := r.PathValue("id")
	h.mutate(w, r, http.StatusOK, "Error removing skip", func(l *ledger.Ledger) (interface{}, error) {
		return nil, l.UnskipLog(id, index)
	})
}

// UnskipHabitOnDay removes the latest log for a weekday of the current week
func (h *LedgerHandler) UnskipHabitOnDay(w http.ResponseWriter, r *http.Request) {
	day, err := ledger.ParseDayCode(r.PathValue("day"))
	if err != nil {
		respondWithServiceError(w, validation.ValidationError{Field: "day", Message: err.Error()}, "")
		return
	}
	id := r.PathValue("id")
	h.mutate(w, r, http.StatusOK, "Error removing skip", func(l *ledger.Ledger) (interface{}, error) {
		return nil, l.UnskipHabitOnDay(id, day)
	})
}

// MarkSpent fills today's slot with a spend
func (h *LedgerHandler) MarkSpent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.mutate(w, r, http.StatusOK, "Error marking habit as spent", func(l *ledger.Ledger) (interface{}, error) {
		return l.MarkHabitAsSpent(id)
	})
}

type forfeitRequest struct {
	Undo bool `json:"undo"`
}

// ForfeitHabit blocks a habit for the rest of the week, or lifts the block
func (h *LedgerHandler) ForfeitHabit(w http.ResponseWriter, r *http.Request) {
	var req forfeitRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
			return
		}
	}
	id := r.PathValue("id")
	h.mutate(w, r, http.StatusOK, "Error forfeiting habit", func(l *ledger.Ledger) (interface{}, error) {
		return nil, l.ForfeitHabit(id, req.Undo)
	})
}

type superSkipResponse struct {
	Skipped []ledger.SkipResult `json:"skipped"`
	Failed  map[string]string   `json:"failed"`
}

// SuperSkip skips every eligible selected daily habit at once
func (h *LedgerHandler) SuperSkip(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, "Error running super skip", func(l *ledger.Ledger) (interface{}, error) {
		res := l.SuperSkip()
		out := superSkipResponse{Skipped: res.Skipped, Failed: make(map[string]string, len(res.Failed))}
		if out.Skipped == nil {
			out.Skipped = []ledger.SkipResult{}
		}
		for id, err := range res.Failed {
			out.Failed[id] = err.Error()
		}
		return out, nil
	})
}

// ResetSkips clears every skip log and forfeiture
func (h *LedgerHandler) ResetSkips(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, "Error resetting skips", func(l *ledger.Ledger) (interface{}, error) {
		l.ResetSkips()
		return nil, nil
	})
}

type growthResponse struct {
	WeeklyContribution decimal.Decimal      `json:"weeklyContribution"`
	AnnualRate         decimal.Decimal      `json:"annualRate"`
	Points             []ledger.GrowthPoint `json:"points"`
}

// ProjectGrowth simulates investing the current weekly skip savings. Query
// parameters: years (default 10) and rate, the annual percent.
func (h *LedgerHandler) ProjectGrowth(w http.ResponseWriter, r *http.Request) {
	years := 10
	if v := r.URL.Query().Get("years"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxGrowthYears {
			respondWithServiceError(w, validation.ValidationError{
				Field:   "years",
				Message: "years must be between 1 and " + strconv.Itoa(maxGrowthYears),
			}, "")
			return
		}
		years = n
	}
	rate := h.growthRate
	if v := r.URL.Query().Get("rate"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.LessThan(decimal.NewFromInt(-100)) {
			respondWithServiceError(w, validation.ValidationError{Field: "rate", Message: "rate must be a percentage above -100"}, "")
			return
		}
		rate = d
	}

	var weekly decimal.Decimal
	h.ledgers.View(GetLedgerIDFromContext(r.Context()), func(l *ledger.Ledger) {
		weekly = l.WeeklySkipSavings()
	})

	points := ledger.ProjectGrowth(weekly, rate, years)
	if points == nil {
		points = []ledger.GrowthPoint{}
	}
	respondJSON(w, http.StatusOK, growthResponse{
		WeeklyContribution: weekly.Round(2),
		AnnualRate:         rate,
		Points:             points,
	})
}

type weeklyReportResponse struct {
	Email   string          `json:"email"`
	Skips   int             `json:"skips"`
	Savings decimal.Decimal `json:"savings"`
}

// SendWeeklyReport emails the signed-in user this week's skips and savings
// from their wizard ledger. Failures are reported, never retried.
func (h *LedgerHandler) SendWeeklyReport(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondUnauthorized(w)
		return
	}

	var skips int
	var savings decimal.Decimal
	found, _ := h.ledgers.With(GetLedgerIDFromContext(r.Context()), func(l *ledger.Ledger) error {
		skips = l.WeeklySkipCount()
		savings = l.WeeklySkipSavings().Round(2)
		return nil
	})
	if !found {
		respondWithError(w, http.StatusNotFound, "Ledger session not found", "", nil)
		return
	}

	if err := h.reportService.Dispatch(r.Context(), user.Email, skips, savings); err != nil {
		if isUndeliverable(err) {
			respondWithServiceError(w, err, "Weekly report not configured")
			return
		}
		respondWithError(w, http.StatusBadGateway, "Could not send your weekly report, please try again", "Weekly report dispatch failed", err)
		return
	}

	respondJSON(w, http.StatusAccepted, weeklyReportResponse{Email: user.Email, Skips: skips, Savings: savings})
}
