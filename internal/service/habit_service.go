package service

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"skiipper/internal/ledger"
	"skiipper/internal/models"
	"skiipper/internal/repository"
	"skiipper/internal/validation"
)

// ErrHabitNotFound is returned for habits that do not exist or belong to someone else
var ErrHabitNotFound = errors.New("habit not found")

// SkipInput describes a skip or spend recorded on the dashboard
type SkipInput struct {
	// Date defaults to now; it may not be in the future.
	Date  time.Time
	Spent bool
}

// HabitService is the persisted habit CRUD used by the dashboard. It is kept
// apart from the wizard ledgers but applies the same validation and the same
// per-model skip amount.
type HabitService struct {
	habitRepo *repository.HabitRepository
	now       func() time.Time
	loc       *time.Location
}

// NewHabitService creates a habit service that reads calendar days in loc
func NewHabitService(habitRepo *repository.HabitRepository, loc *time.Location) *HabitService {
	if loc == nil {
		loc = time.Local
	}
	return &HabitService{habitRepo: habitRepo, now: time.Now, loc: loc}
}

// validateHabit checks h with the ledger's habit rules
func validateHabit(h *models.StoredHabit) error {
	def, err := h.Definition()
	if err != nil {
		var ve validation.ValidationError
		if errors.As(err, &ve) {
			return err
		}
		return validation.ValidationError{Field: "habit", Message: err.Error()}
	}
	if err := def.Validate(); err != nil {
		return err
	}
	if h.SavingsModel != string(ledger.KindFractionalSkip) {
		h.TypicalWeeklySpend = decimal.NullDecimal{}
		h.WeeklySavingsGoal = decimal.NullDecimal{}
	}
	return nil
}

// CreateHabit validates h and stores it for userID
func (s *HabitService) CreateHabit(userID int64, h *models.StoredHabit) error {
	h.UserID = userID
	if err := validateHabit(h); err != nil {
		return err
	}
	return s.habitRepo.CreateHabit(h)
}

// GetHabit returns one of userID's habits
func (s *HabitService) GetHabit(userID, id int64) (*models.StoredHabit, error) {
	h, err := s.habitRepo.GetHabit(id, userID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrHabitNotFound
	}
	return h, nil
}

// ListHabits returns userID's habits
func (s *HabitService) ListHabits(userID int64) ([]models.StoredHabit, error) {
	habits, err := s.habitRepo.ListHabits(userID)
	if err != nil {
		return nil, err
	}
	if habits == nil {
		habits = []models.StoredHabit{}
	}
	return habits, nil
}

// UpdateHabit replaces the definition of one of userID's habits
func (s *HabitService) UpdateHabit(userID, id int64, h *models.StoredHabit) error {
	existing, err := s.GetHabit(userID, id)
	if err != nil {
		return err
	}
	h.ID = existing.ID
	h.UserID = userID
	h.CreatedAt = existing.CreatedAt
	if err := validateHabit(h); err != nil {
		return err
	}
	return s.habitRepo.UpdateHabit(h)
}

// DeleteHabit removes one of userID's habits and its skips
func (s *HabitService) DeleteHabit(userID, id int64) error {
	deleted, err := s.habitRepo.DeleteHabit(id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrHabitNotFound
	}
	return nil
}

// ListSkips returns the records of one of userID's habits
func (s *HabitService) ListSkips(userID, habitID int64) ([]models.SkipRecord, error) {
	if _, err := s.GetHabit(userID, habitID); err != nil {
		return nil, err
	}
	skips, err := s.habitRepo.ListSkips(habitID)
	if err != nil {
		return nil, err
	}
	if skips == nil {
		skips = []models.SkipRecord{}
	}
	return skips, nil
}

// RecordSkip stores a skip or spend. The stored records are replayed into a
// ledger habit so the same skip-limit rules apply as in the wizard.
func (s *HabitService) RecordSkip(userID, habitID int64, in SkipInput) (*models.SkipRecord, error) {
	stored, err := s.GetHabit(userID, habitID)
	if err != nil {
		return nil, err
	}
	skips, err := s.habitRepo.ListSkips(habitID)
	if err != nil {
		return nil, err
	}
	h, err := stored.LedgerHabitWithLogs(skips)
	if err != nil {
		return nil, validation.ValidationError{Field: "habit", Message: err.Error()}
	}

	now := s.now().In(s.loc)
	at := now
	if !in.Date.IsZero() {
		at = in.Date.In(s.loc)
	}
	if ledger.StartOfDay(at).After(now) {
		return nil, &ledger.LimitError{Kind: ledger.LimitFutureDay, Reason: "that day has not happened yet"}
	}

	if in.Spent {
		err = ledger.CheckSpend(h, at, now)
	} else {
		err = ledger.CheckSkip(h, at, now)
	}
	if err != nil {
		return nil, err
	}

	amount := decimal.Zero
	if !in.Spent {
		amount = ledger.SkipAmount(h).Round(2)
	}
	rec := &models.SkipRecord{
		HabitID:     habitID,
		UserID:      userID,
		SkipDate:    at.UTC(),
		DayCode:     string(ledger.DayCodeOf(at)),
		AmountSaved: amount,
		IsSpent:     in.Spent,
	}
	if err := s.habitRepo.AddSkip(rec); err != nil {
		return nil, err
	}
	return rec, nil
}
