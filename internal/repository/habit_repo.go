package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"skiipper/internal/database"
	"skiipper/internal/models"
)

const habitColumns = `id, user_id, name, expense, frequency, period, savings_model, typical_weekly_spend, weekly_savings_goal, created_at, updated_at`

const skipColumns = `id, habit_id, user_id, skip_date, day_code, amount_saved, is_spent, created_at`

// HabitRepository stores dashboard habits and their skip records
type HabitRepository struct {
	db database.DBTX
}

// NewHabitRepository creates a new habit repository
func NewHabitRepository(db database.DBTX) *HabitRepository {
	return &HabitRepository{db: db}
}

func scanHabit(row rowScanner) (*models.StoredHabit, error) {
	h := &models.StoredHabit{}
	err := row.Scan(
		&h.ID,
		&h.UserID,
		&h.Name,
		&h.Expense,
		&h.Frequency,
		&h.Period,
		&h.SavingsModel,
		&h.TypicalWeeklySpend,
		&h.WeeklySavingsGoal,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func scanSkip(row rowScanner) (*models.SkipRecord, error) {
	s := &models.SkipRecord{}
	err := row.Scan(
		&s.ID,
		&s.HabitID,
		&s.UserID,
		&s.SkipDate,
		&s.DayCode,
		&s.AmountSaved,
		&s.IsSpent,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateHabit inserts h and fills in its ID and timestamps
func (r *HabitRepository) CreateHabit(h *models.StoredHabit) error {
	query := `
		INSERT INTO habits (user_id, name, expense, frequency, period, savings_model, typical_weekly_spend, weekly_savings_goal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		h.UserID, h.Name, h.Expense, h.Frequency, h.Period, h.SavingsModel,
		h.TypicalWeeklySpend, h.WeeklySavingsGoal)
	if err != nil {
		return fmt.Errorf("failed to create habit: %w", err)
	}
	now := time.Now()
	h.ID = id
	h.CreatedAt = now
	h.UpdatedAt = now
	return nil
}

// GetHabit returns the habit with id owned by userID, or nil
func (r *HabitRepository) GetHabit(id, userID int64) (*models.StoredHabit, error) {
	h, err := scanHabit(r.db.QueryRow("SELECT "+habitColumns+" FROM habits WHERE id = ? AND user_id = ?", id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}
	return h, nil
}

// ListHabits returns a user's habits in creation order
func (r *HabitRepository) ListHabits(userID int64) ([]models.StoredHabit, error) {
	return r.queryHabits("SELECT "+habitColumns+" FROM habits WHERE user_id = ? ORDER BY id", userID)
}

// ListAllHabits returns every habit, for backups
func (r *HabitRepository) ListAllHabits() ([]models.StoredHabit, error) {
	return r.queryHabits("SELECT " + habitColumns + " FROM habits ORDER BY id")
}

func (r *HabitRepository) queryHabits(query string, args ...interface{}) ([]models.StoredHabit, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	var habits []models.StoredHabit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

// UpdateHabit overwrites the editable fields of h
func (r *HabitRepository) UpdateHabit(h *models.StoredHabit) error {
	query := `
		UPDATE habits
		SET name = ?, expense = ?, frequency = ?, period = ?, savings_model = ?,
		    typical_weekly_spend = ?, weekly_savings_goal = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?
	`
	_, err := r.db.Exec(query,
		h.Name, h.Expense, h.Frequency, h.Period, h.SavingsModel,
		h.TypicalWeeklySpend, h.WeeklySavingsGoal, h.ID, h.UserID)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	h.UpdatedAt = time.Now()
	return nil
}

// DeleteHabit removes a habit; its skip records cascade
func (r *HabitRepository) DeleteHabit(id, userID int64) (bool, error) {
	result, err := r.db.Exec("DELETE FROM habits WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete habit: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return n > 0, nil
}

// AddSkip inserts s and fills in its ID
func (r *HabitRepository) AddSkip(s *models.SkipRecord) error {
	query := `
		INSERT INTO skip_records (habit_id, user_id, skip_date, day_code, amount_saved, is_spent)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, s.HabitID, s.UserID, s.SkipDate, s.DayCode, s.AmountSaved, s.IsSpent)
	if err != nil {
		return fmt.Errorf("failed to add skip: %w", err)
	}
	s.ID = id
	s.CreatedAt = time.Now()
	return nil
}

// ListSkips returns a habit's skip records, oldest first
func (r *HabitRepository) ListSkips(habitID int64) ([]models.SkipRecord, error) {
	return r.querySkips("SELECT "+skipColumns+" FROM skip_records WHERE habit_id = ? ORDER BY skip_date, id", habitID)
}

// ListAllSkips returns every skip record, for backups
func (r *HabitRepository) ListAllSkips() ([]models.SkipRecord, error) {
	return r.querySkips("SELECT " + skipColumns + " FROM skip_records ORDER BY id")
}

func (r *HabitRepository) querySkips(query string, args ...interface{}) ([]models.SkipRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query skips: %w", err)
	}
	defer rows.Close()

	var skips []models.SkipRecord
	for rows.Next() {
		s, err := scanSkip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan skip: %w", err)
		}
		skips = append(skips, *s)
	}
	return skips, rows.Err()
}

// InsertHabitWithID restores a habit with its original ID
func (r *HabitRepository) InsertHabitWithID(h *models.StoredHabit) error {
	query := `
		INSERT INTO habits (id, user_id, name, expense, frequency, period, savings_model, typical_weekly_spend, weekly_savings_goal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		h.ID, h.UserID, h.Name, h.Expense, h.Frequency, h.Period, h.SavingsModel,
		h.TypicalWeeklySpend, h.WeeklySavingsGoal, h.CreatedAt, h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to restore habit %d: %w", h.ID, err)
	}
	return nil
}

// InsertSkipWithID restores a skip record with its original ID
func (r *HabitRepository) InsertSkipWithID(s *models.SkipRecord) error {
	query := `
		INSERT INTO skip_records (id, habit_id, user_id, skip_date, day_code, amount_saved, is_spent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, s.ID, s.HabitID, s.UserID, s.SkipDate, s.DayCode, s.AmountSaved, s.IsSpent, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to restore skip %d: %w", s.ID, err)
	}
	return nil
}
