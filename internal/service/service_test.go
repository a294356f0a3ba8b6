package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"skiipper/internal/database"
	"skiipper/internal/models"
)

// wednesday is a fixed instant used as "now" across service tests.
var wednesday = time.Date(2026, time.October, 14, 15, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func coffeeHabit() *models.StoredHabit {
	return &models.StoredHabit{
		Name:         "Coffee",
		Expense:      dec("5"),
		Frequency:    1,
		Period:       "daily",
		SavingsModel: "full-skip",
	}
}
