package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"skiipper/internal/database"
	"skiipper/internal/models"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "repo.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestUserRepositorySessions(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)

	user, err := repo.CreateUser("ada@example.com", "hash", "Ada", true)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := repo.GetUserByEmail("ada@example.com")
	if err != nil || got == nil {
		t.Fatalf("GetUserByEmail = %v, %v", got, err)
	}
	if !got.IsAdmin || got.Name != "Ada" {
		t.Errorf("unexpected user %+v", got)
	}

	missing, err := repo.GetUserByEmail("nobody@example.com")
	if err != nil || missing != nil {
		t.Errorf("missing user = %v, %v; want nil, nil", missing, err)
	}

	if _, err := repo.CreateSession("live", user.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := repo.CreateSession("stale", user.ID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	n, err := repo.DeleteExpiredSessions()
	if err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpiredSessions removed %d, want 1", n)
	}
	if s, _ := repo.GetSession("live"); s == nil {
		t.Error("live session should survive cleanup")
	}

	if err := repo.LinkOAuthProvider(user.ID, "google", "sub-1"); err != nil {
		t.Fatalf("LinkOAuthProvider: %v", err)
	}
	if err := repo.LinkOAuthProvider(user.ID, "apple", "sub-2"); err == nil {
		t.Error("second link should fail")
	}
	byOAuth, err := repo.GetUserByOAuth("google", "sub-1")
	if err != nil || byOAuth == nil || byOAuth.ID != user.ID {
		t.Errorf("GetUserByOAuth = %v, %v", byOAuth, err)
	}
}

func TestHabitRepositoryCRUD(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	habits := NewHabitRepository(db)

	owner, _ := users.CreateUser("owner@example.com", "", "Owner", false)
	other, _ := users.CreateUser("other@example.com", "", "Other", false)

	h := &models.StoredHabit{
		UserID:             owner.ID,
		Name:               "Snacks",
		Expense:            decimal.RequireFromString("3.50"),
		Frequency:          3,
		Period:             "weekly",
		SavingsModel:       "fractional-skip",
		TypicalWeeklySpend: decimal.NewNullDecimal(decimal.NewFromInt(45)),
		WeeklySavingsGoal:  decimal.NewNullDecimal(decimal.NewFromInt(20)),
	}
	if err := habits.CreateHabit(h); err != nil {
		t.Fatalf("CreateHabit: %v", err)
	}

	got, err := habits.GetHabit(h.ID, owner.ID)
	if err != nil || got == nil {
		t.Fatalf("GetHabit = %v, %v", got, err)
	}
	if !got.Expense.Equal(h.Expense) {
		t.Errorf("Expense = %s, want %s", got.Expense, h.Expense)
	}
	if !got.WeeklySavingsGoal.Valid || !got.WeeklySavingsGoal.Decimal.Equal(decimal.NewFromInt(20)) {
		t.Errorf("WeeklySavingsGoal = %+v", got.WeeklySavingsGoal)
	}

	if foreign, _ := habits.GetHabit(h.ID, other.ID); foreign != nil {
		t.Error("habit must not be visible to another user")
	}

	got.Name = "Vending snacks"
	got.SavingsModel = "full-skip"
	got.TypicalWeeklySpend = decimal.NullDecimal{}
	got.WeeklySavingsGoal = decimal.NullDecimal{}
	if err := habits.UpdateHabit(got); err != nil {
		t.Fatalf("UpdateHabit: %v", err)
	}
	list, err := habits.ListHabits(owner.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListHabits = %v, %v", list, err)
	}
	if list[0].Name != "Vending snacks" || list[0].WeeklySavingsGoal.Valid {
		t.Errorf("update not applied: %+v", list[0])
	}

	when := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	skip := &models.SkipRecord{HabitID: h.ID, UserID: owner.ID, SkipDate: when, DayCode: "mon", AmountSaved: decimal.RequireFromString("3.50")}
	if err := habits.AddSkip(skip); err != nil {
		t.Fatalf("AddSkip: %v", err)
	}
	skips, err := habits.ListSkips(h.ID)
	if err != nil || len(skips) != 1 {
		t.Fatalf("ListSkips = %v, %v", skips, err)
	}
	if !skips[0].SkipDate.Equal(when) {
		t.Errorf("SkipDate = %v, want %v", skips[0].SkipDate, when)
	}

	if ok, _ := habits.DeleteHabit(h.ID, other.ID); ok {
		t.Error("other user must not delete the habit")
	}
	if ok, err := habits.DeleteHabit(h.ID, owner.ID); !ok || err != nil {
		t.Fatalf("DeleteHabit = %v, %v", ok, err)
	}
	if skips, _ := habits.ListSkips(h.ID); len(skips) != 0 {
		t.Errorf("skips should cascade, got %d", len(skips))
	}
}

func TestGetUserStatsForWeek(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	habits := NewHabitRepository(db)
	stats := NewStatsRepository(db)

	alice, _ := users.CreateUser("alice@example.com", "", "Alice", false)
	_, _ = users.CreateUser("bob@example.com", "", "Bob", false)

	h := &models.StoredHabit{UserID: alice.ID, Name: "Coffee", Expense: decimal.NewFromInt(5), Frequency: 1, Period: "daily", SavingsModel: "full-skip"}
	if err := habits.CreateHabit(h); err != nil {
		t.Fatalf("CreateHabit: %v", err)
	}

	weekStart := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	records := []models.SkipRecord{
		{SkipDate: weekStart.Add(8 * time.Hour), DayCode: "mon", AmountSaved: decimal.NewFromInt(5)},
		{SkipDate: weekStart.Add(32 * time.Hour), DayCode: "tue", AmountSaved: decimal.NewFromInt(5)},
		{SkipDate: weekStart.Add(56 * time.Hour), DayCode: "wed", IsSpent: true},
		{SkipDate: weekStart.Add(-24 * time.Hour), DayCode: "sun", AmountSaved: decimal.NewFromInt(5)},
	}
	for i := range records {
		records[i].HabitID = h.ID
		records[i].UserID = alice.ID
		if err := habits.AddSkip(&records[i]); err != nil {
			t.Fatalf("AddSkip: %v", err)
		}
	}

	got, err := stats.GetUserStatsForWeek(weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("GetUserStatsForWeek: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Email != "alice@example.com" || got[0].TotalSkips != 2 || !got[0].TotalSavings.Equal(decimal.NewFromInt(10)) {
		t.Errorf("alice stats = %+v", got[0])
	}
	if got[1].Email != "bob@example.com" || got[1].TotalSkips != 0 || !got[1].TotalSavings.IsZero() {
		t.Errorf("bob stats = %+v", got[1])
	}
}
