package database

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

var errRollback = errors.New("rollback requested")

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(filepath.Join(t.TempDir(), "skiipper.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	db := openTestDB(t)

	tables := []string{"users", "sessions", "habits", "skip_records", "migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Running again must be a no-op
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Second RunMigrations failed: %v", err)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 recorded migrations, got %d", count)
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	db := openTestDB(t)

	err := db.WithTx(func(tx *Tx) error {
		_, err := tx.ExecReturningID("INSERT INTO users (email, name) VALUES (?, ?)", "test@example.com", "Test")
		return err
	})
	if err != nil {
		t.Fatalf("Failed to commit transaction: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", "test@example.com").Scan(&count); err != nil {
		t.Fatalf("Failed to query after commit: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 user, got %d", count)
	}

	err = db.WithTx(func(tx *Tx) error {
		if _, err := tx.Exec("INSERT INTO users (email, name) VALUES (?, ?)", "test2@example.com", "Test 2"); err != nil {
			return err
		}
		return errRollback
	})
	if !errors.Is(err, errRollback) {
		t.Fatalf("WithTx error = %v, want errRollback", err)
	}

	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", "test2@example.com").Scan(&count); err != nil {
		t.Fatalf("Failed to query after rollback: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 users after rollback, got %d", count)
	}
}

// TestForeignKeysCascade checks that deleting a user removes its habits and skips
func TestForeignKeysCascade(t *testing.T) {
	db := openTestDB(t)

	userID, err := db.ExecReturningID("INSERT INTO users (email, name) VALUES (?, ?)", "fk@example.com", "FK")
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	habitID, err := db.ExecReturningID(
		"INSERT INTO habits (user_id, name, expense, frequency, period, savings_model) VALUES (?, ?, ?, ?, ?, ?)",
		userID, "Coffee", "5.00", 1, "daily", "full-skip")
	if err != nil {
		t.Fatalf("insert habit: %v", err)
	}
	_, err = db.Exec(
		"INSERT INTO skip_records (habit_id, user_id, skip_date, day_code, amount_saved) VALUES (?, ?, ?, ?, ?)",
		habitID, userID, time.Now(), "mon", "5.00")
	if err != nil {
		t.Fatalf("insert skip: %v", err)
	}

	if _, err := db.Exec("DELETE FROM users WHERE id = ?", userID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM skip_records").Scan(&count); err != nil {
		t.Fatalf("count skips: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected skip records to cascade, got %d", count)
	}
}

// TestConcurrentAccess tests concurrent database access
func TestConcurrentAccess(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Exec("INSERT INTO users (email, name) VALUES (?, ?)", "concurrent@example.com", "Concurrent"); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var name string
			err := db.QueryRow("SELECT name FROM users WHERE email = ?", "concurrent@example.com").Scan(&name)
			if err != nil {
				t.Errorf("Concurrent read failed: %v", err)
			}
			if name != "Concurrent" {
				t.Errorf("Expected name 'Concurrent', got '%s'", name)
			}
		}()
	}
	wg.Wait()
}
