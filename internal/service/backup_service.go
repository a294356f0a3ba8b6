package service

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"skiipper/internal/database"
	"skiipper/internal/logger"
	"skiipper/internal/models"
	"skiipper/internal/repository"
)

const backupVersion = "1.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string               `json:"version"`
	ExportedAt   time.Time            `json:"exported_at"`
	DatabaseType string               `json:"database_type"`
	Users        []UserBackup         `json:"users"`
	Habits       []models.StoredHabit `json:"habits"`
	Skips        []models.SkipRecord  `json:"skips"`
}

// UserBackup represents a user record for backup. Unlike models.User it
// carries the password hash and OAuth subject.
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u UserBackup) user() *models.User {
	return &models.User{
		ID:            u.ID,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		Name:          u.Name,
		OAuthProvider: u.OAuthProvider,
		OAuthSubject:  u.OAuthSubject,
		IsAdmin:       u.IsAdmin,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes users, habits and skips to outputPath as JSON
func (s *BackupService) Export(outputPath string) (*BackupData, error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	backup, err := s.ExportToWriter(file)
	if err != nil {
		return nil, err
	}
	logger.Info("Database exported", "path", outputPath,
		"users", len(backup.Users), "habits", len(backup.Habits), "skips", len(backup.Skips))
	return backup, nil
}

// ExportToWriter writes the backup to w
func (s *BackupService) ExportToWriter(w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: "universal",
		Users:        []UserBackup{},
		Habits:       []models.StoredHabit{},
		Skips:        []models.SkipRecord{},
	}

	users, err := repository.NewUserRepository(s.db).GetAllUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	for _, u := range users {
		backup.Users = append(backup.Users, UserBackup{
			ID:            u.ID,
			Email:         u.Email,
			PasswordHash:  u.PasswordHash,
			Name:          u.Name,
			OAuthProvider: u.OAuthProvider,
			OAuthSubject:  u.OAuthSubject,
			IsAdmin:       u.IsAdmin,
			CreatedAt:     u.CreatedAt,
			UpdatedAt:     u.UpdatedAt,
		})
	}

	habitRepo := repository.NewHabitRepository(s.db)
	habits, err := habitRepo.ListAllHabits()
	if err != nil {
		return nil, fmt.Errorf("failed to export habits: %w", err)
	}
	backup.Habits = append(backup.Habits, habits...)

	skips, err := habitRepo.ListAllSkips()
	if err != nil {
		return nil, fmt.Errorf("failed to export skips: %w", err)
	}
	backup.Skips = append(backup.Skips, skips...)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return backup, nil
}

// Import restores a backup file into an empty database
func (s *BackupService) Import(inputPath string) (*BackupData, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return s.ImportFromReader(file)
}

// ImportFromReader restores a backup in one transaction. Nothing is written
// when any record fails.
func (s *BackupService) ImportFromReader(reader io.Reader) (*BackupData, error) {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	logger.Info("Importing backup", "version", backup.Version, "exported_at", backup.ExportedAt)

	err := s.db.WithTx(func(tx *database.Tx) error {
		userRepo := repository.NewUserRepository(tx)
		habitRepo := repository.NewHabitRepository(tx)

		for _, u := range backup.Users {
			if err := userRepo.InsertUserWithID(u.user()); err != nil {
				return err
			}
		}
		for i := range backup.Habits {
			if err := validateHabit(&backup.Habits[i]); err != nil {
				return fmt.Errorf("habit %d: %w", backup.Habits[i].ID, err)
			}
			if err := habitRepo.InsertHabitWithID(&backup.Habits[i]); err != nil {
				return err
			}
		}
		for i := range backup.Skips {
			if err := habitRepo.InsertSkipWithID(&backup.Skips[i]); err != nil {
				return err
			}
		}
		return resetSequences(tx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import backup: %w", err)
	}

	logger.Info("Database import completed",
		"users", len(backup.Users), "habits", len(backup.Habits), "skips", len(backup.Skips))
	return &backup, nil
}

// resetSequences moves postgres id sequences past restored ids. sqlite and
// mysql derive the next id from the table contents.
func resetSequences(tx *database.Tx) error {
	if tx.GetDialect().DriverName() != "postgres" {
		return nil
	}
	for _, table := range []string{"users", "habits", "skip_records"} {
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)",
			table, table)
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to reset %s sequence: %w", table, err)
		}
	}
	return nil
}
