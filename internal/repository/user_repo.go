package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"skiipper/internal/database"
	"skiipper/internal/models"
)

const userColumns = `id, email, password_hash, name, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), is_admin, created_at, updated_at`

// UserRepository handles database operations for users and sessions
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.OAuthProvider,
		&user.OAuthSubject,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new user. Pass an empty passwordHash for OAuth-only accounts.
func (r *UserRepository) CreateUser(email, passwordHash, name string, isAdmin bool) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash, name, is_admin)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, email, passwordHash, name, isAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	now := time.Now()
	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetUserByEmail retrieves a user by email address
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(id int64) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByOAuth retrieves a user by OAuth provider and subject
func (r *UserRepository) GetUserByOAuth(provider, subject string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE oauth_provider = ? AND oauth_subject = ?", provider, subject))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by oauth: %w", err)
	}
	return user, nil
}

// GetAllUsers retrieves all users, oldest first
func (r *UserRepository) GetAllUsers() ([]models.User, error) {
	rows, err := r.db.Query("SELECT " + userColumns + " FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// SetAdmin updates the admin flag of a user
func (r *UserRepository) SetAdmin(id int64, isAdmin bool) error {
	query := `
		UPDATE users
		SET is_admin = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, isAdmin, id); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteUser deletes a user; habits, skips and sessions cascade
func (r *UserRepository) DeleteUser(id int64) error {
	if _, err := r.db.Exec("DELETE FROM users WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// LinkOAuthProvider links an existing user to an OAuth provider
func (r *UserRepository) LinkOAuthProvider(userID int64, provider, subject string) error {
	query := `
		UPDATE users
		SET oauth_provider = ?, oauth_subject = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		AND (oauth_provider IS NULL OR oauth_provider = '')
	`
	result, err := r.db.Exec(query, provider, subject, userID)
	if err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read link result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("oauth provider already linked")
	}
	return nil
}

// CreateSession creates a new session for a user
func (r *UserRepository) CreateSession(sessionID string, userID int64, expiresAt time.Time) (*models.Session, error) {
	query := `
		INSERT INTO sessions (id, user_id, expires_at)
		VALUES (?, ?, ?)
	`
	if _, err := r.db.Exec(query, sessionID, userID, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// GetSession retrieves a session by ID
func (r *UserRepository) GetSession(sessionID string) (*models.Session, error) {
	session := &models.Session{}
	err := r.db.QueryRow("SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?", sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session from the database
func (r *UserRepository) DeleteSession(sessionID string) error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions
func (r *UserRepository) DeleteExpiredSessions() (int64, error) {
	result, err := r.db.Exec("DELETE FROM sessions WHERE expires_at < ?", time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// InsertUserWithID restores a user with its original ID
func (r *UserRepository) InsertUserWithID(u *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, oauth_provider, oauth_subject, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, u.ID, u.Email, u.PasswordHash, u.Name,
		nullIfEmpty(u.OAuthProvider), nullIfEmpty(u.OAuthSubject), u.IsAdmin, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to restore user %d: %w", u.ID, err)
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
