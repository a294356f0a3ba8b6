package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"skiipper/internal/logger"
	"skiipper/internal/models"
	"skiipper/internal/repository"
	"skiipper/internal/security"
	"skiipper/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrTokensDisabled     = errors.New("api tokens are disabled: SESSION_SECRET is not set")
)

// AuthEvent names a change of authentication state
type AuthEvent string

const (
	SignedIn  AuthEvent = "SIGNED_IN"
	SignedOut AuthEvent = "SIGNED_OUT"
)

// AuthStateListener is notified after a session starts or ends
type AuthStateListener func(event AuthEvent, userID int64, sessionID string)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo        *repository.UserRepository
	tokens          *security.TokenIssuer
	adminEmail      string
	sessionDuration time.Duration

	mu        sync.RWMutex
	listeners []AuthStateListener
}

// NewAuthService creates a new auth service. tokens may be nil, in which case
// only cookie sessions are available.
func NewAuthService(userRepo *repository.UserRepository, tokens *security.TokenIssuer, adminEmail string, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		tokens:          tokens,
		adminEmail:      normalizeEmail(adminEmail),
		sessionDuration: sessionDuration,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAdminEmail reports whether email identifies the admin account
func (s *AuthService) IsAdminEmail(email string) bool {
	return s.adminEmail != "" && normalizeEmail(email) == s.adminEmail
}

// OnAuthStateChange registers fn for sign-in and sign-out events
func (s *AuthService) OnAuthStateChange(fn AuthStateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *AuthService) emit(event AuthEvent, userID int64, sessionID string) {
	s.mu.RLock()
	listeners := append([]AuthStateListener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(event, userID, sessionID)
	}
}

// Register creates a new password account
func (s *AuthService) Register(email, password, name string) (*models.User, error) {
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	existingUser, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.CreateUser(email, passwordHash, name, s.IsAdminEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	logger.Info("User registered", "user_id", user.ID, "admin", user.IsAdmin)
	return user, nil
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(email, password string) (*models.Session, *models.User, error) {
	user, err := s.userRepo.GetUserByEmail(normalizeEmail(email))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}
	return s.startSession(user)
}

// startSession keeps the admin flag in line with ADMIN_EMAIL, then opens a session
func (s *AuthService) startSession(user *models.User) (*models.Session, *models.User, error) {
	if want := s.IsAdminEmail(user.Email); user.IsAdmin != want {
		if err := s.userRepo.SetAdmin(user.ID, want); err != nil {
			return nil, nil, fmt.Errorf("failed to update admin flag: %w", err)
		}
		user.IsAdmin = want
	}

	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)
	session, err := s.userRepo.CreateSession(sessionID, user.ID, expiresAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.emit(SignedIn, user.ID, session.ID)
	return session, user, nil
}

// GetSession returns the live session with sessionID
func (s *AuthService) GetSession(sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	session, err := s.userRepo.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		_ = s.userRepo.DeleteSession(sessionID)
		return nil, ErrSessionExpired
	}
	return session, nil
}

// ValidateSession checks if a session is valid and returns the associated user
func (s *AuthService) ValidateSession(sessionID string) (*models.User, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// IssueToken signs a bearer token bound to session
func (s *AuthService) IssueToken(session *models.Session, user *models.User) (string, error) {
	if s.tokens == nil {
		return "", ErrTokensDisabled
	}
	return s.tokens.Issue(user.ID, session.ID, user.IsAdmin, session.ExpiresAt)
}

// ValidateToken verifies a bearer token and the session it is bound to.
// Signing out therefore revokes every token of that session.
func (s *AuthService) ValidateToken(raw string) (*models.User, string, error) {
	if s.tokens == nil {
		return nil, "", ErrTokensDisabled
	}
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, "", err
	}
	user, err := s.ValidateSession(claims.SessionID)
	if err != nil {
		return nil, "", err
	}
	if id, err := claims.UserID(); err != nil || id != user.ID {
		return nil, "", security.ErrInvalidToken
	}
	return user, claims.SessionID, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(sessionID string) error {
	session, err := s.userRepo.GetSession(sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if err := s.userRepo.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	if session != nil {
		s.emit(SignedOut, session.UserID, sessionID)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions() (int64, error) {
	n, err := s.userRepo.DeleteExpiredSessions()
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return n, nil
}

// OAuthLogin signs in with an OAuth identity. Unknown identities are linked to
// the account with the same email, or get a new passwordless account.
func (s *AuthService) OAuthLogin(provider, subject, email, name string) (*models.Session, *models.User, error) {
	if provider == "" || subject == "" {
		return nil, nil, errors.New("missing oauth provider information")
	}
	email = normalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetUserByOAuth(provider, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil {
		existingUser, err := s.userRepo.GetUserByEmail(email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
		}
		if existingUser != nil {
			if existingUser.OAuthProvider != "" && existingUser.OAuthProvider != provider {
				return nil, nil, ErrEmailTaken
			}
			if existingUser.OAuthProvider == "" {
				if err := s.userRepo.LinkOAuthProvider(existingUser.ID, provider, subject); err != nil {
					return nil, nil, err
				}
				existingUser.OAuthProvider = provider
				existingUser.OAuthSubject = subject
			}
			user = existingUser
		} else {
			if name == "" {
				name = strings.Split(email, "@")[0]
			}
			newUser, err := s.userRepo.CreateUser(email, "", name, s.IsAdminEmail(email))
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create oauth user: %w", err)
			}
			if err := s.userRepo.LinkOAuthProvider(newUser.ID, provider, subject); err != nil {
				return nil, nil, err
			}
			newUser.OAuthProvider = provider
			newUser.OAuthSubject = subject
			user = newUser
			logger.Info("User registered via oauth", "user_id", user.ID, "provider", provider)
		}
	}

	return s.startSession(user)
}
