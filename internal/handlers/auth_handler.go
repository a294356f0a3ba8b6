package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"skiipper/internal/logger"
	"skiipper/internal/models"
	"skiipper/internal/security"
	"skiipper/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	emailService         *service.EmailService
	ledgers              *service.LedgerStore
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler. emailService may be nil.
func NewAuthHandler(authService *service.AuthService, emailService *service.EmailService, ledgers *service.LedgerStore, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		emailService:         emailService,
		ledgers:              ledgers,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type sessionResponse struct {
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Token     string       `json:"token,omitempty"`
}

// Register handles account creation and signs the new user in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		respondWithServiceError(w, err, "Error registering user")
		return
	}

	session, user, err := h.authService.Login(user.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err, "Error signing in new user")
		return
	}

	if h.emailService != nil && h.emailService.IsEnabled() {
		go func(email, name string) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := h.emailService.SendWelcomeEmail(ctx, email, name); err != nil {
				logger.Warn("Failed to send welcome email", "user_id", user.ID, "error", err)
			}
		}(user.Email, user.Name)
	}

	h.startSession(w, r, http.StatusCreated, session, user)
}

// Login handles email/password sign-in
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	session, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err, "Error signing in")
		return
	}

	h.startSession(w, r, http.StatusOK, session, user)
}

// startSession sets the session cookie, adopts the caller's wizard ledger and
// answers with the user and a bearer token when tokens are enabled.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, session *models.Session, user *models.User) {
	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	h.adoptLedger(r, session.ID)

	token, err := h.authService.IssueToken(session, user)
	if err != nil && !errors.Is(err, service.ErrTokensDisabled) {
		respondWithServiceError(w, err, "Error issuing token")
		return
	}

	respondJSON(w, status, sessionResponse{User: user, ExpiresAt: session.ExpiresAt, Token: token})
}

func (h *AuthHandler) adoptLedger(r *http.Request, sessionID string) {
	if h.ledgers == nil {
		return
	}
	if cookie, err := r.Cookie(LedgerCookieName); err == nil && security.IsValidSessionID(cookie.Value) {
		h.ledgers.Bind(cookie.Value, sessionID)
	}
}

// GetSession returns the caller's live session
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.authService.GetSession(GetSessionIDFromContext(r.Context()))
	if err != nil {
		respondWithServiceError(w, err, "Error loading session")
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{
		User:      GetUserFromContext(r.Context()),
		ExpiresAt: session.ExpiresAt,
	})
}

// GetUser returns the signed-in user
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, GetUserFromContext(r.Context()))
}

// Logout ends the caller's session, if any. It always succeeds and points
// the client back to the entry route.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := ""
	if token := bearerToken(r); token != "" {
		if _, id, err := h.authService.ValidateToken(token); err == nil {
			sessionID = id
		}
	} else if cookie, err := r.Cookie(SessionCookieName); err == nil {
		sessionID = cookie.Value
	}

	if sessionID != "" {
		if err := h.authService.Logout(sessionID); err != nil {
			logger.Error("Error logging out", "error", err)
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	http.SetCookie(w, security.CreateDeleteCookie(r, LedgerCookieName))
	respondJSON(w, http.StatusOK, map[string]string{"redirect": EntryRoute})
}
