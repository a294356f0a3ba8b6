package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"skiipper/internal/logger"
	"skiipper/internal/models"
	"skiipper/internal/security"
	"skiipper/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey    ContextKey = "user"
	SessionContextKey ContextKey = "session"
	LedgerContextKey  ContextKey = "ledger"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	ledgers     *service.LedgerStore
	csrf        *security.CSRFGenerator
	limiter     *security.RateLimiter
}

// NewMiddleware creates a new middleware instance. csrf and limiter may be nil
// to disable those checks.
func NewMiddleware(authService *service.AuthService, ledgers *service.LedgerStore, csrf *security.CSRFGenerator, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		authService: authService,
		ledgers:     ledgers,
		csrf:        csrf,
		limiter:     limiter,
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// RequireAuth is middleware that requires a valid bearer token or session
// cookie. Failures answer 401 with a redirect to the entry route.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			user, sessionID, err := m.authService.ValidateToken(token)
			if err != nil {
				respondUnauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, user)
			ctx = context.WithValue(ctx, SessionContextKey, sessionID)
			next(w, r.WithContext(ctx))
			return
		}

		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			respondUnauthorized(w)
			return
		}

		user, err := m.authService.ValidateSession(cookie.Value)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
			respondUnauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		ctx = context.WithValue(ctx, SessionContextKey, cookie.Value)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin is RequireAuth restricted to the admin account
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil || !user.IsAdmin {
			respondWithError(w, http.StatusForbidden, ErrForbidden, "", nil)
			return
		}
		next(w, r)
	})
}

// LedgerSession attaches the caller's wizard ledger id, issuing one when the
// cookie is missing. The ledger itself is only stored once an unsafe request
// arrives; reads before that see an empty ledger.
func (m *Middleware) LedgerSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(LedgerCookieName); err == nil && security.IsValidSessionID(cookie.Value) {
			id = cookie.Value
		} else {
			id = security.GenerateSessionID()
			http.SetCookie(w, security.CreateSessionCookie(r, LedgerCookieName, id, time.Time{}))
		}
		if !isSafeMethod(r.Method) && m.ledgers.Open(id) {
			logger.Debug("Started ledger session", "ledger_id", id)
		}
		ctx := context.WithValue(r.Context(), LedgerContextKey, id)
		next(w, r.WithContext(ctx))
	}
}

// CSRFProtect checks the X-CSRF-Token header on unsafe requests made with
// cookies. Tokens are keyed on the auth session, or the ledger session for
// anonymous callers, and every response carries the current token. Requests
// with a bearer token carry no ambient credentials and are exempt.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.csrf == nil || bearerToken(r) != "" {
			next(w, r)
			return
		}

		key := GetSessionIDFromContext(r.Context())
		if key == "" {
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				key = cookie.Value
			}
		}
		if key == "" {
			key = GetLedgerIDFromContext(r.Context())
		}
		if key == "" {
			next(w, r)
			return
		}

		if !isSafeMethod(r.Method) && !m.csrf.ValidateToken(key, r.Header.Get(CSRFHeaderName)) {
			respondWithError(w, http.StatusForbidden, "Invalid CSRF token", "", nil)
			return
		}

		if token, err := m.csrf.GenerateToken(key); err == nil {
			w.Header().Set(CSRFHeaderName, token)
		}
		next(w, r)
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// RateLimit rejects clients that exceed the limiter's budget
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			respondWithError(w, http.StatusTooManyRequests, "Too many requests, try again later", "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetSessionIDFromContext returns the authenticated session ID, if any
func GetSessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(SessionContextKey).(string)
	return id
}

// GetLedgerIDFromContext returns the wizard ledger ID, if any
func GetLedgerIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(LedgerContextKey).(string)
	return id
}
