package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skiipper/internal/repository"
	"skiipper/internal/security"
	"skiipper/internal/validation"
)

func newTestAuthService(t *testing.T) (*AuthService, *repository.UserRepository) {
	t.Helper()
	repo := repository.NewUserRepository(openTestDB(t))
	issuer := security.NewTokenIssuer("0123456789abcdef0123456789abcdef")
	return NewAuthService(repo, issuer, " Boss@Example.com ", time.Hour), repo
}

func TestRegisterAndLogin(t *testing.T) {
	auth, _ := newTestAuthService(t)

	user, err := auth.Register("Ada@Example.com", "password123", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.False(t, user.IsAdmin)

	_, err = auth.Register("ada@example.com", "password123", "Ada")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = auth.Register("bad-email", "password123", "Ada")
	var ve validation.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, _, err = auth.Login("ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = auth.Login("nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, loggedIn, err := auth.Login("ADA@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	got, err := auth.ValidateSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestAdminEmail(t *testing.T) {
	auth, repo := newTestAuthService(t)

	boss, err := auth.Register("boss@example.com", "password123", "Boss")
	require.NoError(t, err)
	assert.True(t, boss.IsAdmin)
	assert.True(t, auth.IsAdminEmail("BOSS@example.com"))

	// A stale flag is corrected at sign-in.
	other, err := auth.Register("other@example.com", "password123", "Other")
	require.NoError(t, err)
	require.NoError(t, repo.SetAdmin(other.ID, true))
	_, signedIn, err := auth.Login("other@example.com", "password123")
	require.NoError(t, err)
	assert.False(t, signedIn.IsAdmin)
}

func TestSessionLifecycleEvents(t *testing.T) {
	auth, repo := newTestAuthService(t)

	type event struct {
		kind    AuthEvent
		userID  int64
		session string
	}
	var events []event
	auth.OnAuthStateChange(func(kind AuthEvent, userID int64, sessionID string) {
		events = append(events, event{kind, userID, sessionID})
	})

	user, err := auth.Register("ada@example.com", "password123", "Ada")
	require.NoError(t, err)
	session, _, err := auth.Login("ada@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(session.ID))
	_, err = auth.ValidateSession(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.Equal(t, []event{
		{SignedIn, user.ID, session.ID},
		{SignedOut, user.ID, session.ID},
	}, events)

	_, err = repo.CreateSession("stale", user.ID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = auth.GetSession("stale")
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = auth.GetSession("")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBearerTokens(t *testing.T) {
	auth, _ := newTestAuthService(t)

	_, err := auth.Register("ada@example.com", "password123", "Ada")
	require.NoError(t, err)
	session, user, err := auth.Login("ada@example.com", "password123")
	require.NoError(t, err)

	token, err := auth.IssueToken(session, user)
	require.NoError(t, err)

	got, sessionID, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, session.ID, sessionID)

	require.NoError(t, auth.Logout(session.ID))
	_, _, err = auth.ValidateToken(token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	noTokens := NewAuthService(nil, nil, "", time.Hour)
	_, err = noTokens.IssueToken(session, user)
	assert.ErrorIs(t, err, ErrTokensDisabled)
}

func TestOAuthLogin(t *testing.T) {
	auth, _ := newTestAuthService(t)

	_, user, err := auth.OAuthLogin("google", "g-1", "new@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "new", user.Name)
	assert.Equal(t, "google", user.OAuthProvider)

	_, again, err := auth.OAuthLogin("google", "g-1", "new@example.com", "New")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	// Password account with the same email gets linked.
	existing, err := auth.Register("ada@example.com", "password123", "Ada")
	require.NoError(t, err)
	_, linked, err := auth.OAuthLogin("apple", "a-1", "ada@example.com", "Ada")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.ID)

	_, _, err = auth.OAuthLogin("google", "g-2", "ada@example.com", "Ada")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, _, err = auth.OAuthLogin("", "", "x@example.com", "")
	assert.Error(t, err)
}
