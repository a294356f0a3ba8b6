package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "skiipper"

var ErrInvalidToken = errors.New("invalid token")

// TokenClaims are carried by API bearer tokens. The session ID ties a token to
// a server-side session so signing out revokes it.
type TokenClaims struct {
	SessionID string `json:"sid"`
	Admin     bool   `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject
func (c *TokenClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// TokenIssuer signs and verifies HS256 API tokens
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer creates an issuer keyed by secret
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for a session that expires at expiresAt
func (i *TokenIssuer) Issue(userID int64, sessionID string, admin bool, expiresAt time.Time) (string, error) {
	now := i.now()
	claims := TokenClaims{
		SessionID: sessionID,
		Admin:     admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token
func (i *TokenIssuer) Verify(raw string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	_, err := parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
