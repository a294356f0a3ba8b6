package handlers

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"skiipper/internal/logger"
	"skiipper/internal/security"
)

const oauthCookieTTL = 10 * time.Minute

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
	AuthParams  map[string]string
}

func (p OAuthProvider) configured() bool {
	return p.Config != nil && p.Config.ClientID != "" && p.Config.ClientSecret != ""
}

type oauthProviderView struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

// ListOAuthProviders returns the configured sign-in providers
func (h *AuthHandler) ListOAuthProviders(w http.ResponseWriter, r *http.Request) {
	views := []oauthProviderView{}
	for key, provider := range h.oauthProviders {
		if !provider.configured() {
			continue
		}
		views = append(views, oauthProviderView{
			Name:  key,
			Label: provider.Label,
			URL:   fmt.Sprintf("/auth/%s/start", key),
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	respondJSON(w, http.StatusOK, views)
}

// StartOAuth initiates the OAuth flow for a provider
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		respondWithError(w, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return
	}

	state := security.GenerateSessionID()
	nonce := security.GenerateSessionID()

	setTempCookie(w, r, "oauth_state", state)
	setTempCookie(w, r, "oauth_provider", providerKey)
	setTempCookie(w, r, "oauth_nonce", nonce)

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	options := []oauth2.AuthCodeOption{oauth2.AccessTypeOnline}
	for key, value := range provider.AuthParams {
		options = append(options, oauth2.SetAuthURLParam(key, value))
	}
	if providerKey == "apple" {
		options = append(options, oauth2.SetAuthURLParam("nonce", nonce))
	}

	http.Redirect(w, r, config.AuthCodeURL(state, options...), http.StatusFound)
}

// OAuthCallback handles the OAuth provider callback
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		respondWithError(w, http.StatusBadRequest, "OAuth provider not configured", "", nil)
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Missing authorization code", "", nil)
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		respondWithError(w, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}
	if providerCookie, err := r.Cookie("oauth_provider"); err == nil && providerCookie.Value != providerKey {
		respondWithError(w, http.StatusBadRequest, "OAuth provider mismatch", "", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	token, err := config.Exchange(ctx, code)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Failed to exchange OAuth code", "OAuth exchange failed", err)
		return
	}

	userInfo, err := h.fetchOAuthUserInfo(ctx, providerKey, provider, token, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	clearTempCookie(w, r, "oauth_state")
	clearTempCookie(w, r, "oauth_provider")
	clearTempCookie(w, r, "oauth_nonce")

	session, user, err := h.authService.OAuthLogin(providerKey, userInfo.Subject, userInfo.Email, userInfo.Name)
	if err != nil {
		respondWithServiceError(w, err, "Error completing OAuth login")
		return
	}
	logger.Info("OAuth sign-in", "provider", providerKey, "user_id", user.ID)

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, session.ExpiresAt))
	h.adoptLedger(r, session.ID)
	http.Redirect(w, r, EntryRoute, http.StatusSeeOther)
}

func (h *AuthHandler) fetchOAuthUserInfo(ctx context.Context, providerKey string, provider OAuthProvider, token *oauth2.Token, r *http.Request) (oauthUserInfo, error) {
	switch providerKey {
	case "google":
		return fetchGoogleUser(ctx, provider, token)
	case "apple":
		nonce := ""
		if cookie, err := r.Cookie("oauth_nonce"); err == nil {
			nonce = cookie.Value
		}
		return fetchAppleUser(ctx, provider, token, nonce)
	default:
		return oauthUserInfo{}, errors.New("unsupported OAuth provider")
	}
}

func fetchGoogleUser(ctx context.Context, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(provider.UserInfoURL)
	if err != nil {
		return oauthUserInfo{}, errors.New("failed to fetch Google user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, errors.New("failed to fetch Google user info")
	}

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, errors.New("failed to parse Google user info")
	}

	return oauthUserInfo{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}

func fetchAppleUser(ctx context.Context, provider OAuthProvider, token *oauth2.Token, nonce string) (oauthUserInfo, error) {
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return oauthUserInfo{}, errors.New("missing Apple id_token")
	}

	claims, err := parseAppleIDToken(idToken, provider.Config.ClientID, nonce, func(kid string) (*rsa.PublicKey, error) {
		return fetchApplePublicKey(ctx, kid)
	})
	if err != nil {
		return oauthUserInfo{}, err
	}
	return claims, nil
}

func (h *AuthHandler) oauthRedirectURL(r *http.Request, providerKey string) string {
	baseURL := strings.TrimSpace(h.oauthRedirectBaseURL)
	if baseURL == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/auth/%s/callback", strings.TrimRight(baseURL, "/"), providerKey)
}

func setTempCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   security.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(oauthCookieTTL),
		MaxAge:   int(oauthCookieTTL.Seconds()),
	})
}

func clearTempCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, security.CreateDeleteCookie(r, name))
}

type appleTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Nonce string `json:"nonce"`
}

type appleJWK struct {
	Keys []appleJWKKey `json:"keys"`
}

type appleJWKKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

const appleIssuer = "https://appleid.apple.com"

// parseAppleIDToken verifies an RS256 Apple ID token with the key returned by
// keyFor and checks issuer, audience and nonce.
func parseAppleIDToken(idToken, clientID, nonce string, keyFor func(kid string) (*rsa.PublicKey, error)) (oauthUserInfo, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(appleIssuer),
		jwt.WithAudience(clientID),
	)
	claims := &appleTokenClaims{}

	parsedToken, err := parser.ParseWithClaims(idToken, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing key id")
		}
		return keyFor(kid)
	})
	if err != nil || !parsedToken.Valid {
		return oauthUserInfo{}, errors.New("invalid Apple token")
	}

	if nonce != "" && claims.Nonce != "" && claims.Nonce != nonce {
		return oauthUserInfo{}, errors.New("invalid Apple nonce")
	}
	if claims.Email == "" {
		return oauthUserInfo{}, errors.New("Apple email not available")
	}

	return oauthUserInfo{Subject: claims.Subject, Email: claims.Email}, nil
}

func fetchApplePublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, appleIssuer+"/auth/keys", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("failed to fetch Apple public keys")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return applePublicKey(body, kid)
}

func applePublicKey(jwks []byte, kid string) (*rsa.PublicKey, error) {
	var jwk appleJWK
	if err := json.Unmarshal(jwks, &jwk); err != nil {
		return nil, err
	}

	for _, key := range jwk.Keys {
		if key.Kid != kid {
			continue
		}
		if key.Kty != "RSA" {
			return nil, errors.New("unexpected key type")
		}
		modulusBytes, err := base64.RawURLEncoding.DecodeString(key.N)
		if err != nil {
			return nil, err
		}
		exponentBytes, err := base64.RawURLEncoding.DecodeString(key.E)
		if err != nil {
			return nil, err
		}
		exponent := 0
		for _, b := range exponentBytes {
			exponent = exponent*256 + int(b)
		}
		return &rsa.PublicKey{
			N: new(big.Int).SetBytes(modulusBytes),
			E: exponent,
		}, nil
	}

	return nil, errors.New("Apple public key not found")
}
