package security

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the password")
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{"matching", "correct horse", hash, true},
		{"wrong password", "battery staple", hash, false},
		{"empty hash", "correct horse", "", false},
		{"garbage hash", "correct horse", "not-a-bcrypt-hash", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("0123456789abcdef0123456789abcdef")
	expires := time.Now().Add(time.Hour)

	raw, err := issuer.Issue(42, "sess-1", true, expires)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	claims, err := issuer.Verify(raw)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if id, _ := claims.UserID(); id != 42 {
		t.Errorf("UserID() = %d, want 42", id)
	}
	if claims.SessionID != "sess-1" || !claims.Admin {
		t.Errorf("unexpected claims %+v", claims)
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer("another-secret-another-secret-xx")
		if _, err := other.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		old, err := issuer.Issue(42, "sess-1", false, time.Now().Add(-time.Minute))
		if err != nil {
			t.Fatalf("Issue() error: %v", err)
		}
		if _, err := issuer.Verify(old); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := issuer.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
		}
	})
}

func TestCSRFGenerator(t *testing.T) {
	g := NewCSRFGenerator("secret")

	token, err := g.GenerateToken("session")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	if !g.ValidateToken("session", token) {
		t.Error("token should validate for its session")
	}
	if g.ValidateToken("other", token) {
		t.Error("token must not validate for another session")
	}
	if _, err := g.GenerateToken(""); err == nil {
		t.Error("empty session should be rejected")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients have their own bucket")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, "10.0.0.1:5555", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.3"}, "10.0.0.1:5555", "198.51.100.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCookies(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")

	c := CreateSessionCookie(r, SessionCookieName, "abc", time.Now().Add(time.Hour))
	if !c.Secure || !c.HttpOnly || c.Value != "abc" {
		t.Errorf("unexpected session cookie %+v", c)
	}

	d := CreateDeleteCookie(httptest.NewRequest("GET", "/", nil), LedgerCookieName)
	if d.MaxAge != -1 || d.Secure {
		t.Errorf("unexpected delete cookie %+v", d)
	}
}
