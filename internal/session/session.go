// Package session issues and verifies the signed cookie that carries a
// logged-in user between requests.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrNoSession means the request carries no valid session cookie.
	ErrNoSession = errors.New("session expired")

	// ErrRevoked means the session was ended by logout.
	ErrRevoked = errors.New("session revoked")
)

// Claims is the token payload. Name and Email both carry the normalized email.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"uid"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Principal is the verified identity behind a request.
type Principal struct {
	UserID    int64
	Name      string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// Options configures a Manager.
type Options struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
	Revoker    Revoker
	Now        func() time.Time
}

// Manager signs, parses and revokes session tokens.
type Manager struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	revoker    Revoker
	now        func() time.Time
}

// NewManager creates a Manager. A nil Revoker keeps revocations in memory.
func NewManager(opts Options) *Manager {
	m := &Manager{
		secret:     []byte(opts.Secret),
		ttl:        opts.TTL,
		cookieName: opts.CookieName,
		secure:     opts.Secure,
		revoker:    opts.Revoker,
		now:        opts.Now,
	}
	if m.revoker == nil {
		m.revoker = NewMemoryRevoker()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.cookieName == "" {
		m.cookieName = "gc_session"
	}
	if m.ttl <= 0 {
		m.ttl = 8 * time.Hour
	}
	return m
}

// Issue signs a token for the user.
func (m *Manager) Issue(userID int64, email string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: userID,
		Name:   email,
		Email:  email,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies a token and checks it has not been revoked.
func (m *Manager) Parse(ctx context.Context, raw string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return Principal{}, ErrNoSession
	}

	revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Principal{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Principal{}, ErrRevoked
	}

	return Principal{
		UserID:    claims.UserID,
		Name:      claims.Name,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// FromRequest parses the session cookie.
func (m *Manager) FromRequest(r *http.Request) (Principal, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return Principal{}, ErrNoSession
	}
	return m.Parse(r.Context(), c.Value)
}

// Revoke ends a session before its natural expiry.
func (m *Manager) Revoke(ctx context.Context, p Principal) error {
	if p.TokenID == "" {
		return nil
	}
	return m.revoker.Revoke(ctx, p.TokenID, p.ExpiresAt)
}

// SetCookie writes the session cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(exp.Sub(m.now()).Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
