package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func newManager(now *time.Time) *Manager {
	return NewManager(Options{
		Secret:     secret,
		TTL:        time.Hour,
		CookieName: "gc_session",
		Now:        func() time.Time { return *now },
	})
}

func TestIssueAndParse(t *testing.T) {
	now := time.Now()
	m := newManager(&now)

	tok, exp, err := m.Issue(7, "ana@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), exp, time.Second)

	p, err := m.Parse(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.UserID)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Equal(t, "ana@example.com", p.Name)
	assert.NotEmpty(t, p.TokenID)
}

func TestParse_Expired(t *testing.T) {
	now := time.Now()
	m := newManager(&now)
	tok, _, err := m.Issue(1, "a@x.com")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = m.Parse(context.Background(), tok)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestParse_WrongSecret(t *testing.T) {
	now := time.Now()
	tok, _, err := newManager(&now).Issue(1, "a@x.com")
	require.NoError(t, err)

	other := NewManager(Options{Secret: "another-secret-value-000000000000"})
	_, err = other.Parse(context.Background(), tok)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestParse_Garbage(t *testing.T) {
	now := time.Now()
	_, err := newManager(&now).Parse(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRevoke(t *testing.T) {
	now := time.Now()
	m := newManager(&now)
	ctx := context.Background()

	tok, _, err := m.Issue(1, "a@x.com")
	require.NoError(t, err)
	p, err := m.Parse(ctx, tok)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, p))
	_, err = m.Parse(ctx, tok)
	assert.True(t, errors.Is(err, ErrRevoked), "err = %v", err)
}

func TestCookieRoundTrip(t *testing.T) {
	now := time.Now()
	m := newManager(&now)

	tok, exp, err := m.Issue(3, "c@x.com")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.SetCookie(rec, tok, exp)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	req := httptest.NewRequest(http.MethodGet, "/generate", nil)
	req.AddCookie(cookies[0])
	p, err := m.FromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "c@x.com", p.Email)

	rec = httptest.NewRecorder()
	m.ClearCookie(rec)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestFromRequest_NoCookie(t *testing.T) {
	now := time.Now()
	_, err := newManager(&now).FromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMemoryRevoker_Expires(t *testing.T) {
	r := NewMemoryRevoker()
	now := time.Now()
	r.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, r.Revoke(ctx, "id", now.Add(time.Minute)))
	ok, _ := r.IsRevoked(ctx, "id")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = r.IsRevoked(ctx, "id")
	assert.False(t, ok)
}

func TestRedisRevoker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := NewRedisClient(addr, "", 0)
	t.Cleanup(func() { _ = rdb.Close() })

	r := NewRedisRevoker(rdb)
	id := "test-" + time.Now().Format("150405.000000")

	ok, err := r.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Revoke(ctx, id, time.Now().Add(time.Minute)))
	ok, err = r.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
}
