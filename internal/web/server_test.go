package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/geradorclientes/internal/auth"
	"github.com/JonMunkholm/geradorclientes/internal/config"
	"github.com/JonMunkholm/geradorclientes/internal/core"
	"github.com/JonMunkholm/geradorclientes/internal/dataset"
	"github.com/JonMunkholm/geradorclientes/internal/session"
	"github.com/JonMunkholm/geradorclientes/internal/users"
)

const (
	testEmail    = "ana@example.com"
	testPassword = "Segredo123"
)

type stubMailer struct {
	mu    sync.Mutex
	sent  []string
	reply bool
}

func (m *stubMailer) SendWithAttachment(_ context.Context, _, fileName, to string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, fileName+"|"+to)
	return m.reply
}

type stubSweeper struct {
	mu       sync.Mutex
	triggers int
}

func (s *stubSweeper) Trigger() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers++
	return true
}

type testEnv struct {
	srv     *Server
	store   *users.FileStore
	mailer  *stubMailer
	sweeper *stubSweeper
	service *core.Service
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: 0, RequestTimeout: 30 * time.Second},
		Storage: config.StorageConfig{Backend: config.BackendFile, UsersFile: filepath.Join(dir, "users.json")},
		Output:  config.OutputConfig{Dir: filepath.Join(dir, "out"), RetentionAge: 10 * time.Minute, PreviewRows: 1000},
		Session: config.SessionConfig{Secret: "0123456789abcdef0123456789abcdef", TTL: time.Hour, CookieName: "gc_session"},
		Rate:    config.RateLimitConfig{Enabled: false, RequestsPerMinute: 100, AuthLimit: 10},
		Diag:    config.DiagConfig{AllowDiag: true, Token: "diag-token"},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()

	store, err := users.NewFileStore(cfg.Storage.UsersFile)
	require.NoError(t, err)

	m := &stubMailer{reply: true}
	sw := &stubSweeper{}
	svc, err := core.NewService(core.Options{
		OutputDir:   cfg.Output.Dir,
		PreviewRows: cfg.Output.PreviewRows,
		Mailer:      m,
		Sweeper:     sw,
		Rand:        dataset.NewRand(7),
	})
	require.NoError(t, err)

	srv := NewServer(Deps{
		Config:   cfg,
		Auth:     auth.NewService(store),
		Users:    store,
		Sessions: session.NewManager(session.Options{Secret: cfg.Session.Secret, TTL: cfg.Session.TTL, CookieName: cfg.Session.CookieName}),
		Service:  svc,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &testEnv{srv: srv, store: store, mailer: m, sweeper: sw, service: svc}
}

func (e *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	return rec
}

func postForm(path string, v url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (e *testEnv) register(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(postForm("/register", url.Values{"email": {email}, "password": {password}}))
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := e.do(postForm("/login", url.Values{"email": {testEmail}, "password": {testPassword}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "gc_session" && c.Value != "" {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func TestRootRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRegisterLoginGenerateDownload(t *testing.T) {
	env := newTestEnv(t, testConfig(t))

	rec := env.register(t, " Ana@Example.com ", testPassword)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?registered=1", rec.Header().Get("Location"))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/login?registered=1", nil))
	assert.Contains(t, rec.Body.String(), noticeRegistered)

	cookie := env.login(t)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/generate", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), testEmail)

	rec = env.do(postForm("/generate", url.Values{"count": {"5"}, "action": {"gerar"}, "delimiter": {";"}}), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Mostrando 10 de 10 registros")
	assert.Contains(t, body, "Arquivo gerado com sucesso")

	latest, err := core.LatestGenerated(env.service.OutputDir())
	require.NoError(t, err)
	assert.Contains(t, body, `name="file" value="`+latest.Name+`"`)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/download?file="+latest.Name, nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.ContentTypeFor(latest.Name), rec.Header().Get("Content-Type"))
	assert.Equal(t, "private, max-age=0, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), latest.Name)
	assert.True(t, rec.Body.Len() > 0)
	assert.Equal(t, 1, env.sweeper.triggers)
}

func TestGenerate_JSON(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	env.register(t, testEmail, testPassword)
	cookie := env.login(t)

	req := postForm("/generate", url.Values{"count": {"5000"}})
	req.Header.Set("Accept", "application/json")
	rec := env.do(req, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var res core.GenerateResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.True(t, res.OK)
	assert.Equal(t, dataset.MaxRows, res.Rows)
	assert.True(t, core.IsGeneratedName(res.FileName))
}

func TestSendLatest(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	env.register(t, testEmail, testPassword)
	cookie := env.login(t)

	rec := env.do(postForm("/generate", url.Values{"action": {"enviar"}, "targetEmail": {"dest@example.com"}}), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), core.MsgNoFile)
	assert.Empty(t, env.mailer.sent)

	env.do(postForm("/generate", url.Values{"count": {"10"}}), cookie)
	rec = env.do(postForm("/generate", url.Values{"action": {"ENVIAR"}, "targetEmail": {"dest@example.com"}}), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Arquivo enviado por email com sucesso")
	require.Len(t, env.mailer.sent, 1)
	assert.True(t, strings.HasSuffix(env.mailer.sent[0], "|dest@example.com"))
}

func TestGenerate_RequiresSession(t *testing.T) {
	env := newTestEnv(t, testConfig(t))

	for _, path := range []string{"/generate", "/download?file=x.xlsx"} {
		rec := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}
}

func TestDownload_NotFound(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	env.register(t, testEmail, testPassword)
	cookie := env.login(t)

	for _, name := range []string{"Clientes_20000101000000.xlsx", "../users.json", ""} {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/download?file="+url.QueryEscape(name), nil), cookie)
		assert.Equal(t, http.StatusNotFound, rec.Code, name)
		assert.Contains(t, rec.Body.String(), "FILE001", name)
	}
	assert.Zero(t, env.sweeper.triggers)
}

func TestLogin_GenericFailure(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	env.register(t, testEmail, testPassword)

	unknown := env.do(postForm("/login", url.Values{"email": {"nobody@example.com"}, "password": {testPassword}}))
	wrong := env.do(postForm("/login", url.Values{"email": {testEmail}, "password": {"Errada123"}}))

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Contains(t, unknown.Body.String(), "Usuário ou senha inválidos.")
	assert.Contains(t, wrong.Body.String(), "Usuário ou senha inválidos.")
	assert.Empty(t, unknown.Result().Cookies())
}

func TestLogin_CaseInsensitiveEmail(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	env.register(t, "a@B.com", testPassword)

	rec := env.do(postForm("/login", url.Values{"email": {"A@b.COM"}, "password": {testPassword}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	env.register(t, testEmail, testPassword)

	tests := []struct {
		name     string
		email    string
		password string
		status   int
		message  string
	}{
		{"missing password", "b@example.com", "", http.StatusBadRequest, "Preencha email e senha."},
		{"weak password", "b@example.com", "fraca", http.StatusBadRequest, "Senha fraca."},
		{"duplicate", "ANA@example.com", testPassword, http.StatusConflict, "Este e-mail já está sendo usado."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.register(t, tt.email, tt.password)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
		})
	}
}

func TestRegister_JSON(t *testing.T) {
	env := newTestEnv(t, testConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"c@example.com","password":"abc"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := env.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "REG002", body.Code)
}

func TestLogout_RevokesSession(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	env.register(t, testEmail, testPassword)
	cookie := env.login(t)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/logout", nil), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/generate", nil), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestDiagEndpoints(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	env.register(t, testEmail, testPassword)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/diag", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var diag diagResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&diag))
	assert.True(t, diag.DBExists)
	require.NotNil(t, diag.Users)
	assert.Equal(t, 1, *diag.Users)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("X-DIAG-TOKEN", "diag-token")
	rec = env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), testEmail)

	tests := []struct {
		body string
		want testLoginResponse
	}{
		{`{"email":"ANA@example.com","password":"Segredo123"}`, testLoginResponse{OK: true, Message: "authenticated"}},
		{`{"email":"ana@example.com","password":"nope"}`, testLoginResponse{Message: "invalid password"}},
		{`{"email":"x@example.com","password":"nope"}`, testLoginResponse{Message: "user not found"}},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/test-login", strings.NewReader(tt.body))
		req.Header.Set("X-DIAG-TOKEN", "diag-token")
		rec := env.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		var got testLoginResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, tt.want, got, tt.body)
	}
}

func TestDiagDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Diag = config.DiagConfig{}
	env := newTestEnv(t, cfg)

	for _, path := range []string{"/api/diag", "/api/users"} {
		rec := env.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestAuthRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, AuthLimit: 2}
	env := newTestEnv(t, cfg)

	form := url.Values{"email": {"x@example.com"}, "password": {"Errada123"}}
	for i := 0; i < 2; i++ {
		rec := env.do(postForm("/login", form))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := env.do(postForm("/login", form))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// pages are only under the general limit
	rec = env.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, testConfig(t))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	rec := env.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
}
