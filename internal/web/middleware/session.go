package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/JonMunkholm/geradorclientes/internal/logging"
	"github.com/JonMunkholm/geradorclientes/internal/session"
)

type principalKey struct{}

// PrincipalFrom returns the session stored by RequireSession.
func PrincipalFrom(ctx context.Context) (session.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(session.Principal)
	return p, ok
}

// WithPrincipal stores p in ctx and tags later log entries with the user.
func WithPrincipal(ctx context.Context, p session.Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey{}, p)
	return logging.WithUser(ctx, p.Email)
}

// RequireSession redirects browsers without a valid session to loginPath.
// Requests asking for JSON get 401 instead.
func RequireSession(m *session.Manager, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := m.FromRequest(r)
			if err != nil {
				log := logging.FromContext(r.Context())
				if !errors.Is(err, session.ErrNoSession) && !errors.Is(err, session.ErrRevoked) {
					log.Error("session check failed", "path", r.URL.Path, "error", err)
				} else {
					log.Debug("session missing", "path", r.URL.Path, "reason", err)
				}
				m.ClearCookie(w)

				if r.Header.Get("Accept") == "application/json" {
					http.Error(w, `{"error":"session expired","code":"AUTH002"}`, http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// DiagToken rejects requests whose X-DIAG-TOKEN header does not match token.
// An empty token rejects everything.
func DiagToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-DIAG-TOKEN")
			if token == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				logging.FromContext(r.Context()).Warn("diag: token rejected",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
