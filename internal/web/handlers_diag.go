package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/JonMunkholm/geradorclientes/internal/auth"
	"github.com/JonMunkholm/geradorclientes/internal/config"
	"github.com/JonMunkholm/geradorclientes/internal/logging"
	"github.com/JonMunkholm/geradorclientes/internal/users"
)

const diagTimeout = 3 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), diagTimeout)
	defer cancel()

	if err := s.users.Ping(ctx); err != nil {
		logging.FromContext(ctx).Warn("health check failed", "error", err)
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":             "ok",
		"active_generations": s.service.Limiter().ActiveCount(),
	})
}

type diagResponse struct {
	Backend  string `json:"backend"`
	DBExists bool   `json:"dbExists"`
	Users    *int   `json:"users"`
}

// handleDiag reports whether the user store is present and how many users it holds.
func (s *Server) handleDiag(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), diagTimeout)
	defer cancel()

	resp := diagResponse{Backend: s.cfg.Storage.Backend}
	switch s.cfg.Storage.Backend {
	case config.BackendSQLite:
		resp.DBExists = fileExists(s.cfg.Storage.SQLitePath)
	case config.BackendFile:
		resp.DBExists = fileExists(s.cfg.Storage.UsersFile)
	default:
		resp.DBExists = s.users.Ping(ctx) == nil
	}

	if n, err := s.users.Count(ctx); err == nil {
		resp.Users = &n
	} else {
		logging.FromContext(ctx).Warn("diag user count failed", "error", err)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (s *Server) handleDiagUsers(w http.ResponseWriter, r *http.Request) {
	emails, err := s.users.ListEmails(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if emails == nil {
		emails = []string{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"count": len(emails), "emails": emails})
}

type testLoginResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// handleTestLogin checks a credential pair without creating a session. Unlike
// the login form it says which half was wrong, so it sits behind the diag token.
func (s *Server) handleTestLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == nil || body.Password == nil {
		writeJSON(w, r, http.StatusBadRequest, testLoginResponse{Message: "email and password required"})
		return
	}

	u, err := s.users.GetByEmail(r.Context(), auth.NormalizeEmail(*body.Email))
	if errors.Is(err, users.ErrNotFound) {
		writeJSON(w, r, http.StatusOK, testLoginResponse{Message: "user not found"})
		return
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	if !auth.Matches(*body.Password, u.PasswordDigest) {
		writeJSON(w, r, http.StatusOK, testLoginResponse{Message: "invalid password"})
		return
	}
	writeJSON(w, r, http.StatusOK, testLoginResponse{OK: true, Message: "authenticated"})
}
