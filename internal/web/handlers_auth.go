package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/geradorclientes/internal/auth"
	"github.com/JonMunkholm/geradorclientes/internal/core"
	"github.com/JonMunkholm/geradorclientes/internal/logging"
	"github.com/JonMunkholm/geradorclientes/internal/metrics"
	"github.com/JonMunkholm/geradorclientes/internal/web/templates"
)

const noticeRegistered = "Cadastro realizado. Entre com seu e-mail e senha."

// maxFormBytes caps login and register bodies.
const maxFormBytes = 64 << 10

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// readCredentials accepts a urlencoded form or a JSON body.
func readCredentials(w http.ResponseWriter, r *http.Request) credentials {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	var c credentials
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		_ = json.NewDecoder(r.Body).Decode(&c)
		return c
	}
	if err := r.ParseForm(); err != nil {
		return c
	}
	c.Email = r.PostFormValue("email")
	c.Password = r.PostFormValue("password")
	return c
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.FromRequest(r); err == nil {
		http.Redirect(w, r, "/generate", http.StatusSeeOther)
		return
	}

	form := templates.AuthForm{}
	if r.URL.Query().Get("registered") == "1" {
		form.Notice = noticeRegistered
	}
	s.render(w, r, http.StatusOK, templates.Login(form))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c := readCredentials(w, r)

	id, err := s.auth.Login(ctx, c.Email, c.Password)
	if err != nil {
		status := http.StatusUnauthorized
		outcome := "failure"
		if errors.Is(err, auth.ErrStore) {
			status = http.StatusServiceUnavailable
			outcome = "error"
		}
		metrics.RecordAuth("login", outcome)
		s.authFailed(w, r, err, status, templates.Login, c.Email)
		return
	}

	token, exp, err := s.sessions.Issue(id.UserID, id.Email)
	if err != nil {
		metrics.RecordAuth("login", "error")
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.sessions.SetCookie(w, token, exp)
	metrics.RecordAuth("login", "success")

	if wantsJSON(r) {
		writeJSON(w, r, http.StatusOK, map[string]any{"ok": true, "email": id.Email})
		return
	}
	http.Redirect(w, r, "/generate", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, templates.Register(templates.AuthForm{}))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	c := readCredentials(w, r)

	if err := s.auth.Register(r.Context(), c.Email, c.Password); err != nil {
		status := http.StatusBadRequest
		outcome := "failure"
		switch {
		case errors.Is(err, auth.ErrEmailTaken), errors.Is(err, auth.ErrCreateFailed):
			status = http.StatusConflict
		case errors.Is(err, auth.ErrStore):
			status = http.StatusServiceUnavailable
			outcome = "error"
		}
		metrics.RecordAuth("register", outcome)
		s.authFailed(w, r, err, status, templates.Register, c.Email)
		return
	}
	metrics.RecordAuth("register", "success")

	if wantsJSON(r) {
		writeJSON(w, r, http.StatusCreated, map[string]any{"ok": true})
		return
	}
	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

// authFailed re-renders the form with the mapped message, keeping the email.
func (s *Server) authFailed(w http.ResponseWriter, r *http.Request, err error, status int,
	page func(templates.AuthForm) templ.Component, email string) {
	if wantsJSON(r) || status >= http.StatusInternalServerError {
		s.respondError(w, r, err, status)
		return
	}
	logging.FromContext(r.Context()).Info("auth form rejected", "path", r.URL.Path, "status", status)
	msg := core.MapError(err)
	s.render(w, r, status, page(templates.AuthForm{Email: strings.TrimSpace(email), Error: msg.Message}))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if p, err := s.sessions.FromRequest(r); err == nil {
		if err := s.sessions.Revoke(r.Context(), p); err != nil {
			logging.FromContext(r.Context()).Warn("session revoke failed", "error", err)
		}
	}
	s.sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Warn("page render failed", "path", r.URL.Path, "error", err)
	}
}
