package web

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/geradorclientes/internal/core"
	"github.com/JonMunkholm/geradorclientes/internal/dataset"
	"github.com/JonMunkholm/geradorclientes/internal/logging"
	"github.com/JonMunkholm/geradorclientes/internal/web/middleware"
	"github.com/JonMunkholm/geradorclientes/internal/web/templates"
)

const defaultDelimiter = ";"

func currentUser(r *http.Request) string {
	p, _ := middleware.PrincipalFrom(r.Context())
	return p.Email
}

func (s *Server) handleGeneratePage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, templates.Generate(templates.GenerateForm{
		User:      currentUser(r),
		Count:     dataset.MinRows,
		Delimiter: defaultDelimiter,
	}))
}

// handleGenerate builds a new workbook or, with action=enviar, mails the
// latest one. Unparseable counts fall back to the minimum.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	count, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("count")))
	if err != nil {
		count = dataset.MinRows
	}
	req := core.GenerateRequest{
		Count:       count,
		Action:      r.PostFormValue("action"),
		Delimiter:   r.PostFormValue("delimiter"),
		TargetEmail: r.PostFormValue("targetEmail"),
	}

	res, err := s.service.Generate(r.Context(), req)
	form := templates.GenerateForm{
		User:        currentUser(r),
		Count:       dataset.Clamp(req.Count),
		Delimiter:   req.Delimiter,
		TargetEmail: req.TargetEmail,
	}
	if form.Delimiter == "" {
		form.Delimiter = defaultDelimiter
	}

	if err != nil {
		status := generateStatus(err)
		if wantsJSON(r) {
			s.respondError(w, r, err, status)
			return
		}
		logging.FromContext(r.Context()).Error("generate failed", "error", err, "status", status)
		form.Message = core.FormatUserError(err)
		s.render(w, r, status, templates.Generate(form))
		return
	}

	if wantsJSON(r) {
		writeJSON(w, r, http.StatusOK, res)
		return
	}
	form.Message = res.Message
	form.OK = res.OK
	form.FileName = res.FileName
	form.PreviewHTML = res.PreviewHTML
	s.render(w, r, http.StatusOK, templates.Generate(form))
}

func generateStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// handleDownload streams a generated file and then starts a retention sweep
// in the background.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("file")

	dl, err := s.service.OpenDownload(name)
	if errors.Is(err, core.ErrFileNotFound) {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	defer dl.Close()

	h := w.Header()
	h.Set("Content-Type", dl.ContentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name}))
	h.Set("Cache-Control", "private, max-age=0, must-revalidate")
	h.Set("Pragma", "no-cache")

	http.ServeContent(w, r, dl.Name, dl.ModTime, dl.File)

	logging.FromContext(r.Context()).Info("file downloaded", "file", dl.Name, "size", dl.Size)
	s.service.DownloadServed()
}
