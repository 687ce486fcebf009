package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/geradorclientes/internal/dataset"
	"github.com/JonMunkholm/geradorclientes/internal/logging"
	"github.com/JonMunkholm/geradorclientes/internal/metrics"
	"github.com/JonMunkholm/geradorclientes/internal/spreadsheet"
)

// ActionSend selects the mail-the-latest-file path of a generate request.
const ActionSend = "enviar"

// DefaultPreviewRows caps the HTML preview.
const DefaultPreviewRows = 1000

// User-facing outcomes of a generate request.
const (
	MsgGenerated  = "Arquivo gerado com sucesso: %s"
	MsgNoFile     = "Nenhum arquivo gerado previamente. Gere o arquivo antes de enviar por e-mail."
	MsgNoTarget   = "Informe um e-mail de destino para envio."
	MsgSent       = "Arquivo enviado por email com sucesso: %s para %s"
	MsgSendFailed = "Não foi possível enviar o e-mail. Verifique a configuração de SMTP."
	MsgSendError  = "Não foi possível enviar o e-mail."
)

// ErrFileNotFound means a download name is unknown or points outside the output directory.
var ErrFileNotFound = errors.New("file not found")

// Mailer delivers a file as an attachment, reporting only success.
type Mailer interface {
	SendWithAttachment(ctx context.Context, filePath, fileName, toEmail string) bool
}

// Sweeper starts a background cleanup of expired files.
type Sweeper interface {
	Trigger() bool
}

// GenerateRequest is a submitted generate form.
type GenerateRequest struct {
	Count       int
	Action      string
	Delimiter   string // accepted and ignored; workbooks have no delimiter
	TargetEmail string
}

// GenerateResult is what the page shows after a generate request.
type GenerateResult struct {
	Message     string `json:"message"`
	OK          bool   `json:"ok"`
	FileName    string `json:"file_name,omitempty"`
	Rows        int    `json:"rows,omitempty"`
	PreviewHTML string `json:"preview_html,omitempty"`
}

// Options configures a Service. Zero values pick defaults.
type Options struct {
	OutputDir   string
	PreviewRows int
	Mailer      Mailer
	Sweeper     Sweeper
	Limiter     *JobLimiter
	Now         func() time.Time
	Rand        *rand.Rand
}

// Service runs dataset generation, mailing and downloads against one output directory.
type Service struct {
	dir         string
	previewRows int
	mailer      Mailer
	sweeper     Sweeper
	limiter     *JobLimiter
	now         func() time.Time
	readPreview func(path string, maxRows int) (spreadsheet.Preview, error)

	// rand.Rand is not safe for concurrent use
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates the output directory if needed and returns a Service.
func NewService(opts Options) (*Service, error) {
	if opts.OutputDir == "" {
		return nil, errors.New("output dir is required")
	}
	dir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	s := &Service{
		dir:         dir,
		previewRows: opts.PreviewRows,
		mailer:      opts.Mailer,
		sweeper:     opts.Sweeper,
		limiter:     opts.Limiter,
		now:         opts.Now,
		rng:         opts.Rand,
		readPreview: spreadsheet.ReadPreview,
	}
	if s.previewRows <= 0 {
		s.previewRows = DefaultPreviewRows
	}
	if s.limiter == nil {
		s.limiter = NewJobLimiter(DefaultMaxConcurrentJobs, DefaultMaxWaitTime)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s, nil
}

// OutputDir returns the absolute output directory.
func (s *Service) OutputDir() string { return s.dir }

// Limiter exposes the generation limiter for diagnostics and shutdown.
func (s *Service) Limiter() *JobLimiter { return s.limiter }

// Generate handles a generate form submission.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if strings.EqualFold(strings.TrimSpace(req.Action), ActionSend) {
		return s.SendLatest(ctx, req.TargetEmail)
	}
	return s.GenerateWorkbook(ctx, req.Count)
}

// GenerateWorkbook writes a new workbook of dataset.Clamp(count) rows and renders its preview.
// A failed preview leaves PreviewHTML empty; the result is still a success.
func (s *Service) GenerateWorkbook(ctx context.Context, count int) (GenerateResult, error) {
	if err := s.acquireSlot(ctx); err != nil {
		return GenerateResult{}, err
	}
	defer s.limiter.Release()

	count = dataset.Clamp(count)
	now := s.now()

	s.rngMu.Lock()
	customers := dataset.Generate(count, s.rng, now)
	s.rngMu.Unlock()

	name := FileName(now)
	path := filepath.Join(s.dir, name)
	log := logging.WithFields(ctx, "file", name, "rows", count)

	if err := spreadsheet.Write(path, dataset.Header, dataset.Rows(customers)); err != nil {
		log.Error("workbook write failed", "error", err)
		return GenerateResult{}, fmt.Errorf("generate workbook: %w", err)
	}
	metrics.RecordDataset(count)
	log.Info("workbook generated")

	res := GenerateResult{
		Message:  fmt.Sprintf(MsgGenerated, name),
		OK:       true,
		FileName: name,
		Rows:     count,
	}
	res.PreviewHTML = s.preview(ctx, path)
	return res, nil
}

// acquireSlot takes a free slot immediately or queues for one.
func (s *Service) acquireSlot(ctx context.Context) error {
	if s.limiter.TryAcquire() {
		return nil
	}

	log := logging.FromContext(ctx)
	log.Info("generation queued", "active", s.limiter.ActiveCount())
	if err := s.limiter.Acquire(ctx); err != nil {
		log.Warn("generation rejected", "error", err)
		return err
	}
	return nil
}

func (s *Service) preview(ctx context.Context, path string) string {
	log := logging.WithFields(ctx, "file", filepath.Base(path))

	p, err := s.readPreview(path, s.previewRows)
	if err != nil {
		log.Warn("preview unavailable", "error", err)
		return ""
	}
	html, err := p.HTML(ctx)
	if err != nil {
		log.Warn("preview render failed", "error", err)
		return ""
	}
	return html
}

// SendLatest mails the newest generated workbook to toEmail.
// Missing files, a blank address and delivery failures are reported in the
// result message, not as errors.
func (s *Service) SendLatest(ctx context.Context, toEmail string) (GenerateResult, error) {
	log := logging.FromContext(ctx)

	latest, err := LatestGenerated(s.dir)
	if errors.Is(err, ErrNoGeneratedFile) {
		return GenerateResult{Message: MsgNoFile}, nil
	}
	if err != nil {
		log.Warn("latest file lookup failed", "error", err)
		return GenerateResult{Message: MsgSendError}, nil
	}

	to := strings.TrimSpace(toEmail)
	if to == "" {
		return GenerateResult{Message: MsgNoTarget}, nil
	}

	if s.mailer == nil || !s.mailer.SendWithAttachment(ctx, latest.Path, latest.Name, to) {
		return GenerateResult{Message: MsgSendFailed, FileName: latest.Name}, nil
	}
	return GenerateResult{
		Message:  fmt.Sprintf(MsgSent, latest.Name, to),
		OK:       true,
		FileName: latest.Name,
	}, nil
}

// Download is an opened generated file. The caller must Close it.
type Download struct {
	*os.File
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
}

// OpenDownload opens name inside the output directory. Names with path
// components, directories and missing files all yield ErrFileNotFound.
func (s *Service) OpenDownload(name string) (*Download, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) {
		return nil, ErrFileNotFound
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open download: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat download: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrFileNotFound
	}

	return &Download{
		File:        f,
		Name:        name,
		ContentType: ContentTypeFor(name),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}, nil
}

// DownloadServed starts a background retention sweep. It never blocks.
func (s *Service) DownloadServed() {
	if s.sweeper != nil {
		s.sweeper.Trigger()
	}
}
