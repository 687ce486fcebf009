// Package retention deletes generated files once they pass a fixed age.
//
// Sweeps run after downloads (Trigger) and, optionally, on a ticker (Run).
// At most one sweep is in flight; a Trigger that arrives while a sweep is
// running is dropped since that sweep will cover the same files.
package retention

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/geradorclientes/internal/metrics"
)

// Sweeper removes files in dir whose names start with prefix and whose
// modification time is older than maxAge.
type Sweeper struct {
	dir    string
	prefix string
	maxAge time.Duration
	now    func() time.Time
	remove func(string) error

	slot chan struct{}
	wg   sync.WaitGroup
}

// Option customizes a Sweeper.
type Option func(*Sweeper)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithRemove replaces os.Remove.
func WithRemove(remove func(string) error) Option {
	return func(s *Sweeper) { s.remove = remove }
}

// New creates a Sweeper.
func New(dir, prefix string, maxAge time.Duration, opts ...Option) *Sweeper {
	s := &Sweeper{
		dir:    dir,
		prefix: prefix,
		maxAge: maxAge,
		now:    time.Now,
		remove: os.Remove,
		slot:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep deletes every expired file and returns how many were removed.
// Per-file failures are logged and skipped; only an unreadable directory
// is reported as an error.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read output dir: %w", err)
	}

	cutoff := s.now().Add(-s.maxAge)
	deleted := 0

	for _, e := range entries {
		if ctx.Err() != nil {
			return deleted, ctx.Err()
		}
		if e.IsDir() || !strings.HasPrefix(e.Name(), s.prefix) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			slog.Debug("sweep: stat failed", "file", e.Name(), "error", err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := s.remove(filepath.Join(s.dir, e.Name())); err != nil {
			slog.Warn("sweep: delete failed", "file", e.Name(), "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		metrics.RecordSwept(deleted)
		slog.Info("sweep completed", "deleted", deleted, "dir", s.dir)
	}
	return deleted, nil
}

// Trigger starts a sweep in the background without waiting for it.
// It returns false when a sweep was already running.
func (s *Sweeper) Trigger() bool {
	select {
	case s.slot <- struct{}{}:
	default:
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.slot }()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("sweep panicked", "panic", r)
			}
		}()

		if _, err := s.Sweep(context.Background()); err != nil {
			slog.Warn("background sweep failed", "error", err)
		}
	}()
	return true
}

// Wait blocks until background sweeps finish or ctx ends.
func (s *Sweeper) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run sweeps immediately and then every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	slog.Info("retention scheduler started", "dir", s.dir, "max_age", s.maxAge, "interval", interval)

	s.Trigger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			s.Trigger()
		}
	}
}
