package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/geradorclientes/internal/auth"
	"github.com/JonMunkholm/geradorclientes/internal/config"
	"github.com/JonMunkholm/geradorclientes/internal/core"
	"github.com/JonMunkholm/geradorclientes/internal/logging"
	"github.com/JonMunkholm/geradorclientes/internal/mailer"
	"github.com/JonMunkholm/geradorclientes/internal/retention"
	"github.com/JonMunkholm/geradorclientes/internal/session"
	"github.com/JonMunkholm/geradorclientes/internal/users"
	"github.com/JonMunkholm/geradorclientes/internal/web"
)

func main() {
	// Overload lets .env win over the inherited environment
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	store, err := users.Open(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open user store", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	m := mailer.New(mailer.FromConfig(cfg.SMTP))
	if !m.Settings().LooksValid() {
		slog.Warn("smtp settings incomplete, e-mail delivery disabled", "host", cfg.SMTP.Host)
	}

	sweeper := retention.New(cfg.Output.Dir, core.FilePrefix, cfg.Output.RetentionAge)

	service, err := core.NewService(core.Options{
		OutputDir:   cfg.Output.Dir,
		PreviewRows: cfg.Output.PreviewRows,
		Mailer:      m,
		Sweeper:     sweeper,
		Limiter:     core.NewJobLimiter(cfg.Output.MaxConcurrent, cfg.Output.QueueWait),
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	var revoker session.Revoker
	if cfg.Redis.Addr != "" {
		rdb := session.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		revoker = session.NewRedisRevoker(rdb)
		slog.Info("session revocation shared via redis", "addr", cfg.Redis.Addr)
	}
	sessions := session.NewManager(session.Options{
		Secret:     cfg.Session.Secret,
		TTL:        cfg.Session.TTL,
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure,
		Revoker:    revoker,
	})

	server := web.NewServer(web.Deps{
		Config:   cfg,
		Auth:     auth.NewService(store),
		Users:    store,
		Sessions: sessions,
		Service:  service,
	})

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	if cfg.Output.SweepInterval > 0 {
		go sweeper.Run(jobCtx, cfg.Output.SweepInterval)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for generations to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("generations did not complete in time", "error", err)
			}
		}
		if err := sweeper.Wait(shutdownCtx); err != nil {
			slog.Warn("retention sweep did not complete in time", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
