package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/geradorclientes/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Open builds the backend selected by cfg.Backend and prepares its schema.
func Open(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.BackendSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("user store ready", "backend", "sqlite", "path", cfg.SQLitePath)
		return s, nil

	case config.BackendPostgres:
		pool, err := openPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		slog.Info("user store ready", "backend", "postgres", "database", pool.Config().ConnConfig.Database)
		return NewPostgresStore(pool), nil

	case config.BackendFile:
		s, err := NewFileStore(cfg.UsersFile)
		if err != nil {
			return nil, err
		}
		slog.Info("user store ready", "backend", "file", "path", cfg.UsersFile)
		return s, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func openPool(ctx context.Context, cfg config.StorageConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
