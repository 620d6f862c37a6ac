package infra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ama-bakery/staff_terminal/internal/config"
	"github.com/ama-bakery/staff_terminal/internal/staff"
	"github.com/ama-bakery/staff_terminal/internal/terminal"
)

// Backends holds the storage the service talks to. DB and Cache are nil when
// the configuration does not call for them.
type Backends struct {
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Directory staff.Directory
	Sessions  terminal.Store

	closers []func() error
}

// Open connects every backend named by cfg. On error, anything already
// opened is closed again.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *Backends, err error) {
	b := &Backends{}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	if cfg.RedisURL != "" {
		if b.Cache, err = NewRedisClient(ctx, cfg.RedisURL); err != nil {
			return nil, err
		}
		b.closers = append(b.closers, b.Cache.Close)
		b.Sessions = terminal.NewRedisStore(b.Cache)
	} else {
		logger.Warn("REDIS_URL not set, terminal sessions kept in memory")
		b.Sessions = terminal.NewMemoryStore()
	}

	switch cfg.DirectoryDriver {
	case config.DirectoryPostgres:
		if b.DB, err = NewPostgresPool(ctx, cfg.DatabaseURL, cfg.AppName); err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() error { b.DB.Close(); return nil })
		dir := staff.NewPostgresDirectory(b.DB)
		if err = dir.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		if cfg.SeedDemoStaff {
			if err = dir.Import(ctx, staff.DemoStaff()); err != nil {
				return nil, fmt.Errorf("seed postgres directory: %w", err)
			}
		}
		b.Directory = dir
	case config.DirectorySQLite:
		if err = os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		dir, openErr := staff.NewSQLiteDirectory(cfg.SQLitePath)
		if openErr != nil {
			return nil, openErr
		}
		b.closers = append(b.closers, dir.Close)
		if cfg.SeedDemoStaff {
			if err = dir.Import(ctx, staff.DemoStaff()); err != nil {
				return nil, fmt.Errorf("seed sqlite directory: %w", err)
			}
		}
		b.Directory = dir
	default:
		b.Directory = staff.NewMemoryDirectory(staff.DemoStaff()...)
	}

	logger.Info("backends ready",
		slog.String("directory", cfg.DirectoryDriver),
		slog.Bool("redis", b.Cache != nil),
	)
	return b, nil
}

// Close releases every backend in reverse order of opening.
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
