package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSchemaMissing means the database answers but the migrations have not run.
var ErrSchemaMissing = errors.New("database schema is missing")

// Options sizes the pool and names the service's connections in pg_stat_activity.
type Options struct {
	URL             string
	ApplicationName string
	MaxConns        int32
	MinConns        int32
}

type DB struct {
	Pool *pgxpool.Pool
}

func Open(ctx context.Context, opts Options) (*DB, error) {
	cfg, err := poolConfig(opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	db := &DB{Pool: pool}
	if err := db.Health(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	slog.InfoContext(ctx, "database connected", "max_conns", cfg.MaxConns, "min_conns", cfg.MinConns)
	return db, nil
}

func poolConfig(opts Options) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MinConns = min(max(opts.MinConns, 0), cfg.MaxConns)
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	params := cfg.ConnConfig.RuntimeParams
	if _, ok := params["application_name"]; !ok && opts.ApplicationName != "" {
		params["application_name"] = opts.ApplicationName
	}
	// created_at/updated_at and token clocks are all UTC
	params["timezone"] = "UTC"

	return cfg, nil
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Health pings the pool and checks that the users and todos tables exist.
func (db *DB) Health(ctx context.Context) error {
	var ready bool
	err := db.Pool.QueryRow(ctx,
		`SELECT to_regclass('public.users') IS NOT NULL AND to_regclass('public.todos') IS NOT NULL`,
	).Scan(&ready)
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if !ready {
		return ErrSchemaMissing
	}
	return nil
}
