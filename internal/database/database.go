// Package database centralises sqlx connection helpers for the control-plane
// schema.  The driver is go-sql-driver/mysql, which also serves MariaDB.
//
// Public entry points:
//
//	Open(ctx, dsn, password)               – conservative pool sizes.
//	OpenWithOptions(ctx, dsn, password, o) – fine-grained control.
//
// Both helpers Ping the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB when no
// longer needed.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Options tunes the pool.
type Options struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// DefaultOptions keeps the gate's footprint small; it issues one indexed
// read per checked request.
func DefaultOptions() Options {
	return Options{MaxOpen: 10, MaxIdle: 5, MaxLifetime: 30 * time.Minute}
}

// Open returns a *sqlx.DB with DefaultOptions.
func Open(ctx context.Context, dsn, password string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, password, DefaultOptions())
}

// OpenWithOptions lets callers tune the pool.  A non-empty password
// replaces the one in dsn, so the DSN can sit in YAML while the password
// lives in Vault.
func OpenWithOptions(ctx context.Context, dsn, password string, o Options) (*sqlx.DB, error) {
	dsn, err := PrepareDSN(dsn, password)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(o.MaxOpen)
	db.SetMaxIdleConns(o.MaxIdle)
	db.SetConnMaxLifetime(o.MaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// PrepareDSN injects password and forces parseTime so DATETIME columns
// scan into time.Time.
func PrepareDSN(dsn, password string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	if password != "" {
		cfg.Passwd = password
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}
