// Package database opens the relational store shared by the repositories and
// hides the differences between the supported SQL dialects.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mkrupp/tasktracker/internal/infra/logging"
)

// ErrUnknownDriver is returned when the configured driver is not supported.
var ErrUnknownDriver = errors.New("unknown database driver")

// Config holds configuration for the database connection.
type Config struct {
	// Driver selects the SQL dialect ("sqlite" or "postgres")
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	// DSN is a filesystem path for sqlite or a connection URL for postgres
	DSN string `env:"DSN" envDefault:"var/storage/tasktracker.db"`

	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
}

// DB is a connection pool paired with the dialect used to talk to it.
type DB struct {
	*sql.DB

	Dialect Dialect

	writeLock sync.Locker
	log       logging.Logger
}

// Open connects to the configured database, applies pending migrations
// and returns the ready-to-use pool.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	log := logging.GetLogger("infra.database").With(
		logging.Group("db", "driver", dialect.Name()),
	)

	sqlDB, err := sql.Open(dialect.DriverName(), dialect.DSN(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	db := &DB{
		DB:        sqlDB,
		Dialect:   dialect,
		writeLock: dialect.writeLocker(),
		log:       log,
	}

	if err := db.migrate(ctx); err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("migrate db: %w", err)
	}

	log.DebugContext(ctx, "database opened")

	return db, nil
}

// LockWrites serializes writers on dialects that cannot handle concurrent writes.
// The returned function releases the lock.
func (db *DB) LockWrites() (unlock func()) {
	db.writeLock.Lock()

	return db.writeLock.Unlock
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	return nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}

	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Set("_time_format", "sqlite")

	return "file:" + path + "?" + params.Encode()
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}
