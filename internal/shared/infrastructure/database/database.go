// Package database hides the SQL driver behind a small executor interface so
// repositories run unchanged on SQLite (local mode) and PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
)

// Driver names a database backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"

	// DriverAuto picks the driver from the connection URL.
	DriverAuto Driver = "auto"
)

// IsValid reports whether d names a concrete backend.
func (d Driver) IsValid() bool {
	return d == DriverPostgres || d == DriverSQLite
}

func (d Driver) String() string { return string(d) }

// DetectDriver infers the backend from a connection URL. An empty URL means
// the zero-config local SQLite file.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"):
		return DriverSQLite
	}
	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(url, ext) {
			return DriverSQLite
		}
	}
	// Bare DSNs such as "host=... dbname=..." are libpq style.
	return DriverPostgres
}

// Config selects and configures a backend.
type Config struct {
	// Driver is DriverPostgres, DriverSQLite, or empty/DriverAuto to detect from URL.
	Driver Driver
	// URL is the PostgreSQL connection string.
	URL string
	// SQLitePath is the database file used in local mode. Defaults to DefaultSQLitePath.
	SQLitePath string
	// MaxConns caps the PostgreSQL pool size. Zero keeps the pool default.
	MaxConns int
}

// ResolvedDriver returns the driver Config selects.
func (c Config) ResolvedDriver() Driver {
	if c.Driver == "" || c.Driver == DriverAuto {
		return DetectDriver(c.URL)
	}
	return c.Driver
}

// Opener opens a connection for one backend.
type Opener func(ctx context.Context, cfg Config) (Connection, error)

var (
	openersMu sync.RWMutex
	openers   = map[Driver]Opener{}
)

// Register makes a backend available to NewConnection. Backend packages call
// it from init, so importing them for side effects is enough.
func Register(driver Driver, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[driver] = open
}

// NewConnection opens a connection to the backend cfg selects.
func NewConnection(ctx context.Context, cfg Config) (Connection, error) {
	driver := cfg.ResolvedDriver()
	if !driver.IsValid() {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	openersMu.RLock()
	open, ok := openers[driver]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("database driver %s is not linked into this binary", driver)
	}
	return open(ctx, cfg)
}

// DefaultSQLitePath is ~/.homebase/homebase.db, or a relative path when the
// home directory is unknown.
func DefaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".homebase", "homebase.db")
}

// IsNoRows reports whether err means a single-row query matched nothing,
// for either driver.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}
