// Package store keeps trained models in PostgreSQL or SQLite through sqlx.
package store

import (
	"context"
	"strings"
	"time"

	"goanalyst/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// timeLayout sorts lexically in UTC, so ORDER BY created_at works on both
// backends without a native timestamp type
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DriverName normalizes the aliases accepted in configuration
func DriverName(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pq":
		return DriverPostgres, nil
	case "sqlite", "sqlite3", "":
		return DriverSQLite, nil
	default:
		return "", errors.ConfigInvalid("unsupported database driver: " + driver)
	}
}

// Open connects to the database and checks the connection
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	name, err := DriverName(driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.ConfigInvalid("database DSN is required")
	}

	db, err := sqlx.Open(name, dsn)
	if err != nil {
		return nil, errors.DatabaseError("failed to open database", err)
	}
	if name == DriverSQLite {
		// an in-memory database lives only as long as its connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.DatabaseError("failed to ping database", err)
	}
	return db, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}
