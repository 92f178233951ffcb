package migration

import (
	"context"
	"time"

	"goanalyst/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations. The statements stick
// to the SQL subset shared by PostgreSQL and SQLite.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. It is safe to
// run more than once.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createSchemaMigrationsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create schema_migrations table", err)
	}

	if err := r.createTrainedModelsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create trained_models table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError("failed to create indexes", err)
	}

	if err := r.recordVersion(ctx, db); err != nil {
		return errors.DatabaseError("failed to record schema version", err)
	}

	return nil
}

// Applied reports whether this runner's version has been recorded
func (r *MigrationRunner) Applied(ctx context.Context, db *sqlx.DB) (bool, error) {
	var count int
	err := db.GetContext(ctx, &count, db.Rebind(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`), r.version)
	if err != nil {
		return false, errors.DatabaseError("failed to read schema version", err)
	}
	return count > 0, nil
}

func (r *MigrationRunner) createSchemaMigrationsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createTrainedModelsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trained_models (
			id TEXT PRIMARY KEY,
			target TEXT NOT NULL,
			algorithm TEXT NOT NULL,
			problem_type TEXT NOT NULL,
			selection_metric TEXT NOT NULL,
			score DOUBLE PRECISION NOT NULL DEFAULT 0,
			dataset_hash TEXT NOT NULL DEFAULT '',
			artifact TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_trained_models_created_at ON trained_models(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_trained_models_target ON trained_models(target)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *MigrationRunner) recordVersion(ctx context.Context, db *sqlx.DB) error {
	query := db.Rebind(`
		INSERT INTO schema_migrations (version, applied_at)
		SELECT ?, ? WHERE NOT EXISTS (SELECT 1 FROM schema_migrations WHERE version = ?)
	`)
	_, err := db.ExecContext(ctx, query, r.version, time.Now().UTC().Format(time.RFC3339), r.version)
	return err
}
