package container

import (
	"context"
	"fmt"
	"log"

	"goanalyst/adapters/store"
	"goanalyst/internal"
	"goanalyst/internal/analysis"
	"goanalyst/internal/config"
	"goanalyst/internal/migration"
	"goanalyst/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	Models ports.ModelRepository

	// Analysis engine
	Analyzer *analysis.Analyzer
}

// New creates a new dependency injection container with the components that
// need no database
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	analyzer, err := analysis.New(cfg.Engine.Analysis(logger.With("Analyzer")))
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Analyzer: analyzer,
	}, nil
}

// Open connects to the configured store and initializes the repositories
func (c *Container) Open(ctx context.Context) error {
	db, err := store.Open(ctx, c.Config.Store.Driver, c.Config.Store.DSN)
	if err != nil {
		return err
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return err
	}
	return nil
}

// InitWithDatabase migrates the schema and initializes components that
// require database access
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	c.Models = store.NewModelRepository(db)

	log.Printf("Container initialized with %s store (schema %s)", c.Config.Store.Driver, migrator.Version())
	return nil
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	c.Logger.Debug("shutdown: %s", c.Analyzer)

	// Close database connection
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
