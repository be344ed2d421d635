package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/ecdf-canonical/internal/domain/dictionary"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/pipeline"
	"github.com/FACorreiaa/ecdf-canonical/pkg/config"
	"github.com/FACorreiaa/ecdf-canonical/pkg/db"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	Dictionary     *dictionary.Dictionary
	CaptionMatcher *dictionary.CaptionMatcher

	Pipeline       *pipeline.Service
	ExtractionRepo *pipeline.ExtractionRepository
}

// InitDependencies initializes all application dependencies. The database
// is optional: it is only connected when persistence was requested.
func InitDependencies(cfg *config.Config, logger *slog.Logger, withDB bool) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	dict, err := dictionary.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load code dictionary: %w", err)
	}
	deps.Dictionary = dict
	deps.CaptionMatcher = dictionary.NewCaptionMatcher(dict)

	deps.Pipeline = pipeline.NewService(cfg, dict, logger)

	if withDB {
		if err := deps.initDatabase(); err != nil {
			return nil, fmt.Errorf("failed to init database: %w", err)
		}
		deps.ExtractionRepo = pipeline.NewExtractionRepository(deps.DB.Pool)
	}

	logger.Info("all dependencies initialized successfully",
		slog.String("dictionary_version", dict.Version()),
		slog.Int("dictionary_codes", dict.Len()),
		slog.Bool("database", withDB),
	)
	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
