package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fsilva/intellibudget/internal/domain/backup"
	"github.com/fsilva/intellibudget/internal/domain/ledger"
	"github.com/fsilva/intellibudget/internal/domain/recurring"
	"github.com/fsilva/intellibudget/internal/domain/savings"
	"github.com/fsilva/intellibudget/pkg/config"
	"github.com/fsilva/intellibudget/pkg/cron"
	"github.com/fsilva/intellibudget/pkg/db"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	Store ledger.Store

	RecurringService *recurring.Service
	SavingsService   *savings.Service
	BackupService    *backup.Service

	Scheduler *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.Store = ledger.NewPostgresStoreFromPool(deps.DB.Pool)
	deps.RecurringService = recurring.NewService(deps.Store, logger)
	deps.SavingsService = savings.NewService(deps.Store)
	deps.BackupService = backup.NewService(deps.Store, logger)
	deps.Scheduler = cron.NewScheduler(deps.Store, deps.RecurringService, cfg.Reconcile.Schedule, logger)

	logger.Info("all dependencies initialized successfully")

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

// Close releases all held resources.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
