// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fsilva/intellibudget/internal/domain/ledger"
	"github.com/fsilva/intellibudget/internal/domain/recurring"
)

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	store     ledger.Store
	recurring *recurring.Service
	schedule  string
	logger    *slog.Logger
}

// NewScheduler creates a new job scheduler. The schedule is a standard
// 5-field cron expression.
func NewScheduler(store ledger.Store, recurringSvc *recurring.Service, schedule string, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		store:     store,
		recurring: recurringSvc,
		schedule:  schedule,
		logger:    logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.reconcileAllUsers)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("schedule", s.schedule),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the reconcile pass (for boot/admin).
func (s *Scheduler) RunNow() {
	go s.reconcileAllUsers()
}

// reconcileAllUsers materializes missing recurring entries for every known
// user. One user failing does not stop the sweep.
func (s *Scheduler) reconcileAllUsers() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	s.logger.Info("starting recurring reconcile sweep")

	userIDs, err := s.store.ListUserIDs(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return
	}

	reconciled := 0
	failed := 0

	for _, userID := range userIDs {
		result, err := s.recurring.Reconcile(ctx, userID)
		if err != nil {
			s.logger.Warn("failed to reconcile user",
				slog.String("user_id", userID.String()),
				slog.Any("error", err),
			)
			failed++
			continue
		}

		s.logger.Debug("reconciled user",
			slog.String("user_id", userID.String()),
			slog.Int("expenses_created", result.ExpensesCreated),
			slog.Int("income_created", result.IncomeCreated),
			slog.Bool("coalesced", result.Coalesced),
		)
		reconciled++
	}

	s.logger.Info("recurring reconcile sweep completed",
		slog.Int("users_reconciled", reconciled),
		slog.Int("users_failed", failed),
	)
}
