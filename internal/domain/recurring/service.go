package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/fsilva/intellibudget/internal/domain/ledger"
	"github.com/fsilva/intellibudget/pkg/calendar"
	"github.com/fsilva/intellibudget/pkg/metrics"
)

// ErrInvalidTemplate is returned when a recurring template fails validation
// in a context where skipping it is not an option.
var ErrInvalidTemplate = errors.New("invalid recurring template")

// Result reports what one reconcile pass did.
type Result struct {
	ExpensesCreated int
	IncomeCreated   int
	Skipped         int
	// Coalesced is true when the pass was short-circuited because nothing
	// changed since the previous pass for the same user.
	Coalesced bool
}

// Service runs reconcile passes: it loads a user's state, materializes the
// missing recurring entries for every period, and persists them.
type Service struct {
	store  ledger.Store
	logger *slog.Logger

	mu           sync.Mutex
	fingerprints map[uuid.UUID]string
}

// NewService creates a reconcile service.
func NewService(store ledger.Store, logger *slog.Logger) *Service {
	return &Service{
		store:        store,
		logger:       logger,
		fingerprints: make(map[uuid.UUID]string),
	}
}

// Reconcile materializes every missing recurring expense and income entry
// for the user. Creates within one pass target distinct (template, period)
// slots and run concurrently; a single failed create is logged and does not
// abort the batch. A fingerprint of the loaded state coalesces redundant
// passes over unchanged data.
func (s *Service) Reconcile(ctx context.Context, userID uuid.UUID) (Result, error) {
	periods, err := s.store.ListPeriods(ctx, userID)
	if err != nil {
		metrics.ReconcilePasses.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("failed to list periods: %w", err)
	}
	expenseTemplates, err := s.store.ListRecurringExpenseTemplates(ctx, userID)
	if err != nil {
		metrics.ReconcilePasses.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("failed to list recurring expense templates: %w", err)
	}
	incomeTemplates, err := s.store.ListRecurringIncomeTemplates(ctx, userID)
	if err != nil {
		metrics.ReconcilePasses.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("failed to list recurring income templates: %w", err)
	}
	expenses, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		metrics.ReconcilePasses.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("failed to list expenses: %w", err)
	}
	income, err := s.store.ListIncome(ctx, userID)
	if err != nil {
		metrics.ReconcilePasses.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("failed to list income: %w", err)
	}

	fingerprint := fmt.Sprintf("%d:%d:%d:%d:%d",
		len(periods), len(expenseTemplates), len(incomeTemplates), len(expenses), len(income))
	s.mu.Lock()
	if s.fingerprints[userID] == fingerprint {
		s.mu.Unlock()
		metrics.ReconcilePasses.WithLabelValues("coalesced").Inc()
		return Result{Coalesced: true}, nil
	}
	s.mu.Unlock()

	newExpenses, skippedExpenses := MaterializeExpenses(periods, expenseTemplates, expenses)
	newIncome, skippedIncome := MaterializeIncome(periods, incomeTemplates, income)

	var (
		wg              sync.WaitGroup
		expensesCreated atomic.Int64
		incomeCreated   atomic.Int64
		failures        atomic.Int64
	)
	for _, entry := range newExpenses {
		wg.Add(1)
		go func(entry *ledger.ExpenseEntry) {
			defer wg.Done()
			err := s.store.CreateExpense(ctx, entry)
			switch {
			case err == nil:
				expensesCreated.Add(1)
				metrics.EntriesMaterialized.WithLabelValues("expense").Inc()
			case errors.Is(err, ledger.ErrDuplicateEntry):
				// Another session filled the slot first.
			default:
				failures.Add(1)
				s.logger.Error("failed to create recurring expense entry",
					slog.String("user_id", userID.String()),
					slog.String("period", entry.PeriodKey),
					slog.Any("error", err))
			}
		}(entry)
	}
	for _, entry := range newIncome {
		wg.Add(1)
		go func(entry *ledger.IncomeEntry) {
			defer wg.Done()
			err := s.store.CreateIncome(ctx, entry)
			switch {
			case err == nil:
				incomeCreated.Add(1)
				metrics.EntriesMaterialized.WithLabelValues("income").Inc()
			case errors.Is(err, ledger.ErrDuplicateEntry):
			default:
				failures.Add(1)
				s.logger.Error("failed to create recurring income entry",
					slog.String("user_id", userID.String()),
					slog.String("period", entry.PeriodKey),
					slog.Any("error", err))
			}
		}(entry)
	}
	wg.Wait()
	failed := int(failures.Load())

	result := Result{
		ExpensesCreated: int(expensesCreated.Load()),
		IncomeCreated:   int(incomeCreated.Load()),
		Skipped:         skippedExpenses + skippedIncome,
	}
	if failed > 0 {
		// Partial batch: keep the fingerprint stale so the next pass
		// retries the missed slots.
		metrics.ReconcilePasses.WithLabelValues("error").Inc()
	} else {
		s.mu.Lock()
		s.fingerprints[userID] = fmt.Sprintf("%d:%d:%d:%d:%d",
			len(periods), len(expenseTemplates), len(incomeTemplates),
			len(expenses)+len(newExpenses), len(income)+len(newIncome))
		s.mu.Unlock()
		metrics.ReconcilePasses.WithLabelValues("ok").Inc()
	}
	metrics.TemplatesSkipped.WithLabelValues("expense").Add(float64(skippedExpenses))
	metrics.TemplatesSkipped.WithLabelValues("income").Add(float64(skippedIncome))

	if result.ExpensesCreated > 0 || result.IncomeCreated > 0 || result.Skipped > 0 {
		s.logger.Info("reconcile pass completed",
			slog.String("user_id", userID.String()),
			slog.Int("expenses_created", result.ExpensesCreated),
			slog.Int("income_created", result.IncomeCreated),
			slog.Int("templates_skipped", result.Skipped),
			slog.Int("failed", failed))
	}
	return result, nil
}

// AddRecurringIncome persists a new recurring income entry and forward
// generates the following twelve months so the template covers thirteen
// consecutive periods from its creation.
func (s *Service) AddRecurringIncome(ctx context.Context, entry *ledger.IncomeEntry) error {
	if entry.RecurringDayOfMonth == nil || !validDay(*entry.RecurringDayOfMonth) {
		return ErrInvalidTemplate
	}
	if !entry.Amount.IsPositive() {
		return ErrInvalidTemplate
	}
	if _, err := calendar.ParsePeriod(entry.PeriodKey); err != nil {
		return fmt.Errorf("invalid creation period: %w", err)
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.IsRecurring = true
	if entry.RecurringStartPeriod == "" {
		entry.RecurringStartPeriod = entry.PeriodKey
	}
	templateID := entry.ID
	entry.RecurringTemplateID = &templateID

	if err := s.store.CreateIncome(ctx, entry); err != nil {
		return fmt.Errorf("failed to create recurring income: %w", err)
	}

	tpl := &ledger.RecurringIncomeTemplate{
		TemplateID:  templateID,
		UserID:      entry.UserID,
		Description: entry.Description,
		Amount:      entry.Amount,
		SourceType:  entry.SourceType,
		DayOfMonth:  *entry.RecurringDayOfMonth,
		StartPeriod: entry.RecurringStartPeriod,
	}
	forward, err := ForwardGenerateIncome(tpl, entry.PeriodKey)
	if err != nil {
		return err
	}
	for _, fe := range forward {
		if err := s.store.CreateIncome(ctx, fe); err != nil && !errors.Is(err, ledger.ErrDuplicateEntry) {
			return fmt.Errorf("failed to forward generate income for %s: %w", fe.PeriodKey, err)
		}
		metrics.EntriesMaterialized.WithLabelValues("income").Inc()
	}
	return nil
}
