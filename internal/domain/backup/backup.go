// Package backup drains an account to a portable JSON snapshot and replays
// one back into the store. The wire format is versioned and carries every
// entity class plus presentation colors.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fsilva/intellibudget/internal/domain/ledger"
	"github.com/fsilva/intellibudget/pkg/calendar"
	"github.com/fsilva/intellibudget/pkg/metrics"
)

// Version tags every generated backup document.
const Version = "1.0"

func init() {
	// The 1.0 document format carries amounts as JSON numbers, not
	// strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// ErrInvalidFormat is returned when a restore blob fails structural
// validation. Restore aborts before any mutation.
var ErrInvalidFormat = errors.New("invalid backup format")

// PartialError reports a restore or clear failure after the wipe step. The
// account is left in the intermediate state the completed steps produced; no
// rollback is attempted.
type PartialError struct {
	Step string
	Err  error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("restore failed at step %q, account left partially restored: %v", e.Step, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// Wire format. Amounts serialize as JSON numbers, entity ids as strings.

type expenseJSON struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"`
	Category      string          `json:"category"`
	Subcategory   string          `json:"subcategory,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Notes         string          `json:"notes"`
	RecurringID   string          `json:"recurringId,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
}

type incomeJSON struct {
	ID                   string          `json:"id"`
	Description          string          `json:"description"`
	Amount               decimal.Decimal `json:"amount"`
	Date                 string          `json:"date"`
	SourceType           string          `json:"sourceType"`
	Notes                string          `json:"notes,omitempty"`
	IsRecurring          bool            `json:"isRecurring,omitempty"`
	RecurringDayOfMonth  *int            `json:"recurringDayOfMonth,omitempty"`
	RecurringStartPeriod string          `json:"recurringStartDate,omitempty"`
	RecurringID          string          `json:"recurringId,omitempty"`
}

type monthJSON struct {
	Month         string          `json:"month"`
	Salary        decimal.Decimal `json:"salary"`
	Expenses      []expenseJSON   `json:"expenses"`
	IncomeSources []incomeJSON    `json:"incomeSources,omitempty"`
}

type recurringExpenseJSON struct {
	ID            string          `json:"id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	DayOfMonth    int             `json:"dayOfMonth"`
	StartDate     string          `json:"startDate"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
}

type contributionJSON struct {
	ID     string          `json:"id"`
	GoalID string          `json:"goalId"`
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
	Notes  string          `json:"notes,omitempty"`
}

type savingsGoalJSON struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	TargetAmount  decimal.Decimal    `json:"targetAmount"`
	CurrentAmount decimal.Decimal    `json:"currentAmount"`
	TargetDate    string             `json:"targetDate"`
	Category      string             `json:"category,omitempty"`
	Contributions []contributionJSON `json:"contributions,omitempty"`
}

type document struct {
	Data                []monthJSON                           `json:"data"`
	Categories          []string                              `json:"categories"`
	CategoryColors      map[string]string                     `json:"categoryColors"`
	Budgets             map[string]map[string]decimal.Decimal `json:"budgets"`
	RecurringExpenses   []recurringExpenseJSON                `json:"recurringExpenses"`
	PaymentMethods      []string                              `json:"paymentMethods"`
	PaymentMethodColors map[string]string                     `json:"paymentMethodColors"`
	SavingsGoals        []savingsGoalJSON                     `json:"savingsGoals,omitempty"`
	ExportDate          string                                `json:"exportDate"`
	Version             string                                `json:"version"`
}

// Snapshot is an account's full state as loaded through the store.
type Snapshot struct {
	Periods        []*ledger.MonthlyPeriod
	Expenses       []*ledger.ExpenseEntry
	Income         []*ledger.IncomeEntry
	Templates      []*ledger.RecurringExpenseTemplate
	Budgets        []*ledger.Budget
	Categories     []*ledger.Category
	PaymentMethods []*ledger.PaymentMethod
	Goals          []*ledger.SavingsGoal
}

// Service orchestrates backup generation, restore and account clearing.
type Service struct {
	store  ledger.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a backup service.
func NewService(store ledger.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// LoadSnapshot drains the user's account through the store.
func (s *Service) LoadSnapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	snap := &Snapshot{}
	var err error
	if snap.Periods, err = s.store.ListPeriods(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	if snap.Expenses, err = s.store.ListExpenses(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	if snap.Income, err = s.store.ListIncome(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to list income: %w", err)
	}
	if snap.Templates, err = s.store.ListRecurringExpenseTemplates(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to list recurring templates: %w", err)
	}
	if snap.Budgets, err = s.store.ListBudgets(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	if snap.Categories, err = s.store.ListCategories(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if snap.PaymentMethods, err = s.store.ListPaymentMethods(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	if snap.Goals, err = s.store.ListSavingsGoals(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to list savings goals: %w", err)
	}
	return snap, nil
}

// Generate serializes the user's account into one transportable JSON blob.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	snap, err := s.LoadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	doc := document{
		Data:                make([]monthJSON, 0, len(snap.Periods)),
		Categories:          make([]string, 0, len(snap.Categories)),
		CategoryColors:      make(map[string]string, len(snap.Categories)),
		Budgets:             make(map[string]map[string]decimal.Decimal),
		RecurringExpenses:   make([]recurringExpenseJSON, 0, len(snap.Templates)),
		PaymentMethods:      make([]string, 0, len(snap.PaymentMethods)),
		PaymentMethodColors: make(map[string]string, len(snap.PaymentMethods)),
		ExportDate:          s.now().UTC().Format(time.RFC3339),
		Version:             Version,
	}

	expensesByPeriod := make(map[string][]expenseJSON)
	for _, e := range snap.Expenses {
		recurringID := ""
		if e.RecurringTemplateID != nil {
			recurringID = e.RecurringTemplateID.String()
		}
		expensesByPeriod[e.PeriodKey] = append(expensesByPeriod[e.PeriodKey], expenseJSON{
			ID:            e.ID.String(),
			Date:          e.Date,
			Category:      e.Category,
			Subcategory:   e.Subcategory,
			Amount:        e.Amount,
			Notes:         e.Notes,
			RecurringID:   recurringID,
			PaymentMethod: e.PaymentMethod,
		})
	}
	incomeByPeriod := make(map[string][]incomeJSON)
	for _, e := range snap.Income {
		recurringID := ""
		if e.RecurringTemplateID != nil {
			recurringID = e.RecurringTemplateID.String()
		}
		incomeByPeriod[e.PeriodKey] = append(incomeByPeriod[e.PeriodKey], incomeJSON{
			ID:                   e.ID.String(),
			Description:          e.Description,
			Amount:               e.Amount,
			Date:                 e.Date,
			SourceType:           string(e.SourceType),
			Notes:                e.Notes,
			IsRecurring:          e.IsRecurring,
			RecurringDayOfMonth:  e.RecurringDayOfMonth,
			RecurringStartPeriod: e.RecurringStartPeriod,
			RecurringID:          recurringID,
		})
	}
	periods := make([]*ledger.MonthlyPeriod, len(snap.Periods))
	copy(periods, snap.Periods)
	sort.Slice(periods, func(i, j int) bool {
		return calendar.ComparePeriodKeys(periods[i].Key, periods[j].Key) < 0
	})
	for _, p := range periods {
		month := monthJSON{
			Month:         p.Key,
			Salary:        p.LegacySalary,
			Expenses:      expensesByPeriod[p.Key],
			IncomeSources: incomeByPeriod[p.Key],
		}
		if month.Expenses == nil {
			month.Expenses = []expenseJSON{}
		}
		doc.Data = append(doc.Data, month)
	}

	for _, c := range snap.Categories {
		doc.Categories = append(doc.Categories, c.Name)
		doc.CategoryColors[c.Name] = c.Color
	}
	for _, m := range snap.PaymentMethods {
		doc.PaymentMethods = append(doc.PaymentMethods, m.Name)
		doc.PaymentMethodColors[m.Name] = m.Color
	}
	for _, b := range snap.Budgets {
		if doc.Budgets[b.PeriodKey] == nil {
			doc.Budgets[b.PeriodKey] = make(map[string]decimal.Decimal)
		}
		doc.Budgets[b.PeriodKey][b.Category] = b.Amount
	}
	for _, t := range snap.Templates {
		doc.RecurringExpenses = append(doc.RecurringExpenses, recurringExpenseJSON{
			ID:            t.ID.String(),
			Description:   t.Description,
			Amount:        t.Amount,
			Category:      t.Category,
			DayOfMonth:    t.DayOfMonth,
			StartDate:     t.StartPeriod,
			PaymentMethod: t.PaymentMethod,
		})
	}
	for _, g := range snap.Goals {
		gj := savingsGoalJSON{
			ID:            g.ID.String(),
			Name:          g.Name,
			TargetAmount:  g.TargetAmount,
			CurrentAmount: g.CurrentAmount,
			TargetDate:    g.TargetDate,
			Category:      g.Category,
		}
		for _, c := range g.Contributions {
			gj.Contributions = append(gj.Contributions, contributionJSON{
				ID:     c.ID.String(),
				GoalID: c.GoalID.String(),
				Amount: c.Amount,
				Date:   c.Date,
				Notes:  c.Notes,
			})
		}
		doc.SavingsGoals = append(doc.SavingsGoals, gj)
	}

	blob, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize backup: %w", err)
	}
	return blob, nil
}

// validate checks the blob's structure before any mutation. The returned
// error names the first missing or mistyped top-level field.
func validate(blob []byte) (*document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object: %v", ErrInvalidFormat, err)
	}
	checks := []struct {
		field string
		probe any
	}{
		{"data", &[]json.RawMessage{}},
		{"categories", &[]string{}},
		{"categoryColors", &map[string]json.RawMessage{}},
		{"budgets", &map[string]json.RawMessage{}},
	}
	for _, c := range checks {
		msg, ok := raw[c.field]
		if !ok {
			return nil, fmt.Errorf("%w: missing required field %q", ErrInvalidFormat, c.field)
		}
		if err := json.Unmarshal(msg, c.probe); err != nil {
			return nil, fmt.Errorf("%w: field %q has wrong type", ErrInvalidFormat, c.field)
		}
	}
	var doc document
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return &doc, nil
}

// Restore validates the blob, wipes the account and replays the backup into
// the store. Every entity receives a fresh identifier; template references
// are remapped consistently. Failures after the wipe surface as a
// PartialError naming the failed step.
func (s *Service) Restore(ctx context.Context, userID uuid.UUID, blob []byte) (*Snapshot, error) {
	doc, err := validate(blob)
	if err != nil {
		return nil, err
	}

	if err := s.store.Wipe(ctx, userID); err != nil {
		metrics.RestoreSteps.WithLabelValues("wipe", "error").Inc()
		return nil, fmt.Errorf("failed to wipe account: %w", err)
	}
	metrics.RestoreSteps.WithLabelValues("wipe", "ok").Inc()

	step := func(name string, fn func() error) error {
		if err := fn(); err != nil {
			metrics.RestoreSteps.WithLabelValues(name, "error").Inc()
			s.logger.Error("restore step failed",
				slog.String("user_id", userID.String()),
				slog.String("step", name),
				slog.Any("error", err))
			return &PartialError{Step: name, Err: err}
		}
		metrics.RestoreSteps.WithLabelValues(name, "ok").Inc()
		return nil
	}

	// Old ids from the blob are discarded. The maps keep references
	// (expense -> template, income -> income template) consistent across
	// the regenerated ids.
	templateIDs := make(map[string]uuid.UUID)
	for _, t := range doc.RecurringExpenses {
		templateIDs[t.ID] = uuid.New()
	}
	incomeIDs := make(map[string]uuid.UUID)
	for _, m := range doc.Data {
		for _, e := range m.IncomeSources {
			incomeIDs[e.ID] = uuid.New()
		}
	}

	if err := step("categories", func() error {
		for _, name := range doc.Categories {
			if err := s.store.CreateCategory(ctx, userID, name, doc.CategoryColors[name]); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := step("payment_methods", func() error {
		for _, name := range doc.PaymentMethods {
			if err := s.store.CreatePaymentMethod(ctx, userID, name, doc.PaymentMethodColors[name]); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := step("recurring_templates", func() error {
		for _, t := range doc.RecurringExpenses {
			tpl := &ledger.RecurringExpenseTemplate{
				ID:            templateIDs[t.ID],
				UserID:        userID,
				Description:   t.Description,
				Amount:        t.Amount,
				Category:      t.Category,
				DayOfMonth:    t.DayOfMonth,
				StartPeriod:   t.StartDate,
				PaymentMethod: t.PaymentMethod,
			}
			if err := s.store.CreateRecurringExpenseTemplate(ctx, tpl); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := step("periods", func() error {
		for _, m := range doc.Data {
			if err := s.store.UpsertPeriodSalary(ctx, userID, m.Month, m.Salary); err != nil {
				return err
			}
			for _, e := range m.Expenses {
				entry := &ledger.ExpenseEntry{
					ID:            uuid.New(),
					UserID:        userID,
					PeriodKey:     m.Month,
					Date:          e.Date,
					Category:      e.Category,
					Subcategory:   e.Subcategory,
					Amount:        e.Amount,
					Notes:         e.Notes,
					PaymentMethod: e.PaymentMethod,
				}
				if e.RecurringID != "" {
					if id, ok := templateIDs[e.RecurringID]; ok {
						entry.RecurringTemplateID = &id
					}
				}
				if err := s.store.CreateExpense(ctx, entry); err != nil {
					return err
				}
			}
			for _, e := range m.IncomeSources {
				entry := &ledger.IncomeEntry{
					ID:                   incomeIDs[e.ID],
					UserID:               userID,
					PeriodKey:            m.Month,
					Date:                 e.Date,
					Description:          e.Description,
					Amount:               e.Amount,
					SourceType:           ledger.IncomeSourceType(e.SourceType),
					Notes:                e.Notes,
					IsRecurring:          e.IsRecurring,
					RecurringDayOfMonth:  e.RecurringDayOfMonth,
					RecurringStartPeriod: e.RecurringStartPeriod,
				}
				if e.RecurringID != "" {
					if id, ok := incomeIDs[e.RecurringID]; ok {
						entry.RecurringTemplateID = &id
					}
				}
				if err := s.store.CreateIncome(ctx, entry); err != nil {
					return err
				}
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := step("budgets", func() error {
		for periodKey, byCategory := range doc.Budgets {
			for category, amount := range byCategory {
				if err := s.store.SetBudget(ctx, userID, periodKey, category, amount); err != nil {
					return err
				}
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := step("savings_goals", func() error {
		for _, g := range doc.SavingsGoals {
			// Seed the goal at currentAmount minus the contribution
			// sum, then replay the history so the store's increment
			// rebuilds the running total.
			contributed := decimal.Zero
			for _, c := range g.Contributions {
				contributed = contributed.Add(c.Amount)
			}
			goal := &ledger.SavingsGoal{
				ID:            uuid.New(),
				UserID:        userID,
				Name:          g.Name,
				TargetAmount:  g.TargetAmount,
				CurrentAmount: g.CurrentAmount.Sub(contributed),
				TargetDate:    g.TargetDate,
				Category:      g.Category,
			}
			if err := s.store.CreateSavingsGoal(ctx, goal); err != nil {
				return err
			}
			for _, c := range g.Contributions {
				contribution := &ledger.SavingsContribution{
					ID:     uuid.New(),
					GoalID: goal.ID,
					Amount: c.Amount,
					Date:   c.Date,
					Notes:  c.Notes,
				}
				if err := s.store.AddContribution(ctx, contribution); err != nil {
					return err
				}
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	snap, err := s.LoadSnapshot(ctx, userID)
	if err != nil {
		return nil, &PartialError{Step: "reload", Err: err}
	}
	s.logger.Info("account restored from backup",
		slog.String("user_id", userID.String()),
		slog.Int("periods", len(snap.Periods)),
		slog.Int("expenses", len(snap.Expenses)),
		slog.Int("goals", len(snap.Goals)))
	return snap, nil
}

// ClearAll wipes the account and re-seeds only the default categories and
// payment methods.
func (s *Service) ClearAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Wipe(ctx, userID); err != nil {
		return fmt.Errorf("failed to wipe account: %w", err)
	}
	for _, c := range ledger.DefaultCategories {
		if err := s.store.CreateCategory(ctx, userID, c.Name, c.Color); err != nil {
			return &PartialError{Step: "categories", Err: err}
		}
	}
	for _, m := range ledger.DefaultPaymentMethods {
		if err := s.store.CreatePaymentMethod(ctx, userID, m.Name, m.Color); err != nil {
			return &PartialError{Step: "payment_methods", Err: err}
		}
	}
	s.logger.Info("account cleared", slog.String("user_id", userID.String()))
	return nil
}
