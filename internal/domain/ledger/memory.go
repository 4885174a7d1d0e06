package ledger

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore implements Store with mutex-guarded in-memory state. It keeps
// insertion order and enforces the same (template, period) uniqueness the
// Postgres index does, so materializer and backup behavior match production.
type MemoryStore struct {
	mu sync.RWMutex

	periods        []*MonthlyPeriod
	expenses       []*ExpenseEntry
	income         []*IncomeEntry
	templates      []*RecurringExpenseTemplate
	budgets        []*Budget
	categories     []*Category
	paymentMethods []*PaymentMethod
	goals          []*SavingsGoal
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ Store = (*MemoryStore)(nil)

// ListUserIDs returns every user owning at least one period.
func (s *MemoryStore) ListUserIDs(_ context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, p := range s.periods {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			ids = append(ids, p.UserID)
		}
	}
	return ids, nil
}

// ListPeriods returns the user's periods in chronological order.
func (s *MemoryStore) ListPeriods(_ context.Context, userID uuid.UUID) ([]*MonthlyPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*MonthlyPeriod
	for _, p := range s.periods {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// EnsurePeriod lazily creates the period record for a key.
func (s *MemoryStore) EnsurePeriod(_ context.Context, userID uuid.UUID, periodKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensurePeriodLocked(userID, periodKey)
	return nil
}

func (s *MemoryStore) ensurePeriodLocked(userID uuid.UUID, periodKey string) *MonthlyPeriod {
	for _, p := range s.periods {
		if p.UserID == userID && p.Key == periodKey {
			return p
		}
	}
	p := &MonthlyPeriod{Key: periodKey, UserID: userID, LegacySalary: decimal.Zero}
	s.periods = append(s.periods, p)
	return p
}

// UpsertPeriodSalary sets the legacy scalar salary for a period.
func (s *MemoryStore) UpsertPeriodSalary(_ context.Context, userID uuid.UUID, periodKey string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensurePeriodLocked(userID, periodKey).LegacySalary = amount
	return nil
}

// ListExpenses returns the user's expense entries in insertion order.
func (s *MemoryStore) ListExpenses(_ context.Context, userID uuid.UUID) ([]*ExpenseEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ExpenseEntry
	for _, e := range s.expenses {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CreateExpense inserts an expense, enforcing the (template, period)
// uniqueness the Postgres index provides.
func (s *MemoryStore) CreateExpense(_ context.Context, entry *ExpenseEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.RecurringTemplateID != nil {
		for _, e := range s.expenses {
			if e.UserID == entry.UserID && e.PeriodKey == entry.PeriodKey &&
				e.RecurringTemplateID != nil && *e.RecurringTemplateID == *entry.RecurringTemplateID {
				return ErrDuplicateEntry
			}
		}
	}
	s.ensurePeriodLocked(entry.UserID, entry.PeriodKey)
	cp := *entry
	s.expenses = append(s.expenses, &cp)
	return nil
}

// UpdateExpense replaces a stored expense's editable fields.
func (s *MemoryStore) UpdateExpense(_ context.Context, entry *ExpenseEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.expenses {
		if e.UserID == entry.UserID && e.ID == entry.ID {
			cp := *entry
			cp.RecurringTemplateID = e.RecurringTemplateID
			s.expenses[i] = &cp
			return nil
		}
	}
	return sql.ErrNoRows
}

// DeleteExpense removes a single expense entry.
func (s *MemoryStore) DeleteExpense(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.expenses {
		if e.UserID == userID && e.ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

// ListIncome returns the user's income entries in insertion order.
func (s *MemoryStore) ListIncome(_ context.Context, userID uuid.UUID) ([]*IncomeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*IncomeEntry
	for _, e := range s.income {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CreateIncome inserts an income entry with the same uniqueness rule as
// CreateExpense.
func (s *MemoryStore) CreateIncome(_ context.Context, entry *IncomeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.RecurringTemplateID != nil {
		for _, e := range s.income {
			if e.UserID == entry.UserID && e.PeriodKey == entry.PeriodKey &&
				e.RecurringTemplateID != nil && *e.RecurringTemplateID == *entry.RecurringTemplateID {
				return ErrDuplicateEntry
			}
		}
	}
	s.ensurePeriodLocked(entry.UserID, entry.PeriodKey)
	cp := *entry
	s.income = append(s.income, &cp)
	return nil
}

// UpdateIncome replaces a stored income entry's editable fields.
func (s *MemoryStore) UpdateIncome(_ context.Context, entry *IncomeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.income {
		if e.UserID == entry.UserID && e.ID == entry.ID {
			cp := *entry
			cp.RecurringTemplateID = e.RecurringTemplateID
			s.income[i] = &cp
			return nil
		}
	}
	return sql.ErrNoRows
}

// DeleteIncome removes a single income entry.
func (s *MemoryStore) DeleteIncome(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.income {
		if e.UserID == userID && e.ID == id {
			s.income = append(s.income[:i], s.income[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

// ListRecurringExpenseTemplates returns the user's templates in insertion
// order.
func (s *MemoryStore) ListRecurringExpenseTemplates(_ context.Context, userID uuid.UUID) ([]*RecurringExpenseTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*RecurringExpenseTemplate
	for _, t := range s.templates {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CreateRecurringExpenseTemplate inserts a template.
func (s *MemoryStore) CreateRecurringExpenseTemplate(_ context.Context, tpl *RecurringExpenseTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	cp := *tpl
	s.templates = append(s.templates, &cp)
	return nil
}

// DeleteRecurringExpenseTemplate removes a template and cascades to the
// expense entries it materialized.
func (s *MemoryStore) DeleteRecurringExpenseTemplate(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, t := range s.templates {
		if t.UserID == userID && t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return sql.ErrNoRows
	}
	s.templates = append(s.templates[:idx], s.templates[idx+1:]...)

	kept := s.expenses[:0]
	for _, e := range s.expenses {
		if e.UserID == userID && e.RecurringTemplateID != nil && *e.RecurringTemplateID == id {
			continue
		}
		kept = append(kept, e)
	}
	s.expenses = kept
	return nil
}

// ListRecurringIncomeTemplates derives templates from flagged income rows.
func (s *MemoryStore) ListRecurringIncomeTemplates(_ context.Context, userID uuid.UUID) ([]*RecurringIncomeTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	var out []*RecurringIncomeTemplate
	for _, e := range s.income {
		if e.UserID != userID || !e.IsRecurring || e.RecurringDayOfMonth == nil {
			continue
		}
		templateID := e.ID
		if e.RecurringTemplateID != nil {
			templateID = *e.RecurringTemplateID
		}
		if seen[templateID] {
			continue
		}
		seen[templateID] = true
		start := e.RecurringStartPeriod
		if start == "" {
			start = e.PeriodKey
		}
		out = append(out, &RecurringIncomeTemplate{
			TemplateID:  templateID,
			UserID:      e.UserID,
			Description: e.Description,
			Amount:      e.Amount,
			SourceType:  e.SourceType,
			DayOfMonth:  *e.RecurringDayOfMonth,
			StartPeriod: start,
		})
	}
	return out, nil
}

// ListBudgets returns every budget row the user owns.
func (s *MemoryStore) ListBudgets(_ context.Context, userID uuid.UUID) ([]*Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Budget
	for _, b := range s.budgets {
		if b.UserID == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

// SetBudget creates or overwrites the budget for (period, category).
func (s *MemoryStore) SetBudget(_ context.Context, userID uuid.UUID, periodKey, category string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.budgets {
		if b.UserID == userID && b.PeriodKey == periodKey && b.Category == category {
			b.Amount = amount
			return nil
		}
	}
	s.budgets = append(s.budgets, &Budget{UserID: userID, PeriodKey: periodKey, Category: category, Amount: amount})
	return nil
}

// ListCategories returns the user's categories sorted by name.
func (s *MemoryStore) ListCategories(_ context.Context, userID uuid.UUID) ([]*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Category
	for _, c := range s.categories {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateCategory inserts a category.
func (s *MemoryStore) CreateCategory(_ context.Context, userID uuid.UUID, name, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, &Category{UserID: userID, Name: name, Color: color})
	return nil
}

// DeleteCategory removes a category, reassigning its expenses to the
// fallback category and dropping its budget rows.
func (s *MemoryStore) DeleteCategory(_ context.Context, userID uuid.UUID, name string) error {
	if name == FallbackCategory {
		return ErrProtectedCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.categories {
		if c.UserID == userID && c.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return sql.ErrNoRows
	}
	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)

	for _, e := range s.expenses {
		if e.UserID == userID && e.Category == name {
			e.Category = FallbackCategory
		}
	}
	kept := s.budgets[:0]
	for _, b := range s.budgets {
		if b.UserID == userID && b.Category == name {
			continue
		}
		kept = append(kept, b)
	}
	s.budgets = kept
	return nil
}

// ListPaymentMethods returns the user's payment methods sorted by name.
func (s *MemoryStore) ListPaymentMethods(_ context.Context, userID uuid.UUID) ([]*PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*PaymentMethod
	for _, m := range s.paymentMethods {
		if m.UserID == userID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreatePaymentMethod inserts a payment method.
func (s *MemoryStore) CreatePaymentMethod(_ context.Context, userID uuid.UUID, name, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentMethods = append(s.paymentMethods, &PaymentMethod{UserID: userID, Name: name, Color: color})
	return nil
}

// DeletePaymentMethod removes a payment method and clears it from
// referencing expenses.
func (s *MemoryStore) DeletePaymentMethod(_ context.Context, userID uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, m := range s.paymentMethods {
		if m.UserID == userID && m.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return sql.ErrNoRows
	}
	s.paymentMethods = append(s.paymentMethods[:idx], s.paymentMethods[idx+1:]...)

	for _, e := range s.expenses {
		if e.UserID == userID && e.PaymentMethod == name {
			e.PaymentMethod = ""
		}
	}
	return nil
}

// ListSavingsGoals returns the user's goals with contributions in insertion
// order.
func (s *MemoryStore) ListSavingsGoals(_ context.Context, userID uuid.UUID) ([]*SavingsGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*SavingsGoal
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, cloneGoal(g))
		}
	}
	return out, nil
}

func cloneGoal(g *SavingsGoal) *SavingsGoal {
	cp := *g
	cp.Contributions = make([]*SavingsContribution, len(g.Contributions))
	for i, c := range g.Contributions {
		cc := *c
		cp.Contributions[i] = &cc
	}
	return &cp
}

// CreateSavingsGoal inserts a goal.
func (s *MemoryStore) CreateSavingsGoal(_ context.Context, goal *SavingsGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if goal.ID == uuid.Nil {
		goal.ID = uuid.New()
	}
	s.goals = append(s.goals, cloneGoal(goal))
	return nil
}

// UpdateSavingsGoal updates a goal's editable fields, keeping its
// contribution history.
func (s *MemoryStore) UpdateSavingsGoal(_ context.Context, goal *SavingsGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, g := range s.goals {
		if g.UserID == goal.UserID && g.ID == goal.ID {
			cp := cloneGoal(goal)
			cp.Contributions = g.Contributions
			s.goals[i] = cp
			return nil
		}
	}
	return sql.ErrNoRows
}

// DeleteSavingsGoal removes a goal and its contributions.
func (s *MemoryStore) DeleteSavingsGoal(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, g := range s.goals {
		if g.UserID == userID && g.ID == id {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

// AddContribution appends a contribution and increments the goal's running
// total.
func (s *MemoryStore) AddContribution(_ context.Context, contribution *SavingsContribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if contribution.ID == uuid.Nil {
		contribution.ID = uuid.New()
	}
	for _, g := range s.goals {
		if g.ID == contribution.GoalID {
			cp := *contribution
			g.Contributions = append(g.Contributions, &cp)
			g.CurrentAmount = g.CurrentAmount.Add(contribution.Amount)
			return nil
		}
	}
	return sql.ErrNoRows
}

// Wipe deletes every row the user owns.
func (s *MemoryStore) Wipe(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filterPeriods := s.periods[:0]
	for _, p := range s.periods {
		if p.UserID != userID {
			filterPeriods = append(filterPeriods, p)
		}
	}
	s.periods = filterPeriods

	filterExpenses := s.expenses[:0]
	for _, e := range s.expenses {
		if e.UserID != userID {
			filterExpenses = append(filterExpenses, e)
		}
	}
	s.expenses = filterExpenses

	filterIncome := s.income[:0]
	for _, e := range s.income {
		if e.UserID != userID {
			filterIncome = append(filterIncome, e)
		}
	}
	s.income = filterIncome

	filterTemplates := s.templates[:0]
	for _, t := range s.templates {
		if t.UserID != userID {
			filterTemplates = append(filterTemplates, t)
		}
	}
	s.templates = filterTemplates

	filterBudgets := s.budgets[:0]
	for _, b := range s.budgets {
		if b.UserID != userID {
			filterBudgets = append(filterBudgets, b)
		}
	}
	s.budgets = filterBudgets

	filterCategories := s.categories[:0]
	for _, c := range s.categories {
		if c.UserID != userID {
			filterCategories = append(filterCategories, c)
		}
	}
	s.categories = filterCategories

	filterMethods := s.paymentMethods[:0]
	for _, m := range s.paymentMethods {
		if m.UserID != userID {
			filterMethods = append(filterMethods, m)
		}
	}
	s.paymentMethods = filterMethods

	filterGoals := s.goals[:0]
	for _, g := range s.goals {
		if g.UserID != userID {
			filterGoals = append(filterGoals, g)
		}
	}
	s.goals = filterGoals
	return nil
}
