package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// PGQuerier is the subset of pgxpool.Pool the store needs. Satisfied by
// pgxmock in tests.
type PGQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	pool PGQuerier
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(pool PGQuerier) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStoreFromPool is a convenience constructor for production wiring.
func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// ListUserIDs returns every user owning at least one period.
func (s *PostgresStore) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT user_id FROM monthly_periods`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListPeriods returns the user's periods in chronological order.
func (s *PostgresStore) ListPeriods(ctx context.Context, userID uuid.UUID) ([]*MonthlyPeriod, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT period_key, user_id, legacy_salary
		FROM monthly_periods
		WHERE user_id = $1
		ORDER BY period_key ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	defer rows.Close()

	var periods []*MonthlyPeriod
	for rows.Next() {
		p := &MonthlyPeriod{}
		if err := rows.Scan(&p.Key, &p.UserID, &p.LegacySalary); err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// EnsurePeriod lazily creates the period record for a key.
func (s *PostgresStore) EnsurePeriod(ctx context.Context, userID uuid.UUID, periodKey string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO monthly_periods (user_id, period_key, legacy_salary)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id, period_key) DO NOTHING`, userID, periodKey)
	if err != nil {
		return fmt.Errorf("failed to ensure period: %w", err)
	}
	return nil
}

// UpsertPeriodSalary sets the legacy scalar salary for a period, creating
// the period when absent.
func (s *PostgresStore) UpsertPeriodSalary(ctx context.Context, userID uuid.UUID, periodKey string, amount decimal.Decimal) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO monthly_periods (user_id, period_key, legacy_salary)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, period_key) DO UPDATE SET legacy_salary = EXCLUDED.legacy_salary`,
		userID, periodKey, amount)
	if err != nil {
		return fmt.Errorf("failed to upsert period salary: %w", err)
	}
	return nil
}

// ListExpenses returns all of the user's expense entries ordered by date.
func (s *PostgresStore) ListExpenses(ctx context.Context, userID uuid.UUID) ([]*ExpenseEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, period_key, entry_date, category, COALESCE(subcategory, ''),
		       amount, COALESCE(notes, ''), COALESCE(payment_method, ''), recurring_template_id
		FROM expense_entries
		WHERE user_id = $1
		ORDER BY entry_date ASC, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var entries []*ExpenseEntry
	for rows.Next() {
		e := &ExpenseEntry{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.PeriodKey, &e.Date, &e.Category,
			&e.Subcategory, &e.Amount, &e.Notes, &e.PaymentMethod, &e.RecurringTemplateID); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CreateExpense inserts an expense, lazily creating its period. A unique
// violation on the (template, period) index is reported as
// ErrDuplicateEntry.
func (s *PostgresStore) CreateExpense(ctx context.Context, entry *ExpenseEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := s.EnsurePeriod(ctx, entry.UserID, entry.PeriodKey); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO expense_entries (id, user_id, period_key, entry_date, category, subcategory, amount, notes, payment_method, recurring_template_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.UserID, entry.PeriodKey, entry.Date, entry.Category,
		entry.Subcategory, entry.Amount, entry.Notes, entry.PaymentMethod, entry.RecurringTemplateID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// UpdateExpense updates a user-editable expense.
func (s *PostgresStore) UpdateExpense(ctx context.Context, entry *ExpenseEntry) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE expense_entries
		SET period_key = $3, entry_date = $4, category = $5, subcategory = $6,
		    amount = $7, notes = $8, payment_method = $9
		WHERE id = $1 AND user_id = $2`,
		entry.ID, entry.UserID, entry.PeriodKey, entry.Date, entry.Category,
		entry.Subcategory, entry.Amount, entry.Notes, entry.PaymentMethod)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteExpense removes a single expense entry.
func (s *PostgresStore) DeleteExpense(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM expense_entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListIncome returns all of the user's income entries ordered by date.
func (s *PostgresStore) ListIncome(ctx context.Context, userID uuid.UUID) ([]*IncomeEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, period_key, entry_date, description, amount, source_type,
		       COALESCE(notes, ''), is_recurring, recurring_day_of_month,
		       COALESCE(recurring_start_period, ''), recurring_template_id
		FROM income_entries
		WHERE user_id = $1
		ORDER BY entry_date ASC, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list income: %w", err)
	}
	defer rows.Close()

	var entries []*IncomeEntry
	for rows.Next() {
		e := &IncomeEntry{}
		if err := rows.Scan(&e.ID, &e.UserID, &e.PeriodKey, &e.Date, &e.Description,
			&e.Amount, &e.SourceType, &e.Notes, &e.IsRecurring, &e.RecurringDayOfMonth,
			&e.RecurringStartPeriod, &e.RecurringTemplateID); err != nil {
			return nil, fmt.Errorf("failed to scan income: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CreateIncome inserts an income entry, lazily creating its period.
func (s *PostgresStore) CreateIncome(ctx context.Context, entry *IncomeEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := s.EnsurePeriod(ctx, entry.UserID, entry.PeriodKey); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO income_entries (id, user_id, period_key, entry_date, description, amount, source_type, notes, is_recurring, recurring_day_of_month, recurring_start_period, recurring_template_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.UserID, entry.PeriodKey, entry.Date, entry.Description,
		entry.Amount, entry.SourceType, entry.Notes, entry.IsRecurring,
		entry.RecurringDayOfMonth, entry.RecurringStartPeriod, entry.RecurringTemplateID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create income: %w", err)
	}
	return nil
}

// UpdateIncome updates a user-editable income entry.
func (s *PostgresStore) UpdateIncome(ctx context.Context, entry *IncomeEntry) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE income_entries
		SET period_key = $3, entry_date = $4, description = $5, amount = $6,
		    source_type = $7, notes = $8, is_recurring = $9,
		    recurring_day_of_month = $10, recurring_start_period = $11
		WHERE id = $1 AND user_id = $2`,
		entry.ID, entry.UserID, entry.PeriodKey, entry.Date, entry.Description,
		entry.Amount, entry.SourceType, entry.Notes, entry.IsRecurring,
		entry.RecurringDayOfMonth, entry.RecurringStartPeriod)
	if err != nil {
		return fmt.Errorf("failed to update income: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteIncome removes a single income entry.
func (s *PostgresStore) DeleteIncome(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM income_entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete income: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListRecurringExpenseTemplates returns the user's templates, newest first.
func (s *PostgresStore) ListRecurringExpenseTemplates(ctx context.Context, userID uuid.UUID) ([]*RecurringExpenseTemplate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, description, amount, category, day_of_month, start_period, COALESCE(payment_method, '')
		FROM recurring_expense_templates
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring expense templates: %w", err)
	}
	defer rows.Close()

	var templates []*RecurringExpenseTemplate
	for rows.Next() {
		t := &RecurringExpenseTemplate{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Description, &t.Amount, &t.Category,
			&t.DayOfMonth, &t.StartPeriod, &t.PaymentMethod); err != nil {
			return nil, fmt.Errorf("failed to scan recurring expense template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// CreateRecurringExpenseTemplate inserts a template.
func (s *PostgresStore) CreateRecurringExpenseTemplate(ctx context.Context, tpl *RecurringExpenseTemplate) error {
	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO recurring_expense_templates (id, user_id, description, amount, category, day_of_month, start_period, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tpl.ID, tpl.UserID, tpl.Description, tpl.Amount, tpl.Category,
		tpl.DayOfMonth, tpl.StartPeriod, tpl.PaymentMethod)
	if err != nil {
		return fmt.Errorf("failed to create recurring expense template: %w", err)
	}
	return nil
}

// DeleteRecurringExpenseTemplate removes a template and every expense entry
// it materialized.
func (s *PostgresStore) DeleteRecurringExpenseTemplate(ctx context.Context, userID, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM expense_entries WHERE user_id = $1 AND recurring_template_id = $2`, userID, id); err != nil {
		return fmt.Errorf("failed to delete materialized entries: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM recurring_expense_templates WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete recurring expense template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit(ctx)
}

// ListRecurringIncomeTemplates derives income templates from rows flagged as
// recurring with a day of month set. The template identity falls back to the
// row's own id when no explicit template id was recorded.
func (s *PostgresStore) ListRecurringIncomeTemplates(ctx context.Context, userID uuid.UUID) ([]*RecurringIncomeTemplate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(recurring_template_id, id), user_id, description, amount, source_type,
		       recurring_day_of_month, COALESCE(NULLIF(recurring_start_period, ''), period_key)
		FROM income_entries
		WHERE user_id = $1 AND is_recurring AND recurring_day_of_month IS NOT NULL
		ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring income templates: %w", err)
	}
	defer rows.Close()

	var templates []*RecurringIncomeTemplate
	seen := make(map[uuid.UUID]bool)
	for rows.Next() {
		t := &RecurringIncomeTemplate{}
		if err := rows.Scan(&t.TemplateID, &t.UserID, &t.Description, &t.Amount,
			&t.SourceType, &t.DayOfMonth, &t.StartPeriod); err != nil {
			return nil, fmt.Errorf("failed to scan recurring income template: %w", err)
		}
		// Materialized copies repeat the template id; keep the first row.
		if seen[t.TemplateID] {
			continue
		}
		seen[t.TemplateID] = true
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// ListBudgets returns every budget row the user owns.
func (s *PostgresStore) ListBudgets(ctx context.Context, userID uuid.UUID) ([]*Budget, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, period_key, category, amount
		FROM budgets
		WHERE user_id = $1
		ORDER BY period_key ASC, category ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*Budget
	for rows.Next() {
		b := &Budget{}
		if err := rows.Scan(&b.UserID, &b.PeriodKey, &b.Category, &b.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// SetBudget creates or overwrites the budget for (period, category).
func (s *PostgresStore) SetBudget(ctx context.Context, userID uuid.UUID, periodKey, category string, amount decimal.Decimal) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO budgets (user_id, period_key, category, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, period_key, category) DO UPDATE SET amount = EXCLUDED.amount`,
		userID, periodKey, category, amount)
	if err != nil {
		return fmt.Errorf("failed to set budget: %w", err)
	}
	return nil
}

// ListCategories returns the user's categories ordered by name.
func (s *PostgresStore) ListCategories(ctx context.Context, userID uuid.UUID) ([]*Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, name, color FROM user_categories WHERE user_id = $1 ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.UserID, &c.Name, &c.Color); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateCategory inserts a category.
func (s *PostgresStore) CreateCategory(ctx context.Context, userID uuid.UUID, name, color string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_categories (user_id, name, color) VALUES ($1, $2, $3)`, userID, name, color)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category, reassigning its expenses to the
// fallback category and dropping its budget rows. The fallback category is
// protected.
func (s *PostgresStore) DeleteCategory(ctx context.Context, userID uuid.UUID, name string) error {
	if name == FallbackCategory {
		return ErrProtectedCategory
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE expense_entries SET category = $3 WHERE user_id = $1 AND category = $2`, userID, name, FallbackCategory); err != nil {
		return fmt.Errorf("failed to reassign expenses: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM budgets WHERE user_id = $1 AND category = $2`, userID, name); err != nil {
		return fmt.Errorf("failed to delete category budgets: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM user_categories WHERE user_id = $1 AND name = $2`, userID, name)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit(ctx)
}

// ListPaymentMethods returns the user's payment methods ordered by name.
func (s *PostgresStore) ListPaymentMethods(ctx context.Context, userID uuid.UUID) ([]*PaymentMethod, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, name, color FROM payment_methods WHERE user_id = $1 ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	defer rows.Close()

	var methods []*PaymentMethod
	for rows.Next() {
		m := &PaymentMethod{}
		if err := rows.Scan(&m.UserID, &m.Name, &m.Color); err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// CreatePaymentMethod inserts a payment method.
func (s *PostgresStore) CreatePaymentMethod(ctx context.Context, userID uuid.UUID, name, color string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO payment_methods (user_id, name, color) VALUES ($1, $2, $3)`, userID, name, color)
	if err != nil {
		return fmt.Errorf("failed to create payment method: %w", err)
	}
	return nil
}

// DeletePaymentMethod removes a payment method and clears it from
// referencing expenses.
func (s *PostgresStore) DeletePaymentMethod(ctx context.Context, userID uuid.UUID, name string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE expense_entries SET payment_method = '' WHERE user_id = $1 AND payment_method = $2`, userID, name); err != nil {
		return fmt.Errorf("failed to clear payment method from expenses: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM payment_methods WHERE user_id = $1 AND name = $2`, userID, name)
	if err != nil {
		return fmt.Errorf("failed to delete payment method: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit(ctx)
}

// ListSavingsGoals returns the user's goals with contributions attached,
// contributions in insertion order.
func (s *PostgresStore) ListSavingsGoals(ctx context.Context, userID uuid.UUID) ([]*SavingsGoal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, target_amount, current_amount, target_date, COALESCE(category, '')
		FROM savings_goals
		WHERE user_id = $1
		ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings goals: %w", err)
	}
	defer rows.Close()

	var goals []*SavingsGoal
	byID := make(map[uuid.UUID]*SavingsGoal)
	for rows.Next() {
		g := &SavingsGoal{}
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.TargetDate, &g.Category); err != nil {
			return nil, fmt.Errorf("failed to scan savings goal: %w", err)
		}
		goals = append(goals, g)
		byID[g.ID] = g
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crows, err := s.pool.Query(ctx, `
		SELECT c.id, c.goal_id, c.amount, c.contributed_on, COALESCE(c.notes, '')
		FROM savings_contributions c
		JOIN savings_goals g ON g.id = c.goal_id
		WHERE g.user_id = $1
		ORDER BY c.created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		c := &SavingsContribution{}
		if err := crows.Scan(&c.ID, &c.GoalID, &c.Amount, &c.Date, &c.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		if g, ok := byID[c.GoalID]; ok {
			g.Contributions = append(g.Contributions, c)
		}
	}
	return goals, crows.Err()
}

// CreateSavingsGoal inserts a goal.
func (s *PostgresStore) CreateSavingsGoal(ctx context.Context, goal *SavingsGoal) error {
	if goal.ID == uuid.Nil {
		goal.ID = uuid.New()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO savings_goals (id, user_id, name, target_amount, current_amount, target_date, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		goal.ID, goal.UserID, goal.Name, goal.TargetAmount, goal.CurrentAmount, goal.TargetDate, goal.Category)
	if err != nil {
		return fmt.Errorf("failed to create savings goal: %w", err)
	}
	return nil
}

// UpdateSavingsGoal updates a goal's editable fields.
func (s *PostgresStore) UpdateSavingsGoal(ctx context.Context, goal *SavingsGoal) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE savings_goals
		SET name = $3, target_amount = $4, current_amount = $5, target_date = $6, category = $7
		WHERE id = $1 AND user_id = $2`,
		goal.ID, goal.UserID, goal.Name, goal.TargetAmount, goal.CurrentAmount, goal.TargetDate, goal.Category)
	if err != nil {
		return fmt.Errorf("failed to update savings goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteSavingsGoal removes a goal; its contributions cascade.
func (s *PostgresStore) DeleteSavingsGoal(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM savings_goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete savings goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddContribution appends a contribution and increments the goal's running
// total in one transaction, so CurrentAmount never drifts from the
// contribution history.
func (s *PostgresStore) AddContribution(ctx context.Context, contribution *SavingsContribution) error {
	if contribution.ID == uuid.Nil {
		contribution.ID = uuid.New()
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO savings_contributions (id, goal_id, amount, contributed_on, notes)
		VALUES ($1, $2, $3, $4, $5)`,
		contribution.ID, contribution.GoalID, contribution.Amount, contribution.Date, contribution.Notes); err != nil {
		return fmt.Errorf("failed to insert contribution: %w", err)
	}
	tag, err := tx.Exec(ctx, `
		UPDATE savings_goals SET current_amount = current_amount + $2 WHERE id = $1`,
		contribution.GoalID, contribution.Amount)
	if err != nil {
		return fmt.Errorf("failed to update goal amount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit(ctx)
}

// Wipe deletes every row the user owns across all entity tables.
func (s *PostgresStore) Wipe(ctx context.Context, userID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Contributions cascade with their goal.
	for _, stmt := range []string{
		`DELETE FROM savings_goals WHERE user_id = $1`,
		`DELETE FROM expense_entries WHERE user_id = $1`,
		`DELETE FROM income_entries WHERE user_id = $1`,
		`DELETE FROM recurring_expense_templates WHERE user_id = $1`,
		`DELETE FROM budgets WHERE user_id = $1`,
		`DELETE FROM user_categories WHERE user_id = $1`,
		`DELETE FROM payment_methods WHERE user_id = $1`,
		`DELETE FROM monthly_periods WHERE user_id = $1`,
	} {
		if _, err := tx.Exec(ctx, stmt, userID); err != nil {
			return fmt.Errorf("failed to wipe account data: %w", err)
		}
	}
	return tx.Commit(ctx)
}
