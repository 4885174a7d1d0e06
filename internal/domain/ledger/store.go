package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrProtectedCategory is returned when a caller tries to delete the
// fallback category.
var ErrProtectedCategory = errors.New("the fallback category cannot be deleted")

// ErrDuplicateEntry is returned by CreateExpense/CreateIncome when another
// entry already occupies the same (recurring template, period) slot. The
// materializer treats it as "already exists", not as a failure.
var ErrDuplicateEntry = errors.New("entry already exists for template and period")

// Store is the persistence contract the core consumes. Every call is scoped
// to a single user; the caller supplies the identity resolved by an external
// auth collaborator.
type Store interface {
	// ListUserIDs returns every user with at least one period, for
	// account-wide background passes.
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)

	// Periods.
	ListPeriods(ctx context.Context, userID uuid.UUID) ([]*MonthlyPeriod, error)
	EnsurePeriod(ctx context.Context, userID uuid.UUID, periodKey string) error
	UpsertPeriodSalary(ctx context.Context, userID uuid.UUID, periodKey string, amount decimal.Decimal) error

	// Expense entries.
	ListExpenses(ctx context.Context, userID uuid.UUID) ([]*ExpenseEntry, error)
	CreateExpense(ctx context.Context, entry *ExpenseEntry) error
	UpdateExpense(ctx context.Context, entry *ExpenseEntry) error
	DeleteExpense(ctx context.Context, userID, id uuid.UUID) error

	// Income entries.
	ListIncome(ctx context.Context, userID uuid.UUID) ([]*IncomeEntry, error)
	CreateIncome(ctx context.Context, entry *IncomeEntry) error
	UpdateIncome(ctx context.Context, entry *IncomeEntry) error
	DeleteIncome(ctx context.Context, userID, id uuid.UUID) error

	// Recurring expense templates. Deleting one cascades to the expense
	// entries it produced.
	ListRecurringExpenseTemplates(ctx context.Context, userID uuid.UUID) ([]*RecurringExpenseTemplate, error)
	CreateRecurringExpenseTemplate(ctx context.Context, tpl *RecurringExpenseTemplate) error
	DeleteRecurringExpenseTemplate(ctx context.Context, userID, id uuid.UUID) error

	// ListRecurringIncomeTemplates derives templates from income rows
	// flagged as recurring.
	ListRecurringIncomeTemplates(ctx context.Context, userID uuid.UUID) ([]*RecurringIncomeTemplate, error)

	// Budgets, upsert semantics per (user, period, category).
	ListBudgets(ctx context.Context, userID uuid.UUID) ([]*Budget, error)
	SetBudget(ctx context.Context, userID uuid.UUID, periodKey, category string, amount decimal.Decimal) error

	// Categories. Deleting a category reassigns its expenses to the
	// fallback category and drops its budget rows; the fallback itself is
	// protected.
	ListCategories(ctx context.Context, userID uuid.UUID) ([]*Category, error)
	CreateCategory(ctx context.Context, userID uuid.UUID, name, color string) error
	DeleteCategory(ctx context.Context, userID uuid.UUID, name string) error

	// Payment methods. Deleting one clears it from referencing expenses.
	ListPaymentMethods(ctx context.Context, userID uuid.UUID) ([]*PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, userID uuid.UUID, name, color string) error
	DeletePaymentMethod(ctx context.Context, userID uuid.UUID, name string) error

	// Savings goals. AddContribution atomically appends the row and
	// increments the goal's running total.
	ListSavingsGoals(ctx context.Context, userID uuid.UUID) ([]*SavingsGoal, error)
	CreateSavingsGoal(ctx context.Context, goal *SavingsGoal) error
	UpdateSavingsGoal(ctx context.Context, goal *SavingsGoal) error
	DeleteSavingsGoal(ctx context.Context, userID, id uuid.UUID) error
	AddContribution(ctx context.Context, contribution *SavingsContribution) error

	// Wipe removes every row the user owns across all entity tables.
	// Contributions cascade with their goal.
	Wipe(ctx context.Context, userID uuid.UUID) error
}
