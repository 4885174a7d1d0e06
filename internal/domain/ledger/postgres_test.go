package ledger

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// anyArgs returns n pgxmock.AnyArg matchers, for expectations that do not
// constrain argument values.
func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock), mock
}

func TestPostgresCreateExpense_InsertsAfterEnsuringPeriod(t *testing.T) {
	store, mock := newMockStore(t)
	userID := uuid.New()

	mock.ExpectExec("INSERT INTO monthly_periods").
		WithArgs(userID, "2025-01").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO expense_entries").
		WithArgs(anyArgs(10)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.CreateExpense(context.Background(), &ExpenseEntry{
		UserID:    userID,
		PeriodKey: "2025-01",
		Date:      "2025-01-10",
		Category:  "Food",
		Amount:    decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateExpense_MapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)
	userID := uuid.New()
	templateID := uuid.New()

	mock.ExpectExec("INSERT INTO monthly_periods").
		WithArgs(userID, "2025-01").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO expense_entries").
		WithArgs(anyArgs(10)...).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := store.CreateExpense(context.Background(), &ExpenseEntry{
		UserID:              userID,
		PeriodKey:           "2025-01",
		Date:                "2025-01-01",
		Category:            "Housing",
		Amount:              decimal.NewFromInt(1200),
		RecurringTemplateID: &templateID,
	})
	assert.ErrorIs(t, err, ErrDuplicateEntry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetBudget_Upserts(t *testing.T) {
	store, mock := newMockStore(t)
	userID := uuid.New()

	mock.ExpectExec("INSERT INTO budgets").
		WithArgs(userID, "2025-01", "Food", decimal.NewFromInt(120)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.SetBudget(context.Background(), userID, "2025-01", "Food", decimal.NewFromInt(120))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAddContribution_RunsInTransaction(t *testing.T) {
	store, mock := newMockStore(t)
	goalID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO savings_contributions").
		WithArgs(anyArgs(5)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE savings_goals").
		WithArgs(anyArgs(2)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := store.AddContribution(context.Background(), &SavingsContribution{
		GoalID: goalID,
		Amount: decimal.NewFromInt(50),
		Date:   "2025-01-15",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAddContribution_MissingGoalRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO savings_contributions").
		WithArgs(anyArgs(5)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE savings_goals").
		WithArgs(anyArgs(2)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := store.AddContribution(context.Background(), &SavingsContribution{
		GoalID: uuid.New(),
		Amount: decimal.NewFromInt(50),
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteCategory_ProtectedShortCircuits(t *testing.T) {
	store, mock := newMockStore(t)

	// No SQL is issued for the protected category.
	err := store.DeleteCategory(context.Background(), uuid.New(), FallbackCategory)
	assert.ErrorIs(t, err, ErrProtectedCategory)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWipe_DeletesAllUserData(t *testing.T) {
	store, mock := newMockStore(t)
	userID := uuid.New()

	mock.ExpectBegin()
	for _, table := range []string{
		"savings_goals", "expense_entries", "income_entries",
		"recurring_expense_templates", "budgets", "user_categories",
		"payment_methods", "monthly_periods",
	} {
		mock.ExpectExec("DELETE FROM " + table).
			WithArgs(userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
	}
	mock.ExpectCommit()

	require.NoError(t, store.Wipe(context.Background(), userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
