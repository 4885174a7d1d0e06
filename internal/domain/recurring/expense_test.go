package recurring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsilva/intellibudget/internal/domain/ledger"
)

func periods(userID uuid.UUID, keys ...string) []*ledger.MonthlyPeriod {
	out := make([]*ledger.MonthlyPeriod, 0, len(keys))
	for _, k := range keys {
		out = append(out, &ledger.MonthlyPeriod{Key: k, UserID: userID})
	}
	return out
}

func TestMaterializeExpenses_ClampsDayToMonthEnd(t *testing.T) {
	userID := uuid.New()
	tpl := &ledger.RecurringExpenseTemplate{
		ID:          uuid.New(),
		UserID:      userID,
		Description: "Rent",
		Amount:      decimal.NewFromInt(1200),
		Category:    "Housing",
		DayOfMonth:  31,
		StartPeriod: "2025-01",
	}

	created, skipped := MaterializeExpenses(
		periods(userID, "2025-01", "2025-02", "2025-03", "2025-04"),
		[]*ledger.RecurringExpenseTemplate{tpl},
		nil,
	)

	require.Len(t, created, 4)
	assert.Zero(t, skipped)
	dates := make([]string, 0, len(created))
	for _, e := range created {
		dates = append(dates, e.Date)
	}
	assert.Equal(t, []string{"2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30"}, dates)
}

func TestMaterializeExpenses_ClampsToLeapDay(t *testing.T) {
	userID := uuid.New()
	tpl := &ledger.RecurringExpenseTemplate{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      decimal.NewFromInt(50),
		Category:    "Subscriptions",
		DayOfMonth:  31,
		StartPeriod: "2024-02",
	}

	created, _ := MaterializeExpenses(
		periods(userID, "2024-02"),
		[]*ledger.RecurringExpenseTemplate{tpl},
		nil,
	)

	require.Len(t, created, 1)
	assert.Equal(t, "2024-02-29", created[0].Date)
}

func TestMaterializeExpenses_SkipsOccupiedSlots(t *testing.T) {
	userID := uuid.New()
	tpl := &ledger.RecurringExpenseTemplate{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      decimal.NewFromInt(9),
		Category:    "Streaming",
		DayOfMonth:  1,
		StartPeriod: "2025-01",
	}
	templateID := tpl.ID
	existing := []*ledger.ExpenseEntry{{
		ID:                  uuid.New(),
		UserID:              userID,
		PeriodKey:           "2025-01",
		RecurringTemplateID: &templateID,
	}}

	created, _ := MaterializeExpenses(
		periods(userID, "2025-01", "2025-02"),
		[]*ledger.RecurringExpenseTemplate{tpl},
		existing,
	)

	require.Len(t, created, 1)
	assert.Equal(t, "2025-02", created[0].PeriodKey)
}

func TestMaterializeExpenses_Idempotent(t *testing.T) {
	userID := uuid.New()
	tpl := &ledger.RecurringExpenseTemplate{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      decimal.NewFromInt(30),
		Category:    "Utilities",
		DayOfMonth:  15,
		StartPeriod: "2025-01",
	}
	monthly := periods(userID, "2025-01", "2025-02", "2025-03")

	first, _ := MaterializeExpenses(monthly, []*ledger.RecurringExpenseTemplate{tpl}, nil)
	require.Len(t, first, 3)

	second, _ := MaterializeExpenses(monthly, []*ledger.RecurringExpenseTemplate{tpl}, first)
	assert.Empty(t, second)
}

func TestMaterializeExpenses_DeterministicIDs(t *testing.T) {
	userID := uuid.New()
	tpl := &ledger.RecurringExpenseTemplate{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      decimal.NewFromInt(5),
		Category:    "Coffee",
		DayOfMonth:  1,
		StartPeriod: "2025-06",
	}

	first, _ := MaterializeExpenses(periods(userID, "2025-06"), []*ledger.RecurringExpenseTemplate{tpl}, nil)
	second, _ := MaterializeExpenses(periods(userID, "2025-06"), []*ledger.RecurringExpenseTemplate{tpl}, nil)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, EntryID(tpl.ID, "2025-06"), first[0].ID)
}

func TestMaterializeExpenses_SkipsInvalidTemplates(t *testing.T) {
	userID := uuid.New()
	valid := &ledger.RecurringExpenseTemplate{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      decimal.NewFromInt(10),
		Category:    "Food",
		DayOfMonth:  5,
		StartPeriod: "2025-01",
	}
	templates := []*ledger.RecurringExpenseTemplate{
		{ID: uuid.New(), UserID: userID, Amount: decimal.NewFromInt(10), Category: "A", DayOfMonth: 0, StartPeriod: "2025-01"},
		{ID: uuid.New(), UserID: userID, Amount: decimal.NewFromInt(10), Category: "B", DayOfMonth: 32, StartPeriod: "2025-01"},
		{ID: uuid.New(), UserID: userID, Amount: decimal.NewFromInt(-1), Category: "C", DayOfMonth: 5, StartPeriod: "2025-01"},
		{ID: uuid.New(), UserID: userID, Amount: decimal.NewFromInt(10), Category: "D", DayOfMonth: 5, StartPeriod: ""},
		valid,
	}

	created, skipped := MaterializeExpenses(periods(userID, "2025-01"), templates, nil)

	assert.Equal(t, 4, skipped)
	require.Len(t, created, 1)
	assert.Equal(t, "Food", created[0].Category)
}

func TestMaterializeExpenses_HonorsStartPeriod(t *testing.T) {
	userID := uuid.New()
	tpl := &ledger.RecurringExpenseTemplate{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      decimal.NewFromInt(20),
		Category:    "Gym",
		DayOfMonth:  1,
		StartPeriod: "2025-03",
	}

	created, _ := MaterializeExpenses(
		periods(userID, "2025-01", "2025-02", "2025-03", "2025-04"),
		[]*ledger.RecurringExpenseTemplate{tpl},
		nil,
	)

	require.Len(t, created, 2)
	assert.Equal(t, "2025-03", created[0].PeriodKey)
	assert.Equal(t, "2025-04", created[1].PeriodKey)
}

func TestMaterializeExpenses_NothingToDoIsSuccess(t *testing.T) {
	created, skipped := MaterializeExpenses(nil, nil, nil)
	assert.Empty(t, created)
	assert.Zero(t, skipped)
}
