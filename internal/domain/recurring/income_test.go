package recurring

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsilva/intellibudget/internal/domain/ledger"
)

func TestMaterializeIncome_FillsMissingPeriods(t *testing.T) {
	userID := uuid.New()
	tpl := &ledger.RecurringIncomeTemplate{
		TemplateID:  uuid.New(),
		UserID:      userID,
		Description: "Salary",
		Amount:      decimal.NewFromInt(3000),
		SourceType:  ledger.IncomeSourceSalary,
		DayOfMonth:  25,
		StartPeriod: "2025-01",
	}

	created, skipped := MaterializeIncome(
		periods(userID, "2024-12", "2025-01", "2025-02"),
		[]*ledger.RecurringIncomeTemplate{tpl},
		nil,
	)

	assert.Zero(t, skipped)
	require.Len(t, created, 2)
	assert.Equal(t, "2025-01-25", created[0].Date)
	assert.Equal(t, "2025-02-25", created[1].Date)
	assert.Equal(t, ledger.IncomeSourceSalary, created[0].SourceType)
	require.NotNil(t, created[0].RecurringTemplateID)
	assert.Equal(t, tpl.TemplateID, *created[0].RecurringTemplateID)
	assert.False(t, created[0].IsRecurring)
}

func TestForwardGenerateIncome_TwelveMonthsAhead(t *testing.T) {
	tpl := &ledger.RecurringIncomeTemplate{
		TemplateID:  uuid.New(),
		UserID:      uuid.New(),
		Description: "Salary",
		Amount:      decimal.NewFromInt(3000),
		SourceType:  ledger.IncomeSourceSalary,
		DayOfMonth:  31,
		StartPeriod: "2025-01",
	}

	entries, err := ForwardGenerateIncome(tpl, "2025-01")
	require.NoError(t, err)
	require.Len(t, entries, 12)

	assert.Equal(t, "2025-02", entries[0].PeriodKey)
	assert.Equal(t, "2025-02-28", entries[0].Date)
	assert.Equal(t, "2026-01", entries[11].PeriodKey)
	assert.Equal(t, "2026-01-31", entries[11].Date)
}

func TestForwardGenerateIncome_RejectsInvalidTemplate(t *testing.T) {
	tpl := &ledger.RecurringIncomeTemplate{
		TemplateID:  uuid.New(),
		Amount:      decimal.NewFromInt(100),
		DayOfMonth:  0,
		StartPeriod: "2025-01",
	}
	_, err := ForwardGenerateIncome(tpl, "2025-01")
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	_, err = ForwardGenerateIncome(tpl, "not-a-period")
	assert.Error(t, err)
}

func TestAddRecurringIncome_CoversThirteenPeriods(t *testing.T) {
	store := ledger.NewMemoryStore()
	svc := NewService(store, testLogger())
	userID := uuid.New()
	day := 15

	entry := &ledger.IncomeEntry{
		UserID:              userID,
		PeriodKey:           "2025-03",
		Date:                "2025-03-15",
		Description:         "Salary",
		Amount:              decimal.NewFromInt(3000),
		SourceType:          ledger.IncomeSourceSalary,
		RecurringDayOfMonth: &day,
	}
	require.NoError(t, svc.AddRecurringIncome(context.Background(), entry))

	income, err := store.ListIncome(context.Background(), userID)
	require.NoError(t, err)
	// Creation period plus twelve forward months.
	assert.Len(t, income, 13)

	byPeriod := make(map[string]bool)
	for _, e := range income {
		byPeriod[e.PeriodKey] = true
		require.NotNil(t, e.RecurringTemplateID)
		assert.Equal(t, entry.ID, *e.RecurringTemplateID)
	}
	assert.True(t, byPeriod["2025-03"])
	assert.True(t, byPeriod["2026-03"])

	// A follow-up reconcile over the same state creates nothing new.
	templates, err := store.ListRecurringIncomeTemplates(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, templates, 1)

	periodRows, err := store.ListPeriods(context.Background(), userID)
	require.NoError(t, err)
	created, _ := MaterializeIncome(periodRows, templates, income)
	assert.Empty(t, created)
}

func TestAddRecurringIncome_RejectsInvalidInput(t *testing.T) {
	store := ledger.NewMemoryStore()
	svc := NewService(store, testLogger())
	day := 40

	err := svc.AddRecurringIncome(context.Background(), &ledger.IncomeEntry{
		UserID:              uuid.New(),
		PeriodKey:           "2025-01",
		Amount:              decimal.NewFromInt(100),
		RecurringDayOfMonth: &day,
	})
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	err = svc.AddRecurringIncome(context.Background(), &ledger.IncomeEntry{
		UserID:    uuid.New(),
		PeriodKey: "2025-01",
		Amount:    decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, ErrInvalidTemplate)
}
