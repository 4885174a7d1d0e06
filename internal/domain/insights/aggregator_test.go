package insights

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsilva/intellibudget/internal/domain/ledger"
)

func expense(category, date string, amount float64, notes string) *ledger.ExpenseEntry {
	return &ledger.ExpenseEntry{
		ID:       uuid.New(),
		Category: category,
		Date:     date,
		Amount:   decimal.NewFromFloat(amount),
		Notes:    notes,
	}
}

func TestBudgetStatuses_OverBudget(t *testing.T) {
	userID := uuid.New()
	d := PeriodData{
		Period: &ledger.MonthlyPeriod{Key: "2025-01", UserID: userID},
		Expenses: []*ledger.ExpenseEntry{
			expense("Food", "2025-01-10", 100, ""),
			expense("Food", "2025-01-20", 50, ""),
		},
		Budgets: []*ledger.Budget{
			{UserID: userID, PeriodKey: "2025-01", Category: "Food", Amount: decimal.NewFromInt(120)},
		},
	}

	statuses := BudgetStatuses(d)
	require.Len(t, statuses, 1)
	st := statuses[0]
	assert.Equal(t, "Food", st.Category)
	assert.True(t, st.Spent.Equal(decimal.NewFromInt(150)))
	assert.True(t, st.Percentage.Equal(decimal.NewFromInt(125)))
	assert.Equal(t, BudgetOver, st.State)

	alerts := BudgetAlerts(d)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Food", alerts[0].Category)
}

func TestBudgetStatuses_Boundaries(t *testing.T) {
	cases := []struct {
		name  string
		spent int64
		want  BudgetState
	}{
		{"below warning", 89, BudgetOnTrack},
		{"at warning", 90, BudgetWarning},
		{"at limit", 100, BudgetWarning},
		{"over limit", 101, BudgetOver},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := PeriodData{
				Expenses: []*ledger.ExpenseEntry{
					expense("Food", "2025-01-01", float64(tc.spent), ""),
				},
				Budgets: []*ledger.Budget{
					{Category: "Food", Amount: decimal.NewFromInt(100)},
				},
			}
			statuses := BudgetStatuses(d)
			require.Len(t, statuses, 1)
			assert.Equal(t, tc.want, statuses[0].State)
		})
	}
}

func TestBudgetAlerts_SortedMostSevereFirst(t *testing.T) {
	d := PeriodData{
		Expenses: []*ledger.ExpenseEntry{
			expense("Food", "2025-01-01", 85, ""),
			expense("Transport", "2025-01-01", 120, ""),
			expense("Fun", "2025-01-01", 50, ""),
		},
		Budgets: []*ledger.Budget{
			{Category: "Food", Amount: decimal.NewFromInt(100)},
			{Category: "Transport", Amount: decimal.NewFromInt(100)},
			{Category: "Fun", Amount: decimal.NewFromInt(100)},
		},
	}

	alerts := BudgetAlerts(d)
	require.Len(t, alerts, 2)
	assert.Equal(t, "Transport", alerts[0].Category)
	assert.Equal(t, "Food", alerts[1].Category)
}

func TestTotalIncome_FallsBackToLegacySalary(t *testing.T) {
	d := PeriodData{
		Period: &ledger.MonthlyPeriod{Key: "2023-05", LegacySalary: decimal.NewFromInt(2500)},
	}
	assert.True(t, TotalIncome(d).Equal(decimal.NewFromInt(2500)))

	d.Income = []*ledger.IncomeEntry{
		{Amount: decimal.NewFromInt(3000)},
		{Amount: decimal.NewFromInt(200)},
	}
	// Entries win over the deprecated scalar once any exist.
	assert.True(t, TotalIncome(d).Equal(decimal.NewFromInt(3200)))
}

func TestBalance_NegativeWhenOverspent(t *testing.T) {
	d := PeriodData{
		Period:   &ledger.MonthlyPeriod{Key: "2025-02"},
		Income:   []*ledger.IncomeEntry{{Amount: decimal.NewFromInt(1000)}},
		Expenses: []*ledger.ExpenseEntry{expense("Rent", "2025-02-01", 1500, "")},
	}
	assert.True(t, Balance(d).Equal(decimal.NewFromInt(-500)))
}

func TestDuplicateCandidates_IgnoresNotes(t *testing.T) {
	a := expense("Food", "2025-01-10", 42.50, "lunch")
	b := expense("Food", "2025-01-10", 42.50, "different note")
	c := expense("Food", "2025-01-11", 42.50, "lunch")
	d := expense("Transport", "2025-01-10", 42.50, "lunch")

	clusters := DuplicateCandidates([]*ledger.ExpenseEntry{a, b, c, d})
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Entries, 2)
	assert.Equal(t, "Food", clusters[0].Category)
	assert.Equal(t, "2025-01-10", clusters[0].Date)
}

func TestDuplicateCandidates_NormalizesAmountScale(t *testing.T) {
	a := &ledger.ExpenseEntry{ID: uuid.New(), Category: "Food", Date: "2025-01-10", Amount: decimal.NewFromInt(150)}
	b := &ledger.ExpenseEntry{ID: uuid.New(), Category: "Food", Date: "2025-01-10", Amount: decimal.RequireFromString("150.00")}

	clusters := DuplicateCandidates([]*ledger.ExpenseEntry{a, b})
	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Entries, 2)
}

func TestTopExpenses_StableTies(t *testing.T) {
	first := expense("A", "2025-01-01", 100, "first")
	second := expense("B", "2025-01-02", 100, "second")
	small := expense("C", "2025-01-03", 10, "")

	top := TopExpenses([]*ledger.ExpenseEntry{first, second, small}, 2)
	require.Len(t, top, 2)
	assert.Equal(t, first.ID, top[0].ID)
	assert.Equal(t, second.ID, top[1].ID)

	assert.Len(t, TopExpenses([]*ledger.ExpenseEntry{small}, 5), 1)
	assert.Empty(t, TopExpenses(nil, 3))
}

func TestDayOfWeekTotals(t *testing.T) {
	totals := DayOfWeekTotals([]*ledger.ExpenseEntry{
		expense("Food", "2025-01-06", 10, ""), // Monday
		expense("Food", "2025-01-13", 15, ""), // Monday
		expense("Food", "2025-01-07", 7, ""),  // Tuesday
		expense("Food", "bad-date", 99, ""),
	})

	assert.True(t, totals["Mon"].Equal(decimal.NewFromInt(25)))
	assert.True(t, totals["Tue"].Equal(decimal.NewFromInt(7)))
	_, ok := totals["Wed"]
	assert.False(t, ok)
}

func TestHighestAndAverageExpense(t *testing.T) {
	entries := []*ledger.ExpenseEntry{
		expense("A", "2025-01-01", 10, ""),
		expense("B", "2025-01-02", 40, ""),
		expense("C", "2025-01-03", 10, ""),
	}

	highest := HighestExpense(entries)
	require.NotNil(t, highest)
	assert.Equal(t, "B", highest.Category)
	assert.True(t, AverageExpense(entries).Equal(decimal.NewFromInt(20)))

	assert.Nil(t, HighestExpense(nil))
	assert.True(t, AverageExpense(nil).IsZero())
}

func TestMonthlySeries_ChronologicalOrder(t *testing.T) {
	months := []PeriodData{
		{
			Period:   &ledger.MonthlyPeriod{Key: "2025-02"},
			Income:   []*ledger.IncomeEntry{{Amount: decimal.NewFromInt(1000)}},
			Expenses: []*ledger.ExpenseEntry{expense("Rent", "2025-02-01", 600, "")},
		},
		{
			Period: &ledger.MonthlyPeriod{Key: "2025-01", LegacySalary: decimal.NewFromInt(900)},
		},
	}

	series := MonthlySeries(months)
	require.Len(t, series, 2)
	assert.Equal(t, "2025-01", series[0].PeriodKey)
	assert.True(t, series[0].Income.Equal(decimal.NewFromInt(900)))
	assert.Equal(t, "2025-02", series[1].PeriodKey)
	assert.True(t, series[1].Balance.Equal(decimal.NewFromInt(400)))
}
