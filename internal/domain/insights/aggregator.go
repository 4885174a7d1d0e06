// Package insights computes monthly aggregates over ledger snapshots. Every
// function is pure: callers load the data through the store and pass it in.
package insights

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fsilva/intellibudget/internal/domain/ledger"
	"github.com/fsilva/intellibudget/pkg/calendar"
)

// PeriodData is the snapshot of one month the aggregator works on.
type PeriodData struct {
	Period   *ledger.MonthlyPeriod
	Expenses []*ledger.ExpenseEntry
	Income   []*ledger.IncomeEntry
	Budgets  []*ledger.Budget
}

// BudgetState classifies spending against a budget.
type BudgetState string

const (
	BudgetOnTrack BudgetState = "On Track"
	BudgetWarning BudgetState = "Warning"
	BudgetOver    BudgetState = "Over Budget"
)

var (
	warningThreshold = decimal.NewFromInt(90)
	overThreshold    = decimal.NewFromInt(100)
	alertThreshold   = decimal.NewFromInt(80)
	hundred          = decimal.NewFromInt(100)
)

// BudgetStatus is one category's budget versus actual for a period.
type BudgetStatus struct {
	Category   string
	Budget     decimal.Decimal
	Spent      decimal.Decimal
	Percentage decimal.Decimal
	State      BudgetState
}

// DuplicateCluster groups entries sharing (amount, category, date). Notes
// and payment method do not participate in the key.
type DuplicateCluster struct {
	Amount   decimal.Decimal
	Category string
	Date     string
	Entries  []*ledger.ExpenseEntry
}

// SeriesPoint is one period's row in a multi-month chart series.
type SeriesPoint struct {
	PeriodKey string
	Income    decimal.Decimal
	Expenses  decimal.Decimal
	Balance   decimal.Decimal
}

// TotalIncome sums the period's income entries. Periods predating income
// sources fall back to the legacy scalar salary when no entries exist.
func TotalIncome(d PeriodData) decimal.Decimal {
	if len(d.Income) == 0 {
		if d.Period != nil {
			return d.Period.LegacySalary
		}
		return decimal.Zero
	}
	total := decimal.Zero
	for _, e := range d.Income {
		total = total.Add(e.Amount)
	}
	return total
}

// TotalExpenses sums the period's expense entries.
func TotalExpenses(d PeriodData) decimal.Decimal {
	total := decimal.Zero
	for _, e := range d.Expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Balance is income minus expenses; negative when overspent.
func Balance(d PeriodData) decimal.Decimal {
	return TotalIncome(d).Sub(TotalExpenses(d))
}

// CategoryTotals sums expenses per category.
func CategoryTotals(expenses []*ledger.ExpenseEntry) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}
	return totals
}

// BudgetStatuses compares each budgeted category's spending against its cap.
// Below 90% is on track, 90 to 100 inclusive is a warning, above 100 is over
// budget. Budgets without a positive cap are ignored.
func BudgetStatuses(d PeriodData) []BudgetStatus {
	totals := CategoryTotals(d.Expenses)
	var out []BudgetStatus
	for _, b := range d.Budgets {
		if !b.Amount.IsPositive() {
			continue
		}
		spent := totals[b.Category]
		pct := spent.Div(b.Amount).Mul(hundred)
		state := BudgetOnTrack
		switch {
		case pct.GreaterThan(overThreshold):
			state = BudgetOver
		case pct.GreaterThanOrEqual(warningThreshold):
			state = BudgetWarning
		}
		out = append(out, BudgetStatus{
			Category:   b.Category,
			Budget:     b.Amount,
			Spent:      spent,
			Percentage: pct,
			State:      state,
		})
	}
	return out
}

// BudgetAlerts returns the statuses at or above 80% of budget, most severe
// first.
func BudgetAlerts(d PeriodData) []BudgetStatus {
	var alerts []BudgetStatus
	for _, st := range BudgetStatuses(d) {
		if st.Percentage.GreaterThanOrEqual(alertThreshold) {
			alerts = append(alerts, st)
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Percentage.GreaterThan(alerts[j].Percentage)
	})
	return alerts
}

// DuplicateCandidates clusters entries sharing amount, category and date.
// Only clusters with at least two entries are reported, in first-seen order.
func DuplicateCandidates(expenses []*ledger.ExpenseEntry) []DuplicateCluster {
	type key struct {
		amount   string
		category string
		date     string
	}
	index := make(map[key]int)
	var clusters []DuplicateCluster
	for _, e := range expenses {
		// StringFixed normalizes scale so 150 and 150.00 cluster
		// together.
		k := key{e.Amount.StringFixed(2), e.Category, e.Date}
		i, ok := index[k]
		if !ok {
			index[k] = len(clusters)
			clusters = append(clusters, DuplicateCluster{
				Amount:   e.Amount,
				Category: e.Category,
				Date:     e.Date,
				Entries:  []*ledger.ExpenseEntry{e},
			})
			continue
		}
		clusters[i].Entries = append(clusters[i].Entries, e)
	}
	out := clusters[:0]
	for _, c := range clusters {
		if len(c.Entries) >= 2 {
			out = append(out, c)
		}
	}
	return out
}

// TopExpenses returns the n largest entries, ties kept in input order.
func TopExpenses(expenses []*ledger.ExpenseEntry, n int) []*ledger.ExpenseEntry {
	sorted := make([]*ledger.ExpenseEntry, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.GreaterThan(sorted[j].Amount)
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	if n < 0 {
		n = 0
	}
	return sorted[:n]
}

// DayOfWeekTotals sums expenses per weekday name ("Mon".."Sun"). Entries
// with unparseable dates are skipped.
func DayOfWeekTotals(expenses []*ledger.ExpenseEntry) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		day, err := calendar.Weekday(e.Date)
		if err != nil {
			continue
		}
		totals[day] = totals[day].Add(e.Amount)
	}
	return totals
}

// HighestExpense returns the single largest entry, or nil for an empty
// period. Ties resolve to the earliest inserted.
func HighestExpense(expenses []*ledger.ExpenseEntry) *ledger.ExpenseEntry {
	var highest *ledger.ExpenseEntry
	for _, e := range expenses {
		if highest == nil || e.Amount.GreaterThan(highest.Amount) {
			highest = e
		}
	}
	return highest
}

// AverageExpense is the mean entry amount, zero for an empty period.
func AverageExpense(expenses []*ledger.ExpenseEntry) decimal.Decimal {
	if len(expenses) == 0 {
		return decimal.Zero
	}
	return TotalExpenses(PeriodData{Expenses: expenses}).Div(decimal.NewFromInt(int64(len(expenses))))
}

// MonthlySeries produces one chart row per period, in chronological order.
func MonthlySeries(months []PeriodData) []SeriesPoint {
	points := make([]SeriesPoint, 0, len(months))
	for _, m := range months {
		if m.Period == nil {
			continue
		}
		income := TotalIncome(m)
		expenses := TotalExpenses(m)
		points = append(points, SeriesPoint{
			PeriodKey: m.Period.Key,
			Income:    income,
			Expenses:  expenses,
			Balance:   income.Sub(expenses),
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return calendar.ComparePeriodKeys(points[i].PeriodKey, points[j].PeriodKey) < 0
	})
	return points
}
