// Package recurring materializes ledger entries from recurring templates.
// Materialization is idempotent: at most one entry exists per
// (template, period) pair, and re-running a pass over unchanged state
// produces nothing.
package recurring

import (
	"github.com/google/uuid"

	"github.com/fsilva/intellibudget/internal/domain/ledger"
	"github.com/fsilva/intellibudget/pkg/calendar"
)

// EntryID derives the deterministic id for the entry a template produces in
// a period. Re-entrant materialization can never mint two ids for the same
// slot.
func EntryID(templateID uuid.UUID, periodKey string) uuid.UUID {
	return uuid.NewSHA1(templateID, []byte(periodKey))
}

func validDay(day int) bool { return day >= 1 && day <= 31 }

func validExpenseTemplate(tpl *ledger.RecurringExpenseTemplate) bool {
	if !validDay(tpl.DayOfMonth) || !tpl.Amount.IsPositive() {
		return false
	}
	_, err := calendar.ParsePeriod(tpl.StartPeriod)
	return err == nil
}

// MaterializeExpenses computes the expense entries missing from the given
// state: for every template and every period at or after the template's
// start, one entry dated to the template's day of month clamped to the
// period's length. Entries whose (template, period) slot is already occupied
// are left alone. Templates failing validation are skipped and counted,
// never fatal.
func MaterializeExpenses(periods []*ledger.MonthlyPeriod, templates []*ledger.RecurringExpenseTemplate, existing []*ledger.ExpenseEntry) ([]*ledger.ExpenseEntry, int) {
	type slot struct {
		template uuid.UUID
		period   string
	}
	occupied := make(map[slot]bool, len(existing))
	for _, e := range existing {
		if e.RecurringTemplateID != nil {
			occupied[slot{*e.RecurringTemplateID, e.PeriodKey}] = true
		}
	}

	var created []*ledger.ExpenseEntry
	skipped := 0
	for _, tpl := range templates {
		if !validExpenseTemplate(tpl) {
			skipped++
			continue
		}
		for _, p := range periods {
			if calendar.ComparePeriodKeys(p.Key, tpl.StartPeriod) < 0 {
				continue
			}
			if occupied[slot{tpl.ID, p.Key}] {
				continue
			}
			period, err := calendar.ParsePeriod(p.Key)
			if err != nil {
				continue
			}
			day := calendar.ClampDayOfMonth(tpl.DayOfMonth, period.Year, period.Month)
			templateID := tpl.ID
			created = append(created, &ledger.ExpenseEntry{
				ID:                  EntryID(tpl.ID, p.Key),
				UserID:              tpl.UserID,
				PeriodKey:           p.Key,
				Date:                calendar.FormatDate(p.Key, day),
				Category:            tpl.Category,
				Amount:              tpl.Amount,
				Notes:               tpl.Description,
				PaymentMethod:       tpl.PaymentMethod,
				RecurringTemplateID: &templateID,
			})
			occupied[slot{tpl.ID, p.Key}] = true
		}
	}
	return created, skipped
}
