package recurring

import (
	"github.com/google/uuid"

	"github.com/fsilva/intellibudget/internal/domain/ledger"
	"github.com/fsilva/intellibudget/pkg/calendar"
)

func validIncomeTemplate(tpl *ledger.RecurringIncomeTemplate) bool {
	if !validDay(tpl.DayOfMonth) || !tpl.Amount.IsPositive() {
		return false
	}
	_, err := calendar.ParsePeriod(tpl.StartPeriod)
	return err == nil
}

// MaterializeIncome is the income counterpart of MaterializeExpenses:
// templates are the logical ones derived from income rows flagged as
// recurring, and produced entries carry the template id without being
// flagged themselves.
func MaterializeIncome(periods []*ledger.MonthlyPeriod, templates []*ledger.RecurringIncomeTemplate, existing []*ledger.IncomeEntry) ([]*ledger.IncomeEntry, int) {
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

	var created []*ledger.IncomeEntry
	skipped := 0
	for _, tpl := range templates {
		if !validIncomeTemplate(tpl) {
			skipped++
			continue
		}
		for _, p := range periods {
			if calendar.ComparePeriodKeys(p.Key, tpl.StartPeriod) < 0 {
				continue
			}
			if occupied[slot{tpl.TemplateID, p.Key}] {
				continue
			}
			created = append(created, materializedIncome(tpl, p.Key))
			occupied[slot{tpl.TemplateID, p.Key}] = true
		}
	}
	return created, skipped
}

func materializedIncome(tpl *ledger.RecurringIncomeTemplate, periodKey string) *ledger.IncomeEntry {
	period, _ := calendar.ParsePeriod(periodKey)
	day := calendar.ClampDayOfMonth(tpl.DayOfMonth, period.Year, period.Month)
	templateID := tpl.TemplateID
	return &ledger.IncomeEntry{
		ID:                  EntryID(tpl.TemplateID, periodKey),
		UserID:              tpl.UserID,
		PeriodKey:           periodKey,
		Date:                calendar.FormatDate(periodKey, day),
		Description:         tpl.Description,
		Amount:              tpl.Amount,
		SourceType:          tpl.SourceType,
		RecurringTemplateID: &templateID,
	}
}

// ForwardGenerateIncome produces the twelve entries following the creation
// period of a newly added recurring income, one per month, each dated to the
// recurring day clamped to its month. Together with the creation entry the
// template covers thirteen consecutive periods up front.
func ForwardGenerateIncome(tpl *ledger.RecurringIncomeTemplate, creationPeriod string) ([]*ledger.IncomeEntry, error) {
	start, err := calendar.ParsePeriod(creationPeriod)
	if err != nil {
		return nil, err
	}
	if !validIncomeTemplate(tpl) {
		return nil, ErrInvalidTemplate
	}
	entries := make([]*ledger.IncomeEntry, 0, 12)
	for i := 1; i <= 12; i++ {
		entries = append(entries, materializedIncome(tpl, start.AddMonths(i).Key()))
	}
	return entries, nil
}
