package backup

import (
	"sort"
	"strings"

	"github.com/fsilva/intellibudget/internal/domain/ledger"
	"github.com/fsilva/intellibudget/pkg/calendar"
)

// csvHeader is fixed; consumers key on these column names.
var csvHeader = []string{"Date", "Month", "Category", "Payment Method", "Amount", "Notes"}

// ExportCSV renders a snapshot's expense entries as CSV, one row per entry
// in chronological period order. Every field is double-quoted with embedded
// quotes doubled, which encoding/csv cannot be made to do unconditionally.
func ExportCSV(snap *Snapshot) []byte {
	entries := make([]*ledger.ExpenseEntry, len(snap.Expenses))
	copy(entries, snap.Expenses)
	sort.SliceStable(entries, func(i, j int) bool {
		return calendar.ComparePeriodKeys(entries[i].PeriodKey, entries[j].PeriodKey) < 0
	})

	var b strings.Builder
	writeCSVRow(&b, csvHeader)
	for _, e := range entries {
		writeCSVRow(&b, []string{
			e.Date,
			e.PeriodKey,
			e.Category,
			e.PaymentMethod,
			e.Amount.String(),
			e.Notes,
		})
	}
	return []byte(b.String())
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}
