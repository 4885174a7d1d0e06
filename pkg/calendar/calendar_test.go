package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 31, DaysInMonth(2025, 1))
	assert.Equal(t, 28, DaysInMonth(2025, 2))
	assert.Equal(t, 29, DaysInMonth(2024, 2)) // leap year
	assert.Equal(t, 28, DaysInMonth(2100, 2)) // century, not a leap year
	assert.Equal(t, 29, DaysInMonth(2000, 2)) // quadricentennial leap year
	assert.Equal(t, 30, DaysInMonth(2025, 4))
	assert.Equal(t, 31, DaysInMonth(2025, 12))
}

func TestClampDayOfMonth(t *testing.T) {
	assert.Equal(t, 28, ClampDayOfMonth(31, 2025, 2))
	assert.Equal(t, 29, ClampDayOfMonth(31, 2024, 2))
	assert.Equal(t, 30, ClampDayOfMonth(31, 2025, 4))
	assert.Equal(t, 31, ClampDayOfMonth(31, 2025, 1))
	assert.Equal(t, 15, ClampDayOfMonth(15, 2025, 2))
	assert.Equal(t, 1, ClampDayOfMonth(1, 2025, 2))
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2025-02")
	require.NoError(t, err)
	assert.Equal(t, 2025, p.Year)
	assert.Equal(t, 2, p.Month)
	assert.Equal(t, "2025-02", p.Key())

	for _, bad := range []string{"2025-2", "202502", "2025-13", "2025-00", "abcd-ef", ""} {
		_, err := ParsePeriod(bad)
		assert.Error(t, err, "key %q", bad)
	}
}

func TestPeriodAddMonths(t *testing.T) {
	p, err := ParsePeriod("2025-11")
	require.NoError(t, err)
	assert.Equal(t, "2025-12", p.AddMonths(1).Key())
	assert.Equal(t, "2026-01", p.AddMonths(2).Key())
	assert.Equal(t, "2026-11", p.AddMonths(12).Key())
	assert.Equal(t, "2025-10", p.AddMonths(-1).Key())
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2025-02-05", FormatDate("2025-02", 5))
	assert.Equal(t, "2025-02-28", FormatDate("2025-02", 28))
}

func TestPeriodOf(t *testing.T) {
	key, err := PeriodOf("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, "2025-03", key)

	_, err = PeriodOf("2025-03")
	assert.Error(t, err)
}

func TestComparePeriodKeys(t *testing.T) {
	assert.Negative(t, ComparePeriodKeys("2025-01", "2025-02"))
	assert.Positive(t, ComparePeriodKeys("2026-01", "2025-12"))
	assert.Zero(t, ComparePeriodKeys("2025-07", "2025-07"))
}

func TestWeekday(t *testing.T) {
	day, err := Weekday("2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, "Mon", day)

	_, err = Weekday("not-a-date")
	assert.Error(t, err)
}
