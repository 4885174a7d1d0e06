// Package calendar provides Gregorian month arithmetic for period keys.
//
// A period key identifies one calendar month in the canonical form "YYYY-MM",
// zero-padded so that lexical ordering matches chronological ordering.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is a parsed period key.
type Period struct {
	Year  int
	Month int // 1-12
}

// ParsePeriod parses a canonical "YYYY-MM" period key.
func ParsePeriod(key string) (Period, error) {
	if len(key) != 7 || key[4] != '-' {
		return Period{}, fmt.Errorf("invalid period key %q: want YYYY-MM", key)
	}
	year, err := strconv.Atoi(key[:4])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period key %q: %w", key, err)
	}
	month, err := strconv.Atoi(key[5:])
	if err != nil {
		return Period{}, fmt.Errorf("invalid period key %q: %w", key, err)
	}
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("invalid period key %q: month out of range", key)
	}
	return Period{Year: year, Month: month}, nil
}

// Key returns the canonical zero-padded period key.
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// AddMonths returns the period n months after p. Negative n walks backwards.
func (p Period) AddMonths(n int) Period {
	t := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// Days returns the number of days in the period's month.
func (p Period) Days() int {
	return DaysInMonth(p.Year, p.Month)
}

// DaysInMonth returns the number of days in the given month, including
// leap-year February.
func DaysInMonth(year, month int) int {
	// Day zero of the following month normalizes to the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDayOfMonth reduces a requested day-of-month to the last valid day of
// the target month. A template asking for day 31 degrades to 28/29/30 in
// shorter months instead of spilling into the next month.
func ClampDayOfMonth(day, year, month int) int {
	if max := DaysInMonth(year, month); day > max {
		return max
	}
	return day
}

// FormatDate builds a "YYYY-MM-DD" date from a period key and a day of month.
func FormatDate(periodKey string, day int) string {
	return fmt.Sprintf("%s-%02d", periodKey, day)
}

// PeriodOf returns the period key a "YYYY-MM-DD" date falls in.
func PeriodOf(date string) (string, error) {
	if len(date) != 10 || date[4] != '-' || date[7] != '-' {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}
	if _, err := ParsePeriod(date[:7]); err != nil {
		return "", err
	}
	return date[:7], nil
}

// ComparePeriodKeys orders two period keys. Lexical comparison is sufficient
// because the format is fixed-width and zero-padded.
func ComparePeriodKeys(a, b string) int {
	return strings.Compare(a, b)
}

// Weekday returns the short weekday name ("Mon".."Sun") of a "YYYY-MM-DD"
// date.
func Weekday(date string) (string, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t.Format("Mon"), nil
}
