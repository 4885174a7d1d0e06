// Package ledger defines the budgeting entities and the store contract the
// core consumes. Persistence implementations live alongside the contract:
// PostgresStore for production, MemoryStore for tests and tooling.
package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IncomeSourceType classifies where an income entry came from.
type IncomeSourceType string

const (
	IncomeSourceSalary     IncomeSourceType = "salary"
	IncomeSourceBusiness   IncomeSourceType = "business"
	IncomeSourceCrypto     IncomeSourceType = "crypto"
	IncomeSourceLoan       IncomeSourceType = "loan"
	IncomeSourceInvestment IncomeSourceType = "investment"
	IncomeSourceOther      IncomeSourceType = "other"
)

// MonthlyPeriod is one calendar month of a user's ledger. Periods are created
// lazily the first time any entry targets their key and are never deleted
// individually.
type MonthlyPeriod struct {
	Key    string // "YYYY-MM"
	UserID uuid.UUID
	// LegacySalary is the deprecated scalar income field, kept only for
	// backward read compatibility with pre-income-source data.
	LegacySalary decimal.Decimal
}

// ExpenseEntry is a concrete expense in one period. When
// RecurringTemplateID is set, at most one entry may exist per
// (template, period) pair.
type ExpenseEntry struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	PeriodKey           string
	Date                string // "YYYY-MM-DD", within PeriodKey
	Category            string
	Subcategory         string
	Amount              decimal.Decimal
	Notes               string
	PaymentMethod       string
	RecurringTemplateID *uuid.UUID
}

// IncomeEntry is a concrete income row in one period. A row flagged
// IsRecurring with a day of month set acts as a recurring income template.
type IncomeEntry struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	PeriodKey            string
	Date                 string
	Description          string
	Amount               decimal.Decimal
	SourceType           IncomeSourceType
	Notes                string
	IsRecurring          bool
	RecurringDayOfMonth  *int
	RecurringStartPeriod string
	RecurringTemplateID  *uuid.UUID
}

// RecurringExpenseTemplate drives the expense materializer for every period
// at or after StartPeriod. Deleting a template cascades to the entries it
// produced.
type RecurringExpenseTemplate struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Description   string
	Amount        decimal.Decimal
	Category      string
	DayOfMonth    int // 1-31, clamped per target month
	StartPeriod   string
	PaymentMethod string
}

// RecurringIncomeTemplate is the logical template derived from a flagged
// income row. TemplateID is the identity the at-most-one-per-period
// invariant keys on.
type RecurringIncomeTemplate struct {
	TemplateID  uuid.UUID
	UserID      uuid.UUID
	Description string
	Amount      decimal.Decimal
	SourceType  IncomeSourceType
	DayOfMonth  int
	StartPeriod string
}

// Budget caps a category's spending for one period. Unique per
// (user, period, category) with upsert semantics.
type Budget struct {
	UserID    uuid.UUID
	PeriodKey string
	Category  string
	Amount    decimal.Decimal
}

// Category is a user-defined expense category.
type Category struct {
	UserID uuid.UUID
	Name   string
	Color  string
}

// PaymentMethod is a user-defined payment method.
type PaymentMethod struct {
	UserID uuid.UUID
	Name   string
	Color  string
}

// SavingsGoal tracks progress toward a target amount. CurrentAmount always
// equals the creation seed plus the sum of all contribution amounts; the
// store's AddContribution keeps the two in step atomically.
type SavingsGoal struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	TargetDate    string // "YYYY-MM-DD"
	Category      string
	Contributions []*SavingsContribution
}

// SavingsContribution is one deposit toward a goal.
type SavingsContribution struct {
	ID     uuid.UUID
	GoalID uuid.UUID
	Amount decimal.Decimal
	Date   string
	Notes  string
}

// FallbackCategory is the protected category every orphaned expense is
// reassigned to. It can never be deleted.
const FallbackCategory = "Other"

// DefaultCategories seed a fresh or cleared account.
var DefaultCategories = []Category{
	{Name: "Category 1", Color: "#3b82f6"},
	{Name: "Category 2", Color: "#10b981"},
	{Name: "Category 3", Color: "#f59e0b"},
	{Name: "Category 4", Color: "#ef4444"},
	{Name: "Category 5", Color: "#8b5cf6"},
	{Name: FallbackCategory, Color: "#6b7280"},
}

// DefaultPaymentMethods seed a fresh or cleared account.
var DefaultPaymentMethods = []PaymentMethod{
	{Name: "Payment Method 1", Color: "#10b981"},
	{Name: "Payment Method 2", Color: "#3b82f6"},
	{Name: "Payment Method 3", Color: "#f59e0b"},
}
