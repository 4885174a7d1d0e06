// Package savings provides business logic for savings goals and their
// contribution history.
package savings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fsilva/intellibudget/internal/domain/ledger"
)

var hundred = decimal.NewFromInt(100)

// GoalProgress pairs a goal with its computed progress.
type GoalProgress struct {
	Goal *ledger.SavingsGoal
	// ProgressPercent is currentAmount over targetAmount, 0-100+.
	ProgressPercent decimal.Decimal
	Remaining       decimal.Decimal
	Reached         bool
}

// Service provides savings goal management.
type Service struct {
	store ledger.Store
}

// NewService creates a savings service.
func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// CreateGoal validates and persists a new goal. The initial amount seeds the
// running total; contributions accumulate on top of it.
func (s *Service) CreateGoal(ctx context.Context, userID uuid.UUID, name string, target, initial decimal.Decimal, targetDate, category string) (*ledger.SavingsGoal, error) {
	if name == "" {
		return nil, fmt.Errorf("goal name must not be empty")
	}
	if !target.IsPositive() {
		return nil, fmt.Errorf("target amount must be positive")
	}
	if initial.IsNegative() {
		return nil, fmt.Errorf("initial amount must not be negative")
	}

	goal := &ledger.SavingsGoal{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          name,
		TargetAmount:  target,
		CurrentAmount: initial,
		TargetDate:    targetDate,
		Category:      category,
	}
	if err := s.store.CreateSavingsGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to create savings goal: %w", err)
	}
	return goal, nil
}

// UpdateGoal updates a goal's editable fields. The running total and the
// contribution history are owned by Contribute and never touched here.
func (s *Service) UpdateGoal(ctx context.Context, userID, goalID uuid.UUID, name *string, target *decimal.Decimal, targetDate, category *string) (*ledger.SavingsGoal, error) {
	goal, err := s.findGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		goal.Name = *name
	}
	if target != nil {
		if !target.IsPositive() {
			return nil, fmt.Errorf("target amount must be positive")
		}
		goal.TargetAmount = *target
	}
	if targetDate != nil {
		goal.TargetDate = *targetDate
	}
	if category != nil {
		goal.Category = *category
	}

	if err := s.store.UpdateSavingsGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to update savings goal: %w", err)
	}
	return goal, nil
}

// DeleteGoal removes a goal and its contributions.
func (s *Service) DeleteGoal(ctx context.Context, userID, goalID uuid.UUID) error {
	return s.store.DeleteSavingsGoal(ctx, userID, goalID)
}

// ListGoals retrieves all goals for a user with contributions attached.
func (s *Service) ListGoals(ctx context.Context, userID uuid.UUID) ([]*ledger.SavingsGoal, error) {
	return s.store.ListSavingsGoals(ctx, userID)
}

// Contribute records a deposit toward a goal. The store appends the row and
// increments the running total in one transaction, keeping currentAmount
// equal to the seed plus the sum of all contributions.
func (s *Service) Contribute(ctx context.Context, userID, goalID uuid.UUID, amount decimal.Decimal, date, notes string) (*ledger.SavingsContribution, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("contribution amount must be positive")
	}
	if _, err := s.findGoal(ctx, userID, goalID); err != nil {
		return nil, err
	}

	contribution := &ledger.SavingsContribution{
		ID:     uuid.New(),
		GoalID: goalID,
		Amount: amount,
		Date:   date,
		Notes:  notes,
	}
	if err := s.store.AddContribution(ctx, contribution); err != nil {
		return nil, fmt.Errorf("failed to add contribution: %w", err)
	}
	return contribution, nil
}

// Progress computes each goal's percentage toward target.
func (s *Service) Progress(ctx context.Context, userID uuid.UUID) ([]GoalProgress, error) {
	goals, err := s.store.ListSavingsGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings goals: %w", err)
	}

	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		pct := decimal.Zero
		if g.TargetAmount.IsPositive() {
			pct = g.CurrentAmount.Div(g.TargetAmount).Mul(hundred)
		}
		out = append(out, GoalProgress{
			Goal:            g,
			ProgressPercent: pct,
			Remaining:       decimal.Max(g.TargetAmount.Sub(g.CurrentAmount), decimal.Zero),
			Reached:         g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount),
		})
	}
	return out, nil
}

func (s *Service) findGoal(ctx context.Context, userID, goalID uuid.UUID) (*ledger.SavingsGoal, error) {
	goals, err := s.store.ListSavingsGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings goals: %w", err)
	}
	for _, g := range goals {
		if g.ID == goalID {
			return g, nil
		}
	}
	return nil, fmt.Errorf("savings goal %s not found", goalID)
}
