// Package goals computes spending-goal progress and emits the mid-period and
// post-period goal notifications.
package goals

import (
	"context"
	"fmt"

	"github.com/Veraticus/expense-tracker/internal/model"
	"github.com/Veraticus/expense-tracker/internal/service"
)

// Progress is the freshly computed state of a goal.
type Progress struct {
	// Value is the amount spent for amount goals and the reduction
	// percentage against the previous period for percentage goals.
	Value         float64 `json:"value"`
	CurrentSpent  float64 `json:"current_spent"`
	PreviousSpent float64 `json:"previous_spent"`
	OnTrack       bool    `json:"on_track"`
}

// ComputeProgress evaluates goal against the ledger. It does not modify goal.
func ComputeProgress(ctx context.Context, ledger service.Ledger, goal *model.Goal) (Progress, error) {
	switch goal.Kind {
	case model.GoalKindAmount:
		spent, err := ledger.SumAmount(ctx, model.SpendQuery{
			UserID:     goal.UserID,
			CategoryID: goal.CategoryID,
			Start:      goal.Start,
			End:        goal.End,
		})
		if err != nil {
			return Progress{}, fmt.Errorf("failed to sum goal %d spending: %w", goal.ID, err)
		}
		return Progress{
			Value:        spent,
			CurrentSpent: spent,
			OnTrack:      spent <= goal.Limit,
		}, nil

	case model.GoalKindPercentage:
		if goal.CategoryID == nil {
			return Progress{}, model.ErrGoalNeedsCategory
		}

		prevStart, prevEnd := goal.PreviousWindow()
		prev, err := ledger.SumAmount(ctx, model.SpendQuery{
			UserID:     goal.UserID,
			CategoryID: goal.CategoryID,
			Start:      prevStart,
			End:        prevEnd,
			ExcludeEnd: true,
		})
		if err != nil {
			return Progress{}, fmt.Errorf("failed to sum goal %d previous period: %w", goal.ID, err)
		}

		curr, err := ledger.SumAmount(ctx, model.SpendQuery{
			UserID:     goal.UserID,
			CategoryID: goal.CategoryID,
			Start:      goal.Start,
			End:        goal.End,
		})
		if err != nil {
			return Progress{}, fmt.Errorf("failed to sum goal %d current period: %w", goal.ID, err)
		}

		pct := Reduction(prev, curr)
		return Progress{
			Value:         pct,
			CurrentSpent:  curr,
			PreviousSpent: prev,
			OnTrack:       pct >= goal.Limit,
		}, nil

	default:
		return Progress{}, fmt.Errorf("%w: %q", model.ErrInvalidGoalKind, goal.Kind)
	}
}

// Reduction is the percentage by which curr is below prev. With no previous
// spending it is 100 when nothing was spent now either, and 0 otherwise.
func Reduction(prev, curr float64) float64 {
	if prev > 0 {
		return (prev - curr) / prev * 100
	}
	if curr == 0 {
		return 100
	}
	return 0
}
