package goals

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/expense-tracker/internal/model"
	"github.com/Veraticus/expense-tracker/internal/service"
)

// RecalcResult counts the goals touched by one recalculation.
type RecalcResult struct {
	Updated int
	Failed  int
}

// Recalculator refreshes the cached progress of stored goals.
type Recalculator struct {
	store service.GoalStore
}

// NewRecalculator creates a recalculator backed by store.
func NewRecalculator(store service.GoalStore) *Recalculator {
	return &Recalculator{store: store}
}

// Recalculate recomputes a user's goals. A non-nil categoryID limits the
// pass to goals that category can affect. Each goal is updated in its own
// transaction, and a failed goal is logged and counted without stopping the
// rest.
func (r *Recalculator) Recalculate(ctx context.Context, userID int64, categoryID *int64) (RecalcResult, error) {
	var result RecalcResult

	goals, err := r.store.GetGoals(ctx, userID, categoryID)
	if err != nil {
		return result, fmt.Errorf("failed to load goals for user %d: %w", userID, err)
	}

	for _, g := range goals {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		err := r.store.UpdateGoal(ctx, g.ID, func(tx service.Tx, goal *model.Goal) error {
			progress, err := ComputeProgress(ctx, tx, goal)
			if err != nil {
				return err
			}
			goal.Progress = progress.Value
			goal.OnTrack = progress.OnTrack
			return nil
		})
		if err != nil {
			result.Failed++
			slog.Error("failed to recalculate goal", "goal_id", g.ID, "user_id", userID, "error", err)
			continue
		}
		result.Updated++
	}

	slog.Debug("recalculated goals", "user_id", userID, "updated", result.Updated, "failed", result.Failed)
	return result, nil
}

// RecalculateAll refreshes the goals of every user with an active goal. A
// user whose goals cannot be loaded is logged and skipped.
func (r *Recalculator) RecalculateAll(ctx context.Context) (RecalcResult, error) {
	var total RecalcResult

	users, err := r.store.UsersWithActiveGoals(ctx)
	if err != nil {
		return total, fmt.Errorf("failed to list users with goals: %w", err)
	}

	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		result, err := r.Recalculate(ctx, userID, nil)
		total.Updated += result.Updated
		total.Failed += result.Failed
		if err != nil {
			slog.Error("failed to recalculate user goals", "user_id", userID, "error", err)
		}
	}
	return total, nil
}
