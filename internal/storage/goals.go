package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/expense-tracker/internal/common"
	"github.com/Veraticus/expense-tracker/internal/model"
	"github.com/Veraticus/expense-tracker/internal/service"
)

const goalColumns = `id, user_id, category_id, kind, limit_value, start_date, end_date,
	on_track, progress, mid_notified, post_notified, created_at`

// CreateGoal inserts a new goal and sets its ID.
func (s *SQLiteStorage) CreateGoal(ctx context.Context, goal *model.Goal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateGoal(goal); err != nil {
		return err
	}

	goal.CreatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (
			user_id, category_id, kind, limit_value, start_date, end_date,
			on_track, progress, mid_notified, post_notified, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.UserID,
		nullableInt64(goal.CategoryID),
		string(goal.Kind),
		goal.Limit,
		goal.Start.UTC(),
		goal.End.UTC(),
		goal.OnTrack,
		goal.Progress,
		goal.MidNotified,
		goal.PostNotified,
		goal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get goal ID: %w", err)
	}
	goal.ID = id

	slog.Debug("created goal", "id", id, "user_id", goal.UserID, "kind", goal.Kind)
	return nil
}

// GetGoal returns a goal by ID.
func (s *SQLiteStorage) GetGoal(ctx context.Context, id int64) (*model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getGoal(ctx, s.db, id)
}

// GetGoals returns a user's goals. A non-nil categoryID narrows the result to
// that category's goals plus the user's global goals, which every ledger
// change can affect.
func (s *SQLiteStorage) GetGoals(ctx context.Context, userID int64, categoryID *int64) ([]model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = ?`
	args := []any{userID}
	if categoryID != nil {
		query += ` AND (category_id = ? OR category_id IS NULL)`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY id`

	return queryGoals(ctx, s.db, query, args...)
}

// ListGoalsPendingNotification returns goals that still owe a mid-period or
// post-period notification.
func (s *SQLiteStorage) ListGoalsPendingNotification(ctx context.Context) ([]model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return queryGoals(ctx, s.db, `SELECT `+goalColumns+`
		FROM goals
		WHERE post_notified = 0
		ORDER BY user_id, id`)
}

// UpdateGoal re-reads a goal, applies fn and writes the result back in one
// transaction. Anything fn does through tx commits or rolls back with the goal.
func (s *SQLiteStorage) UpdateGoal(ctx context.Context, id int64, fn func(tx service.Tx, goal *model.Goal) error) error {
	return s.WithTx(ctx, func(tx service.Tx) error {
		goal, err := tx.GetGoal(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(tx, goal); err != nil {
			return err
		}
		return tx.SaveGoal(ctx, goal)
	})
}

func getGoal(ctx context.Context, q querier, id int64) (*model.Goal, error) {
	goals, err := queryGoals(ctx, q, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return nil, fmt.Errorf("goal %d: %w", id, common.ErrNotFound)
	}
	return &goals[0], nil
}

// saveGoal writes the mutable goal state. The schema trigger rejects any
// attempt to clear a notified flag.
func saveGoal(ctx context.Context, q querier, goal *model.Goal) error {
	result, err := q.ExecContext(ctx, `
		UPDATE goals
		SET on_track = ?, progress = ?, mid_notified = ?, post_notified = ?
		WHERE id = ?`,
		goal.OnTrack, goal.Progress, goal.MidNotified, goal.PostNotified, goal.ID)
	if err != nil {
		return fmt.Errorf("failed to update goal %d: %w", goal.ID, err)
	}
	return requireOneRow(result, "goal", goal.ID)
}

func queryGoals(ctx context.Context, q querier, query string, args ...any) ([]model.Goal, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var goals []model.Goal
	for rows.Next() {
		var (
			g          model.Goal
			categoryID sql.NullInt64
			kind       string
		)
		if err := rows.Scan(
			&g.ID, &g.UserID, &categoryID, &kind, &g.Limit, &g.Start, &g.End,
			&g.OnTrack, &g.Progress, &g.MidNotified, &g.PostNotified, &g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		g.CategoryID = int64Ptr(categoryID)
		g.Kind = model.GoalKind(kind)
		g.Start = g.Start.UTC()
		g.End = g.End.UTC()
		goals = append(goals, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating goals: %w", err)
	}
	return goals, nil
}
