package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/expense-tracker/internal/model"
)

// EnqueueNotification adds a notification to the outbox outside of any
// wider transaction.
func (s *SQLiteStorage) EnqueueNotification(ctx context.Context, n *model.Notification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateNotification(n); err != nil {
		return err
	}
	return enqueueNotification(ctx, s.db, n)
}

// ListPendingNotifications returns undispatched notifications, oldest first.
func (s *SQLiteStorage) ListPendingNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, kind, title, body, goal_id, created_at, dispatched_at, delivered, failed
		FROM notifications
		WHERE dispatched_at IS NULL
		ORDER BY created_at, rowid
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pending []model.Notification
	for rows.Next() {
		var (
			n            model.Notification
			kind         string
			goalID       sql.NullInt64
			dispatchedAt sql.NullTime
		)
		if err := rows.Scan(
			&n.ID, &n.UserID, &kind, &n.Title, &n.Body, &goalID,
			&n.CreatedAt, &dispatchedAt, &n.Delivered, &n.Failed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Kind = model.NotificationKind(kind)
		n.GoalID = int64Ptr(goalID)
		n.DispatchedAt = timePtr(dispatchedAt)
		pending = append(pending, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return pending, nil
}

// MarkNotificationDispatched records the delivery outcome of a notification.
// A notification is dispatched at most once.
func (s *SQLiteStorage) MarkNotificationDispatched(ctx context.Context, id string, delivered, failed int, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET dispatched_at = ?, delivered = ?, failed = ?
		WHERE id = ? AND dispatched_at IS NULL`,
		at.UTC(), delivered, failed, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification dispatched: %w", err)
	}
	return requireOneRow(result, "pending notification", id)
}

// CountNotifications returns how many notifications of a kind were queued for a goal.
func (s *SQLiteStorage) CountNotifications(ctx context.Context, goalID int64, kind model.NotificationKind) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE goal_id = ? AND kind = ?`,
		goalID, string(kind)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func enqueueNotification(ctx context.Context, q querier, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, kind, title, body, goal_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, string(n.Kind), n.Title, n.Body, nullableInt64(n.GoalID), n.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}
