package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/expense-tracker/internal/common"
	"github.com/Veraticus/expense-tracker/internal/model"
)

const recurringColumns = `id, user_id, category_id, amount, note, start_date, end_date,
	period_days, last_notified_occurrence, last_notified_payment_date`

// CreateRecurringTransaction inserts a recurring template and sets its ID.
func (s *SQLiteStorage) CreateRecurringTransaction(ctx context.Context, rt *model.RecurringTransaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecurring(rt); err != nil {
		return err
	}
	if rt.LastNotifiedOccurrence == 0 && rt.LastNotifiedPaymentDate == nil {
		rt.LastNotifiedOccurrence = model.NoOccurrenceNotified
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO recurring_transactions (
			user_id, category_id, amount, note, start_date, end_date, period_days,
			last_notified_occurrence, last_notified_payment_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.UserID,
		rt.CategoryID,
		rt.Amount,
		rt.Note,
		rt.StartDate.UTC(),
		nullableTime(rt.EndDate),
		rt.PeriodDays,
		rt.LastNotifiedOccurrence,
		nullableTime(rt.LastNotifiedPaymentDate),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create recurring transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get recurring transaction ID: %w", err)
	}
	rt.ID = id
	return nil
}

// ListRecurringTransactions returns every recurring template.
func (s *SQLiteStorage) ListRecurringTransactions(ctx context.Context) ([]model.RecurringTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+recurringColumns+`
		FROM recurring_transactions
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var templates []model.RecurringTransaction
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recurring transactions: %w", err)
	}
	return templates, nil
}

func getRecurringTransaction(ctx context.Context, q querier, id int64) (*model.RecurringTransaction, error) {
	rt, err := scanRecurring(q.QueryRowContext(ctx, `SELECT `+recurringColumns+`
		FROM recurring_transactions
		WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recurring transaction %d: %w", id, common.ErrNotFound)
	}
	return rt, err
}

// UpdateRecurringSchedule changes the start, end and period of a template,
// as the transaction service does when a user edits a series. The reminder
// bookkeeping is left alone.
func (s *SQLiteStorage) UpdateRecurringSchedule(ctx context.Context, rt *model.RecurringTransaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecurring(rt); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE recurring_transactions
		SET start_date = ?, end_date = ?, period_days = ?
		WHERE id = ?`,
		rt.StartDate.UTC(), nullableTime(rt.EndDate), rt.PeriodDays, rt.ID)
	if err != nil {
		return fmt.Errorf("failed to reschedule recurring transaction %d: %w", rt.ID, err)
	}
	return requireOneRow(result, "recurring transaction", rt.ID)
}

// saveRecurringBookkeeping only writes the reminder bookkeeping.
func saveRecurringBookkeeping(ctx context.Context, q querier, rt *model.RecurringTransaction) error {
	result, err := q.ExecContext(ctx, `
		UPDATE recurring_transactions
		SET last_notified_occurrence = ?, last_notified_payment_date = ?
		WHERE id = ?`,
		rt.LastNotifiedOccurrence, nullableTime(rt.LastNotifiedPaymentDate), rt.ID)
	if err != nil {
		return fmt.Errorf("failed to update recurring transaction %d: %w", rt.ID, err)
	}
	return requireOneRow(result, "recurring transaction", rt.ID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecurring(row rowScanner) (*model.RecurringTransaction, error) {
	var (
		rt           model.RecurringTransaction
		endDate      sql.NullTime
		lastNotified sql.NullTime
	)
	err := row.Scan(
		&rt.ID, &rt.UserID, &rt.CategoryID, &rt.Amount, &rt.Note,
		&rt.StartDate, &endDate, &rt.PeriodDays,
		&rt.LastNotifiedOccurrence, &lastNotified,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan recurring transaction: %w", err)
	}
	rt.StartDate = rt.StartDate.UTC()
	rt.EndDate = timePtr(endDate)
	rt.LastNotifiedPaymentDate = timePtr(lastNotified)
	return &rt, nil
}
