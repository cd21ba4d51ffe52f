package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/expense-tracker/internal/model"
)

// SumAmount totals ledger amounts for a user (and optionally one category)
// inside the query window.
func (s *SQLiteStorage) SumAmount(ctx context.Context, q model.SpendQuery) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return sumAmount(ctx, s.db, q)
}

// UsersWithActiveGoals lists users owning at least one goal that has not
// reached its post-period notification.
func (s *SQLiteStorage) UsersWithActiveGoals(ctx context.Context) ([]int64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return usersWithActiveGoals(ctx, s.db)
}

// SaveTransactions inserts ledger entries, skipping ones whose external id is
// already recorded for the user. It returns how many rows were inserted.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			user_id, category_id, amount, transaction_type, note, vendor,
			date, external_id, recurring_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	inserted := 0
	for i := range transactions {
		txn := &transactions[i]
		if txn.ExternalID == "" {
			txn.ExternalID = txn.GenerateExternalID()
		}

		result, err := stmt.ExecContext(ctx,
			txn.UserID,
			txn.CategoryID,
			txn.Amount,
			string(txn.Type),
			txn.Note,
			txn.Vendor,
			txn.Date.UTC(),
			txn.ExternalID,
			nullableInt64(txn.RecurringID),
			now,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert transaction %s: %w", txn.ExternalID, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to read insert result: %w", err)
		}
		if affected == 0 {
			continue
		}

		id, err := result.LastInsertId()
		if err != nil {
			return inserted, fmt.Errorf("failed to get transaction ID: %w", err)
		}
		txn.ID = id
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}

	slog.Debug("saved ledger entries", "received", len(transactions), "inserted", inserted)
	return inserted, nil
}

func sumAmount(ctx context.Context, q querier, query model.SpendQuery) (float64, error) {
	if err := validateSpendQuery(query); err != nil {
		return 0, err
	}

	var sb strings.Builder
	sb.WriteString(`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = ? AND date >= ?`)
	args := []any{query.UserID, query.Start.UTC()}

	if query.ExcludeEnd {
		sb.WriteString(` AND date < ?`)
	} else {
		sb.WriteString(` AND date <= ?`)
	}
	args = append(args, query.End.UTC())

	if query.CategoryID != nil {
		sb.WriteString(` AND category_id = ?`)
		args = append(args, *query.CategoryID)
	}

	var total float64
	if err := q.QueryRowContext(ctx, sb.String(), args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum ledger amounts: %w", err)
	}
	return total, nil
}

func usersWithActiveGoals(ctx context.Context, q querier) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT user_id
		FROM goals
		WHERE post_notified = 0
		ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users with goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
