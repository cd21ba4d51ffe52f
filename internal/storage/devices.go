package storage

import (
	"context"
	"fmt"
	"time"
)

// RegisterDeviceToken records a push token for a user. Re-registering a
// token moves it to the new owner.
func (s *SQLiteStorage) RegisterDeviceToken(ctx context.Context, userID int64, token string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(token, "token"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_tokens (token, user_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET user_id = excluded.user_id`,
		token, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to register device token: %w", err)
	}
	return nil
}

// TokensForUser returns the push tokens registered to a user.
func (s *SQLiteStorage) TokensForUser(ctx context.Context, userID int64) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryTokens(ctx, `SELECT token FROM device_tokens WHERE user_id = ? ORDER BY created_at, token`, userID)
}

// AllTokens returns every registered push token.
func (s *SQLiteStorage) AllTokens(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryTokens(ctx, `SELECT token FROM device_tokens ORDER BY created_at, token`)
}

func (s *SQLiteStorage) queryTokens(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query device tokens: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}
