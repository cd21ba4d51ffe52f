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

// CreateUser inserts a user. XP and level default to a fresh account when unset.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if user != nil && user.Level == 0 {
		user.Level = 1
	}
	if err := validateUser(user); err != nil {
		return err
	}

	user.CreatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, first_name, last_name, xp, level, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.Username, user.FirstName, user.LastName, user.XP, user.Level, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user ID: %w", err)
	}
	user.ID = id
	return nil
}

// GetUser returns a user by ID.
func (s *SQLiteStorage) GetUser(ctx context.Context, id int64) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getUser(ctx, s.db, id)
}

// SaveUser persists the user's XP and level.
func (s *SQLiteStorage) SaveUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}
	return saveUser(ctx, s.db, user)
}

func getUser(ctx context.Context, q querier, id int64) (*model.User, error) {
	var user model.User
	err := q.QueryRowContext(ctx, `
		SELECT id, username, first_name, last_name, xp, level, created_at
		FROM users
		WHERE id = ?`, id).Scan(
		&user.ID, &user.Username, &user.FirstName, &user.LastName,
		&user.XP, &user.Level, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func saveUser(ctx context.Context, q querier, user *model.User) error {
	result, err := q.ExecContext(ctx, `
		UPDATE users SET xp = ?, level = ? WHERE id = ?`,
		user.XP, user.Level, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireOneRow(result, "user", user.ID)
}

func requireOneRow(result sql.Result, entity string, id any) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %v: %w", entity, id, common.ErrNotFound)
	}
	return nil
}
