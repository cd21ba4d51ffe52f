package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/expense-tracker/internal/common"
	"github.com/Veraticus/expense-tracker/internal/model"
)

// GetCategory returns a category by ID.
func (s *SQLiteStorage) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getCategory(ctx, s.db, id)
}

// GetCategoryByName returns the category with the given name. A nil userID
// looks up global categories only.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string, userID *int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, user_id, color, created_at
		FROM categories
		WHERE name = ? AND user_id IS ?`

	cat, err := scanCategory(s.db.QueryRowContext(ctx, query, name, nullableInt64(userID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return cat, nil
}

// CreateCategory creates a category, or returns the existing one with the
// same name and owner.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name string, userID *int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	existing, err := s.GetCategoryByName(ctx, name, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, user_id, created_at)
		VALUES (?, ?, ?)`, name, nullableInt64(userID), now)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category ID: %w", err)
	}

	slog.Info("created new category", "name", name, "id", id)
	return &model.Category{
		ID:        id,
		Name:      name,
		UserID:    userID,
		CreatedAt: now,
	}, nil
}

func getCategory(ctx context.Context, q querier, id int64) (*model.Category, error) {
	cat, err := scanCategory(q.QueryRowContext(ctx, `
		SELECT id, name, user_id, color, created_at
		FROM categories
		WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return cat, nil
}

func scanCategory(row *sql.Row) (*model.Category, error) {
	var (
		cat    model.Category
		userID sql.NullInt64
	)
	if err := row.Scan(&cat.ID, &cat.Name, &userID, &cat.Color, &cat.CreatedAt); err != nil {
		return nil, err
	}
	cat.UserID = int64Ptr(userID)
	return &cat, nil
}
