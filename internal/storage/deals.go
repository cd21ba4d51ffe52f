package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/expense-tracker/internal/common"
	"github.com/Veraticus/expense-tracker/internal/model"
)

// CreateDeal inserts a deal and sets its ID.
func (s *SQLiteStorage) CreateDeal(ctx context.Context, deal *model.Deal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDeal(deal); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO deals (user_id, name, description, vendor, address, price, latitude, longitude, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		deal.UserID, deal.Name, deal.Description, deal.Vendor, deal.Address,
		deal.Price, deal.Latitude, deal.Longitude, deal.Date.UTC())
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get deal ID: %w", err)
	}
	deal.ID = id
	return nil
}

// GetDealView returns a deal together with its vote tallies.
func (s *SQLiteStorage) GetDealView(ctx context.Context, id int64) (*model.DealView, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	deal, err := getDeal(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	var upvotes, downvotes int
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN vote = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN vote = -1 THEN 1 ELSE 0 END), 0)
		FROM deal_votes
		WHERE deal_id = ?`, id).Scan(&upvotes, &downvotes)
	if err != nil {
		return nil, fmt.Errorf("failed to count deal votes: %w", err)
	}

	view := model.NewDealView(*deal, upvotes, downvotes)
	return &view, nil
}

// VoteDeal records a user's vote on a deal, replacing any earlier vote.
// vote must be 1 or -1.
func (s *SQLiteStorage) VoteDeal(ctx context.Context, dealID, userID int64, vote int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if vote != 1 && vote != -1 {
		return fmt.Errorf("%w: vote must be 1 or -1, got %d", ErrInvalidDeal, vote)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deal_votes (deal_id, user_id, vote)
		VALUES (?, ?, ?)
		ON CONFLICT(deal_id, user_id) DO UPDATE SET vote = excluded.vote`,
		dealID, userID, vote)
	if err != nil {
		return fmt.Errorf("failed to record deal vote: %w", err)
	}
	return nil
}

// CreateDealSubscription registers a location a user wants deal alerts for.
func (s *SQLiteStorage) CreateDealSubscription(ctx context.Context, sub *model.DealSubscription) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("%w: subscription", ErrNilParameter)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO deal_location_subscriptions (user_id, latitude, longitude)
		VALUES (?, ?, ?)`, sub.UserID, sub.Latitude, sub.Longitude)
	if err != nil {
		return fmt.Errorf("failed to create deal subscription: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get subscription ID: %w", err)
	}
	sub.ID = id
	return nil
}

func getDeal(ctx context.Context, q querier, id int64) (*model.Deal, error) {
	var deal model.Deal
	err := q.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, vendor, address, price, latitude, longitude, date
		FROM deals
		WHERE id = ?`, id).Scan(
		&deal.ID, &deal.UserID, &deal.Name, &deal.Description, &deal.Vendor,
		&deal.Address, &deal.Price, &deal.Latitude, &deal.Longitude, &deal.Date,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("deal %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query deal: %w", err)
	}
	deal.Date = deal.Date.UTC()
	return &deal, nil
}

func listDealSubscriptions(ctx context.Context, q querier) ([]model.DealSubscription, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, latitude, longitude
		FROM deal_location_subscriptions
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query deal subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.DealSubscription
	for rows.Next() {
		var sub model.DealSubscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Latitude, &sub.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan deal subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
