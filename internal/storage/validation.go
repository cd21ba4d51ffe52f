// Package storage provides the data persistence layer for the expense tracker.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/expense-tracker/internal/model"
)

// Validation errors.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = errors.New("string parameter cannot be empty")
	ErrNilParameter        = errors.New("parameter cannot be nil")
	ErrEmptySlice          = errors.New("slice cannot be empty")
	ErrInvalidDateRange    = errors.New("start date must be before end date")
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrInvalidUser         = errors.New("invalid user")
	ErrInvalidRecurring    = errors.New("invalid recurring transaction")
	ErrInvalidNotification = errors.New("invalid notification")
	ErrInvalidDeal         = errors.New("invalid deal")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateSpendQuery checks the aggregation window.
func validateSpendQuery(q model.SpendQuery) error {
	if q.UserID <= 0 {
		return fmt.Errorf("%w: missing user", ErrNilParameter)
	}
	if q.End.Before(q.Start) {
		return fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, q.End, q.Start)
	}
	return nil
}

// validateTransactions validates a slice of ledger entries.
func validateTransactions(transactions []model.Transaction) error {
	if transactions == nil {
		return fmt.Errorf("%w: transactions", ErrNilParameter)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	return nil
}

// validateTransaction validates a single ledger entry.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.UserID <= 0 {
		return fmt.Errorf("%w: missing user", ErrInvalidTransaction)
	}
	if txn.CategoryID <= 0 {
		return fmt.Errorf("%w: missing category", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	switch txn.Type {
	case model.TransactionTypeExpense, model.TransactionTypeIncome, model.TransactionTypeTransfer:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, txn.Type)
	}
	return nil
}

// validateGoal validates a goal before it is written.
func validateGoal(goal *model.Goal) error {
	if goal == nil {
		return fmt.Errorf("%w: goal", ErrNilParameter)
	}
	return goal.Validate()
}

// validateUser validates a user before it is written.
func validateUser(user *model.User) error {
	if user == nil {
		return fmt.Errorf("%w: user", ErrNilParameter)
	}
	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("%w: missing username", ErrInvalidUser)
	}
	if user.XP < 0 {
		return fmt.Errorf("%w: negative xp", ErrInvalidUser)
	}
	if user.Level < 1 {
		return fmt.Errorf("%w: level must be at least 1", ErrInvalidUser)
	}
	return nil
}

// validateRecurring validates a recurring template.
func validateRecurring(rt *model.RecurringTransaction) error {
	if rt == nil {
		return fmt.Errorf("%w: recurring transaction", ErrNilParameter)
	}
	if rt.UserID <= 0 {
		return fmt.Errorf("%w: missing user", ErrInvalidRecurring)
	}
	if rt.PeriodDays <= 0 {
		return fmt.Errorf("%w: period must be positive", ErrInvalidRecurring)
	}
	if rt.StartDate.IsZero() {
		return fmt.Errorf("%w: missing start date", ErrInvalidRecurring)
	}
	if rt.EndDate != nil && rt.EndDate.Before(rt.StartDate) {
		return fmt.Errorf("%w: %w", ErrInvalidRecurring, ErrInvalidDateRange)
	}
	return nil
}

// validateNotification validates an outbox entry.
func validateNotification(n *model.Notification) error {
	if n == nil {
		return fmt.Errorf("%w: notification", ErrNilParameter)
	}
	if n.UserID <= 0 {
		return fmt.Errorf("%w: missing user", ErrInvalidNotification)
	}
	if strings.TrimSpace(n.Title) == "" || strings.TrimSpace(n.Body) == "" {
		return fmt.Errorf("%w: missing title or body", ErrInvalidNotification)
	}
	if n.Kind == "" {
		return fmt.Errorf("%w: missing kind", ErrInvalidNotification)
	}
	return nil
}

// validateDeal validates a deal before it is written.
func validateDeal(deal *model.Deal) error {
	if deal == nil {
		return fmt.Errorf("%w: deal", ErrNilParameter)
	}
	if deal.UserID <= 0 {
		return fmt.Errorf("%w: missing user", ErrInvalidDeal)
	}
	if strings.TrimSpace(deal.Vendor) == "" {
		return fmt.Errorf("%w: missing vendor", ErrInvalidDeal)
	}
	if deal.Latitude < -90 || deal.Latitude > 90 || deal.Longitude < -180 || deal.Longitude > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidDeal)
	}
	return nil
}
