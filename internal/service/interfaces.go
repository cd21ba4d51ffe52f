// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/expense-tracker/internal/model"
)

// Clock returns the current time. Everything that compares against wall-clock
// time takes one so tests can pin "now".
type Clock func() time.Time

// SystemClock is the production Clock.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// Ledger is the read-only view of the transaction ledger.
type Ledger interface {
	// SumAmount totals the amounts matching q in a single aggregation; 0 when nothing matches.
	SumAmount(ctx context.Context, q model.SpendQuery) (float64, error)
	// UsersWithActiveGoals lists owners of goals still awaiting their post-period notification.
	UsersWithActiveGoals(ctx context.Context) ([]int64, error)
}

// Tx is the set of operations available inside one storage transaction.
// Everything read or written through a Tx commits or rolls back together.
type Tx interface {
	Ledger

	GetGoal(ctx context.Context, id int64) (*model.Goal, error)
	SaveGoal(ctx context.Context, goal *model.Goal) error
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	SaveUser(ctx context.Context, user *model.User) error
	GetRecurringTransaction(ctx context.Context, id int64) (*model.RecurringTransaction, error)
	SaveRecurringTransaction(ctx context.Context, rt *model.RecurringTransaction) error
	GetDeal(ctx context.Context, id int64) (*model.Deal, error)
	ListDealSubscriptions(ctx context.Context) ([]model.DealSubscription, error)
	EnqueueNotification(ctx context.Context, n *model.Notification) error
}

// Transactor runs fn inside a storage transaction, committing when fn returns nil.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// GoalStore is the goal persistence the engine needs.
type GoalStore interface {
	Ledger
	Transactor

	GetGoals(ctx context.Context, userID int64, categoryID *int64) ([]model.Goal, error)
	ListGoalsPendingNotification(ctx context.Context) ([]model.Goal, error)
	// UpdateGoal re-reads the goal, applies fn and saves it in one transaction.
	// fn reads the ledger through tx; returning an error rolls everything back.
	UpdateGoal(ctx context.Context, id int64, fn func(tx Tx, goal *model.Goal) error) error
}

// RecurringStore is the recurring-template persistence the reminder needs.
type RecurringStore interface {
	Transactor

	ListRecurringTransactions(ctx context.Context) ([]model.RecurringTransaction, error)
}

// UserStore loads and saves users.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	SaveUser(ctx context.Context, user *model.User) error
}

// DeviceDirectory resolves push registrations.
type DeviceDirectory interface {
	TokensForUser(ctx context.Context, userID int64) ([]string, error)
	AllTokens(ctx context.Context) ([]string, error)
}

// NotificationOutbox holds notifications waiting for delivery.
type NotificationOutbox interface {
	ListPendingNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	MarkNotificationDispatched(ctx context.Context, id string, delivered, failed int, at time.Time) error
}

// DealStore is the slice of the deal subsystem that produces alerts.
type DealStore interface {
	Transactor

	GetDealView(ctx context.Context, id int64) (*model.DealView, error)
}

// PushGateway delivers a message to devices. It returns one result per
// token; a failure for one token never prevents sending to the others.
type PushGateway interface {
	Send(ctx context.Context, tokens []string, title, body string) []model.SendResult
}

// Storage is the full persistence contract implemented by the SQLite store.
type Storage interface {
	GoalStore
	RecurringStore
	UserStore
	DeviceDirectory
	NotificationOutbox
	DealStore

	// Ledger writes and reference data, used by import tooling and fixtures.
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	CreateUser(ctx context.Context, user *model.User) error
	CreateCategory(ctx context.Context, name string, userID *int64) (*model.Category, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string, userID *int64) (*model.Category, error)
	CreateGoal(ctx context.Context, goal *model.Goal) error
	GetGoal(ctx context.Context, id int64) (*model.Goal, error)
	CreateRecurringTransaction(ctx context.Context, rt *model.RecurringTransaction) error
	RegisterDeviceToken(ctx context.Context, userID int64, token string) error
	CreateDeal(ctx context.Context, deal *model.Deal) error
	CreateDealSubscription(ctx context.Context, sub *model.DealSubscription) error
	VoteDeal(ctx context.Context, dealID, userID int64, vote int) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
