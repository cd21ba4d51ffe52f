package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/expense-tracker/internal/model"
	"github.com/Veraticus/expense-tracker/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// querier is satisfied by both *sql.DB and *sql.Tx, so every query helper
// runs unchanged inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStorage implements service.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if !strings.HasPrefix(dbPath, ":memory:") {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers, which is what keeps the goal
	// read-modify-write cycles from interleaving.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a database transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
func (s *SQLiteStorage) WithTx(ctx context.Context, fn func(tx service.Tx) error) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// sqliteTx wraps sql.Tx to implement service.Tx.
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) SumAmount(ctx context.Context, q model.SpendQuery) (float64, error) {
	return sumAmount(ctx, t.tx, q)
}

func (t *sqliteTx) UsersWithActiveGoals(ctx context.Context) ([]int64, error) {
	return usersWithActiveGoals(ctx, t.tx)
}

func (t *sqliteTx) GetGoal(ctx context.Context, id int64) (*model.Goal, error) {
	return getGoal(ctx, t.tx, id)
}

func (t *sqliteTx) SaveGoal(ctx context.Context, goal *model.Goal) error {
	if err := validateGoal(goal); err != nil {
		return err
	}
	return saveGoal(ctx, t.tx, goal)
}

func (t *sqliteTx) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	return getCategory(ctx, t.tx, id)
}

func (t *sqliteTx) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return getUser(ctx, t.tx, id)
}

func (t *sqliteTx) SaveUser(ctx context.Context, user *model.User) error {
	if err := validateUser(user); err != nil {
		return err
	}
	return saveUser(ctx, t.tx, user)
}

func (t *sqliteTx) GetRecurringTransaction(ctx context.Context, id int64) (*model.RecurringTransaction, error) {
	return getRecurringTransaction(ctx, t.tx, id)
}

func (t *sqliteTx) SaveRecurringTransaction(ctx context.Context, rt *model.RecurringTransaction) error {
	if err := validateRecurring(rt); err != nil {
		return err
	}
	return saveRecurringBookkeeping(ctx, t.tx, rt)
}

func (t *sqliteTx) GetDeal(ctx context.Context, id int64) (*model.Deal, error) {
	return getDeal(ctx, t.tx, id)
}

func (t *sqliteTx) ListDealSubscriptions(ctx context.Context) ([]model.DealSubscription, error) {
	return listDealSubscriptions(ctx, t.tx)
}

func (t *sqliteTx) EnqueueNotification(ctx context.Context, n *model.Notification) error {
	if err := validateNotification(n); err != nil {
		return err
	}
	return enqueueNotification(ctx, t.tx, n)
}
