// Package testutil provides fixtures for tests that need a real store.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/expense-tracker/internal/model"
	"github.com/Veraticus/expense-tracker/internal/storage"
)

// TestDB is a migrated in-memory database with fixture helpers.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
	seq     int
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustCreateUser creates a user with the given username.
func (db *TestDB) MustCreateUser(username string) *model.User {
	db.t.Helper()

	user := &model.User{Username: username}
	if err := db.Storage.CreateUser(context.Background(), user); err != nil {
		db.t.Fatalf("failed to create user %q: %v", username, err)
	}
	return user
}

// MustCreateCategory creates a category owned by userID.
func (db *TestDB) MustCreateCategory(userID int64, name string) *model.Category {
	db.t.Helper()

	cat, err := db.Storage.CreateCategory(context.Background(), name, &userID)
	if err != nil {
		db.t.Fatalf("failed to create category %q: %v", name, err)
	}
	return cat
}

// MustCreateGoal stores goal and returns it with its ID set.
func (db *TestDB) MustCreateGoal(goal *model.Goal) *model.Goal {
	db.t.Helper()

	if err := db.Storage.CreateGoal(context.Background(), goal); err != nil {
		db.t.Fatalf("failed to create goal: %v", err)
	}
	return goal
}

// MustGetGoal reloads a goal.
func (db *TestDB) MustGetGoal(id int64) *model.Goal {
	db.t.Helper()

	goal, err := db.Storage.GetGoal(context.Background(), id)
	if err != nil {
		db.t.Fatalf("failed to load goal %d: %v", id, err)
	}
	return goal
}

// MustGetUser reloads a user.
func (db *TestDB) MustGetUser(id int64) *model.User {
	db.t.Helper()

	user, err := db.Storage.GetUser(context.Background(), id)
	if err != nil {
		db.t.Fatalf("failed to load user %d: %v", id, err)
	}
	return user
}

// MustSpend records an expense in the ledger.
func (db *TestDB) MustSpend(userID, categoryID int64, amount float64, at time.Time) {
	db.t.Helper()

	db.seq++
	txn := model.Transaction{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		Type:       model.TransactionTypeExpense,
		Date:       at,
		ExternalID: fmt.Sprintf("fixture-%d", db.seq),
	}
	if _, err := db.Storage.SaveTransactions(context.Background(), []model.Transaction{txn}); err != nil {
		db.t.Fatalf("failed to record spend: %v", err)
	}
}

// MustCreateRecurring stores a recurring template.
func (db *TestDB) MustCreateRecurring(rt *model.RecurringTransaction) *model.RecurringTransaction {
	db.t.Helper()

	if err := db.Storage.CreateRecurringTransaction(context.Background(), rt); err != nil {
		db.t.Fatalf("failed to create recurring transaction: %v", err)
	}
	return rt
}

// MustRegisterDevice registers a push token for userID.
func (db *TestDB) MustRegisterDevice(userID int64, token string) {
	db.t.Helper()

	if err := db.Storage.RegisterDeviceToken(context.Background(), userID, token); err != nil {
		db.t.Fatalf("failed to register device %q: %v", token, err)
	}
}

// MustPendingNotifications returns every undispatched notification.
func (db *TestDB) MustPendingNotifications() []model.Notification {
	db.t.Helper()

	pending, err := db.Storage.ListPendingNotifications(context.Background(), 0)
	if err != nil {
		db.t.Fatalf("failed to list notifications: %v", err)
	}
	return pending
}

// MustReschedule stores a new schedule for rt.
func (db *TestDB) MustReschedule(rt *model.RecurringTransaction) {
	db.t.Helper()

	if err := db.Storage.UpdateRecurringSchedule(context.Background(), rt); err != nil {
		db.t.Fatalf("failed to reschedule recurring transaction %d: %v", rt.ID, err)
	}
}
