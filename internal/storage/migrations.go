package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 5

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial ledger schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS users (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					username TEXT UNIQUE NOT NULL,
					first_name TEXT NOT NULL DEFAULT '',
					last_name TEXT NOT NULL DEFAULT '',
					xp INTEGER NOT NULL DEFAULT 0,
					level INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					user_id INTEGER REFERENCES users(id),
					color TEXT NOT NULL DEFAULT '',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_categories_user ON categories(user_id)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL REFERENCES users(id),
					category_id INTEGER NOT NULL REFERENCES categories(id),
					amount REAL NOT NULL,
					transaction_type TEXT NOT NULL,
					note TEXT NOT NULL DEFAULT '',
					vendor TEXT NOT NULL DEFAULT '',
					date DATETIME NOT NULL,
					external_id TEXT NOT NULL,
					recurring_id INTEGER,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (user_id, external_id)
				)`,
				`CREATE INDEX idx_transactions_user_date ON transactions(user_id, date)`,
				`CREATE INDEX idx_transactions_user_category_date ON transactions(user_id, category_id, date)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Add spending goals",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS goals (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL REFERENCES users(id),
					category_id INTEGER REFERENCES categories(id),
					kind TEXT NOT NULL CHECK (kind IN ('amount', 'percentage')),
					limit_value REAL NOT NULL CHECK (limit_value > 0),
					start_date DATETIME NOT NULL,
					end_date DATETIME NOT NULL,
					on_track BOOLEAN NOT NULL DEFAULT 1,
					progress REAL NOT NULL DEFAULT 0,
					mid_notified BOOLEAN NOT NULL DEFAULT 0,
					post_notified BOOLEAN NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					CHECK (kind = 'amount' OR category_id IS NOT NULL)
				)`,
				`CREATE INDEX idx_goals_user_category ON goals(user_id, category_id)`,
				`CREATE INDEX idx_goals_pending ON goals(post_notified, mid_notified)`,

				// Notified flags are one-way.
				`CREATE TRIGGER goals_notified_flags_monotonic
				BEFORE UPDATE ON goals
				FOR EACH ROW
				WHEN (OLD.mid_notified = 1 AND NEW.mid_notified = 0)
					OR (OLD.post_notified = 1 AND NEW.post_notified = 0)
				BEGIN
					SELECT RAISE(ABORT, 'goal notified flags cannot be cleared');
				END`,
			)
		},
	},
	{
		Version:     3,
		Description: "Add recurring transaction templates",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS recurring_transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL REFERENCES users(id),
					category_id INTEGER NOT NULL REFERENCES categories(id),
					amount REAL NOT NULL DEFAULT 0,
					note TEXT NOT NULL DEFAULT '',
					start_date DATETIME NOT NULL,
					end_date DATETIME,
					period_days INTEGER NOT NULL CHECK (period_days > 0),
					last_notified_occurrence INTEGER NOT NULL DEFAULT -1,
					last_notified_payment_date DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_recurring_user ON recurring_transactions(user_id)`,
			)
		},
	},
	{
		Version:     4,
		Description: "Add device tokens and notification outbox",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS device_tokens (
					token TEXT PRIMARY KEY,
					user_id INTEGER NOT NULL REFERENCES users(id),
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_device_tokens_user ON device_tokens(user_id)`,

				`CREATE TABLE IF NOT EXISTS notifications (
					id TEXT PRIMARY KEY,
					user_id INTEGER NOT NULL REFERENCES users(id),
					kind TEXT NOT NULL,
					title TEXT NOT NULL,
					body TEXT NOT NULL,
					goal_id INTEGER REFERENCES goals(id),
					created_at DATETIME NOT NULL,
					dispatched_at DATETIME,
					delivered INTEGER NOT NULL DEFAULT 0,
					failed INTEGER NOT NULL DEFAULT 0
				)`,
				`CREATE INDEX idx_notifications_pending ON notifications(dispatched_at, created_at)`,
				`CREATE INDEX idx_notifications_goal ON notifications(goal_id, kind)`,
			)
		},
	},
	{
		Version:     5,
		Description: "Add deals, votes and location subscriptions",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS deals (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL REFERENCES users(id),
					name TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					vendor TEXT NOT NULL,
					address TEXT NOT NULL DEFAULT '',
					price REAL NOT NULL,
					latitude REAL NOT NULL,
					longitude REAL NOT NULL,
					date DATETIME NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS deal_votes (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					deal_id INTEGER NOT NULL REFERENCES deals(id),
					user_id INTEGER NOT NULL REFERENCES users(id),
					vote INTEGER NOT NULL CHECK (vote IN (-1, 1)),
					UNIQUE (deal_id, user_id)
				)`,
				`CREATE TABLE IF NOT EXISTS deal_location_subscriptions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id INTEGER NOT NULL REFERENCES users(id),
					latitude REAL NOT NULL,
					longitude REAL NOT NULL
				)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// SchemaVersion returns the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
