package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS customers (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					address TEXT NOT NULL DEFAULT '',
					phone TEXT NOT NULL DEFAULT '',
					credit_limit INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMP NOT NULL,
					data_encrypted TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE INDEX idx_customers_name ON customers(name)`,

				`CREATE TABLE IF NOT EXISTS credits (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					customer_id INTEGER NOT NULL,
					item_name TEXT NOT NULL,
					total_price INTEGER NOT NULL,
					daily_amount INTEGER NOT NULL,
					total_days INTEGER NOT NULL,
					start_date TEXT NOT NULL,
					end_date TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'active',
					created_at TIMESTAMP NOT NULL,
					data_encrypted TEXT NOT NULL DEFAULT '',
					FOREIGN KEY (customer_id) REFERENCES customers(id)
				)`,
				`CREATE INDEX idx_credits_customer ON credits(customer_id)`,
				`CREATE INDEX idx_credits_status ON credits(status)`,

				`CREATE TABLE IF NOT EXISTS payments (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					credit_id INTEGER NOT NULL,
					amount INTEGER NOT NULL,
					payment_date TEXT NOT NULL,
					days_paid INTEGER NOT NULL DEFAULT 1,
					remaining_days INTEGER NOT NULL DEFAULT 0,
					notes TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMP NOT NULL,
					data_encrypted TEXT NOT NULL DEFAULT '',
					FOREIGN KEY (credit_id) REFERENCES credits(id)
				)`,
				`CREATE INDEX idx_payments_credit ON payments(credit_id)`,

				`CREATE TABLE IF NOT EXISTS holidays (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					holiday_date TEXT NOT NULL UNIQUE,
					created_at TIMESTAMP NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS backup_log (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					backup_type TEXT NOT NULL,
					backup_path TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Index payments by credit and date for today-collection lookups",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_payments_credit_date ON payments(credit_id, payment_date)`)
			return err
		},
	},
}

// Migrate brings the schema up to ExpectedSchemaVersion. It is
// idempotent and safe to run on every startup.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if current > ExpectedSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than expected %d", current, ExpectedSchemaVersion)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Info("applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}
