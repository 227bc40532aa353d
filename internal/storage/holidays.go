package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/paww122/kredit-ledger/internal/model"
)

// CreateHoliday declares a date as a holiday. It returns false without
// error when the date is already declared, so the caller's bulk side
// effect cannot run twice for the same date.
func (s *SQLiteStore) CreateHoliday(ctx context.Context, date time.Time) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	return s.createHolidayTx(ctx, s.db, date)
}

func (s *SQLiteStore) createHolidayTx(ctx context.Context, q queryable, date time.Time) (bool, error) {
	_, err := q.ExecContext(ctx,
		`INSERT INTO holidays (holiday_date, created_at) VALUES (?, ?)`,
		date.Format(dateFormat), time.Now().UTC(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert holiday: %w", err)
	}

	slog.Info("declared holiday", "date", date.Format(dateFormat))
	return true, nil
}

// IsHoliday reports whether the date is declared a holiday.
func (s *SQLiteStore) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	return s.isHolidayTx(ctx, s.db, date)
}

func (s *SQLiteStore) isHolidayTx(ctx context.Context, q queryable, date time.Time) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM holidays WHERE holiday_date = ?`,
		date.Format(dateFormat),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check holiday: %w", err)
	}

	return count > 0, nil
}

// ListHolidays returns all declared holidays, newest first.
func (s *SQLiteStore) ListHolidays(ctx context.Context) ([]model.Holiday, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listHolidaysTx(ctx, s.db)
}

func (s *SQLiteStore) listHolidaysTx(ctx context.Context, q queryable) ([]model.Holiday, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, holiday_date, created_at
		FROM holidays
		ORDER BY holiday_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var holidays []model.Holiday
	for rows.Next() {
		var holiday model.Holiday
		var date string

		if err := rows.Scan(&holiday.ID, &date, &holiday.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}

		if holiday.Date, err = time.Parse(dateFormat, date); err != nil {
			return nil, fmt.Errorf("invalid holiday date %q: %w", date, err)
		}

		holidays = append(holidays, holiday)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holidays: %w", err)
	}

	return holidays, nil
}
