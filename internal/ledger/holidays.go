package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paww122/kredit-ledger/internal/model"
)

// MarkHoliday declares a date a holiday and pushes every active
// credit's due date forward by one day, atomically. Declaring the same
// date again is a no-op: it returns (false, 0, nil) and shifts nothing.
func (e *Engine) MarkHoliday(ctx context.Context, date time.Time) (bool, int64, error) {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return false, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	created, err := tx.CreateHoliday(ctx, dateOnly(date))
	if err != nil {
		return false, 0, err
	}
	if !created {
		return false, 0, nil
	}

	shifted, err := tx.ShiftActiveCreditEndDates(ctx, 1)
	if err != nil {
		return false, 0, err
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("failed to commit holiday: %w", err)
	}

	slog.Info("marked holiday", "date", dateOnly(date).Format("2006-01-02"), "credits_shifted", shifted)
	return true, shifted, nil
}

// IsHoliday reports whether the date is a declared holiday.
func (e *Engine) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	return e.store.IsHoliday(ctx, dateOnly(date))
}

// ListHolidays returns all declared holidays, newest first.
func (e *Engine) ListHolidays(ctx context.Context) ([]model.Holiday, error) {
	return e.store.ListHolidays(ctx)
}
