package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/paww122/kredit-ledger/internal/model"
	"github.com/paww122/kredit-ledger/internal/service"
)

// CreatePayment appends a payment row. Payments are never updated or
// deleted after creation.
func (s *SQLiteStore) CreatePayment(ctx context.Context, payment *model.Payment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePayment(payment); err != nil {
		return err
	}
	return s.createPaymentTx(ctx, s.db, payment)
}

func (s *SQLiteStore) createPaymentTx(ctx context.Context, q queryable, payment *model.Payment) error {
	sealed, err := s.seal(sealedPaymentData{Notes: payment.Notes})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		INSERT INTO payments (credit_id, amount, payment_date, days_paid, remaining_days, notes, created_at, data_encrypted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.CreditID, payment.Amount, payment.PaymentDate.Format(dateFormat),
		payment.DaysPaid, payment.RemainingDays, payment.Notes, now, sealed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get payment ID: %w", err)
	}

	payment.ID = id
	payment.CreatedAt = now

	slog.Info("recorded payment",
		"id", id,
		"credit_id", payment.CreditID,
		"amount", payment.Amount,
		"days_paid", payment.DaysPaid,
		"remaining_days", payment.RemainingDays)
	return nil
}

// ListPayments returns a credit's payments in posting order.
func (s *SQLiteStore) ListPayments(ctx context.Context, creditID int64) ([]model.Payment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listPaymentsTx(ctx, s.db, creditID)
}

func (s *SQLiteStore) listPaymentsTx(ctx context.Context, q queryable, creditID int64) ([]model.Payment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, credit_id, amount, payment_date, days_paid, remaining_days, notes, created_at, data_encrypted
		FROM payments
		WHERE credit_id = ?
		ORDER BY id`, creditID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var payments []model.Payment
	for rows.Next() {
		var payment model.Payment
		var paymentDate, sealed string

		if err := rows.Scan(
			&payment.ID, &payment.CreditID, &payment.Amount, &paymentDate,
			&payment.DaysPaid, &payment.RemainingDays, &payment.Notes,
			&payment.CreatedAt, &sealed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}

		if payment.PaymentDate, err = time.Parse(dateFormat, paymentDate); err != nil {
			return nil, fmt.Errorf("invalid payment date %q: %w", paymentDate, err)
		}

		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}

// GetPaymentStats aggregates a credit's full payment history in one
// query. Summaries are always derived from this, never cached.
func (s *SQLiteStore) GetPaymentStats(ctx context.Context, creditID int64) (*service.PaymentStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getPaymentStatsTx(ctx, s.db, creditID)
}

func (s *SQLiteStore) getPaymentStatsTx(ctx context.Context, q queryable, creditID int64) (*service.PaymentStats, error) {
	var stats service.PaymentStats
	var lastDate sql.NullString

	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(days_paid), 0),
		       COALESCE(SUM(amount), 0),
		       COUNT(*),
		       MAX(payment_date)
		FROM payments
		WHERE credit_id = ?`, creditID).Scan(
		&stats.TotalDaysPaid, &stats.TotalAmountPaid, &stats.PaymentCount, &lastDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate payments: %w", err)
	}

	if lastDate.Valid {
		if stats.LastPaymentDate, err = time.Parse(dateFormat, lastDate.String); err != nil {
			return nil, fmt.Errorf("invalid last payment date %q: %w", lastDate.String, err)
		}
	}

	return &stats, nil
}

// HasPaymentOn reports whether the credit has at least one payment
// dated the given day.
func (s *SQLiteStore) HasPaymentOn(ctx context.Context, creditID int64, date time.Time) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	return s.hasPaymentOnTx(ctx, s.db, creditID, date)
}

func (s *SQLiteStore) hasPaymentOnTx(ctx context.Context, q queryable, creditID int64, date time.Time) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE credit_id = ? AND payment_date = ?`,
		creditID, date.Format(dateFormat),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check payment date: %w", err)
	}

	return count > 0, nil
}
