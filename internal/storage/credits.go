package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paww122/kredit-ledger/internal/common"
	"github.com/paww122/kredit-ledger/internal/model"
)

// CreateCredit inserts a new credit and assigns its ID.
func (s *SQLiteStore) CreateCredit(ctx context.Context, credit *model.Credit) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCredit(credit); err != nil {
		return err
	}
	return s.createCreditTx(ctx, s.db, credit)
}

func (s *SQLiteStore) createCreditTx(ctx context.Context, q queryable, credit *model.Credit) error {
	sealed, err := s.seal(sealedCreditData{
		ItemDetails:   credit.ItemName,
		Notes:         credit.Notes,
		OriginalPrice: credit.TotalPrice,
	})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		INSERT INTO credits (customer_id, item_name, total_price, daily_amount,
			total_days, start_date, end_date, status, created_at, data_encrypted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		credit.CustomerID, credit.ItemName, credit.TotalPrice, credit.DailyAmount,
		credit.TotalDays, credit.StartDate.Format(dateFormat), credit.EndDate.Format(dateFormat),
		credit.Status, now, sealed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert credit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get credit ID: %w", err)
	}

	credit.ID = id
	credit.CreatedAt = now

	slog.Info("created credit",
		"id", id,
		"customer_id", credit.CustomerID,
		"total_price", credit.TotalPrice,
		"daily_amount", credit.DailyAmount,
		"total_days", credit.TotalDays)
	return nil
}

// GetCredit returns a credit by ID with the owning customer's name.
func (s *SQLiteStore) GetCredit(ctx context.Context, id int64) (*model.Credit, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getCreditTx(ctx, s.db, id)
}

func (s *SQLiteStore) getCreditTx(ctx context.Context, q queryable, id int64) (*model.Credit, error) {
	row := q.QueryRowContext(ctx, `
		SELECT c.id, c.customer_id, cust.name, c.item_name, c.total_price, c.daily_amount,
		       c.total_days, c.start_date, c.end_date, c.status, c.created_at, c.data_encrypted
		FROM credits c
		JOIN customers cust ON c.customer_id = cust.id
		WHERE c.id = ?`, id)

	credit, err := s.scanCredit(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: credit %d", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credit: %w", err)
	}

	return credit, nil
}

// ListCredits returns credits with the given status, newest first,
// optionally restricted to one customer (customerID > 0).
func (s *SQLiteStore) ListCredits(ctx context.Context, customerID int64, status model.CreditStatus) ([]model.Credit, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listCreditsTx(ctx, s.db, customerID, status)
}

func (s *SQLiteStore) listCreditsTx(ctx context.Context, q queryable, customerID int64, status model.CreditStatus) ([]model.Credit, error) {
	query := `
		SELECT c.id, c.customer_id, cust.name, c.item_name, c.total_price, c.daily_amount,
		       c.total_days, c.start_date, c.end_date, c.status, c.created_at, c.data_encrypted
		FROM credits c
		JOIN customers cust ON c.customer_id = cust.id
		WHERE c.status = ?`
	args := []any{status}

	if customerID > 0 {
		query += ` AND c.customer_id = ?`
		args = append(args, customerID)
	}
	query += ` ORDER BY c.created_at DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query credits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var credits []model.Credit
	for rows.Next() {
		credit, err := s.scanCredit(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit: %w", err)
		}
		credits = append(credits, *credit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credits: %w", err)
	}

	return credits, nil
}

// UpdateCreditStatus sets a credit's lifecycle status.
func (s *SQLiteStore) UpdateCreditStatus(ctx context.Context, id int64, status model.CreditStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.updateCreditStatusTx(ctx, s.db, id, status)
}

func (s *SQLiteStore) updateCreditStatusTx(ctx context.Context, q queryable, id int64, status model.CreditStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: invalid status %q", common.ErrInvalidInput, status)
	}

	result, err := q.ExecContext(ctx, `UPDATE credits SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update credit status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check credit status update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: credit %d", common.ErrNotFound, id)
	}

	slog.Info("updated credit status", "id", id, "status", status)
	return nil
}

// ShiftActiveCreditEndDates pushes the due date of every active credit
// forward by the given number of days in a single statement, so the
// shift is applied to all active credits or none.
func (s *SQLiteStore) ShiftActiveCreditEndDates(ctx context.Context, days int) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return s.shiftActiveCreditEndDatesTx(ctx, s.db, days)
}

func (s *SQLiteStore) shiftActiveCreditEndDatesTx(ctx context.Context, q queryable, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("%w: shift days must be positive", common.ErrInvalidInput)
	}

	result, err := q.ExecContext(ctx,
		`UPDATE credits SET end_date = date(end_date, ?) WHERE status = ?`,
		fmt.Sprintf("+%d day", days), model.CreditStatusActive,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to shift credit end dates: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count shifted credits: %w", err)
	}

	return affected, nil
}

func (s *SQLiteStore) scanCredit(scan func(...any) error) (*model.Credit, error) {
	var credit model.Credit
	var startDate, endDate, sealed string

	if err := scan(
		&credit.ID, &credit.CustomerID, &credit.CustomerName, &credit.ItemName,
		&credit.TotalPrice, &credit.DailyAmount, &credit.TotalDays,
		&startDate, &endDate, &credit.Status, &credit.CreatedAt, &sealed,
	); err != nil {
		return nil, err
	}

	var err error
	if credit.StartDate, err = time.Parse(dateFormat, startDate); err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	if credit.EndDate, err = time.Parse(dateFormat, endDate); err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}

	var data sealedCreditData
	s.openSealed(sealed, &data)
	credit.Notes = data.Notes

	return &credit, nil
}
