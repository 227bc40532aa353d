package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/paww122/kredit-ledger/internal/service"
)

// Export reads the full content of every table into a TableDump. Rows
// are returned exactly as persisted, sealed blobs included, so a dump
// written back by Import reproduces identical table contents.
func (s *SQLiteStore) Export(ctx context.Context) (*service.TableDump, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.exportTx(ctx, s.db)
}

func (s *SQLiteStore) exportTx(ctx context.Context, q queryable) (*service.TableDump, error) {
	dump := &service.TableDump{}

	if err := s.exportCustomers(ctx, q, dump); err != nil {
		return nil, err
	}
	if err := s.exportCredits(ctx, q, dump); err != nil {
		return nil, err
	}
	if err := s.exportPayments(ctx, q, dump); err != nil {
		return nil, err
	}
	if err := s.exportHolidays(ctx, q, dump); err != nil {
		return nil, err
	}
	if err := s.exportBackupLog(ctx, q, dump); err != nil {
		return nil, err
	}

	return dump, nil
}

func (s *SQLiteStore) exportCustomers(ctx context.Context, q queryable, dump *service.TableDump) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, address, phone, credit_limit, created_at, data_encrypted
		FROM customers
		ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to export customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var row service.CustomerRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Address, &row.Phone,
			&row.CreditLimit, &row.CreatedAt, &row.DataEncrypted); err != nil {
			return fmt.Errorf("failed to scan customer row: %w", err)
		}
		dump.Customers = append(dump.Customers, row)
	}
	return rows.Err()
}

func (s *SQLiteStore) exportCredits(ctx context.Context, q queryable, dump *service.TableDump) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, customer_id, item_name, total_price, daily_amount, total_days,
		       start_date, end_date, status, created_at, data_encrypted
		FROM credits
		ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to export credits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var row service.CreditRow
		if err := rows.Scan(&row.ID, &row.CustomerID, &row.ItemName, &row.TotalPrice,
			&row.DailyAmount, &row.TotalDays, &row.StartDate, &row.EndDate,
			&row.Status, &row.CreatedAt, &row.DataEncrypted); err != nil {
			return fmt.Errorf("failed to scan credit row: %w", err)
		}
		dump.Credits = append(dump.Credits, row)
	}
	return rows.Err()
}

func (s *SQLiteStore) exportPayments(ctx context.Context, q queryable, dump *service.TableDump) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, credit_id, amount, payment_date, days_paid, remaining_days,
		       notes, created_at, data_encrypted
		FROM payments
		ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to export payments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var row service.PaymentRow
		if err := rows.Scan(&row.ID, &row.CreditID, &row.Amount, &row.PaymentDate,
			&row.DaysPaid, &row.RemainingDays, &row.Notes,
			&row.CreatedAt, &row.DataEncrypted); err != nil {
			return fmt.Errorf("failed to scan payment row: %w", err)
		}
		dump.Payments = append(dump.Payments, row)
	}
	return rows.Err()
}

func (s *SQLiteStore) exportHolidays(ctx context.Context, q queryable, dump *service.TableDump) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, holiday_date, created_at
		FROM holidays
		ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to export holidays: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var row service.HolidayRow
		if err := rows.Scan(&row.ID, &row.HolidayDate, &row.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan holiday row: %w", err)
		}
		dump.Holidays = append(dump.Holidays, row)
	}
	return rows.Err()
}

func (s *SQLiteStore) exportBackupLog(ctx context.Context, q queryable, dump *service.TableDump) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, backup_type, backup_path, status, created_at
		FROM backup_log
		ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to export backup log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var row service.BackupRow
		if err := rows.Scan(&row.ID, &row.BackupType, &row.BackupPath, &row.Status, &row.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan backup log row: %w", err)
		}
		dump.BackupLog = append(dump.BackupLog, row)
	}
	return rows.Err()
}

// Import replaces the ledger tables with the dump's contents. Rows are
// written back with their original IDs so foreign keys keep pointing at
// the right parents. The backup_log table is left untouched; restore
// history survives the restore itself.
func (s *SQLiteStore) Import(ctx context.Context, dump *service.TableDump) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.importTx(ctx, s.db, dump)
}

func (s *SQLiteStore) importTx(ctx context.Context, q queryable, dump *service.TableDump) error {
	if dump == nil {
		return fmt.Errorf("%w: dump", ErrNilParameter)
	}

	// Children first so foreign key checks hold mid-delete.
	for _, table := range []string{"payments", "credits", "customers", "holidays"} {
		if _, err := q.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, row := range dump.Customers {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO customers (id, name, address, phone, credit_limit, created_at, data_encrypted)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.Name, row.Address, row.Phone, row.CreditLimit, row.CreatedAt, row.DataEncrypted,
		); err != nil {
			return fmt.Errorf("failed to restore customer %d: %w", row.ID, err)
		}
	}

	for _, row := range dump.Credits {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO credits (id, customer_id, item_name, total_price, daily_amount,
				total_days, start_date, end_date, status, created_at, data_encrypted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.CustomerID, row.ItemName, row.TotalPrice, row.DailyAmount,
			row.TotalDays, row.StartDate, row.EndDate, row.Status, row.CreatedAt, row.DataEncrypted,
		); err != nil {
			return fmt.Errorf("failed to restore credit %d: %w", row.ID, err)
		}
	}

	for _, row := range dump.Payments {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO payments (id, credit_id, amount, payment_date, days_paid,
				remaining_days, notes, created_at, data_encrypted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.CreditID, row.Amount, row.PaymentDate, row.DaysPaid,
			row.RemainingDays, row.Notes, row.CreatedAt, row.DataEncrypted,
		); err != nil {
			return fmt.Errorf("failed to restore payment %d: %w", row.ID, err)
		}
	}

	for _, row := range dump.Holidays {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO holidays (id, holiday_date, created_at)
			VALUES (?, ?, ?)`,
			row.ID, row.HolidayDate, row.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to restore holiday %d: %w", row.ID, err)
		}
	}

	slog.Info("imported table dump",
		"customers", len(dump.Customers),
		"credits", len(dump.Credits),
		"payments", len(dump.Payments),
		"holidays", len(dump.Holidays))
	return nil
}
