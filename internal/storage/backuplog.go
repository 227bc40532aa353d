package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/paww122/kredit-ledger/internal/model"
)

// AppendBackupLog records a backup or restore attempt. The log is
// append-only and excluded from snapshot restores.
func (s *SQLiteStore) AppendBackupLog(ctx context.Context, record *model.BackupRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.appendBackupLogTx(ctx, s.db, record)
}

func (s *SQLiteStore) appendBackupLogTx(ctx context.Context, q queryable, record *model.BackupRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if err := validateString(record.Type, "record.Type"); err != nil {
		return err
	}
	if err := validateString(record.Status, "record.Status"); err != nil {
		return err
	}

	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		INSERT INTO backup_log (backup_type, backup_path, status, created_at)
		VALUES (?, ?, ?, ?)`,
		record.Type, record.Path, record.Status, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert backup log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get backup log ID: %w", err)
	}

	record.ID = id
	record.CreatedAt = now
	return nil
}

// LastBackupRecord returns the most recent backup log entry, or nil
// when the log is empty.
func (s *SQLiteStore) LastBackupRecord(ctx context.Context) (*model.BackupRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.lastBackupRecordTx(ctx, s.db)
}

func (s *SQLiteStore) lastBackupRecordTx(ctx context.Context, q queryable) (*model.BackupRecord, error) {
	var record model.BackupRecord
	err := q.QueryRowContext(ctx, `
		SELECT id, backup_type, backup_path, status, created_at
		FROM backup_log
		ORDER BY id DESC
		LIMIT 1`).Scan(
		&record.ID, &record.Type, &record.Path, &record.Status, &record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query backup log: %w", err)
	}

	return &record, nil
}

// ListBackupLog returns the most recent backup log entries, newest
// first, capped at limit (or all when limit <= 0).
func (s *SQLiteStore) ListBackupLog(ctx context.Context, limit int) ([]model.BackupRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listBackupLogTx(ctx, s.db, limit)
}

func (s *SQLiteStore) listBackupLogTx(ctx context.Context, q queryable, limit int) ([]model.BackupRecord, error) {
	query := `
		SELECT id, backup_type, backup_path, status, created_at
		FROM backup_log
		ORDER BY id DESC`
	args := []any{}

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query backup log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.BackupRecord
	for rows.Next() {
		var record model.BackupRecord
		if err := rows.Scan(&record.ID, &record.Type, &record.Path, &record.Status, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan backup log entry: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating backup log: %w", err)
	}

	return records, nil
}
