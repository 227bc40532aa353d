package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paww122/kredit-ledger/internal/common"
	"github.com/paww122/kredit-ledger/internal/crypto"
	"github.com/paww122/kredit-ledger/internal/model"
	"github.com/paww122/kredit-ledger/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// dateFormat is how DATE-valued columns are stored. Plain YYYY-MM-DD
// text keeps SQLite's date() functions applicable to them.
const dateFormat = "2006-01-02"

// queryable abstracts *sql.DB and *sql.Tx so the same query helpers
// serve both direct and transactional calls.
type queryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements the service.Store interface using SQLite.
// Sensitive free-text fields are sealed with the given cipher before
// they touch disk.
type SQLiteStore struct {
	db     *sql.DB
	cipher *crypto.Cipher
	dbPath string
}

// NewSQLiteStore opens (or creates) the store file at dbPath. The
// cipher seals sensitive fields; it must be built from the operator's
// derived key.
func NewSQLiteStore(dbPath string, cipher *crypto.Cipher) (*SQLiteStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}
	if cipher == nil {
		return nil, fmt.Errorf("%w: cipher", ErrNilParameter)
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", common.ErrStorageFailure, err)
	}

	// SQLite is a single-writer store; one connection serializes every
	// ledger transaction without an in-process lock table.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: failed to ping database: %v", common.ErrStorageFailure, err)
	}

	return &SQLiteStore{
		db:     db,
		cipher: cipher,
		dbPath: dbPath,
	}, nil
}

// Path returns the location of the store file.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStore) BeginTx(ctx context.Context) (service.Tx, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTx{
		tx:    tx,
		store: s,
	}, nil
}

// sqliteTx wraps sql.Tx to implement service.Tx.
type sqliteTx struct {
	tx    *sql.Tx
	store *SQLiteStore
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// Store methods delegate to the shared helpers with the transaction as
// the queryable.

func (t *sqliteTx) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCustomer(customer); err != nil {
		return err
	}
	return t.store.createCustomerTx(ctx, t.tx, customer)
}

func (t *sqliteTx) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.store.getCustomerTx(ctx, t.tx, id)
}

func (t *sqliteTx) ListCustomers(ctx context.Context, search string) ([]model.Customer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.store.listCustomersTx(ctx, t.tx, search)
}

func (t *sqliteTx) CreateCredit(ctx context.Context, credit *model.Credit) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCredit(credit); err != nil {
		return err
	}
	return t.store.createCreditTx(ctx, t.tx, credit)
}

func (t *sqliteTx) GetCredit(ctx context.Context, id int64) (*model.Credit, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.store.getCreditTx(ctx, t.tx, id)
}

func (t *sqliteTx) ListCredits(ctx context.Context, customerID int64, status model.CreditStatus) ([]model.Credit, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.store.listCreditsTx(ctx, t.tx, customerID, status)
}

func (t *sqliteTx) UpdateCreditStatus(ctx context.Context, id int64, status model.CreditStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.store.updateCreditStatusTx(ctx, t.tx, id, status)
}

func (t *sqliteTx) ShiftActiveCreditEndDates(ctx context.Context, days int) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return t.store.shiftActiveCreditEndDatesTx(ctx, t.tx, days)
}

func (t *sqliteTx) CreatePayment(ctx context.Context, payment *model.Payment) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePayment(payment); err != nil {
		return err
	}
	return t.store.createPaymentTx(ctx, t.tx, payment)
}

func (t *sqliteTx) ListPayments(ctx context.Context, creditID int64) ([]model.Payment, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.store.listPaymentsTx(ctx, t.tx, creditID)
}

func (t *sqliteTx) GetPaymentStats(ctx context.Context, creditID int64) (*service.PaymentStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.store.getPaymentStatsTx(ctx, t.tx, creditID)
}

func (t *sqliteTx) HasPaymentOn(ctx context.Context, creditID int64, date time.Time) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	return t.store.hasPaymentOnTx(ctx, t.tx, creditID, date)
}

func (t *sqliteTx) CreateHoliday(ctx context.Context, date time.Time) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	return t.store.createHolidayTx(ctx, t.tx, date)
}

func (t *sqliteTx) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	return t.store.isHolidayTx(ctx, t.tx, date)
}

func (t *sqliteTx) ListHolidays(ctx context.Context) ([]model.Holiday, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.store.listHolidaysTx(ctx, t.tx)
}

func (t *sqliteTx) AppendBackupLog(ctx context.Context, record *model.BackupRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.store.appendBackupLogTx(ctx, t.tx, record)
}

func (t *sqliteTx) LastBackupRecord(ctx context.Context) (*model.BackupRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.store.lastBackupRecordTx(ctx, t.tx)
}

func (t *sqliteTx) ListBackupLog(ctx context.Context, limit int) ([]model.BackupRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.store.listBackupLogTx(ctx, t.tx, limit)
}

func (t *sqliteTx) Export(ctx context.Context) (*service.TableDump, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return t.store.exportTx(ctx, t.tx)
}

func (t *sqliteTx) Import(ctx context.Context, dump *service.TableDump) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return t.store.importTx(ctx, t.tx, dump)
}

func (t *sqliteTx) Migrate(_ context.Context) error {
	// Migrations should not be run within a transaction
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTx) BeginTx(_ context.Context) (service.Tx, error) {
	// Nested transactions not supported
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTx) Close() error {
	// Transactions should be committed or rolled back, not closed
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}
