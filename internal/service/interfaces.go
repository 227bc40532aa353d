// Package service defines the interfaces shared between the ledger
// engine, the backup service and the persistence layer.
package service

import (
	"context"
	"time"

	"github.com/paww122/kredit-ledger/internal/model"
)

// PaymentStats is the raw aggregation over a credit's payment history,
// as computed by the store in a single query.
type PaymentStats struct {
	LastPaymentDate time.Time
	TotalDaysPaid   int
	TotalAmountPaid int64
	PaymentCount    int
}

// Store defines the contract for the encrypted persistence layer.
type Store interface {
	// Customer operations
	CreateCustomer(ctx context.Context, customer *model.Customer) error
	GetCustomer(ctx context.Context, id int64) (*model.Customer, error)
	ListCustomers(ctx context.Context, search string) ([]model.Customer, error)

	// Credit operations
	CreateCredit(ctx context.Context, credit *model.Credit) error
	GetCredit(ctx context.Context, id int64) (*model.Credit, error)
	ListCredits(ctx context.Context, customerID int64, status model.CreditStatus) ([]model.Credit, error)
	UpdateCreditStatus(ctx context.Context, id int64, status model.CreditStatus) error
	ShiftActiveCreditEndDates(ctx context.Context, days int) (int64, error)

	// Payment operations (append-only)
	CreatePayment(ctx context.Context, payment *model.Payment) error
	ListPayments(ctx context.Context, creditID int64) ([]model.Payment, error)
	GetPaymentStats(ctx context.Context, creditID int64) (*PaymentStats, error)
	HasPaymentOn(ctx context.Context, creditID int64, date time.Time) (bool, error)

	// Holiday operations
	CreateHoliday(ctx context.Context, date time.Time) (bool, error)
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
	ListHolidays(ctx context.Context) ([]model.Holiday, error)

	// Backup activity log (append-only, never restored)
	AppendBackupLog(ctx context.Context, record *model.BackupRecord) error
	LastBackupRecord(ctx context.Context) (*model.BackupRecord, error)
	ListBackupLog(ctx context.Context, limit int) ([]model.BackupRecord, error)

	// Snapshot pipeline
	Export(ctx context.Context) (*TableDump, error)
	Import(ctx context.Context, dump *TableDump) error

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx represents a store transaction. Every multi-step ledger write runs
// inside one Tx so read-then-write sequences cannot interleave.
type Tx interface {
	Commit() error
	Rollback() error
	Store
}

// TableDump is the raw content of every table, exactly as persisted.
// Rows carry the sealed data_encrypted blobs untouched so that a
// snapshot round trip reproduces identical table contents.
type TableDump struct {
	Customers []CustomerRow `json:"customers"`
	Credits   []CreditRow   `json:"credits"`
	Payments  []PaymentRow  `json:"payments"`
	Holidays  []HolidayRow  `json:"holidays"`
	BackupLog []BackupRow   `json:"backup_log"`
}

// CustomerRow mirrors the customers table.
type CustomerRow struct {
	CreatedAt     time.Time `json:"created_at"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	Phone         string    `json:"phone"`
	DataEncrypted string    `json:"data_encrypted"`
	ID            int64     `json:"id"`
	CreditLimit   int64     `json:"credit_limit"`
}

// CreditRow mirrors the credits table. Dates are stored as YYYY-MM-DD.
type CreditRow struct {
	CreatedAt     time.Time `json:"created_at"`
	ItemName      string    `json:"item_name"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	Status        string    `json:"status"`
	DataEncrypted string    `json:"data_encrypted"`
	ID            int64     `json:"id"`
	CustomerID    int64     `json:"customer_id"`
	TotalPrice    int64     `json:"total_price"`
	DailyAmount   int64     `json:"daily_amount"`
	TotalDays     int       `json:"total_days"`
}

// PaymentRow mirrors the payments table.
type PaymentRow struct {
	CreatedAt     time.Time `json:"created_at"`
	PaymentDate   string    `json:"payment_date"`
	Notes         string    `json:"notes"`
	DataEncrypted string    `json:"data_encrypted"`
	ID            int64     `json:"id"`
	CreditID      int64     `json:"credit_id"`
	Amount        int64     `json:"amount"`
	DaysPaid      int       `json:"days_paid"`
	RemainingDays int       `json:"remaining_days"`
}

// HolidayRow mirrors the holidays table.
type HolidayRow struct {
	CreatedAt   time.Time `json:"created_at"`
	HolidayDate string    `json:"holiday_date"`
	ID          int64     `json:"id"`
}

// BackupRow mirrors the backup_log table.
type BackupRow struct {
	CreatedAt  time.Time `json:"created_at"`
	BackupType string    `json:"backup_type"`
	BackupPath string    `json:"backup_path"`
	Status     string    `json:"status"`
	ID         int64     `json:"id"`
}
