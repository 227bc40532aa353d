package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paww122/kredit-ledger/internal/common"
	"github.com/paww122/kredit-ledger/internal/crypto"
	"github.com/paww122/kredit-ledger/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	cipher, err := crypto.NewCipher(crypto.DeriveKey("test-passphrase"))
	require.NoError(t, err)

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), cipher)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func newTestCustomer(t *testing.T, store *SQLiteStore, name string) *model.Customer {
	t.Helper()

	customer := &model.Customer{
		Name:    name,
		Address: "Jl. Pasar Baru 12",
		Phone:   "0812345678",
		Notes:   "langganan lama",
	}
	require.NoError(t, store.CreateCustomer(context.Background(), customer))
	return customer
}

func newTestCredit(t *testing.T, store *SQLiteStore, customerID int64) *model.Credit {
	t.Helper()

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	credit := &model.Credit{
		CustomerID:  customerID,
		ItemName:    "Kompor Gas",
		Notes:       "garansi 1 tahun",
		TotalPrice:  600000,
		DailyAmount: 10000,
		TotalDays:   60,
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, 60),
		Status:      model.CreditStatusActive,
	}
	require.NoError(t, store.CreateCredit(context.Background(), credit))
	return credit
}

func TestSQLiteStore_CustomerRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := newTestCustomer(t, store, "Ibu Siti")
	assert.Positive(t, created.ID)

	got, err := store.GetCustomer(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ibu Siti", got.Name)
	assert.Equal(t, "Jl. Pasar Baru 12", got.Address)
	assert.Equal(t, "0812345678", got.Phone)
	assert.Equal(t, "langganan lama", got.Notes)
}

func TestSQLiteStore_GetCustomerNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetCustomer(context.Background(), 999)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStore_CreateCustomerValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.CreateCustomer(ctx, &model.Customer{Name: "   "})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	err = store.CreateCustomer(ctx, &model.Customer{Name: "Budi", CreditLimit: -1})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestSQLiteStore_ListCustomersSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	newTestCustomer(t, store, "Ibu Siti")
	newTestCustomer(t, store, "Pak Budi")

	all, err := store.ListCustomers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	// Ordered by name.
	assert.Equal(t, "Ibu Siti", all[0].Name)

	matched, err := store.ListCustomers(ctx, "siti")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "Ibu Siti", matched[0].Name)

	byPhone, err := store.ListCustomers(ctx, "0812")
	require.NoError(t, err)
	assert.Len(t, byPhone, 2)
}

func TestSQLiteStore_CreditRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	customer := newTestCustomer(t, store, "Ibu Siti")
	created := newTestCredit(t, store, customer.ID)

	got, err := store.GetCredit(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kompor Gas", got.ItemName)
	assert.Equal(t, "Ibu Siti", got.CustomerName)
	assert.Equal(t, "garansi 1 tahun", got.Notes)
	assert.Equal(t, int64(600000), got.TotalPrice)
	assert.Equal(t, model.CreditStatusActive, got.Status)
	assert.Equal(t, "2025-08-01", got.StartDate.Format("2006-01-02"))
	assert.Equal(t, "2025-09-30", got.EndDate.Format("2006-01-02"))
}

func TestSQLiteStore_ListCreditsFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	siti := newTestCustomer(t, store, "Ibu Siti")
	budi := newTestCustomer(t, store, "Pak Budi")
	first := newTestCredit(t, store, siti.ID)
	newTestCredit(t, store, budi.ID)

	require.NoError(t, store.UpdateCreditStatus(ctx, first.ID, model.CreditStatusCompleted))

	active, err := store.ListCredits(ctx, 0, model.CreditStatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, budi.ID, active[0].CustomerID)

	completed, err := store.ListCredits(ctx, siti.ID, model.CreditStatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, first.ID, completed[0].ID)

	none, err := store.ListCredits(ctx, budi.ID, model.CreditStatusCompleted)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_UpdateCreditStatusNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateCreditStatus(context.Background(), 999, model.CreditStatusCancelled)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStore_ShiftActiveCreditEndDates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	customer := newTestCustomer(t, store, "Ibu Siti")
	active := newTestCredit(t, store, customer.ID)
	done := newTestCredit(t, store, customer.ID)
	require.NoError(t, store.UpdateCreditStatus(ctx, done.ID, model.CreditStatusCompleted))

	shifted, err := store.ShiftActiveCreditEndDates(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), shifted)

	got, err := store.GetCredit(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-10-01", got.EndDate.Format("2006-01-02"))

	// The completed credit keeps its original due date.
	got, err = store.GetCredit(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-09-30", got.EndDate.Format("2006-01-02"))
}

func TestSQLiteStore_ShiftRejectsNonPositiveDays(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ShiftActiveCreditEndDates(context.Background(), 0)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestSQLiteStore_PaymentStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	customer := newTestCustomer(t, store, "Ibu Siti")
	credit := newTestCredit(t, store, customer.ID)

	day1 := time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 8, 3, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.CreatePayment(ctx, &model.Payment{
		CreditID: credit.ID, Amount: 10000, PaymentDate: day1, DaysPaid: 1, RemainingDays: 59,
	}))
	require.NoError(t, store.CreatePayment(ctx, &model.Payment{
		CreditID: credit.ID, Amount: 30000, PaymentDate: day2, DaysPaid: 3, RemainingDays: 56,
	}))

	stats, err := store.GetPaymentStats(ctx, credit.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalDaysPaid)
	assert.Equal(t, int64(40000), stats.TotalAmountPaid)
	assert.Equal(t, 2, stats.PaymentCount)
	assert.Equal(t, "2025-08-03", stats.LastPaymentDate.Format("2006-01-02"))

	paid, err := store.HasPaymentOn(ctx, credit.ID, day2)
	require.NoError(t, err)
	assert.True(t, paid)

	paid, err = store.HasPaymentOn(ctx, credit.ID, day2.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, paid)
}

func TestSQLiteStore_PaymentStatsEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	customer := newTestCustomer(t, store, "Ibu Siti")
	credit := newTestCredit(t, store, customer.ID)

	stats, err := store.GetPaymentStats(ctx, credit.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalDaysPaid)
	assert.Zero(t, stats.TotalAmountPaid)
	assert.Zero(t, stats.PaymentCount)
	assert.True(t, stats.LastPaymentDate.IsZero())
}

func TestSQLiteStore_HolidayDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	date := time.Date(2025, 8, 17, 0, 0, 0, 0, time.UTC)

	created, err := store.CreateHoliday(ctx, date)
	require.NoError(t, err)
	assert.True(t, created)

	// Second declaration of the same date is a quiet no-op.
	created, err = store.CreateHoliday(ctx, date)
	require.NoError(t, err)
	assert.False(t, created)

	isHoliday, err := store.IsHoliday(ctx, date)
	require.NoError(t, err)
	assert.True(t, isHoliday)

	holidays, err := store.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Len(t, holidays, 1)
}

func TestSQLiteStore_BackupLog(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	last, err := store.LastBackupRecord(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	require.NoError(t, store.AppendBackupLog(ctx, &model.BackupRecord{
		Type: model.BackupTypeManual, Path: "/tmp/a.enc", Status: model.BackupStatusSuccess,
	}))
	require.NoError(t, store.AppendBackupLog(ctx, &model.BackupRecord{
		Type: model.BackupTypeAuto, Status: model.BackupStatusFailed,
	}))

	last, err = store.LastBackupRecord(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, model.BackupTypeAuto, last.Type)
	assert.Equal(t, model.BackupStatusFailed, last.Status)

	records, err := store.ListBackupLog(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.BackupTypeAuto, records[0].Type)
}

func TestSQLiteStore_ExportImportRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	customer := newTestCustomer(t, store, "Ibu Siti")
	credit := newTestCredit(t, store, customer.ID)
	require.NoError(t, store.CreatePayment(ctx, &model.Payment{
		CreditID: credit.ID, Amount: 10000,
		PaymentDate: time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC),
		DaysPaid:    1, RemainingDays: 59,
	}))
	_, err := store.CreateHoliday(ctx, time.Date(2025, 8, 17, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, store.AppendBackupLog(ctx, &model.BackupRecord{
		Type: model.BackupTypeManual, Path: "/tmp/a.enc", Status: model.BackupStatusSuccess,
	}))

	dump, err := store.Export(ctx)
	require.NoError(t, err)
	require.Len(t, dump.Customers, 1)
	require.Len(t, dump.Credits, 1)
	require.Len(t, dump.Payments, 1)
	require.Len(t, dump.Holidays, 1)
	require.Len(t, dump.BackupLog, 1)

	// Mutate the store, then import the dump back.
	newTestCustomer(t, store, "Pak Budi")
	require.NoError(t, store.AppendBackupLog(ctx, &model.BackupRecord{
		Type: model.BackupTypeRestore, Status: model.BackupStatusSuccess,
	}))

	require.NoError(t, store.Import(ctx, dump))

	restored, err := store.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, dump.Customers, restored.Customers)
	assert.Equal(t, dump.Credits, restored.Credits)
	assert.Equal(t, dump.Payments, restored.Payments)
	assert.Equal(t, dump.Holidays, restored.Holidays)

	// The backup log is never restored; both entries survive.
	assert.Len(t, restored.BackupLog, 2)

	// IDs are preserved, so the old references still resolve.
	got, err := store.GetCredit(ctx, credit.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ibu Siti", got.CustomerName)
	assert.Equal(t, "langganan lama", func() string {
		c, gerr := store.GetCustomer(ctx, customer.ID)
		require.NoError(t, gerr)
		return c.Notes
	}())
}

func TestSQLiteStore_DegradedReadWrongKey(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	right, err := crypto.NewCipher(crypto.DeriveKey("right-passphrase"))
	require.NoError(t, err)

	store, err := NewSQLiteStore(dbPath, right)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))

	customer := newTestCustomer(t, store, "Ibu Siti")
	credit := newTestCredit(t, store, customer.ID)
	require.NoError(t, store.Close())

	// Reopen the same file under a different passphrase. Sealed fields
	// come back empty; the rows themselves stay readable.
	wrong, err := crypto.NewCipher(crypto.DeriveKey("wrong-passphrase"))
	require.NoError(t, err)

	store, err = NewSQLiteStore(dbPath, wrong)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	got, err := store.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ibu Siti", got.Name)
	assert.Equal(t, "Jl. Pasar Baru 12", got.Address)
	assert.Equal(t, "0812345678", got.Phone)
	assert.Empty(t, got.Notes)

	customers, err := store.ListCustomers(ctx, "siti")
	require.NoError(t, err)
	assert.Len(t, customers, 1)

	gotCredit, err := store.GetCredit(ctx, credit.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kompor Gas", gotCredit.ItemName)
	assert.Equal(t, int64(600000), gotCredit.TotalPrice)
	assert.Empty(t, gotCredit.Notes)
}

func TestSQLiteStore_TransactionRollback(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	customer := &model.Customer{Name: "Ibu Siti"}
	require.NoError(t, tx.CreateCustomer(ctx, customer))
	require.NoError(t, tx.Rollback())

	_, err = store.GetCustomer(ctx, customer.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStore_TransactionGuards(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	assert.Error(t, tx.Migrate(ctx))
	_, err = tx.BeginTx(ctx)
	assert.Error(t, err)
	assert.Error(t, tx.Close())
}
