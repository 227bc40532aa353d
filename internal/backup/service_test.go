package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paww122/kredit-ledger/internal/crypto"
	"github.com/paww122/kredit-ledger/internal/model"
	"github.com/paww122/kredit-ledger/internal/storage"
)

func newTestService(t *testing.T, passphrase string) (*Service, *storage.SQLiteStore) {
	t.Helper()

	cipher, err := crypto.NewCipher(crypto.DeriveKey(passphrase))
	require.NoError(t, err)

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), cipher)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	svc, err := NewService(store, cipher, filepath.Join(t.TempDir(), "backups"), 30*time.Minute)
	require.NoError(t, err)
	return svc, store
}

func seedLedger(t *testing.T, store *storage.SQLiteStore) *model.Credit {
	t.Helper()
	ctx := context.Background()

	customer := &model.Customer{Name: "Ibu Siti", Phone: "0812345678", Notes: "langganan"}
	require.NoError(t, store.CreateCustomer(ctx, customer))

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	credit := &model.Credit{
		CustomerID:  customer.ID,
		ItemName:    "Kulkas",
		TotalPrice:  900000,
		DailyAmount: 15000,
		TotalDays:   60,
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, 60),
		Status:      model.CreditStatusActive,
	}
	require.NoError(t, store.CreateCredit(ctx, credit))

	require.NoError(t, store.CreatePayment(ctx, &model.Payment{
		CreditID: credit.ID, Amount: 15000,
		PaymentDate: start.AddDate(0, 0, 1),
		DaysPaid:    1, RemainingDays: 59,
	}))
	return credit
}

func TestService_SnapshotRoundTrip(t *testing.T) {
	svc, store := newTestService(t, "test-passphrase")
	ctx := context.Background()

	credit := seedLedger(t, store)
	before, err := store.Export(ctx)
	require.NoError(t, err)

	path, err := svc.CreateSnapshot(ctx, model.BackupTypeManual)
	require.NoError(t, err)
	assert.FileExists(t, path)

	// A snapshot on disk is never cleartext.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Ibu Siti")
	assert.NotContains(t, string(raw), "Kulkas")

	// Wreck the ledger, then restore.
	other := &model.Customer{Name: "Pak Budi"}
	require.NoError(t, store.CreateCustomer(ctx, other))

	require.NoError(t, svc.RestoreSnapshot(ctx, path))

	after, err := store.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Customers, after.Customers)
	assert.Equal(t, before.Credits, after.Credits)
	assert.Equal(t, before.Payments, after.Payments)
	assert.Equal(t, before.Holidays, after.Holidays)

	got, err := store.GetCredit(ctx, credit.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kulkas", got.ItemName)
}

func TestService_RestoreKeepsBackupLog(t *testing.T) {
	svc, store := newTestService(t, "test-passphrase")
	ctx := context.Background()

	seedLedger(t, store)
	path, err := svc.CreateSnapshot(ctx, model.BackupTypeManual)
	require.NoError(t, err)

	require.NoError(t, svc.RestoreSnapshot(ctx, path))

	// Snapshot creation and the restore itself are both on record;
	// the restore did not overwrite the log with the snapshot's copy.
	records, err := store.ListBackupLog(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, model.BackupTypeRestore, records[0].Type)
	assert.Equal(t, model.BackupTypeManual, records[1].Type)
}

func TestService_RestoreWrongPassphrase(t *testing.T) {
	svc, store := newTestService(t, "right-passphrase")
	ctx := context.Background()

	seedLedger(t, store)
	path, err := svc.CreateSnapshot(ctx, model.BackupTypeManual)
	require.NoError(t, err)

	wrongCipher, err := crypto.NewCipher(crypto.DeriveKey("wrong-passphrase"))
	require.NoError(t, err)
	wrongSvc, err := NewService(store, wrongCipher, svc.dir, 30*time.Minute)
	require.NoError(t, err)

	err = wrongSvc.RestoreSnapshot(ctx, path)
	require.Error(t, err)

	// Nothing was touched.
	customers, err := store.ListCustomers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, customers, 1)
}

func TestService_RestoreCorruptedSnapshot(t *testing.T) {
	svc, store := newTestService(t, "test-passphrase")
	ctx := context.Background()

	seedLedger(t, store)
	path, err := svc.CreateSnapshot(ctx, model.BackupTypeManual)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)/2] ^= 0xff
	require.NoError(t, os.WriteFile(path, raw, 0600))

	assert.Error(t, svc.RestoreSnapshot(ctx, path))
}

func TestService_FailedSnapshotIsLogged(t *testing.T) {
	svc, store := newTestService(t, "test-passphrase")
	ctx := context.Background()

	// A closed store makes the export fail.
	require.NoError(t, store.Close())

	_, err := svc.CreateSnapshot(ctx, model.BackupTypeAuto)
	assert.Error(t, err)
}

func TestService_Prune(t *testing.T) {
	svc, _ := newTestService(t, "test-passphrase")

	// Lay down 12 fake snapshots with strictly increasing mtimes.
	base := time.Now().Add(-24 * time.Hour)
	var oldest, newest string
	for i := 0; i < 12; i++ {
		name := snapshotPrefix + base.Add(time.Duration(i)*time.Minute).Format("20060102_150405") + snapshotSuffix
		path := filepath.Join(svc.dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
		require.NoError(t, os.Chtimes(path, time.Time{}, base.Add(time.Duration(i)*time.Minute)))
		if i == 0 {
			oldest = path
		}
		newest = path
	}

	svc.pruneSnapshots()

	snapshots, err := svc.ListSnapshots()
	require.NoError(t, err)
	assert.Len(t, snapshots, defaultRetention)

	// Newest kept, oldest gone.
	assert.Equal(t, newest, snapshots[0].Path)
	assert.NoFileExists(t, oldest)
}

func TestService_SnapshotNamesNeverCollide(t *testing.T) {
	svc, store := newTestService(t, "test-passphrase")
	ctx := context.Background()

	seedLedger(t, store)

	// Back-to-back snapshots land in the same one-second timestamp;
	// both files must survive or retention counts go wrong.
	first, err := svc.CreateSnapshot(ctx, model.BackupTypeManual)
	require.NoError(t, err)
	second, err := svc.CreateSnapshot(ctx, model.BackupTypeManual)
	require.NoError(t, err)
	third, err := svc.CreateSnapshot(ctx, model.BackupTypeManual)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, second, third)
	assert.FileExists(t, first)
	assert.FileExists(t, second)
	assert.FileExists(t, third)

	snapshots, err := svc.ListSnapshots()
	require.NoError(t, err)
	assert.Len(t, snapshots, 3)
}

func TestService_ListSnapshotsIgnoresStrangers(t *testing.T) {
	svc, store := newTestService(t, "test-passphrase")
	ctx := context.Background()

	seedLedger(t, store)
	_, err := svc.CreateSnapshot(ctx, model.BackupTypeManual)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(svc.dir, "notes.txt"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(svc.dir, "kredit_backup_partial.enc.tmp"), []byte("x"), 0600))

	snapshots, err := svc.ListSnapshots()
	require.NoError(t, err)
	assert.Len(t, snapshots, 1)
}

func TestService_Status(t *testing.T) {
	svc, store := newTestService(t, "test-passphrase")
	ctx := context.Background()

	status, err := svc.Status()
	require.NoError(t, err)
	assert.Zero(t, status.SnapshotCount)
	assert.False(t, status.Running)
	assert.True(t, status.LastSnapshot.IsZero())

	seedLedger(t, store)
	_, err = svc.CreateSnapshot(ctx, model.BackupTypeManual)
	require.NoError(t, err)

	status, err = svc.Status()
	require.NoError(t, err)
	assert.Equal(t, 1, status.SnapshotCount)
	assert.False(t, status.LastSnapshot.IsZero())
}

func TestService_RunWritesShutdownSnapshot(t *testing.T) {
	svc, store := newTestService(t, "test-passphrase")
	seedLedger(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	// Let the loop start, then stop it.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	assert.True(t, svc.Wait(time.Second))

	snapshots, err := svc.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 1)

	last, err := store.LastBackupRecord(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, model.BackupTypeShutdown, last.Type)
}
