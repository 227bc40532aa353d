// Package backup creates and restores encrypted snapshots of the
// ledger database. A snapshot is the JSON table dump sealed with the
// same derived key as the store, written atomically next to its
// siblings, with only the newest few retained.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paww122/kredit-ledger/internal/common"
	"github.com/paww122/kredit-ledger/internal/crypto"
	"github.com/paww122/kredit-ledger/internal/model"
	"github.com/paww122/kredit-ledger/internal/service"
)

const (
	snapshotPrefix  = "kredit_backup_"
	snapshotSuffix  = ".enc"
	snapshotVersion = "1.0"

	defaultRetention = 10
	pollInterval     = time.Minute
)

// SnapshotDocument is the cleartext layout of a snapshot before
// sealing.
type SnapshotDocument struct {
	Timestamp time.Time          `json:"timestamp"`
	Version   string             `json:"version"`
	ID        string             `json:"id"`
	Tables    *service.TableDump `json:"tables"`
}

// SnapshotInfo describes one snapshot file on disk.
type SnapshotInfo struct {
	ModTime time.Time
	Path    string
	Size    int64
}

// Status reports the backup service's current position.
type Status struct {
	LastSnapshot  time.Time
	NextSnapshot  time.Time
	Dir           string
	SnapshotCount int
	Running       bool
}

// Service produces encrypted snapshots, on demand and on a timer.
type Service struct {
	store     service.Store
	cipher    *crypto.Cipher
	dir       string
	interval  time.Duration
	retention int

	mu           sync.Mutex
	lastSnapshot time.Time
	running      bool
	done         chan struct{}
}

// NewService creates a backup service writing snapshots into dir.
// interval controls the automatic cadence when Run is active.
func NewService(store service.Store, cipher *crypto.Cipher, dir string, interval time.Duration) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", common.ErrInvalidInput)
	}
	if cipher == nil {
		return nil, fmt.Errorf("%w: cipher is required", common.ErrInvalidInput)
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: backup directory is required", common.ErrInvalidInput)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: backup interval must be positive", common.ErrInvalidInput)
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	return &Service{
		store:     store,
		cipher:    cipher,
		dir:       dir,
		interval:  interval,
		retention: defaultRetention,
	}, nil
}

// CreateSnapshot exports every table, seals the dump and writes it to
// a new snapshot file. The attempt is recorded in the backup log
// either way; a failed attempt returns the error after logging it.
func (s *Service) CreateSnapshot(ctx context.Context, backupType string) (string, error) {
	path, err := s.writeSnapshot(ctx)

	record := &model.BackupRecord{
		Type:   backupType,
		Path:   path,
		Status: model.BackupStatusSuccess,
	}
	if err != nil {
		record.Status = model.BackupStatusFailed
		record.Path = ""
	}
	if logErr := s.store.AppendBackupLog(ctx, record); logErr != nil {
		slog.Warn("failed to record backup attempt", "error", logErr)
	}

	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.lastSnapshot = time.Now()
	s.mu.Unlock()

	s.pruneSnapshots()

	slog.Info("created snapshot", "path", path, "type", backupType)
	return path, nil
}

func (s *Service) writeSnapshot(ctx context.Context) (string, error) {
	dump, err := s.store.Export(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to export tables: %w", err)
	}

	doc := SnapshotDocument{
		Timestamp: time.Now().UTC(),
		Version:   snapshotVersion,
		ID:        uuid.New().String(),
		Tables:    dump,
	}

	plaintext, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	sealed, err := s.cipher.Seal(plaintext)
	if err != nil {
		return "", err
	}

	stamp := time.Now().Format("20060102_150405")
	path := filepath.Join(s.dir, snapshotPrefix+stamp+snapshotSuffix)

	// The timestamp has one-second resolution; suffix a counter so a
	// second snapshot in the same second never renames over the first.
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(s.dir, fmt.Sprintf("%s%s_%d%s", snapshotPrefix, stamp, i, snapshotSuffix))
	}

	// Write to a temp file then rename so readers never see a partial
	// snapshot.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0600); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize snapshot: %w", err)
	}

	return path, nil
}

// RestoreSnapshot replaces the ledger tables with the snapshot's
// contents. A snapshot sealed under a different passphrase fails
// before any table is touched. The restore itself is appended to the
// backup log, which restores never overwrite.
func (s *Service) RestoreSnapshot(ctx context.Context, path string) error {
	sealed, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	plaintext, err := s.cipher.Open(sealed)
	if err != nil {
		return fmt.Errorf("snapshot %s cannot be opened with this passphrase: %w", filepath.Base(path), err)
	}

	var doc SnapshotDocument
	if err := json.Unmarshal(plaintext, &doc); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if doc.Tables == nil {
		return fmt.Errorf("%w: snapshot has no table data", common.ErrInvalidInput)
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.Import(ctx, doc.Tables); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}

	record := &model.BackupRecord{
		Type:   model.BackupTypeRestore,
		Path:   path,
		Status: model.BackupStatusSuccess,
	}
	if err := s.store.AppendBackupLog(ctx, record); err != nil {
		slog.Warn("failed to record restore", "error", err)
	}

	slog.Info("restored snapshot", "path", path, "snapshot_id", doc.ID,
		"customers", len(doc.Tables.Customers), "credits", len(doc.Tables.Credits))
	return nil
}

// ListSnapshots returns the snapshot files in the backup directory,
// newest first.
func (s *Service) ListSnapshots() ([]SnapshotInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var snapshots []SnapshotInfo
	for _, entry := range entries {
		if entry.IsDir() || !isSnapshotName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, SnapshotInfo{
			ModTime: info.ModTime(),
			Path:    filepath.Join(s.dir, entry.Name()),
			Size:    info.Size(),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].ModTime.After(snapshots[j].ModTime)
	})

	return snapshots, nil
}

func isSnapshotName(name string) bool {
	return len(name) > len(snapshotPrefix)+len(snapshotSuffix) &&
		name[:len(snapshotPrefix)] == snapshotPrefix &&
		name[len(name)-len(snapshotSuffix):] == snapshotSuffix
}

// pruneSnapshots deletes the oldest snapshots beyond the retention
// count. Failures are logged, not returned; a full disk of old
// snapshots must not fail the snapshot that just succeeded.
func (s *Service) pruneSnapshots() {
	snapshots, err := s.ListSnapshots()
	if err != nil {
		slog.Warn("failed to list snapshots for pruning", "error", err)
		return
	}

	for _, old := range snapshots[min(len(snapshots), s.retention):] {
		if err := os.Remove(old.Path); err != nil {
			slog.Warn("failed to prune snapshot", "path", old.Path, "error", err)
			continue
		}
		slog.Debug("pruned snapshot", "path", old.Path)
	}
}

// Run drives automatic snapshots until ctx is cancelled. The interval
// is checked once a minute so a snapshot is taken as soon as the
// cadence elapses, then a final shutdown snapshot is written before
// returning.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("backup service already running")
	}
	s.running = true
	s.done = make(chan struct{})
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		close(s.done)
		s.mu.Unlock()
	}()

	slog.Info("backup service started", "interval", s.interval, "dir", s.dir)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// The shutdown snapshot must not inherit the cancelled
			// context.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			_, err := s.CreateSnapshot(shutdownCtx, model.BackupTypeShutdown)
			cancel()
			if err != nil {
				slog.Error("shutdown snapshot failed", "error", err)
				return err
			}
			return nil
		case <-ticker.C:
			s.mu.Lock()
			due := time.Since(s.lastSnapshot) >= s.interval
			s.mu.Unlock()
			if !due {
				continue
			}
			if _, err := s.CreateSnapshot(ctx, model.BackupTypeAuto); err != nil {
				slog.Error("automatic snapshot failed", "error", err)
			}
		}
	}
}

// Wait blocks until Run has fully stopped, or the timeout elapses.
func (s *Service) Wait(timeout time.Duration) bool {
	s.mu.Lock()
	done := s.done
	running := s.running
	s.mu.Unlock()

	if !running || done == nil {
		return true
	}

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Status reports the service's current position.
func (s *Service) Status() (*Status, error) {
	snapshots, err := s.ListSnapshots()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status := &Status{
		LastSnapshot:  s.lastSnapshot,
		Dir:           s.dir,
		SnapshotCount: len(snapshots),
		Running:       s.running,
	}
	if s.running && !s.lastSnapshot.IsZero() {
		status.NextSnapshot = s.lastSnapshot.Add(s.interval)
	}
	return status, nil
}
