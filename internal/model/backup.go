package model

import "time"

// Backup record types and statuses, written to the append-only
// backup_log audit table.
const (
	BackupTypeAuto     = "auto"
	BackupTypeManual   = "manual"
	BackupTypeShutdown = "shutdown"
	BackupTypeRestore  = "restore"

	BackupStatusSuccess = "success"
	BackupStatusFailed  = "failed"
)

// BackupRecord is one backup or restore attempt. The log is local to
// each install and is never included in snapshot restores.
type BackupRecord struct {
	CreatedAt time.Time
	Type      string
	Path      string
	Status    string
	ID        int64
}
