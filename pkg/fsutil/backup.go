package fsutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BackupDirName is the backup directory created under the project state
// directory (`.fixpoint/diagnostic-fix-backups/`).
const BackupDirName = "diagnostic-fix-backups"

// backupTimeFormat keeps backups sortable by name.
const backupTimeFormat = "20060102-150405"

// BackupConfig controls backup behavior during fix application.
type BackupConfig struct {
	// Enabled indicates whether backups should be created.
	Enabled bool

	// Dir is the directory receiving backup copies.
	Dir string

	// Strict turns backup failures into hard errors. When false, a failed
	// backup is reported to the caller but does not block the mutation.
	Strict bool
}

// DefaultBackupConfig returns backup defaults rooted at the given state dir.
func DefaultBackupConfig(stateDir string) BackupConfig {
	return BackupConfig{
		Enabled: true,
		Dir:     filepath.Join(stateDir, BackupDirName),
	}
}

// BackupPath builds the destination path for a backup of the given file.
// The name carries the original base name, a timestamp, and a short unique
// suffix so concurrent backups of different files never collide.
func BackupPath(dir, path string, now time.Time) string {
	base := filepath.Base(path)
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return filepath.Join(dir, fmt.Sprintf("%s.%s.%s.bak", base, now.UTC().Format(backupTimeFormat), suffix))
}

// CreateBackup copies the file at path into cfg.Dir before mutation.
// Returns the backup path, or "" when backups are disabled.
//
// The backup is written synchronously and atomically so a crash between
// backup and mutation never loses the original content.
func CreateBackup(ctx context.Context, path string, cfg BackupConfig) (string, error) {
	if !cfg.Enabled {
		return "", nil
	}

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("create backup: %w", ctx.Err())
	default:
	}

	content, info, err := ReadFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("read original for backup: %w", err)
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	backupPath := BackupPath(cfg.Dir, path, time.Now())
	if err := WriteAtomic(ctx, backupPath, content, info.Mode); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	return backupPath, nil
}

// RestoreBackup copies a backup back over the original path.
func RestoreBackup(ctx context.Context, backupPath, path string) error {
	content, info, err := ReadFile(ctx, backupPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	if err := WriteAtomic(ctx, path, content, info.Mode); err != nil {
		return fmt.Errorf("restore from backup: %w", err)
	}
	return nil
}
