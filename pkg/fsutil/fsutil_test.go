package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixpoint-dev/fixpoint/pkg/fsutil"
)

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	content, info, err := fsutil.ReadFile(t.Context(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), content)
	assert.Equal(t, int64(5), info.Size)
}

func TestReadFileNotFound(t *testing.T) {
	t.Parallel()

	_, _, err := fsutil.ReadFile(t.Context(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, fsutil.ErrNotFound)
}

func TestReadFileDirectory(t *testing.T) {
	t.Parallel()

	_, _, err := fsutil.ReadFile(t.Context(), t.TempDir())
	assert.ErrorIs(t, err, fsutil.ErrIsDirectory)
}

func TestWriteAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	require.NoError(t, fsutil.WriteAtomic(t.Context(), path, []byte("v1"), 0))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	// Overwrite keeps no temp file behind.
	require.NoError(t, fsutil.WriteAtomic(t.Context(), path, []byte("v2"), 0o600))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCreateBackup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "src.rs")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	cfg := fsutil.DefaultBackupConfig(filepath.Join(dir, ".fixpoint"))
	backupPath, err := fsutil.CreateBackup(t.Context(), path, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)

	got, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got), "backup must equal pre-mutation content")
}

func TestCreateBackupDisabled(t *testing.T) {
	t.Parallel()

	backupPath, err := fsutil.CreateBackup(t.Context(), "irrelevant", fsutil.BackupConfig{Enabled: false})
	require.NoError(t, err)
	assert.Empty(t, backupPath)
}

func TestCreateBackupUniquePaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "src.rs")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	cfg := fsutil.DefaultBackupConfig(filepath.Join(dir, ".fixpoint"))
	p1, err := fsutil.CreateBackup(t.Context(), path, cfg)
	require.NoError(t, err)
	p2, err := fsutil.CreateBackup(t.Context(), path, cfg)
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2, "repeated backups of one file must not overwrite each other")
}

func TestRestoreBackup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "src.rs")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	cfg := fsutil.DefaultBackupConfig(filepath.Join(dir, ".fixpoint"))
	backupPath, err := fsutil.CreateBackup(t.Context(), path, cfg)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("mutated"), 0o644))
	require.NoError(t, fsutil.RestoreBackup(t.Context(), backupPath, path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
}
