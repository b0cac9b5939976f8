package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/jutil/internal/domain"
	"github.com/Ning0612/jutil/internal/history"
	"github.com/Ning0612/jutil/internal/lock"
)

// writeConfig points data_dir at a temp directory so runs never touch the
// user's ledger or lock
func writeConfig(t *testing.T) (cfgPath, dataDir string) {
	t.Helper()
	dir := t.TempDir()
	dataDir = filepath.Join(dir, "data")
	cfgPath = filepath.Join(dir, "config.yaml")
	content := "data_dir: " + dataDir + "\nlog:\n  level: warn\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
	return cfgPath, dataDir
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Cleanup(func() {
		uploadPath = nil
		dryRun = false
		noProgress = false
		destName = ""
	})
	rootCmd.SetArgs(args)
	return Execute()
}

func TestUpload_DryRunRecordsHistory(t *testing.T) {
	cfgPath, dataDir := writeConfig(t)
	src := filepath.Join(t.TempDir(), "photos")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "2024"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.jpg"), []byte("aaaa"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "2024", "b.jpg"), []byte("bb"), 0644))

	err := execute(t, "upload", "--config", cfgPath, "--dry-run", "--no-progress", "-n", "backup", src)
	require.NoError(t, err)

	ledger, err := history.Open(filepath.Join(dataDir, "history.db"))
	require.NoError(t, err)
	defer ledger.Close()

	runs, err := ledger.Recent(context.Background(), "backup", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].DryRun)
	assert.Equal(t, history.StatusSuccess, runs[0].Status)
	assert.Equal(t, 2, runs[0].Stats.FilesUploaded)
	assert.Equal(t, int64(6), runs[0].Stats.BytesUploaded)
	assert.Equal(t, 3, runs[0].Stats.FoldersCreated)

	l, err := lock.NewFileLock(filepath.Join(dataDir, "upload.lock"))
	require.NoError(t, err)
	assert.False(t, l.IsLocked(), "lock should be released after the run")
}

func TestUpload_MissingPathFails(t *testing.T) {
	cfgPath, dataDir := writeConfig(t)
	missing := filepath.Join(t.TempDir(), "nope")

	err := execute(t, "upload", "--config", cfgPath, "--dry-run", "--no-progress", "-n", "backup", "-p", missing)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ledger, err := history.Open(filepath.Join(dataDir, "history.db"))
	require.NoError(t, err)
	defer ledger.Close()
	runs, err := ledger.Recent(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, history.StatusFailed, runs[0].Status)
}

func TestUpload_PathWithCommaIsNotSplit(t *testing.T) {
	cfgPath, dataDir := writeConfig(t)
	dir := t.TempDir()
	withComma := filepath.Join(dir, "report,final.txt")
	plain := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(withComma, []byte("final"), 0644))
	require.NoError(t, os.WriteFile(plain, []byte("n"), 0644))

	err := execute(t, "upload", "--config", cfgPath, "--dry-run", "--no-progress", "-n", "backup", "-p", withComma, plain)
	require.NoError(t, err)

	ledger, err := history.Open(filepath.Join(dataDir, "history.db"))
	require.NoError(t, err)
	defer ledger.Close()

	runs, err := ledger.Recent(context.Background(), "backup", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, []string{withComma, plain}, runs[0].Paths)
	assert.Equal(t, history.StatusSuccess, runs[0].Status)
	assert.Equal(t, 2, runs[0].Stats.FilesUploaded)
}

func TestUpload_RequiresPaths(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	err := execute(t, "upload", "--config", cfgPath, "--dry-run", "-n", "backup")
	assert.Error(t, err)
}

func TestUpload_RefusesWhileLocked(t *testing.T) {
	cfgPath, dataDir := writeConfig(t)
	src := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("a"), 0644))

	held, err := lock.NewFileLock(filepath.Join(dataDir, "upload.lock"))
	require.NoError(t, err)
	require.NoError(t, held.Acquire("other"))
	defer held.Release()

	err = execute(t, "upload", "--config", cfgPath, "--dry-run", "--no-progress", "-n", "backup", src)
	assert.ErrorIs(t, err, domain.ErrUploadInProgress)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	err := execute(t, "hwinfo", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}
