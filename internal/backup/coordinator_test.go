package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kebairia/stackctl/internal/config"
	"github.com/kebairia/stackctl/internal/store"
)

// fakeStore stands in for a real adapter. A successful backup writes an
// actual artifact file so compression and sweeping operate on real paths.
type fakeStore struct {
	name string
	root string
	fail bool
}

var _ store.Store = (*fakeStore)(nil)

func (f *fakeStore) Name() string { return f.name }

func (f *fakeStore) Dir() string { return filepath.Join(f.root, f.name) }

func (f *fakeStore) Backup(context.Context) (string, error) {
	if f.fail {
		return "", fmt.Errorf("%w: dump-tool (exit 1): connection refused", store.ErrBackupFailed)
	}
	dir := f.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(
		dir,
		"backup_"+time.Now().Format(store.DefaultTimestampFormat)+".dump",
	)
	if err := os.WriteFile(path, []byte("dump contents"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func cycleConfig(root string, compress bool) config.Config {
	return config.Config{
		Backup: config.BackupConfig{
			Root:            root,
			Compress:        compress,
			TimestampFormat: store.DefaultTimestampFormat,
		},
		Retention: config.RetentionConfig{MaxAgeDays: 30},
	}
}

func TestRunCycle_AllStoresSucceed(t *testing.T) {
	root := t.TempDir()
	stores := []store.Store{
		&fakeStore{name: "postgres", root: root},
		&fakeStore{name: "mongodb", root: root},
		&fakeStore{name: "redis", root: root},
	}

	run := NewCoordinator(cycleConfig(root, false), stores).RunCycle(context.Background())

	require.Len(t, run.Results, 3)
	assert.Equal(t, 3, run.Succeeded())
	assert.Zero(t, run.Failed())
	assert.False(t, run.AllFailed())
	for _, res := range run.Results {
		assert.FileExists(t, res.Path)
		assert.NotZero(t, res.SizeBytes)
	}
}

func TestRunCycle_OneFailureDoesNotBlockOthers(t *testing.T) {
	root := t.TempDir()
	stores := []store.Store{
		&fakeStore{name: "postgres", root: root},
		&fakeStore{name: "mongodb", root: root, fail: true},
		&fakeStore{name: "redis", root: root},
	}

	// Both stores have an expired artifact on disk. Only the successful
	// one may lose it; a failed backup must keep its safety margin.
	agedArtifact(t, filepath.Join(root, "postgres"), "backup_20260601_010000.dump", 90)
	kept := agedArtifact(t, filepath.Join(root, "mongodb"), "backup_20260601_010000.archive", 90)

	run := NewCoordinator(cycleConfig(root, false), stores).RunCycle(context.Background())

	assert.Equal(t, 2, run.Succeeded())
	assert.Equal(t, 1, run.Failed())
	assert.False(t, run.AllFailed())

	byStore := make(map[string]StoreResult, len(run.Results))
	for _, res := range run.Results {
		byStore[res.Store] = res
	}
	assert.Contains(t, byStore["mongodb"].Error, "connection refused")
	assert.Equal(t, 1, byStore["postgres"].SweptCount)
	assert.Zero(t, byStore["mongodb"].SweptCount)
	assert.FileExists(t, kept, "failed store was swept")
}

func TestRunCycle_FreshArtifactNeverSwept(t *testing.T) {
	root := t.TempDir()
	cfg := cycleConfig(root, false)
	cfg.Retention.MaxAgeDays = 1 // smallest policy the config accepts

	run := NewCoordinator(cfg, []store.Store{
		&fakeStore{name: "postgres", root: root},
	}).RunCycle(context.Background())

	require.Equal(t, 1, run.Succeeded())
	assert.FileExists(t, run.Results[0].Path)
	assert.Zero(t, run.Results[0].SweptCount)
}

func TestRunCycle_AllFailed(t *testing.T) {
	root := t.TempDir()
	stores := []store.Store{
		&fakeStore{name: "postgres", root: root, fail: true},
		&fakeStore{name: "mongodb", root: root, fail: true},
	}

	run := NewCoordinator(cycleConfig(root, false), stores).RunCycle(context.Background())

	assert.True(t, run.AllFailed())
	assert.Equal(t, 2, run.Failed())
}

func TestRunCycle_CompressesArtifacts(t *testing.T) {
	root := t.TempDir()

	run := NewCoordinator(cycleConfig(root, true), []store.Store{
		&fakeStore{name: "redis", root: root},
	}).RunCycle(context.Background())

	require.Equal(t, 1, run.Succeeded())
	res := run.Results[0]
	assert.True(t, filepath.Ext(res.Path) == ".zst")
	assert.FileExists(t, res.Path)

	// original uncompressed artifact is gone
	entries, err := os.ReadDir(filepath.Join(root, "redis"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRunCycle_WritesMetadata(t *testing.T) {
	root := t.TempDir()

	run := NewCoordinator(cycleConfig(root, false), []store.Store{
		&fakeStore{name: "postgres", root: root},
	}).RunCycle(context.Background())

	loaded, err := LoadMetadata(root)
	require.NoError(t, err)
	assert.Equal(t, run.ID, loaded.ID)
	require.Len(t, loaded.Results, 1)
	assert.Equal(t, "postgres", loaded.Results[0].Store)
	assert.True(t, loaded.Results[0].Success)
}
