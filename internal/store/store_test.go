package store

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kebairia/stackctl/internal/config"
	"github.com/kebairia/stackctl/internal/runner"
)

func storeConfig(root string) config.Config {
	return config.Config{
		Backup: config.BackupConfig{
			Root:            root,
			TimestampFormat: DefaultTimestampFormat,
		},
		Postgres: config.StoreConfig{
			Host:     "db.internal",
			Port:     "5432",
			Username: "app",
			Password: "pg-secret",
			Database: "appdb",
		},
		MongoDB: config.StoreConfig{
			Host:     "mongo.internal",
			Port:     "27017",
			Username: "app",
			Password: "mongo-secret",
			Database: "appdb",
		},
		Redis: config.StoreConfig{
			Host:     "cache.internal",
			Port:     "6379",
			Password: "redis-secret",
		},
	}
}

func failure(t *testing.T) error {
	t.Helper()
	err := exec.Command("false").Run()
	require.Error(t, err)
	return err
}

func TestPostgresBackup_InvokesPgDump(t *testing.T) {
	root := t.TempDir()
	fake := runner.NewFake()

	p := NewPostgres(storeConfig(root), WithPostgresRunner(fake))
	path, err := p.Backup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "postgres"), filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "backup_"))
	assert.True(t, strings.HasSuffix(path, ".dump"))
	assert.DirExists(t, p.Dir())

	calls := fake.CallsTo("pg_dump")
	require.Len(t, calls, 1)
	args := strings.Join(calls[0].Args, " ")
	assert.Contains(t, args, "-h db.internal")
	assert.Contains(t, args, "-d appdb")
	assert.Contains(t, args, "-F custom")
	assert.Contains(t, calls[0].Env, "PGPASSWORD=pg-secret")
}

func TestPostgresBackup_FailureCarriesStderr(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("pg_dump", []byte("FATAL: password authentication failed"), failure(t))

	p := NewPostgres(storeConfig(t.TempDir()), WithPostgresRunner(fake))
	_, err := p.Backup(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackupFailed)
	assert.Contains(t, err.Error(), "password authentication failed")
}

func TestMongoDBBackup_InvokesMongodump(t *testing.T) {
	root := t.TempDir()
	fake := runner.NewFake()

	m := NewMongoDB(storeConfig(root), WithMongoRunner(fake))
	path, err := m.Backup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "mongodb"), filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".archive"))

	calls := fake.CallsTo("mongodump")
	require.Len(t, calls, 1)
	args := strings.Join(calls[0].Args, " ")
	assert.Contains(t, args, "--host=mongo.internal")
	assert.Contains(t, args, "--archive="+path)
	assert.Contains(t, args, "--db=appdb")
}

func TestMongoDBBackup_OmitsAuthWhenNoUsername(t *testing.T) {
	cfg := storeConfig(t.TempDir())
	cfg.MongoDB.Username = ""
	cfg.MongoDB.Password = ""
	fake := runner.NewFake()

	m := NewMongoDB(cfg, WithMongoRunner(fake))
	_, err := m.Backup(context.Background())
	require.NoError(t, err)

	args := strings.Join(fake.CallsTo("mongodump")[0].Args, " ")
	assert.NotContains(t, args, "--username")
	assert.NotContains(t, args, "--password")
}

func TestRedisBackup_InvokesRedisCli(t *testing.T) {
	root := t.TempDir()
	fake := runner.NewFake()

	r := NewRedis(storeConfig(root), WithRedisRunner(fake))
	path, err := r.Backup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "redis"), filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, ".rdb"))

	calls := fake.CallsTo("redis-cli")
	require.Len(t, calls, 1)
	args := strings.Join(calls[0].Args, " ")
	assert.Contains(t, args, "--rdb "+path)
	assert.Contains(t, calls[0].Env, "REDISCLI_AUTH=redis-secret")
	assert.NotContains(t, args, "redis-secret", "password must stay off the command line")
}

func TestRedisBackup_FailureIsReportedNotFatal(t *testing.T) {
	fake := runner.NewFake()
	fake.Respond("redis-cli", []byte("NOAUTH Authentication required"), failure(t))

	r := NewRedis(storeConfig(t.TempDir()), WithRedisRunner(fake))
	_, err := r.Backup(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackupFailed)
	assert.Contains(t, err.Error(), "NOAUTH")
}

func TestInitialize_BuildsConfiguredStores(t *testing.T) {
	cfg := storeConfig(t.TempDir())
	stores, err := Initialize(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Len(t, stores, 3)

	names := make([]string, len(stores))
	for i, st := range stores {
		names[i] = st.Name()
	}
	assert.ElementsMatch(t, []string{"postgres", "mongodb", "redis"}, names)
}

func TestInitialize_SkipsUnconfiguredStores(t *testing.T) {
	cfg := storeConfig(t.TempDir())
	cfg.MongoDB.Host = ""

	stores, err := Initialize(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Len(t, stores, 2)
	for _, st := range stores {
		assert.NotEqual(t, "mongodb", st.Name())
	}
}

func TestArtifactNamesSortChronologically(t *testing.T) {
	a := artifactPath("/b", KindPostgres, DefaultTimestampFormat, "dump")
	assert.True(t, strings.HasPrefix(filepath.Base(a), "backup_"))
	// fixed-width timestamp: lexicographic order == chronological order
	assert.Len(t, filepath.Base(a), len("backup_20060102_150405.dump"))
}
