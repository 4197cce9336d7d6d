package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kebairia/stackctl/internal/config"
	"github.com/kebairia/stackctl/internal/logger"
	"github.com/kebairia/stackctl/internal/runner"
)

// MongoDBOption lets you override default settings on a MongoDB.
type MongoDBOption func(*MongoDB)

// MongoDB backs up a MongoDB database with mongodump's archive mode, which
// performs the directory dump internally and streams it into one file.
type MongoDB struct {
	Username        string
	Password        string
	Database        string
	Host            string
	Port            string
	Root            string
	TimestampFormat string
	Timeout         time.Duration
	Runner          runner.Runner
	Logger          logger.Logger
}

var _ Store = (*MongoDB)(nil)

// NewMongoDB returns a MongoDB configured from cfg plus any overrides.
func NewMongoDB(cfg config.Config, opts ...MongoDBOption) *MongoDB {
	m := &MongoDB{
		Host:            cfg.MongoDB.Host,
		Port:            cfg.MongoDB.Port,
		Username:        cfg.MongoDB.Username,
		Password:        cfg.MongoDB.Password,
		Database:        cfg.MongoDB.Database,
		Root:            cfg.Backup.Root,
		TimestampFormat: cfg.Backup.TimestampFormat,
		Timeout:         cfg.Backup.Timeout,
		Runner:          runner.ExecRunner{},
		Logger:          logger.Global(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithMongoCredentials sets username and password.
func WithMongoCredentials(user, pass string) MongoDBOption {
	return func(m *MongoDB) {
		if user != "" {
			m.Username = user
		}
		if pass != "" {
			m.Password = pass
		}
	}
}

// WithMongoRunner overrides the command runner.
func WithMongoRunner(r runner.Runner) MongoDBOption {
	return func(m *MongoDB) {
		if r != nil {
			m.Runner = r
		}
	}
}

// WithMongoLogger overrides the logger.
func WithMongoLogger(log logger.Logger) MongoDBOption {
	return func(m *MongoDB) {
		if log != nil {
			m.Logger = log
		}
	}
}

func (m *MongoDB) Name() string { return KindMongoDB }

func (m *MongoDB) Dir() string { return filepath.Join(m.Root, KindMongoDB) }

// Backup runs mongodump into a timestamped .archive artifact.
func (m *MongoDB) Backup(ctx context.Context) (string, error) {
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	path := artifactPath(m.Root, KindMongoDB, m.TimestampFormat, "archive")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", filepath.Dir(path), err)
	}

	args := []string{
		"--host=" + m.Host,
		"--port=" + m.Port,
		"--authenticationDatabase=admin",
		"--archive=" + path,
		"--quiet",
	}
	if m.Username != "" {
		args = append(args,
			"--username="+m.Username,
			"--password="+m.Password,
		)
	}
	if m.Database != "" {
		args = append(args, "--db="+m.Database)
	}

	m.Logger.Info("backup started",
		"store", KindMongoDB,
		"database", m.Database,
		"path", path,
	)

	start := time.Now()
	stderr, err := m.Runner.Run(ctx, runner.Command{
		Name: "mongodump",
		Args: args,
	})
	if err != nil {
		return "", fmt.Errorf(
			"%w: mongodump (exit %d): %s",
			ErrBackupFailed, runner.ExitCode(err), stderr,
		)
	}

	m.Logger.Info("backup completed",
		"store", KindMongoDB,
		"database", m.Database,
		"path", path,
		"duration", time.Since(start).String(),
	)
	return path, nil
}
