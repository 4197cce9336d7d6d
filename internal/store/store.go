package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

var (
	// ErrBackupFailed indicates a store's export tool exited non-zero. The
	// error text carries the tool's stderr verbatim.
	ErrBackupFailed = errors.New("backup failed")
	// ErrRestoreFailed indicates a store's import tool exited non-zero.
	ErrRestoreFailed = errors.New("restore failed")
)

// Store kind names double as artifact subdirectory names under the backup root.
const (
	KindPostgres = "postgres"
	KindMongoDB  = "mongodb"
	KindRedis    = "redis"
)

// DefaultTimestampFormat yields fixed-width names that sort
// lexicographically in chronological order.
const DefaultTimestampFormat = "20060102_150405"

// Store is one backed-up data store. Backup produces a single timestamped,
// uncompressed artifact; the coordinator owns compression and retention.
type Store interface {
	Name() string
	// Dir is the store's artifact directory under the backup root.
	Dir() string
	Backup(ctx context.Context) (artifactPath string, err error)
}

// artifactPath builds {root}/{kind}/backup_{timestamp}.{ext}.
func artifactPath(root, kind, tsFormat, ext string) string {
	if tsFormat == "" {
		tsFormat = DefaultTimestampFormat
	}
	name := fmt.Sprintf("backup_%s.%s", time.Now().Format(tsFormat), ext)
	return filepath.Join(root, kind, name)
}
