package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrSweepFailed indicates the retention sweep could not delete one or more
// artifacts. Logged by the coordinator, never fatal to the cycle.
var ErrSweepFailed = errors.New("retention sweep failed")

// artifactPrefix restricts the sweep to backup artifacts, leaving the cycle
// metadata file and anything else alone.
const artifactPrefix = "backup_"

// Sweep deletes artifacts in exactly dir whose mtime is older than maxAge.
// mtime is authoritative, not the embedded timestamp, so clock skew between
// backup and sweep time is tolerated. It never recurses and never touches
// other stores' directories. Idempotent: a sweep with nothing eligible
// deletes nothing and reports zero.
func Sweep(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			// store never produced a backup yet
			return 0, nil
		}
		return 0, fmt.Errorf("%w: read %q: %v", ErrSweepFailed, dir, err)
	}

	cutoff := time.Now().Add(-maxAge)
	deleted := 0
	var sweepErr error

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), artifactPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			sweepErr = fmt.Errorf("%w: stat %q: %v", ErrSweepFailed, entry.Name(), err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			sweepErr = fmt.Errorf("%w: remove %q: %v", ErrSweepFailed, path, err)
			continue
		}
		deleted++
	}

	return deleted, sweepErr
}

// MaxAge converts a retention period in days to a duration.
func MaxAge(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
