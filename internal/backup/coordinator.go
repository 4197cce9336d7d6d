package backup

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/kebairia/stackctl/internal/config"
	"github.com/kebairia/stackctl/internal/logger"
	"github.com/kebairia/stackctl/internal/store"
)

// CoordinatorOption lets you override default settings on a Coordinator.
type CoordinatorOption func(*Coordinator)

// Coordinator runs one backup cycle: every store adapter concurrently, then
// a retention sweep per store that backed up successfully. Stores are
// independent: one store's failure never blocks the others, and a failed
// store keeps its older artifacts untouched for that cycle.
type Coordinator struct {
	cfg    config.Config
	stores []store.Store
	log    logger.Logger
}

// NewCoordinator returns a Coordinator over the given stores.
func NewCoordinator(
	cfg config.Config,
	stores []store.Store,
	opts ...CoordinatorOption,
) *Coordinator {
	c := &Coordinator{
		cfg:    cfg,
		stores: stores,
		log:    logger.Global(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCoordinatorLogger overrides the logger.
func WithCoordinatorLogger(log logger.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// RunCycle performs one full backup cycle and returns its record. It never
// returns an error: per-store failures are captured in the Run, and callers
// decide the process exit code from Run.AllFailed.
func (c *Coordinator) RunCycle(ctx context.Context) *Run {
	start := time.Now()
	run := &Run{
		ID:        start.Format(store.DefaultTimestampFormat),
		StartedAt: start,
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, st := range c.stores {
		wg.Add(1)
		go func(st store.Store) {
			defer wg.Done()
			result := c.backupStore(ctx, st)
			mu.Lock()
			run.Results = append(run.Results, result)
			mu.Unlock()
		}(st)
	}

	wg.Wait()

	if err := WriteMetadata(c.cfg.Backup.Root, run); err != nil {
		c.log.Warn("could not write cycle metadata", "error", err.Error())
	}

	c.logSummary(run)
	return run
}

// backupStore handles one store's full lifecycle for the cycle: backup,
// optional compression, then the retention sweep. The sweep runs only after
// a successful backup, so a failed store never erodes its safety margin of
// older artifacts.
func (c *Coordinator) backupStore(ctx context.Context, st store.Store) StoreResult {
	result := StoreResult{
		Store:     st.Name(),
		StartedAt: time.Now(),
	}

	path, err := st.Backup(ctx)
	if err != nil {
		result.Duration = time.Since(result.StartedAt)
		result.Error = err.Error()
		c.log.Error("store backup failed",
			"store", st.Name(),
			"error", err.Error(),
		)
		return result
	}

	if c.cfg.Backup.Compress {
		compressed, err := CompressZstd(path)
		if err != nil {
			result.Duration = time.Since(result.StartedAt)
			result.Error = err.Error()
			c.log.Error("artifact compression failed",
				"store", st.Name(),
				"path", path,
				"error", err.Error(),
			)
			return result
		}
		path = compressed
	}

	result.Success = true
	result.Path = path
	result.Duration = time.Since(result.StartedAt)
	if info, err := os.Stat(path); err == nil {
		result.SizeBytes = info.Size()
	}

	deleted, err := Sweep(st.Dir(), MaxAge(c.cfg.Retention.MaxAgeDays))
	result.SweptCount = deleted
	if err != nil {
		c.log.Error("retention sweep error",
			"store", st.Name(),
			"deleted", deleted,
			"error", err.Error(),
		)
	}

	return result
}

func (c *Coordinator) logSummary(run *Run) {
	for _, res := range run.Results {
		if res.Success {
			c.log.Info("cycle result",
				"store", res.Store,
				"outcome", "success",
				"path", res.Path,
				"size_bytes", res.SizeBytes,
				"swept", res.SweptCount,
				"duration", res.Duration.String(),
			)
			continue
		}
		c.log.Error("cycle result",
			"store", res.Store,
			"outcome", "failure",
			"error", res.Error,
			"duration", res.Duration.String(),
		)
	}
	c.log.Info("backup cycle finished",
		"run_id", run.ID,
		"succeeded", run.Succeeded(),
		"failed", run.Failed(),
		"duration", time.Since(run.StartedAt).String(),
	)
}
