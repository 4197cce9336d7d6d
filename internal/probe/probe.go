package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/kebairia/stackctl/internal/config"
	"github.com/kebairia/stackctl/internal/logger"
)

// ErrDependencyTimeout indicates a dependency never accepted a connection
// within its max_wait window. Fatal to startup.
var ErrDependencyTimeout = errors.New("dependency readiness timed out")

// defaultDialTimeout bounds a single connection attempt so a black-holed
// endpoint cannot eat the whole max_wait budget in one dial.
const defaultDialTimeout = 2 * time.Second

// ProberOption lets you override default settings on a Prober.
type ProberOption func(*Prober)

// Prober polls network endpoints until they accept connections.
type Prober struct {
	DialTimeout time.Duration
	Logger      logger.Logger
}

// NewProber returns a Prober with default dial timeout and the global logger.
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		DialTimeout: defaultDialTimeout,
		Logger:      logger.Global(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithDialTimeout overrides the per-attempt connection timeout.
func WithDialTimeout(d time.Duration) ProberOption {
	return func(p *Prober) {
		if d > 0 {
			p.DialTimeout = d
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(log logger.Logger) ProberOption {
	return func(p *Prober) {
		if log != nil {
			p.Logger = log
		}
	}
}

// Await dials dep's endpoint at dep.Interval until it accepts a connection,
// dep.MaxWait elapses, or ctx is cancelled. Timeout is final: the caller must
// treat the dependency as unavailable.
func (p *Prober) Await(ctx context.Context, dep config.Dependency) error {
	addr := net.JoinHostPort(dep.Host, dep.Port)
	deadline := time.Now().Add(dep.MaxWait)
	dialer := net.Dialer{Timeout: p.DialTimeout}

	for attempt := 1; ; attempt++ {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			p.Logger.Info("dependency ready",
				"dependency", dep.Name,
				"address", addr,
				"attempt", attempt,
			)
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("probe %q aborted: %w", dep.Name, ctx.Err())
		}

		p.Logger.Info("dependency not ready",
			"dependency", dep.Name,
			"address", addr,
			"attempt", attempt,
			"error", err.Error(),
		)

		if time.Now().Add(dep.Interval).After(deadline) {
			return fmt.Errorf(
				"%w: %s (%s) after %s",
				ErrDependencyTimeout, dep.Name, addr, dep.MaxWait,
			)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("probe %q aborted: %w", dep.Name, ctx.Err())
		case <-time.After(dep.Interval):
		}
	}
}

// AwaitAll probes every dependency concurrently and blocks until all are
// ready or one fails. The first timeout cancels the remaining probes so the
// caller fails fast instead of waiting out every max_wait.
func (p *Prober) AwaitAll(ctx context.Context, deps []config.Dependency) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		errs = make(chan error, len(deps))
	)

	for _, dep := range deps {
		wg.Add(1)
		go func(dep config.Dependency) {
			defer wg.Done()
			if err := p.Await(ctx, dep); err != nil {
				errs <- err
				cancel()
			}
		}(dep)
	}

	wg.Wait()
	close(errs)

	// Prefer a timeout over the cancellations it caused in sibling probes.
	var first error
	for err := range errs {
		if errors.Is(err, ErrDependencyTimeout) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}
