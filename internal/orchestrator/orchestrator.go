package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kebairia/stackctl/internal/config"
	"github.com/kebairia/stackctl/internal/logger"
	"github.com/kebairia/stackctl/internal/probe"
	"github.com/kebairia/stackctl/internal/runner"
)

// ErrMigrationFailed indicates the migration runner exited non-zero.
// Fatal: the application must never start against an un-migrated schema.
var ErrMigrationFailed = errors.New("migration failed")

// ErrSeedFailed indicates the seed routine exited non-zero. Seed data is a
// convenience, so this is logged and never propagated as fatal.
var ErrSeedFailed = errors.New("seed failed")

// Option lets you override default collaborators on an Orchestrator.
type Option func(*Orchestrator)

// Orchestrator sequences startup: gate on dependency readiness, apply
// migrations, optionally seed, then report Ready. Its job ends at Ready; a
// supervising process manager starts the application afterwards.
type Orchestrator struct {
	cfg    config.Config
	prober *probe.Prober
	runner runner.Runner
	log    logger.Logger

	state State
	path  []State
}

// New returns an Orchestrator configured from cfg plus any overrides.
func New(cfg config.Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		prober: probe.NewProber(),
		runner: runner.ExecRunner{},
		log:    logger.Global(),
		state:  StateAwaitingDeps,
		path:   []State{StateAwaitingDeps},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithProber overrides the readiness prober.
func WithProber(p *probe.Prober) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.prober = p
		}
	}
}

// WithRunner overrides the command runner.
func WithRunner(r runner.Runner) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.runner = r
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(log logger.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

func (o *Orchestrator) transition(next State) {
	o.log.Info("startup state change",
		"from", o.state.String(),
		"to", next.String(),
	)
	o.state = next
	o.path = append(o.path, next)
}

// State returns the machine's current state.
func (o *Orchestrator) State() State { return o.state }

// Path returns the names of every state visited, in order.
func (o *Orchestrator) Path() []string {
	out := make([]string, len(o.path))
	for i, s := range o.path {
		out[i] = s.String()
	}
	return out
}

// Up drives the machine to a terminal state. It returns nil exactly when the
// terminal state is Ready. Any dependency timeout or migration failure is
// returned with a diagnostic naming the failed dependency or step.
func (o *Orchestrator) Up(ctx context.Context) error {
	if err := o.awaitDependencies(ctx); err != nil {
		o.transition(StateFailed)
		return err
	}

	o.transition(StateMigrating)
	if err := o.migrate(ctx); err != nil {
		o.transition(StateFailed)
		return err
	}

	if o.cfg.Seed.Enabled {
		o.transition(StateSeeding)
		o.seed(ctx)
	}

	o.transition(StateReady)
	o.log.Info("startup complete", "path", o.Path())
	return nil
}

func (o *Orchestrator) awaitDependencies(ctx context.Context) error {
	if len(o.cfg.Dependencies) == 0 {
		o.log.Warn("no dependencies declared, skipping readiness gate")
		return nil
	}
	o.log.Info("awaiting dependencies", "count", len(o.cfg.Dependencies))
	return o.prober.AwaitAll(ctx, o.cfg.Dependencies)
}

// migrate invokes the migration runner as a single blocking step.
func (o *Orchestrator) migrate(ctx context.Context) error {
	step := o.cfg.Migrate
	if step.Command == "" {
		o.log.Warn("no migration command configured, skipping")
		return nil
	}

	if step.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	o.log.Info("running migrations", "command", step.Command)
	start := time.Now()
	stderr, err := o.runner.Run(ctx, runner.Command{
		Name: step.Command,
		Args: step.Args,
	})
	if err != nil {
		return fmt.Errorf(
			"%w: %s (exit %d): %s",
			ErrMigrationFailed, step.Command, runner.ExitCode(err), stderr,
		)
	}
	o.log.Info("migrations applied", "duration", time.Since(start).String())
	return nil
}

// seed invokes the seed routine. Failures are logged, never propagated.
func (o *Orchestrator) seed(ctx context.Context) {
	step := o.cfg.Seed
	if step.Command == "" {
		o.log.Warn("seed enabled but no command configured, skipping")
		return
	}

	o.log.Info("seeding initial data", "command", step.Command)
	stderr, err := o.runner.Run(ctx, runner.Command{
		Name: step.Command,
		Args: step.Args,
	})
	if err != nil {
		o.log.Error("seed step failed, continuing startup",
			"error", fmt.Errorf("%w: %v", ErrSeedFailed, err).Error(),
			"stderr", string(stderr),
		)
		return
	}
	o.log.Info("seed data applied")
}
