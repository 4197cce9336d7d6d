package cmd

import (
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/kebairia/stackctl/internal/logger"
)

// defaultSchedule runs a nightly cycle when the config declares none.
const defaultSchedule = "0 3 * * *"

// cronLogger adapts logger.Logger to the cron.Logger interface.
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Info(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error(msg, append(keysAndValues, "error", err.Error())...)
}

// newScheduler builds the cycle scheduler. A cycle that outlives the
// schedule interval must not overlap the next one: two backups of the same
// store would race, so late ticks are skipped instead.
func newScheduler(log logger.Logger, opts ...cron.Option) *cron.Cron {
	opts = append(opts, cron.WithChain(
		cron.SkipIfStillRunning(cronLogger{log: log}),
	))
	return cron.New(opts...)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run backup cycles on a cron schedule until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(
			cmd.Context(), syscall.SIGINT, syscall.SIGTERM,
		)
		defer stop()

		coordinator, err := newCoordinator(ctx, cfg)
		if err != nil {
			return err
		}

		schedule := cfg.Schedule
		if schedule == "" {
			schedule = defaultSchedule
		}

		log := logger.Global()
		scheduler := newScheduler(log)
		if _, err := scheduler.AddFunc(schedule, func() {
			coordinator.RunCycle(ctx)
		}); err != nil {
			return err
		}

		log.Info("backup daemon started", "schedule", schedule)
		scheduler.Start()

		<-ctx.Done()
		log.Info("shutting down, waiting for in-flight cycle")
		<-scheduler.Stop().Done()
		return nil
	},
}
