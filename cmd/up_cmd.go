package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kebairia/stackctl/internal/orchestrator"
)

var seedFlag bool

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Gate startup: await dependencies, migrate, optionally seed",
	Long: `up blocks until every declared dependency accepts connections, then
runs the migration command and, when seeding is enabled, the seed command.
It exits 0 once the stack is ready for the application to start; any
dependency timeout or migration failure exits non-zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed.Enabled = seedFlag
		}

		ctx, stop := signal.NotifyContext(
			cmd.Context(), syscall.SIGINT, syscall.SIGTERM,
		)
		defer stop()

		return orchestrator.New(cfg).Up(ctx)
	},
}

func init() {
	upCmd.Flags().
		BoolVar(&seedFlag, "seed", false, "seed initial data after migrating (overrides config)")
}
