package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

// ErrAllStoresFailed surfaces total cycle failure to an external scheduler
// through the exit code. Partial failure still exits 0.
var ErrAllStoresFailed = errors.New("all store backups failed")

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Run one backup cycle across all configured stores",
	Long: `backup dumps every configured store concurrently, compresses the
artifacts, and sweeps each store's retention window after a successful
backup. A store failure is reported in the summary without blocking the
other stores.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		coordinator, err := newCoordinator(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		run := coordinator.RunCycle(cmd.Context())
		if run.AllFailed() {
			return ErrAllStoresFailed
		}
		return nil
	},
}
