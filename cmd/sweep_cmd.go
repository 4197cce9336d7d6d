package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kebairia/stackctl/internal/backup"
	"github.com/kebairia/stackctl/internal/logger"
	"github.com/kebairia/stackctl/internal/store"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Apply the retention policy to every store directory",
	Long: `sweep deletes expired artifacts from each configured store's backup
directory without taking a new backup. The coordinator already sweeps after
each successful backup; this command exists for manual housekeeping.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// no credentials needed to sweep, so skip Vault entirely
		stores, err := store.Initialize(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}

		log := logger.Global()
		maxAge := backup.MaxAge(cfg.Retention.MaxAgeDays)
		for _, st := range stores {
			deleted, err := backup.Sweep(st.Dir(), maxAge)
			if err != nil {
				log.Error("retention sweep error",
					"store", st.Name(),
					"deleted", deleted,
					"error", err.Error(),
				)
				continue
			}
			log.Info("retention sweep finished",
				"store", st.Name(),
				"deleted", deleted,
				"max_age_days", cfg.Retention.MaxAgeDays,
			)
		}
		return nil
	},
}
