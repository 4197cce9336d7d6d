package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/kebairia/stackctl/internal/backup"
	"github.com/kebairia/stackctl/internal/config"
	"github.com/kebairia/stackctl/internal/logger"
	"github.com/kebairia/stackctl/internal/store"
	"github.com/kebairia/stackctl/internal/vault"
)

// ConfigFile is the path to the YAML configuration.
var (
	ConfigFile string
	// rootCmd is the base command for stackctl.
	rootCmd = &cobra.Command{
		Use:   "stackctl",
		Short: "Startup gate and backup coordinator for a multi-store stack",
		Long: `stackctl brings dependent services up in the right order and keeps
their data stores backed up.

'up' gates startup on dependency readiness, applies migrations and
optionally seeds initial data; 'backup' runs one backup cycle across the
relational, document and cache stores with per-store retention.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command. Any command error exits non-zero so an
// external supervisor or scheduler sees the failure.
func Execute() {
	log, err := logger.Init()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		log.Error("command failed", "error", err.Error())
		logger.Cleanup()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().
		StringVarP(&ConfigFile, "config", "c", "./configs/config.yaml", "path to YAML config file")
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(sweepCmd)
}

// loadConfig reads and validates the configuration for a command run.
func loadConfig() (config.Config, error) {
	var cfg config.Config
	if err := cfg.Load(ConfigFile); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newCoordinator wires up the stores (resolving Vault credentials when
// configured) and returns a ready coordinator.
func newCoordinator(ctx context.Context, cfg config.Config) (*backup.Coordinator, error) {
	var vaultClient *vault.Client
	if cfg.Vault.Address != "" {
		var err error
		vaultClient, err = vault.NewClient(ctx,
			vault.WithAddress(cfg.Vault.Address),
			vault.WithAppRole(cfg.Vault.RoleID, cfg.Vault.RoleName),
		)
		if err != nil {
			return nil, err
		}
	}

	stores, err := store.Initialize(ctx, cfg, vaultClient)
	if err != nil {
		return nil, err
	}
	return backup.NewCoordinator(cfg, stores), nil
}
