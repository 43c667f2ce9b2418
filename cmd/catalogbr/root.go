package main

import (
	"fmt"
	"os"

	config "github.com/tigerroll/surfin-backuprestore/pkg/batch/core/config"
	logger "github.com/tigerroll/surfin-backuprestore/pkg/batch/support/util/logger"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath  string
	envFilePath string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "catalogbr",
		Short:         "Catalog backup and restore",
		Long:          "catalogbr writes catalog snapshots to NDJSON archives and restores archives into new, validated catalog snapshots.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to an application.yaml replacing the built-in configuration")
	cmd.PersistentFlags().StringVar(&opts.envFilePath, "env-file", ".env", "Path to a .env file loaded before the configuration")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Overrides surfin.system.logging.level")

	cmd.AddCommand(newBackupCmd(opts))
	cmd.AddCommand(newRestoreCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newArchivesCmd(opts))
	return cmd
}

// loadConfig loads the configuration the commands run with.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	raw := config.EmbeddedConfig(embeddedConfig)
	if o.configPath != "" {
		data, err := os.ReadFile(o.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		raw = data
	}

	cfg, err := config.LoadConfig(o.envFilePath, raw)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Surfin.System.Logging.Level = o.logLevel
	}
	config.GlobalConfig = cfg
	logger.SetLogLevel(cfg.Surfin.System.Logging.Level)
	return cfg, nil
}
