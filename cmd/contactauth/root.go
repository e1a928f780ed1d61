package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/contactAuth/internal/config"
	"github.com/MrEthical07/contactAuth/internal/logging"
)

const serviceName = "contactauth"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Authentication API for the contacts service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// loadConfig reads the config file named by --config and the flags of cmd.
func loadConfig(cmd *cobra.Command) (config.AppConfig, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		logger := logging.Setup(serviceName, version, "json", os.Stderr)
		logging.LogError(logger, "load configuration", err)
		return config.AppConfig{}, nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return config.AppConfig{}, nil, err
	}
	return cfg, logging.SetupLevel(serviceName, version, cfg.Log.Format, level, os.Stderr), nil
}
