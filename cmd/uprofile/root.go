// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Imfractical/uprofile/internal/config"
	"github.com/Imfractical/uprofile/internal/logging"
)

const serviceName = "uprofile"

// NewRootCmd creates the root command. A nil deps uses the production
// implementations.
func NewRootCmd(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "uprofile",
		Short: "uprofile - account registration, authentication and profiles",
		Long: `uprofile registers accounts, authenticates them, manages their
sessions and credentials, and serves their profiles over a JSON API.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (default: $XDG_CONFIG_HOME/uprofile/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd(deps))
	cmd.AddCommand(NewMigrateCmd(deps))
	cmd.AddCommand(NewAccountCmd(deps))
	cmd.AddCommand(NewSessionsCmd(deps))
	cmd.AddCommand(NewResetCmd(deps))

	return cmd
}

// loadConfig reads the configuration for cmd, honoring --config and the
// config flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err //nolint:wrapcheck // flag is registered on the root command
	}
	return config.Load(config.LoadOptions{File: path, Flags: cmd.Flags()})
}

// setup loads the configuration and installs the default logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
