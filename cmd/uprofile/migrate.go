// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Imfractical/uprofile/internal/store"
)

// NewMigrateCmd creates the migrate command and its subcommands.
func NewMigrateCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back or inspect the PostgreSQL schema migrations.`,
		// Bare "migrate" applies everything pending.
		RunE: withMigrator(deps, runMigrateUp),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  withMigrator(deps, runMigrateUp),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE: withMigrator(deps, func(cmd *cobra.Command, m Migrator, _ []string) error {
			cmd.Println("Rolling back all migrations...")
			if err := m.Down(); err != nil {
				return err
			}
			cmd.Println("Rollback completed successfully")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "steps N",
		Short: "Apply N migrations, or roll back -N",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrator(deps, func(cmd *cobra.Command, m Migrator, args []string) error {
			n, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return oops.Code("INVALID_STEPS").With("input", args[0]).Wrap(err)
			}
			if err := m.Steps(n); err != nil {
				return err
			}
			return printVersion(cmd, m)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrator(deps, func(cmd *cobra.Command, m Migrator, _ []string) error {
			return printVersion(cmd, m)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the schema version and pending migrations",
		Args:  cobra.NoArgs,
		RunE:  withMigrator(deps, runMigrateStatus),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Long: `Set the recorded schema version and clear the dirty flag without
running any migration. Use after repairing a failed migration by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: withMigrator(deps, func(cmd *cobra.Command, m Migrator, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			if err := m.Force(v); err != nil {
				return err
			}
			cmd.Printf("Forced schema version to %d\n", v)
			return nil
		}),
	})

	return cmd
}

// withMigrator opens a migrator for the configured database around fn.
func withMigrator(deps *Deps, fn func(cmd *cobra.Command, m Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		databaseURL, err := getDatabaseURL(cfg)
		if err != nil {
			return err
		}
		m, err := deps.MigratorFactory(databaseURL)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := m.Close(); closeErr != nil {
				logger.Warn("failed to close migrator", "error", closeErr)
			}
		}()
		return fn(cmd, m, args)
	}
}

func runMigrateUp(cmd *cobra.Command, m Migrator, _ []string) error {
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("No pending migrations")
		return nil
	}
	cmd.Printf("Applying %d migration(s)...\n", len(pending))
	if err := m.Up(); err != nil {
		return err
	}
	cmd.Println("Migrations completed successfully")
	return printVersion(cmd, m)
}

func runMigrateStatus(cmd *cobra.Command, m Migrator, _ []string) error {
	if err := printVersion(cmd, m); err != nil {
		return err
	}
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		cmd.Println("No pending migrations")
		return nil
	}
	cmd.Println("Pending migrations:")
	for _, v := range pending {
		name, err := store.MigrationName(v)
		if err != nil {
			return err
		}
		cmd.Printf("  %s\n", name)
	}
	return nil
}

func printVersion(cmd *cobra.Command, m Migrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	state := ""
	if dirty {
		state = " (dirty)"
	}
	cmd.Printf("Schema version: %d%s\n", v, state)
	return nil
}

// parseForceVersion reads a version number, ignoring surrounding space and
// any trailing non-digits.
func parseForceVersion(input string) (int, error) {
	var v int
	if _, err := fmt.Sscanf(strings.TrimSpace(input), "%d", &v); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", input).Wrap(err)
	}
	return v, nil
}
