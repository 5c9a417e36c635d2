// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package main

import (
	"time"

	"github.com/spf13/cobra"
)

// NewAccountCmd creates the account administration command.
func NewAccountCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Administer accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show ACCOUNT",
		Short: "Show an account by ID or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, closeFn, err := adminServices(cmd, deps)
			if err != nil {
				return err
			}
			defer closeFn()

			acct, err := svcs.accounts.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("ID:         %s\n", acct.ID)
			cmd.Printf("Identifier: %s\n", acct.Identifier)
			cmd.Printf("Name:       %s %s\n", acct.GivenName, acct.FamilyName)
			cmd.Printf("Active:     %t\n", acct.Active)
			cmd.Printf("Failures:   %d\n", acct.FailedAttempts)
			if acct.IsLockedAt(time.Now()) {
				cmd.Printf("Locked:     until %s\n", acct.LockedUntil.Format(time.RFC3339))
			}
			cmd.Printf("Created:    %s\n", acct.CreatedAt.Format(time.RFC3339))
			return nil
		},
	})
	cmd.AddCommand(newSetActiveCmd(deps, "activate", true))
	cmd.AddCommand(newSetActiveCmd(deps, "deactivate", false))
	cmd.AddCommand(&cobra.Command{
		Use:   "unlock ACCOUNT",
		Short: "Clear failed sign-in attempts and any lockout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, closeFn, err := adminServices(cmd, deps)
			if err != nil {
				return err
			}
			defer closeFn()

			acct, err := svcs.accounts.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := svcs.accounts.Unlock(cmd.Context(), acct.ID); err != nil {
				return err
			}
			cmd.Printf("Account %s (%s) unlocked\n", acct.Identifier, acct.ID)
			return nil
		},
	})
	return cmd
}

func newSetActiveCmd(deps *Deps, verb string, active bool) *cobra.Command {
	short := "Allow an account to sign in"
	if !active {
		short = "Block an account from signing in and end its sessions"
	}
	return &cobra.Command{
		Use:   verb + " ACCOUNT",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, closeFn, err := adminServices(cmd, deps)
			if err != nil {
				return err
			}
			defer closeFn()

			acct, err := svcs.accounts.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := svcs.accounts.SetActive(cmd.Context(), acct.ID, active); err != nil {
				return err
			}
			cmd.Printf("Account %s (%s) %sd\n", acct.Identifier, acct.ID, verb)
			return nil
		},
	}
}

// adminServices loads configuration and storage for an admin command.
func adminServices(cmd *cobra.Command, deps *Deps) (*services, func(), error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	return openServices(cmd.Context(), deps, cfg, logger)
}
