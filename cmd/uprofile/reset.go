// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewResetCmd creates the password reset command.
func NewResetCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Issue password resets",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "issue EMAIL",
		Short: "Issue a password reset token for an account",
		Long: `Issue a single-use password reset token and print it. Hand it to the
account holder, who confirms it through POST /v1/password-resets/confirm.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, closeFn, err := adminServices(cmd, deps)
			if err != nil {
				return err
			}
			defer closeFn()

			token, err := svcs.resets.RequestReset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if token == "" {
				return oops.Code("ACCOUNT_NOT_FOUND").
					With("account", args[0]).
					Errorf("no active account for %s", args[0])
			}
			cmd.Println(token)
			return nil
		},
	})
	return cmd
}
