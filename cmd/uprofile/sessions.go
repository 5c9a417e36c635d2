// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package main

import "github.com/spf13/cobra"

// NewSessionsCmd creates the sessions maintenance command.
func NewSessionsCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Maintain sessions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete expired sessions and password reset requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svcs, closeFn, err := adminServices(cmd, deps)
			if err != nil {
				return err
			}
			defer closeFn()

			sessions, err := svcs.accounts.PruneExpiredSessions(cmd.Context())
			if err != nil {
				return err
			}
			resets, err := svcs.resets.PruneExpired(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Pruned %d expired session(s) and %d expired password reset(s)\n", sessions, resets)
			return nil
		},
	})
	return cmd
}
