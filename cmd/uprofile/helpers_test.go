// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Imfractical/uprofile/internal/account"
	"github.com/Imfractical/uprofile/internal/account/accounttest"
	"github.com/Imfractical/uprofile/internal/config"
)

const testPassword = "Str0ng!Pass"

// isolateConfig keeps the host's config file and environment out of a test.
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DATABASE_URL", "")
	restore := slog.Default()
	t.Cleanup(func() { slog.SetDefault(restore) })
}

// memoryDeps runs commands against an in-memory store.
func memoryDeps(t *testing.T) (*Deps, *accounttest.Services) {
	t.Helper()
	svcs := accounttest.NewServices(t)
	store := svcs.Store
	deps := &Deps{
		BackendFactory: func(context.Context, *config.Config, *slog.Logger) (*Backend, error) {
			return &Backend{
				Accounts:   store.Accounts(),
				Profiles:   store.Profiles(),
				Sessions:   store.Sessions(),
				Resets:     store.Resets(),
				Transactor: store,
				Ready:      func() bool { return true },
				Close:      func() {},
			}, nil
		},
		Hasher: accounttest.FastHasher(),
	}
	return deps, svcs
}

func register(t *testing.T, svcs *accounttest.Services, identifier string) *account.SessionGrant {
	t.Helper()
	grant, out, err := svcs.Accounts.Register(context.Background(), account.RegistrationRequest{
		Identifier:             identifier,
		IdentifierConfirmation: identifier,
		Password:               testPassword,
		PasswordConfirmation:   testPassword,
		GivenName:              "Alice",
		FamilyName:             "Liddell",
		BirthDate:              time.Now().AddDate(-30, 0, 0),
	})
	require.NoError(t, err)
	require.True(t, out.Accepted(), out.String())
	return grant
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, deps *Deps, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(deps)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
