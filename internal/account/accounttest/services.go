// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package accounttest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Imfractical/uprofile/internal/account"
	"github.com/Imfractical/uprofile/internal/password"
)

// Services bundles the account services wired to one Store.
type Services struct {
	Store    *Store
	Accounts *account.Service
	Resets   *account.PasswordResetService
	Profiles *account.ProfileService
}

// NewServices wires every account service to a fresh Store with the
// default password policy and FastHasher.
func NewServices(t testing.TB, opts ...account.Option) *Services {
	t.Helper()

	rules, err := password.NewRuleSet(password.DefaultPolicy())
	require.NoError(t, err)

	store := NewStore()
	hasher := FastHasher()

	accounts, err := account.NewService(account.Dependencies{
		Accounts:   store.Accounts(),
		Profiles:   store.Profiles(),
		Sessions:   store.Sessions(),
		Hasher:     hasher,
		Transactor: store,
		Rules:      rules,
	}, opts...)
	require.NoError(t, err)

	resets, err := account.NewPasswordResetService(account.ResetDependencies{
		Accounts:   store.Accounts(),
		Sessions:   store.Sessions(),
		Resets:     store.Resets(),
		Hasher:     hasher,
		Transactor: store,
		Rules:      rules,
	}, opts...)
	require.NoError(t, err)

	profiles, err := account.NewProfileService(store.Accounts(), store.Profiles(), store, opts...)
	require.NoError(t, err)

	return &Services{Store: store, Accounts: accounts, Resets: resets, Profiles: profiles}
}
