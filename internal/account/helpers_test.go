// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Imfractical/uprofile/internal/account"
	"github.com/Imfractical/uprofile/internal/account/accounttest"
	"github.com/Imfractical/uprofile/internal/password"
)

const alicePassword = "Str0ng!Pass"

// directTx runs fn without any transaction, for mock-based tests.
type directTx struct{}

func (directTx) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func ruleSet(t *testing.T) *password.RuleSet {
	t.Helper()
	rs, err := password.NewRuleSet(password.DefaultPolicy())
	require.NoError(t, err)
	return rs
}

func aliceRequest() account.RegistrationRequest {
	return account.RegistrationRequest{
		Identifier:             "alice@example.com",
		IdentifierConfirmation: "alice@example.com",
		Password:               alicePassword,
		PasswordConfirmation:   alicePassword,
		GivenName:              "Alice",
		FamilyName:             "Liddell",
		BirthDate:              time.Now().AddDate(-30, 0, 0),
		UserAgent:              "Mozilla/5.0",
		IPAddress:              "192.0.2.10",
	}
}

func registerAlice(t *testing.T, svcs *accounttest.Services) *account.SessionGrant {
	t.Helper()
	grant, out, err := svcs.Accounts.Register(context.Background(), aliceRequest())
	require.NoError(t, err)
	require.True(t, out.Accepted(), out.String())
	require.NotNil(t, grant)
	return grant
}

func login(t *testing.T, svcs *accounttest.Services, identifier, pw string) *account.SessionGrant {
	t.Helper()
	grant, out, err := svcs.Accounts.Authenticate(context.Background(), account.AuthenticationRequest{
		Identifier: identifier,
		Password:   pw,
	})
	require.NoError(t, err)
	require.True(t, out.Accepted(), out.String())
	return grant
}
