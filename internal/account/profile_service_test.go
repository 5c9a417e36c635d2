// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Imfractical/uprofile/internal/account"
	"github.com/Imfractical/uprofile/internal/account/accounttest"
	"github.com/Imfractical/uprofile/internal/account/mocks"
	"github.com/Imfractical/uprofile/internal/validation"
	"github.com/Imfractical/uprofile/pkg/errutil"
)

func ptr(s string) *string { return &s }

func TestProfileService_Get(t *testing.T) {
	ctx := context.Background()
	svcs := accounttest.NewServices(t)
	grant := registerAlice(t, svcs)

	view, err := svcs.Profiles.Get(ctx, grant.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", view.Account.Identifier)
	assert.Equal(t, grant.Account.ID, view.Profile.AccountID)

	_, err = svcs.Profiles.Get(ctx, ulid.Make())
	errutil.AssertErrorCode(t, err, "ACCOUNT_NOT_FOUND")
}

func TestProfileService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("updates only the given fields", func(t *testing.T) {
		svcs := accounttest.NewServices(t)
		grant := registerAlice(t, svcs)

		view, out, err := svcs.Profiles.Update(ctx, grant.Account.ID, account.ProfileUpdate{
			Bio:      ptr("  Curiouser and curiouser.  "),
			Location: ptr("Oxford"),
		})
		require.NoError(t, err)
		require.True(t, out.Accepted(), out.String())
		assert.Equal(t, "Curiouser and curiouser.", view.Profile.Bio)
		assert.Equal(t, "Oxford", view.Profile.Location)
		assert.Equal(t, "Alice", view.Account.GivenName)

		view, _, err = svcs.Profiles.Update(ctx, grant.Account.ID, account.ProfileUpdate{
			GivenName:    ptr("Alicia"),
			Relationship: ptr("It's complicated"),
			AvatarRef:    ptr("avatars/alice.png"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Oxford", view.Profile.Location)
		assert.Equal(t, "It's complicated", view.Profile.Relationship)
		assert.Equal(t, "avatars/alice.png", view.Profile.AvatarRef)

		stored, err := svcs.Store.Accounts().GetByID(ctx, grant.Account.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alicia", stored.GivenName)
		assert.Equal(t, "Liddell", stored.FamilyName)
	})

	t.Run("strips markup from free text", func(t *testing.T) {
		svcs := accounttest.NewServices(t)
		grant := registerAlice(t, svcs)

		view, out, err := svcs.Profiles.Update(ctx, grant.Account.ID, account.ProfileUpdate{
			Bio: ptr(`<script>alert(1)</script>Tea & <b>cakes</b>`),
		})
		require.NoError(t, err)
		require.True(t, out.Accepted())
		assert.Equal(t, "Tea & cakes", view.Profile.Bio)

		view, out, err = svcs.Profiles.Update(ctx, grant.Account.ID, account.ProfileUpdate{
			Bio:       ptr(`&lt;script&gt;alert(1)&lt;/script&gt;`),
			Location:  ptr(`&lt;img src=x onerror=alert(1)&gt;Oxford`),
			GivenName: ptr(`&lt;b&gt;Alicia&lt;/b&gt;`),
		})
		require.NoError(t, err)
		require.True(t, out.Accepted(), out.String())
		assert.Empty(t, view.Profile.Bio)
		assert.Equal(t, "Oxford", view.Profile.Location)
		assert.Equal(t, "Alicia", view.Account.GivenName)

		stored, err := svcs.Store.Profiles().Get(ctx, grant.Account.ID)
		require.NoError(t, err)
		assert.NotContains(t, stored.Bio, "<")
		assert.NotContains(t, stored.Location, "<")
	})

	t.Run("length limits", func(t *testing.T) {
		svcs := accounttest.NewServices(t)
		grant := registerAlice(t, svcs)

		view, out, err := svcs.Profiles.Update(ctx, grant.Account.ID, account.ProfileUpdate{
			Bio:          ptr(strings.Repeat("é", account.MaxBioLength+1)),
			Location:     ptr(strings.Repeat("x", account.MaxLocationLength+1)),
			Relationship: ptr(strings.Repeat("x", account.MaxRelationshipLength)),
			FamilyName:   ptr(""),
		})
		require.NoError(t, err)
		assert.Nil(t, view)
		assert.Equal(t, []validation.Code{
			validation.CodeRequired,
			validation.CodeTooLong,
			validation.CodeTooLong,
		}, out.Codes())
		assert.Equal(t, "Ensure this value has at most 1000 characters (it has 1001)", out.Failures[1].Message)

		current, err := svcs.Profiles.Get(ctx, grant.Account.ID)
		require.NoError(t, err)
		assert.Empty(t, current.Profile.Bio)
	})

	t.Run("unknown account", func(t *testing.T) {
		svcs := accounttest.NewServices(t)
		_, _, err := svcs.Profiles.Update(ctx, ulid.Make(), account.ProfileUpdate{Bio: ptr("hi")})
		errutil.AssertErrorCode(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("store failure", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		profiles := mocks.NewMockProfileRepository(t)
		svc, err := account.NewProfileService(accounts, profiles, directTx{})
		require.NoError(t, err)

		id := ulid.Make()
		accounts.On("GetByIDForUpdate", ctx, id).Return(&account.Account{ID: id}, nil)
		profiles.On("Get", ctx, id).Return(&account.Profile{AccountID: id}, nil)
		profiles.On("Update", ctx, mock.AnythingOfType("*account.Profile")).Return(errors.New("db down"))

		_, _, err = svc.Update(ctx, id, account.ProfileUpdate{Bio: ptr("hi")})
		errutil.AssertErrorCode(t, err, "PROFILE_UPDATE_FAILED")
	})
}

func TestNewProfileService_MissingDependencies(t *testing.T) {
	_, err := account.NewProfileService(nil, mocks.NewMockProfileRepository(t), directTx{})
	assert.ErrorContains(t, err, "accounts repository is required")
	_, err = account.NewProfileService(mocks.NewMockAccountRepository(t), nil, directTx{})
	assert.ErrorContains(t, err, "profiles repository is required")
	_, err = account.NewProfileService(mocks.NewMockAccountRepository(t), mocks.NewMockProfileRepository(t), nil)
	assert.ErrorContains(t, err, "transactor is required")
}
