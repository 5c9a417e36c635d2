// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Imfractical/uprofile/internal/account"
	"github.com/Imfractical/uprofile/internal/account/postgres"
)

func createAccount(ctx context.Context, t *testing.T, identifier string) *account.Account {
	t.Helper()
	acct, err := account.NewAccount(identifier, "Alice", "Liddell", "$argon2id$test")
	require.NoError(t, err)
	acct.CreatedAt = acct.CreatedAt.UTC().Truncate(time.Microsecond)
	acct.UpdatedAt = acct.CreatedAt

	require.NoError(t, postgres.NewAccountRepository(testPool).Create(ctx, acct))
	t.Cleanup(func() {
		_, _ = testPool.Exec(context.Background(), `DELETE FROM accounts WHERE id = $1`, acct.ID.String())
	})
	return acct
}

func TestAccountRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewAccountRepository(testPool)
	acct := createAccount(ctx, t, "roundtrip@example.com")

	got, err := repo.GetByIdentifier(ctx, "roundtrip@example.com")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)
	assert.True(t, got.CreatedAt.Equal(acct.CreatedAt))

	exists, err := repo.Exists(ctx, "roundtrip@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.UpdateCredential(ctx, acct.ID, "$argon2id$other"))
	require.NoError(t, repo.UpdateNames(ctx, acct.ID, "Alicia", "Hargreaves"))
	require.NoError(t, repo.SetActive(ctx, acct.ID, false))

	got, err = repo.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "$argon2id$other", got.CredentialHash)
	assert.Equal(t, "Alicia", got.GivenName)
	assert.Equal(t, "Hargreaves", got.FamilyName)
	assert.False(t, got.Active)

	_, err = repo.GetByID(ctx, ulid.Make())
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestAccountRepository_LoginState(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewAccountRepository(testPool)
	acct := createAccount(ctx, t, "lockout@example.com")

	got, err := repo.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FailedAttempts)
	assert.Nil(t, got.LockedUntil)

	until := time.Now().Add(15 * time.Minute).UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.UpdateLoginState(ctx, acct.ID, 7, &until))

	got, err = repo.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.FailedAttempts)
	require.NotNil(t, got.LockedUntil)
	assert.True(t, got.LockedUntil.Equal(until))

	require.NoError(t, repo.UpdateLoginState(ctx, acct.ID, 0, nil))
	got, err = repo.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FailedAttempts)
	assert.Nil(t, got.LockedUntil)
}

func TestAccountRepository_DuplicateIdentifier(t *testing.T) {
	ctx := context.Background()
	createAccount(ctx, t, "taken@example.com")

	dup, err := account.NewAccount("taken@example.com", "Bob", "Smith", "$argon2id$x")
	require.NoError(t, err)
	err = postgres.NewAccountRepository(testPool).Create(ctx, dup)
	assert.ErrorIs(t, err, account.ErrIdentifierTaken)
}

func TestAccountRepository_ConcurrentCreateSameIdentifier(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewAccountRepository(testPool)
	t.Cleanup(func() {
		_, _ = testPool.Exec(context.Background(), `DELETE FROM accounts WHERE identifier = 'race@example.com'`)
	})

	const racers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		ok    int
		taken int
	)
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acct, err := account.NewAccount("race@example.com", "R", "R", "$argon2id$x")
			if err != nil {
				return
			}
			err = repo.Create(ctx, acct)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, account.ErrIdentifierTaken):
				taken++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, racers-1, taken)
}

func TestTransactor_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewAccountRepository(testPool)
	tx := postgres.NewTransactor(testPool)

	acct, err := account.NewAccount("rollback@example.com", "A", "B", "$argon2id$x")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, acct); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	exists, err := repo.Exists(ctx, "rollback@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProfileRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	acct := createAccount(ctx, t, "profile@example.com")
	repo := postgres.NewProfileRepository(testPool)

	p := account.NewDefaultProfile(acct.ID, time.Date(1996, 5, 4, 15, 30, 0, 0, time.UTC))
	require.NoError(t, repo.CreateDefault(ctx, p))

	p.Bio = "Curiouser and curiouser"
	p.Location = "Oxford"
	p.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.Get(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "Curiouser and curiouser", got.Bio)
	assert.Equal(t, "Oxford", got.Location)
	assert.Equal(t, "1996-05-04", got.BirthDate.Format(time.DateOnly))
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	acct := createAccount(ctx, t, "sessions@example.com")
	repo := postgres.NewSessionRepository(testPool)

	newSession := func(hash string, expires time.Time) *account.Session {
		s, err := account.NewSession(acct.ID, hash, "test-agent", "192.0.2.1", expires)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, s))
		return s
	}
	keep := newSession("hash-keep", time.Now().Add(time.Hour))
	other := newSession("hash-other", time.Now().Add(time.Hour))
	expired := newSession("hash-expired", time.Now().Add(-time.Hour))

	n, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
	_, err = repo.GetByID(ctx, expired.ID)
	assert.ErrorIs(t, err, account.ErrNotFound)

	require.NoError(t, repo.Rebind(ctx, keep.ID, acct.ID, "hash-rebound", time.Now().Add(2*time.Hour)))
	_, err = repo.GetByTokenHash(ctx, "hash-keep")
	assert.ErrorIs(t, err, account.ErrNotFound)
	rebound, err := repo.GetByTokenHash(ctx, "hash-rebound")
	require.NoError(t, err)
	assert.Equal(t, keep.ID, rebound.ID)

	err = repo.Rebind(ctx, keep.ID, ulid.Make(), "hash-stolen", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, account.ErrNotFound)

	n, err = repo.DeleteByAccountExcept(ctx, acct.ID, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = repo.GetByID(ctx, other.ID)
	assert.ErrorIs(t, err, account.ErrNotFound)

	n, err = repo.DeleteByAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPasswordResetRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	acct := createAccount(ctx, t, "resets@example.com")
	repo := postgres.NewPasswordResetRepository(testPool)

	reset, err := account.NewPasswordReset(acct.ID, "reset-hash", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, reset))

	got, err := repo.GetByTokenHash(ctx, "reset-hash")
	require.NoError(t, err)
	assert.Equal(t, reset.ID, got.ID)
	assert.Equal(t, acct.ID, got.AccountID)

	n, err := repo.DeleteByAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetByTokenHash(ctx, "reset-hash")
	assert.ErrorIs(t, err, account.ErrNotFound)
}
