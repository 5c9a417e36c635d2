// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/Imfractical/uprofile/internal/account"
)

const accountColumns = `id, identifier, given_name, family_name, credential_hash, active, failed_attempts, locked_until, created_at, updated_at`

// AccountRepository implements account.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, acct *account.Account) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		acct.ID.String(),
		acct.Identifier,
		acct.GivenName,
		acct.FamilyName,
		acct.CredentialHash,
		acct.Active,
		acct.FailedAttempts,
		acct.LockedUntil,
		acct.CreatedAt,
		acct.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return oops.Code("ACCOUNT_IDENTIFIER_TAKEN").
			With("identifier", acct.Identifier).
			Wrap(account.ErrIdentifierTaken)
	}
	if err != nil {
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("account_id", acct.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*account.Account, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id.String())
	return r.get(row, "get account by id", "account_id", id.String())
}

// GetByIDForUpdate retrieves an account and locks its row. Outside a
// transaction the lock is released as soon as the statement completes.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, id ulid.ULID) (*account.Account, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, id.String())
	return r.get(row, "lock account by id", "account_id", id.String())
}

// GetByIdentifier retrieves an account by its normalized identifier.
func (r *AccountRepository) GetByIdentifier(ctx context.Context, identifier string) (*account.Account, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE identifier = $1
	`, identifier)
	return r.get(row, "get account by identifier", "identifier", identifier)
}

// Exists reports whether an account holds the normalized identifier.
func (r *AccountRepository) Exists(ctx context.Context, identifier string) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM accounts WHERE identifier = $1)
	`, identifier).Scan(&exists)
	if err != nil {
		return false, oops.Code("ACCOUNT_EXISTS_FAILED").
			With("operation", "check identifier").
			With("identifier", identifier).
			Wrap(err)
	}
	return exists, nil
}

// UpdateCredential replaces the stored credential hash.
func (r *AccountRepository) UpdateCredential(ctx context.Context, id ulid.ULID, credentialHash string) error {
	return r.update(ctx, id, "update credential", `
		UPDATE accounts SET credential_hash = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), credentialHash, time.Now())
}

// UpdateNames replaces the given and family names.
func (r *AccountRepository) UpdateNames(ctx context.Context, id ulid.ULID, givenName, familyName string) error {
	return r.update(ctx, id, "update names", `
		UPDATE accounts SET given_name = $2, family_name = $3, updated_at = $4
		WHERE id = $1
	`, id.String(), givenName, familyName, time.Now())
}

// SetActive sets the active flag.
func (r *AccountRepository) SetActive(ctx context.Context, id ulid.ULID, active bool) error {
	return r.update(ctx, id, "set active", `
		UPDATE accounts SET active = $2, updated_at = $3
		WHERE id = $1
	`, id.String(), active, time.Now())
}

// UpdateLoginState stores the failed login counter and lockout expiry.
func (r *AccountRepository) UpdateLoginState(ctx context.Context, id ulid.ULID, failedAttempts int, lockedUntil *time.Time) error {
	return r.update(ctx, id, "update login state", `
		UPDATE accounts SET failed_attempts = $2, locked_until = $3, updated_at = $4
		WHERE id = $1
	`, id.String(), failedAttempts, lockedUntil, time.Now())
}

func (r *AccountRepository) update(ctx context.Context, id ulid.ULID, operation, sql string, args ...any) error {
	result, err := conn(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", operation).
			With("account_id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("account_id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

func (r *AccountRepository) get(row pgx.Row, operation, key, value string) (*account.Account, error) {
	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With(key, value).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", operation).
			With(key, value).
			Wrap(err)
	}
	return acct, nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		idStr string
		acct  account.Account
	)
	err := row.Scan(&idStr, &acct.Identifier, &acct.GivenName, &acct.FamilyName,
		&acct.CredentialHash, &acct.Active, &acct.FailedAttempts, &acct.LockedUntil,
		&acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	acct.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}
	return &acct, nil
}

var _ account.AccountRepository = (*AccountRepository)(nil)
