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

// PasswordResetRepository implements account.PasswordResetRepository using PostgreSQL.
type PasswordResetRepository struct {
	db DB
}

// NewPasswordResetRepository creates a new PasswordResetRepository.
func NewPasswordResetRepository(db DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Create stores a new password reset request.
func (r *PasswordResetRepository) Create(ctx context.Context, reset *account.PasswordReset) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO password_resets (id, account_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, reset.ID.String(), reset.AccountID.String(), reset.TokenHash, reset.ExpiresAt, reset.CreatedAt)
	if err != nil {
		return oops.Code("RESET_CREATE_FAILED").
			With("operation", "insert password_reset").
			With("account_id", reset.AccountID.String()).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a reset request by its token hash.
func (r *PasswordResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*account.PasswordReset, error) {
	var (
		idStr, accountIDStr string
		reset               account.PasswordReset
	)
	err := conn(ctx, r.db).QueryRow(ctx, `
		SELECT id, account_id, token_hash, expires_at, created_at
		FROM password_resets
		WHERE token_hash = $1
	`, tokenHash).Scan(&idStr, &accountIDStr, &reset.TokenHash, &reset.ExpiresAt, &reset.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RESET_NOT_FOUND").Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("RESET_GET_FAILED").
			With("operation", "get reset by token hash").
			Wrap(err)
	}

	if reset.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("RESET_INVALID_ID").
			With("operation", "parse reset id").
			With("id", idStr).
			Wrap(err)
	}
	if reset.AccountID, err = ulid.Parse(accountIDStr); err != nil {
		return nil, oops.Code("RESET_INVALID_ACCOUNT_ID").
			With("operation", "parse account id").
			With("account_id", accountIDStr).
			Wrap(err)
	}
	return &reset, nil
}

// DeleteByAccount removes all reset requests of an account.
func (r *PasswordResetRepository) DeleteByAccount(ctx context.Context, accountID ulid.ULID) (int64, error) {
	result, err := conn(ctx, r.db).Exec(ctx, `
		DELETE FROM password_resets WHERE account_id = $1
	`, accountID.String())
	if err != nil {
		return 0, oops.Code("RESET_DELETE_BY_ACCOUNT_FAILED").
			With("operation", "delete password_resets by account").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteExpired removes all expired reset requests and returns the count.
func (r *PasswordResetRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := conn(ctx, r.db).Exec(ctx, `
		DELETE FROM password_resets WHERE expires_at < $1
	`, time.Now())
	if err != nil {
		return 0, oops.Code("RESET_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired password_resets").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

var _ account.PasswordResetRepository = (*PasswordResetRepository)(nil)
