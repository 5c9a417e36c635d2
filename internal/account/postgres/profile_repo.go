// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/Imfractical/uprofile/internal/account"
)

// ProfileRepository implements account.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	db DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// CreateDefault stores the initial profile of a new account.
func (r *ProfileRepository) CreateDefault(ctx context.Context, p *account.Profile) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO profiles (account_id, birth_date, bio, location, relationship, avatar_ref, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.AccountID.String(), p.BirthDate, p.Bio, p.Location, p.Relationship, p.AvatarRef, p.UpdatedAt)
	if err != nil {
		return oops.Code("PROFILE_CREATE_FAILED").
			With("operation", "insert profile").
			With("account_id", p.AccountID.String()).
			Wrap(err)
	}
	return nil
}

// Get retrieves the profile of an account.
func (r *ProfileRepository) Get(ctx context.Context, accountID ulid.ULID) (*account.Profile, error) {
	var (
		idStr string
		p     account.Profile
	)
	err := conn(ctx, r.db).QueryRow(ctx, `
		SELECT account_id, birth_date, bio, location, relationship, avatar_ref, updated_at
		FROM profiles
		WHERE account_id = $1
	`, accountID.String()).Scan(&idStr, &p.BirthDate, &p.Bio, &p.Location, &p.Relationship, &p.AvatarRef, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PROFILE_NOT_FOUND").
			With("account_id", accountID.String()).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PROFILE_GET_FAILED").
			With("operation", "get profile").
			With("account_id", accountID.String()).
			Wrap(err)
	}

	p.AccountID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("PROFILE_INVALID_ACCOUNT_ID").
			With("operation", "parse account id").
			With("account_id", idStr).
			Wrap(err)
	}
	return &p, nil
}

// Update replaces the editable fields of a profile. The birth date is fixed
// at registration and never changes.
func (r *ProfileRepository) Update(ctx context.Context, p *account.Profile) error {
	result, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE profiles
		SET bio = $2, location = $3, relationship = $4, avatar_ref = $5, updated_at = $6
		WHERE account_id = $1
	`, p.AccountID.String(), p.Bio, p.Location, p.Relationship, p.AvatarRef, p.UpdatedAt)
	if err != nil {
		return oops.Code("PROFILE_UPDATE_FAILED").
			With("operation", "update profile").
			With("account_id", p.AccountID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PROFILE_NOT_FOUND").
			With("account_id", p.AccountID.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

var _ account.ProfileRepository = (*ProfileRepository)(nil)
