// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Profile field length limits, in characters.
const (
	MaxBioLength          = 1000
	MaxLocationLength     = 100
	MaxRelationshipLength = 100
	MaxAvatarRefLength    = 255
)

// Profile holds the public details of an account. Every account has
// exactly one, created during registration.
type Profile struct {
	AccountID    ulid.ULID
	BirthDate    time.Time
	Bio          string
	Location     string
	Relationship string
	// AvatarRef is an opaque handle to an image stored elsewhere.
	AvatarRef string
	UpdatedAt time.Time
}

// NewDefaultProfile returns the profile an account starts with.
func NewDefaultProfile(accountID ulid.ULID, birthDate time.Time) *Profile {
	return &Profile{
		AccountID: accountID,
		BirthDate: DateOf(birthDate),
		UpdatedAt: time.Now(),
	}
}

// ProfileRepository manages profile persistence.
type ProfileRepository interface {
	// CreateDefault stores the initial profile of a new account.
	CreateDefault(ctx context.Context, profile *Profile) error

	// Get retrieves the profile of an account.
	Get(ctx context.Context, accountID ulid.ULID) (*Profile, error)

	// Update replaces the editable fields of a profile.
	Update(ctx context.Context, profile *Profile) error
}
