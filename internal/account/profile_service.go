// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/Imfractical/uprofile/internal/validation"
)

// ProfileView is an account together with its profile.
type ProfileView struct {
	Account *Account
	Profile *Profile
}

// ProfileUpdate lists the profile fields to change. Nil fields are kept.
type ProfileUpdate struct {
	GivenName    *string
	FamilyName   *string
	Bio          *string
	Location     *string
	Relationship *string
	AvatarRef    *string
}

// ProfileService views and edits profiles.
type ProfileService struct {
	accounts AccountRepository
	profiles ProfileRepository
	tx       Transactor
	options
}

// NewProfileService creates a ProfileService.
func NewProfileService(accounts AccountRepository, profiles ProfileRepository, tx Transactor, opts ...Option) (*ProfileService, error) {
	switch {
	case accounts == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("accounts repository is required")
	case profiles == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("profiles repository is required")
	case tx == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("transactor is required")
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &ProfileService{
		accounts: accounts,
		profiles: profiles,
		tx:       tx,
		options:  o,
	}, nil
}

// Get returns the account and profile of accountID.
func (s *ProfileService) Get(ctx context.Context, accountID ulid.ULID) (*ProfileView, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, notFoundOr(err, "PROFILE_GET_FAILED", "get account", accountID)
	}
	profile, err := s.profiles.Get(ctx, accountID)
	if err != nil {
		return nil, notFoundOr(err, "PROFILE_GET_FAILED", "get profile", accountID)
	}
	return &ProfileView{Account: acct, Profile: profile}, nil
}

// Update edits the profile of accountID. Markup is stripped from free-text
// fields before their length is checked.
func (s *ProfileService) Update(ctx context.Context, accountID ulid.ULID, upd ProfileUpdate) (view *ProfileView, out validation.Outcome, err error) {
	defer func() { record(s.recorder, WorkflowUpdateProfile, out, err) }()

	upd = cleanUpdate(upd)
	out = checkUpdate(upd)
	if !out.Accepted() {
		return nil, out, nil
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		acct, err := s.accounts.GetByIDForUpdate(ctx, accountID)
		if err != nil {
			return notFoundOr(err, "PROFILE_UPDATE_FAILED", "lock account", accountID)
		}
		profile, err := s.profiles.Get(ctx, accountID)
		if err != nil {
			return notFoundOr(err, "PROFILE_UPDATE_FAILED", "get profile", accountID)
		}

		if upd.GivenName != nil || upd.FamilyName != nil {
			setIf(&acct.GivenName, upd.GivenName)
			setIf(&acct.FamilyName, upd.FamilyName)
			if err := s.accounts.UpdateNames(ctx, acct.ID, acct.GivenName, acct.FamilyName); err != nil {
				return oops.Code("PROFILE_UPDATE_FAILED").
					With("operation", "update names").
					With("account_id", accountID.String()).
					Wrap(err)
			}
		}

		setIf(&profile.Bio, upd.Bio)
		setIf(&profile.Location, upd.Location)
		setIf(&profile.Relationship, upd.Relationship)
		setIf(&profile.AvatarRef, upd.AvatarRef)
		profile.UpdatedAt = s.now()
		if err := s.profiles.Update(ctx, profile); err != nil {
			return oops.Code("PROFILE_UPDATE_FAILED").
				With("operation", "update profile").
				With("account_id", accountID.String()).
				Wrap(err)
		}
		view = &ProfileView{Account: acct, Profile: profile}
		return nil
	})
	if err != nil {
		return nil, validation.Outcome{}, err
	}
	return view, validation.Outcome{}, nil
}

func cleanUpdate(upd ProfileUpdate) ProfileUpdate {
	strip := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := PlainText(*p)
		return &v
	}
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	return ProfileUpdate{
		GivenName:    strip(upd.GivenName),
		FamilyName:   strip(upd.FamilyName),
		Bio:          strip(upd.Bio),
		Location:     strip(upd.Location),
		Relationship: strip(upd.Relationship),
		AvatarRef:    trim(upd.AvatarRef),
	}
}

func checkUpdate(upd ProfileUpdate) validation.Outcome {
	var out validation.Outcome
	check := func(field string, v *string, maxLen int, required bool) {
		if v != nil {
			out.Merge(checkText(field, *v, maxLen, required))
		}
	}
	check(validation.FieldGivenName, upd.GivenName, MaxNameLength, true)
	check(validation.FieldFamilyName, upd.FamilyName, MaxNameLength, true)
	check(validation.FieldBio, upd.Bio, MaxBioLength, false)
	check(validation.FieldLocation, upd.Location, MaxLocationLength, false)
	check(validation.FieldRelationship, upd.Relationship, MaxRelationshipLength, false)
	check(validation.FieldAvatarRef, upd.AvatarRef, MaxAvatarRefLength, false)
	return out
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func tooLongMessage(maxLen, n int) string {
	return fmt.Sprintf("Ensure this value has at most %d characters (it has %d)", maxLen, n)
}

func notFoundOr(err error, code, operation string, accountID ulid.ULID) error {
	if errors.Is(err, ErrNotFound) {
		return oops.Code("ACCOUNT_NOT_FOUND").With("account_id", accountID.String()).Wrap(err)
	}
	return oops.Code(code).
		With("operation", operation).
		With("account_id", accountID.String()).
		Wrap(err)
}
