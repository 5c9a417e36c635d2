// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package web

import (
	"time"

	"github.com/Imfractical/uprofile/internal/account"
)

const dateLayout = "2006-01-02"

type accountView struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier,omitempty"`
	GivenName  string    `json:"given_name"`
	FamilyName string    `json:"family_name"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

type profileView struct {
	BirthDate    string    `json:"birth_date,omitempty"`
	Bio          string    `json:"bio"`
	Location     string    `json:"location"`
	Relationship string    `json:"relationship"`
	AvatarRef    string    `json:"avatar_ref"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type sessionView struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// grantResponse carries the session token for clients that send it as a
// bearer credential instead of relying on the cookie.
type grantResponse struct {
	Account accountView `json:"account"`
	Session sessionView `json:"session"`
	Token   string      `json:"token"`
}

type profileResponse struct {
	Account accountView `json:"account"`
	Profile profileView `json:"profile"`
}

type policyResponse struct {
	HelpTexts []string `json:"help_texts"`
}

// newAccountView renders acct. The identifier is only shown to its owner.
func newAccountView(acct *account.Account, owner bool) accountView {
	v := accountView{
		ID:         acct.ID.String(),
		GivenName:  acct.GivenName,
		FamilyName: acct.FamilyName,
		Active:     acct.Active,
		CreatedAt:  acct.CreatedAt,
	}
	if owner {
		v.Identifier = acct.Identifier
	}
	return v
}

// newProfileResponse renders a profile. The birth date is only shown to
// its owner.
func newProfileResponse(view *account.ProfileView, owner bool) profileResponse {
	p := profileView{
		Bio:          view.Profile.Bio,
		Location:     view.Profile.Location,
		Relationship: view.Profile.Relationship,
		AvatarRef:    view.Profile.AvatarRef,
		UpdatedAt:    view.Profile.UpdatedAt,
	}
	if owner {
		p.BirthDate = view.Profile.BirthDate.Format(dateLayout)
	}
	return profileResponse{Account: newAccountView(view.Account, owner), Profile: p}
}

func newGrantResponse(grant *account.SessionGrant) grantResponse {
	return grantResponse{
		Account: newAccountView(grant.Account, true),
		Session: sessionView{ID: grant.Session.ID.String(), ExpiresAt: grant.Session.ExpiresAt},
		Token:   grant.Token,
	}
}
