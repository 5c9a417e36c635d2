// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/Imfractical/uprofile/internal/account"
	"github.com/Imfractical/uprofile/pkg/errutil"
)

type registerRequest struct {
	Identifier             string `json:"identifier"`
	IdentifierConfirmation string `json:"identifier_confirmation"`
	Password               string `json:"password" validate:"max=4096"`
	PasswordConfirmation   string `json:"password_confirmation" validate:"max=4096"`
	GivenName              string `json:"given_name"`
	FamilyName             string `json:"family_name"`
	BirthDate              string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password" validate:"max=4096"`
}

type changePasswordRequest struct {
	CurrentPassword         string `json:"current_password" validate:"max=4096"`
	NewPassword             string `json:"new_password" validate:"max=4096"`
	NewPasswordConfirmation string `json:"new_password_confirmation" validate:"max=4096"`
}

type profileRequest struct {
	GivenName    *string `json:"given_name"`
	FamilyName   *string `json:"family_name"`
	Bio          *string `json:"bio"`
	Location     *string `json:"location"`
	Relationship *string `json:"relationship"`
	AvatarRef    *string `json:"avatar_ref"`
}

type resetRequest struct {
	Identifier string `json:"identifier" validate:"required"`
}

type resetConfirmRequest struct {
	Token                   string `json:"token"`
	NewPassword             string `json:"new_password" validate:"max=4096"`
	NewPasswordConfirmation string `json:"new_password_confirmation" validate:"max=4096"`
}

func (h *Handler) passwordPolicy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, policyResponse{HelpTexts: h.accounts.PasswordHelpTexts()})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	var birthDate time.Time
	if req.BirthDate != "" {
		// Shape validation already accepted the layout.
		birthDate, _ = time.Parse(dateLayout, req.BirthDate) //nolint:errcheck
	}

	grant, out, err := h.accounts.Register(r.Context(), account.RegistrationRequest{
		Identifier:             req.Identifier,
		IdentifierConfirmation: req.IdentifierConfirmation,
		Password:               req.Password,
		PasswordConfirmation:   req.PasswordConfirmation,
		GivenName:              req.GivenName,
		FamilyName:             req.FamilyName,
		BirthDate:              birthDate,
		UserAgent:              r.UserAgent(),
		IPAddress:              clientIP(r),
	})
	switch {
	case err != nil:
		h.writeError(w, r, err)
	case !out.Accepted():
		writeOutcome(w, out)
	default:
		h.setSessionCookie(w, grant)
		writeJSON(w, http.StatusCreated, newGrantResponse(grant))
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	grant, out, err := h.accounts.Authenticate(r.Context(), account.AuthenticationRequest{
		Identifier: req.Identifier,
		Password:   req.Password,
		UserAgent:  r.UserAgent(),
		IPAddress:  clientIP(r),
	})
	switch {
	case err != nil:
		h.writeError(w, r, err)
	case !out.Accepted():
		writeOutcome(w, out)
	default:
		h.setSessionCookie(w, grant)
		writeJSON(w, http.StatusOK, newGrantResponse(grant))
	}
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	if err := h.accounts.Logout(r.Context(), p.session.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	p := principalFrom(r.Context())
	grant, out, err := h.accounts.ChangePassword(r.Context(), account.CredentialChangeRequest{
		AccountID:               p.acct.ID,
		SessionID:               p.session.ID,
		CurrentPassword:         req.CurrentPassword,
		NewPassword:             req.NewPassword,
		NewPasswordConfirmation: req.NewPasswordConfirmation,
	})
	switch {
	case err != nil:
		h.writeError(w, r, err)
	case !out.Accepted():
		writeOutcome(w, out)
	default:
		h.setSessionCookie(w, grant)
		writeJSON(w, http.StatusOK, newGrantResponse(grant))
	}
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	view, err := h.profiles.Get(r.Context(), p.acct.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(view, true))
}

func (h *Handler) viewAccount(w http.ResponseWriter, r *http.Request) {
	id, err := ulid.ParseStrict(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusNotFound, "account not found")
		return
	}
	view, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	owner := view.Account.ID == principalFrom(r.Context()).acct.ID
	if !view.Account.Active && !owner {
		writeMessage(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(view, owner))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decode(w, r, &req) {
		return
	}
	p := principalFrom(r.Context())
	view, out, err := h.profiles.Update(r.Context(), p.acct.ID, account.ProfileUpdate{
		GivenName:    req.GivenName,
		FamilyName:   req.FamilyName,
		Bio:          req.Bio,
		Location:     req.Location,
		Relationship: req.Relationship,
		AvatarRef:    req.AvatarRef,
	})
	switch {
	case err != nil:
		h.writeError(w, r, err)
	case !out.Accepted():
		writeOutcome(w, out)
	default:
		writeJSON(w, http.StatusOK, newProfileResponse(view, true))
	}
}

// requestReset issues a reset token and hands it to the configured
// delivery. It answers 202 whether or not the identifier exists, so callers
// cannot enumerate accounts. Without a delivery it answers 501 before
// issuing anything; tokens then come from "uprofile reset issue".
func (h *Handler) requestReset(w http.ResponseWriter, r *http.Request) {
	if h.deliver == nil {
		writeMessage(w, http.StatusNotImplemented, "password reset requests are not enabled")
		return
	}
	var req resetRequest
	if !decode(w, r, &req) {
		return
	}
	token, err := h.resets.RequestReset(r.Context(), req.Identifier)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if token != "" {
		if err := h.deliver(r.Context(), account.NormalizeIdentifier(req.Identifier), token); err != nil {
			errutil.LogError(h.logger, "failed to deliver password reset", err)
		}
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) confirmReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.resets.ResetPassword(r.Context(), account.ResetRequest{
		Token:                   req.Token,
		NewPassword:             req.NewPassword,
		NewPasswordConfirmation: req.NewPasswordConfirmation,
	})
	switch {
	case err != nil:
		h.writeError(w, r, err)
	case !out.Accepted():
		writeOutcome(w, out)
	default:
		h.clearSessionCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}
}
