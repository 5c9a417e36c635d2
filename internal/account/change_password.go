// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/Imfractical/uprofile/internal/validation"
)

const msgCurrentPasswordIncorrect = "Your old password was entered incorrectly. Please enter it again"

// CredentialChangeRequest is the input of ChangePassword.
type CredentialChangeRequest struct {
	AccountID               ulid.ULID
	SessionID               ulid.ULID
	CurrentPassword         string
	NewPassword             string
	NewPasswordConfirmation string
}

// ChangePassword replaces the credential of an authenticated account.
//
// The account row stays locked from the current-password check until the
// new hash is stored. On success the acting session is re-bound to a fresh
// token and every other session of the account ends. On rejection the
// credential and all sessions are left untouched.
func (s *Service) ChangePassword(ctx context.Context, req CredentialChangeRequest) (grant *SessionGrant, out validation.Outcome, err error) {
	defer func() { record(s.recorder, WorkflowChangePassword, out, err) }()

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		acct, err := s.accounts.GetByIDForUpdate(ctx, req.AccountID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return oops.Code("ACCOUNT_NOT_FOUND").With("account_id", req.AccountID.String()).Wrap(err)
			}
			return oops.Code("CHANGE_PASSWORD_FAILED").
				With("operation", "lock account").
				With("account_id", req.AccountID.String()).
				Wrap(err)
		}

		valid, err := s.hasher.Verify(req.CurrentPassword, acct.CredentialHash)
		if err != nil {
			return oops.Code("CHANGE_PASSWORD_FAILED").
				With("operation", "verify current credential").
				With("account_id", acct.ID.String()).
				Wrap(err)
		}

		var checks validation.Outcome
		if !valid {
			checks.Add(validation.FieldCurrentPassword, validation.CodeCurrentPasswordIncorrect, msgCurrentPasswordIncorrect)
		}
		if req.NewPassword != req.NewPasswordConfirmation {
			checks.Add(validation.FieldNewPasswordConfirm, validation.CodePasswordMismatch, msgPasswordMismatch)
		}
		checks.Merge(s.rules.ValidateField(validation.FieldNewPassword, req.NewPassword, acct.Subject()))
		if !checks.Accepted() {
			out = checks
			return nil
		}

		hash, err := s.hasher.Hash(req.NewPassword)
		if err != nil {
			return oops.Code("CHANGE_PASSWORD_FAILED").
				With("operation", "hash new credential").
				With("account_id", acct.ID.String()).
				Wrap(err)
		}
		if err := s.accounts.UpdateCredential(ctx, acct.ID, hash); err != nil {
			return oops.Code("CHANGE_PASSWORD_FAILED").
				With("operation", "update credential").
				With("account_id", acct.ID.String()).
				Wrap(err)
		}
		acct.CredentialHash = hash

		session, token, err := s.rebindSession(ctx, acct, req.SessionID)
		if err != nil {
			return err
		}
		grant = &SessionGrant{Account: acct, Session: session, Token: token}
		return nil
	})
	if err != nil {
		return nil, validation.Outcome{}, err
	}
	return grant, out, nil
}

// rebindSession gives the acting session a fresh token and ends every other
// session of the account.
func (s *Service) rebindSession(ctx context.Context, acct *Account, sessionID ulid.ULID) (*Session, string, error) {
	token, tokenHash, err := GenerateToken()
	if err != nil {
		return nil, "", err
	}
	expiresAt := s.now().Add(s.sessionTTL)

	if err := s.sessions.Rebind(ctx, sessionID, acct.ID, tokenHash, expiresAt); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", oops.Code("SESSION_NOT_FOUND").
				With("session_id", sessionID.String()).
				With("account_id", acct.ID.String()).
				Wrap(err)
		}
		return nil, "", oops.Code("SESSION_REBIND_FAILED").
			With("operation", "rebind session").
			With("session_id", sessionID.String()).
			Wrap(err)
	}
	if _, err := s.sessions.DeleteByAccountExcept(ctx, acct.ID, sessionID); err != nil {
		return nil, "", oops.Code("SESSION_REVOKE_FAILED").
			With("operation", "delete other sessions").
			With("account_id", acct.ID.String()).
			Wrap(err)
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, "", oops.Code("SESSION_REBIND_FAILED").
			With("operation", "reload session").
			With("session_id", sessionID.String()).
			Wrap(err)
	}
	return session, token, nil
}
