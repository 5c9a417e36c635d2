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

// Authentication failure messages.
const (
	msgInvalidLogin    = "Please enter a correct email and password"
	msgInactiveAccount = "This account is inactive"
)

// dummyCredentialHash is verified when no account matches the identifier,
// so unknown identifiers cost as much as wrong passwords. It never matches.
//
//nolint:gosec // G101: not a credential
const dummyCredentialHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// AuthenticationRequest is the input of Authenticate.
type AuthenticationRequest struct {
	Identifier string
	Password   string
	UserAgent  string
	IPAddress  string
}

// Authenticate verifies credentials and issues a session.
//
// An unknown identifier, a wrong password and a locked account produce the
// same invalid_login failure. The active flag is only revealed after the
// password has been verified. The account row is re-read under lock before
// the session is issued, so a credential replaced while the password was
// being verified is not honoured.
func (s *Service) Authenticate(ctx context.Context, req AuthenticationRequest) (grant *SessionGrant, out validation.Outcome, err error) {
	defer func() { record(s.recorder, WorkflowAuthenticate, out, err) }()

	acct, lookupErr := s.accounts.GetByIdentifier(ctx, NormalizeIdentifier(req.Identifier))
	targetHash := dummyCredentialHash
	switch {
	case lookupErr == nil:
		targetHash = acct.CredentialHash
	case errors.Is(lookupErr, ErrNotFound):
		acct = nil
	default:
		return nil, validation.Outcome{}, oops.Code("AUTHENTICATE_FAILED").
			With("operation", "get account by identifier").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(req.Password, targetHash)
	if verifyErr != nil && acct != nil {
		return nil, validation.Outcome{}, oops.Code("AUTHENTICATE_FAILED").
			With("operation", "verify credential").
			With("account_id", acct.ID.String()).
			Wrap(verifyErr)
	}
	if acct == nil {
		return nil, invalidLogin(), nil
	}
	if !valid {
		s.recordLoginFailure(ctx, acct.ID)
		return nil, invalidLogin(), nil
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		current, err := s.accounts.GetByIDForUpdate(ctx, acct.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				out = invalidLogin()
				return nil
			}
			return oops.Code("AUTHENTICATE_FAILED").
				With("operation", "lock account").
				With("account_id", acct.ID.String()).
				Wrap(err)
		}

		switch {
		case current.CredentialHash != targetHash:
			s.logger.Info("credential changed during login", "account_id", current.ID.String())
			out = invalidLogin()
			return nil
		case current.IsLockedAt(s.now()):
			out = invalidLogin()
			return nil
		case !current.Active:
			out = validation.Reject("", validation.CodeInactiveAccount, msgInactiveAccount)
			return nil
		}

		if current.hasLoginFailures() {
			current.RecordLoginSuccess()
			if err := s.accounts.UpdateLoginState(ctx, current.ID, current.FailedAttempts, current.LockedUntil); err != nil {
				return oops.Code("AUTHENTICATE_FAILED").
					With("operation", "clear login failures").
					With("account_id", current.ID.String()).
					Wrap(err)
			}
		}

		var issueErr error
		grant, issueErr = s.issueSession(ctx, current, req.UserAgent, req.IPAddress)
		return issueErr
	})
	if err != nil {
		return nil, validation.Outcome{}, err
	}
	if !out.Accepted() {
		return nil, out, nil
	}

	s.upgradeCredential(ctx, grant.Account, req.Password)
	return grant, validation.Outcome{}, nil
}

func invalidLogin() validation.Outcome {
	return validation.Reject("", validation.CodeInvalidLogin, msgInvalidLogin)
}

// recordLoginFailure counts a wrong password against the account. Failures
// are logged and otherwise ignored.
func (s *Service) recordLoginFailure(ctx context.Context, id ulid.ULID) {
	if !s.lockout.Enabled() {
		return
	}
	var locked bool
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		acct, err := s.accounts.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		wasLocked := acct.IsLockedAt(s.now())
		acct.RecordLoginFailure(s.lockout, s.now())
		locked = !wasLocked && acct.IsLockedAt(s.now())
		return s.accounts.UpdateLoginState(ctx, id, acct.FailedAttempts, acct.LockedUntil)
	})
	if err != nil {
		s.logger.Warn("failed to record login failure", "account_id", id.String(), "error", err)
		return
	}
	if locked {
		s.logger.Warn("account locked after failed logins",
			"account_id", id.String(),
			"threshold", s.lockout.Threshold,
			"duration", s.lockout.Duration)
	}
}

// upgradeCredential rehashes a verified password stored with an outdated
// scheme. The new hash is written only if the stored hash is still the one
// that was verified. Failures are logged and otherwise ignored.
func (s *Service) upgradeCredential(ctx context.Context, acct *Account, plaintext string) {
	verified := acct.CredentialHash
	if !s.hasher.NeedsUpgrade(verified) {
		return
	}
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		s.logger.Warn("failed to rehash credential", "account_id", acct.ID.String(), "error", err)
		return
	}

	var stored bool
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		current, err := s.accounts.GetByIDForUpdate(ctx, acct.ID)
		if err != nil {
			return err
		}
		if current.CredentialHash != verified {
			return nil
		}
		if err := s.accounts.UpdateCredential(ctx, acct.ID, hash); err != nil {
			return err
		}
		stored = true
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to store upgraded credential", "account_id", acct.ID.String(), "error", err)
		return
	}
	if stored {
		acct.CredentialHash = hash
	}
}
