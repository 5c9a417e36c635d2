// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/Imfractical/uprofile/internal/password"
	"github.com/Imfractical/uprofile/internal/validation"
)

// Reset failure messages.
const (
	msgResetTokenInvalid = "This password reset link is invalid"
	msgResetTokenExpired = "This password reset link has expired"
)

// PasswordResetService handles token-based password resets. Delivering the
// token to the account holder is the caller's job.
type PasswordResetService struct {
	accounts AccountRepository
	sessions SessionRepository
	resets   PasswordResetRepository
	hasher   PasswordHasher
	tx       Transactor
	rules    *password.RuleSet
	resetTTL time.Duration
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// ResetDependencies are the collaborators of PasswordResetService.
type ResetDependencies struct {
	Accounts   AccountRepository
	Sessions   SessionRepository
	Resets     PasswordResetRepository
	Hasher     PasswordHasher
	Transactor Transactor
	Rules      *password.RuleSet
	// TTL defaults to DefaultResetTTL when zero.
	TTL time.Duration
}

// NewPasswordResetService creates a PasswordResetService.
// WithLogger, WithRecorder and WithClock apply; other options are ignored.
func NewPasswordResetService(deps ResetDependencies, opts ...Option) (*PasswordResetService, error) {
	switch {
	case deps.Accounts == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("accounts repository is required")
	case deps.Sessions == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("sessions repository is required")
	case deps.Resets == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("resets repository is required")
	case deps.Hasher == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("password hasher is required")
	case deps.Transactor == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("transactor is required")
	case deps.Rules == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("password rules are required")
	case deps.TTL < 0:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").With("reset_ttl", deps.TTL).Errorf("reset TTL cannot be negative")
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	ttl := deps.TTL
	if ttl == 0 {
		ttl = DefaultResetTTL
	}
	return &PasswordResetService{
		accounts: deps.Accounts,
		sessions: deps.Sessions,
		resets:   deps.Resets,
		hasher:   deps.Hasher,
		tx:       deps.Transactor,
		rules:    deps.Rules,
		resetTTL: ttl,
		logger:   o.logger,
		recorder: o.recorder,
		now:      o.now,
	}, nil
}

// RequestReset issues a reset token for the account holding identifier.
// An unknown or inactive identifier yields an empty token and no error, so
// callers cannot tell which identifiers exist.
func (s *PasswordResetService) RequestReset(ctx context.Context, identifier string) (string, error) {
	acct, err := s.accounts.GetByIdentifier(ctx, NormalizeIdentifier(identifier))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "get account by identifier").
			Wrap(err)
	}
	if !acct.Active {
		return "", nil
	}

	token, hash, err := GenerateToken()
	if err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "generate token").
			Wrap(err)
	}
	reset, err := NewPasswordReset(acct.ID, hash, s.now().Add(s.resetTTL))
	if err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "new password reset").
			Wrap(err)
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "persist password reset").
			With("account_id", acct.ID.String()).
			Wrap(err)
	}
	return token, nil
}

// ResetRequest is the input of ResetPassword.
type ResetRequest struct {
	Token                   string
	NewPassword             string
	NewPasswordConfirmation string
}

// ResetPassword sets a new credential using a reset token.
//
// The token is single use: success deletes every outstanding reset of the
// account and ends all its sessions. A rejected request changes nothing.
func (s *PasswordResetService) ResetPassword(ctx context.Context, req ResetRequest) (out validation.Outcome, err error) {
	defer func() { record(s.recorder, WorkflowResetPassword, out, err) }()

	if req.Token == "" {
		return validation.Reject(validation.FieldToken, validation.CodeResetTokenInvalid, msgResetTokenInvalid), nil
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		reset, err := s.resets.GetByTokenHash(ctx, HashToken(req.Token))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				out = validation.Reject(validation.FieldToken, validation.CodeResetTokenInvalid, msgResetTokenInvalid)
				return nil
			}
			return oops.Code("RESET_PASSWORD_FAILED").
				With("operation", "get reset by token hash").
				Wrap(err)
		}
		if reset.IsExpiredAt(s.now()) {
			out = validation.Reject(validation.FieldToken, validation.CodeResetTokenExpired, msgResetTokenExpired)
			return nil
		}

		acct, err := s.accounts.GetByIDForUpdate(ctx, reset.AccountID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				out = validation.Reject(validation.FieldToken, validation.CodeResetTokenInvalid, msgResetTokenInvalid)
				return nil
			}
			return oops.Code("RESET_PASSWORD_FAILED").
				With("operation", "lock account").
				With("account_id", reset.AccountID.String()).
				Wrap(err)
		}

		var checks validation.Outcome
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
			return oops.Code("RESET_PASSWORD_FAILED").
				With("operation", "hash new credential").
				Wrap(err)
		}
		if err := s.accounts.UpdateCredential(ctx, acct.ID, hash); err != nil {
			return oops.Code("RESET_PASSWORD_FAILED").
				With("operation", "update credential").
				With("account_id", acct.ID.String()).
				Wrap(err)
		}
		if _, err := s.resets.DeleteByAccount(ctx, acct.ID); err != nil {
			return oops.Code("RESET_PASSWORD_FAILED").
				With("operation", "delete account resets").
				With("account_id", acct.ID.String()).
				Wrap(err)
		}
		if _, err := s.sessions.DeleteByAccount(ctx, acct.ID); err != nil {
			return oops.Code("RESET_PASSWORD_FAILED").
				With("operation", "delete account sessions").
				With("account_id", acct.ID.String()).
				Wrap(err)
		}
		s.logger.Info("password reset", "account_id", acct.ID.String())
		return nil
	})
	if err != nil {
		return validation.Outcome{}, err
	}
	return out, nil
}

// PruneExpired deletes expired reset requests.
func (s *PasswordResetService) PruneExpired(ctx context.Context) (int64, error) {
	n, err := s.resets.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("RESET_PRUNE_FAILED").
			With("operation", "delete expired resets").
			Wrap(err)
	}
	return n, nil
}
