// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/Imfractical/uprofile/internal/password"
)

// Dependencies are the collaborators of Service.
type Dependencies struct {
	Accounts   AccountRepository
	Profiles   ProfileRepository
	Sessions   SessionRepository
	Hasher     PasswordHasher
	Transactor Transactor
	Rules      *password.RuleSet
}

// Option configures a Service.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	recorder   Recorder
	agePolicy  AgePolicy
	lockout    LockoutPolicy
	sessionTTL time.Duration
	now        func() time.Time
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRecorder reports workflow outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithAgePolicy overrides DefaultAgePolicy.
func WithAgePolicy(p AgePolicy) Option {
	return func(o *options) { o.agePolicy = p }
}

// WithLockoutPolicy overrides DefaultLockoutPolicy.
func WithLockoutPolicy(p LockoutPolicy) Option {
	return func(o *options) { o.lockout = p }
}

// WithSessionTTL overrides DefaultSessionTTL.
func WithSessionTTL(d time.Duration) Option {
	return func(o *options) { o.sessionTTL = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) (options, error) {
	o := options{
		logger:     slog.Default(),
		recorder:   nopRecorder{},
		agePolicy:  DefaultAgePolicy(),
		lockout:    DefaultLockoutPolicy(),
		sessionTTL: DefaultSessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		return o, oops.Code("SERVICE_INVALID_CONFIG").Errorf("logger is required")
	}
	if o.recorder == nil {
		return o, oops.Code("SERVICE_INVALID_CONFIG").Errorf("recorder is required")
	}
	if o.now == nil {
		return o, oops.Code("SERVICE_INVALID_CONFIG").Errorf("clock is required")
	}
	if o.sessionTTL <= 0 {
		return o, oops.Code("SERVICE_INVALID_CONFIG").With("session_ttl", o.sessionTTL).Errorf("session TTL must be positive")
	}
	if err := o.agePolicy.Validate(); err != nil {
		return o, err
	}
	if err := o.lockout.Validate(); err != nil {
		return o, err
	}
	return o, nil
}

// Service runs the registration, authentication and credential change
// workflows, and manages sessions.
type Service struct {
	accounts AccountRepository
	profiles ProfileRepository
	sessions SessionRepository
	hasher   PasswordHasher
	tx       Transactor
	rules    *password.RuleSet
	options
}

// NewService creates a Service. Every dependency is required.
func NewService(deps Dependencies, opts ...Option) (*Service, error) {
	switch {
	case deps.Accounts == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("accounts repository is required")
	case deps.Profiles == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("profiles repository is required")
	case deps.Sessions == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("sessions repository is required")
	case deps.Hasher == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("password hasher is required")
	case deps.Transactor == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("transactor is required")
	case deps.Rules == nil:
		return nil, oops.Code("SERVICE_INVALID_CONFIG").Errorf("password rules are required")
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Service{
		accounts: deps.Accounts,
		profiles: deps.Profiles,
		sessions: deps.Sessions,
		hasher:   deps.Hasher,
		tx:       deps.Transactor,
		rules:    deps.Rules,
		options:  o,
	}, nil
}

// SessionGrant is the result of a workflow that issues a session.
// Token is the plaintext bearer token and is never stored.
type SessionGrant struct {
	Account *Account
	Session *Session
	Token   string
}

// PasswordHelpTexts lists the requirements new passwords must meet.
func (s *Service) PasswordHelpTexts() []string {
	return s.rules.HelpTexts()
}

func (s *Service) issueSession(ctx context.Context, acct *Account, userAgent, ipAddress string) (*SessionGrant, error) {
	token, tokenHash, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	session, err := NewSession(acct.ID, tokenHash, userAgent, ipAddress, s.now().Add(s.sessionTTL))
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("account_id", acct.ID.String()).
			Wrap(err)
	}
	return &SessionGrant{Account: acct, Session: session, Token: token}, nil
}

// Logout invalidates a session.
func (s *Service) Logout(ctx context.Context, sessionID ulid.ULID) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("SESSION_NOT_FOUND").
				With("session_id", sessionID.String()).
				Wrap(err)
		}
		return oops.Code("LOGOUT_FAILED").
			With("operation", "delete session").
			With("session_id", sessionID.String()).
			Wrap(err)
	}
	return nil
}

// ValidateSession resolves a bearer token to its live session and records
// the activity.
func (s *Service) ValidateSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, oops.Code("SESSION_INVALID").Errorf("session token cannot be empty")
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Errorf("invalid session token")
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	now := s.now()
	if session.IsExpiredAt(now) {
		return nil, oops.Code("SESSION_EXPIRED").
			With("session_id", session.ID.String()).
			Errorf("session has expired")
	}

	if err := s.sessions.UpdateLastSeen(ctx, session.ID, now); err != nil {
		s.logger.Warn("failed to update session last seen",
			"session_id", session.ID.String(),
			"error", err)
	} else {
		session.LastSeenAt = now
	}
	return session, nil
}

// Authenticated resolves a bearer token to its session and active account.
func (s *Service) Authenticated(ctx context.Context, token string) (*Account, *Session, error) {
	session, err := s.ValidateSession(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	acct, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, oops.Code("SESSION_INVALID").
				With("session_id", session.ID.String()).
				Errorf("session account no longer exists")
		}
		return nil, nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session account").
			Wrap(err)
	}
	if !acct.Active {
		return nil, nil, oops.Code("SESSION_INVALID").
			With("account_id", acct.ID.String()).
			Errorf("account is inactive")
	}
	return acct, session, nil
}

// Lookup finds an account by ULID or by identifier.
func (s *Service) Lookup(ctx context.Context, ref string) (*Account, error) {
	var (
		acct *Account
		err  error
	)
	if id, parseErr := ulid.ParseStrict(ref); parseErr == nil {
		acct, err = s.accounts.GetByID(ctx, id)
	} else {
		acct, err = s.accounts.GetByIdentifier(ctx, NormalizeIdentifier(ref))
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("ACCOUNT_NOT_FOUND").With("account", ref).Wrap(err)
		}
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").With("account", ref).Wrap(err)
	}
	return acct, nil
}

// SetActive activates or deactivates an account. Deactivation also ends
// every session of the account.
func (s *Service) SetActive(ctx context.Context, id ulid.ULID, active bool) error {
	return s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.accounts.SetActive(ctx, id, active); err != nil {
			if errors.Is(err, ErrNotFound) {
				return oops.Code("ACCOUNT_NOT_FOUND").With("account_id", id.String()).Wrap(err)
			}
			return oops.Code("ACCOUNT_UPDATE_FAILED").
				With("operation", "set active").
				With("account_id", id.String()).
				Wrap(err)
		}
		if active {
			return nil
		}
		if _, err := s.sessions.DeleteByAccount(ctx, id); err != nil {
			return oops.Code("SESSION_REVOKE_FAILED").
				With("operation", "delete account sessions").
				With("account_id", id.String()).
				Wrap(err)
		}
		return nil
	})
}

// Unlock clears the failed login counter and any lockout of an account.
func (s *Service) Unlock(ctx context.Context, id ulid.ULID) error {
	if err := s.accounts.UpdateLoginState(ctx, id, 0, nil); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("ACCOUNT_NOT_FOUND").With("account_id", id.String()).Wrap(err)
		}
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "clear login state").
			With("account_id", id.String()).
			Wrap(err)
	}
	s.logger.Info("account unlocked", "account_id", id.String())
	return nil
}

// PruneExpiredSessions deletes expired sessions and returns how many were removed.
func (s *Service) PruneExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("SESSION_PRUNE_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return n, nil
}
