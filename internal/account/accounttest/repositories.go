// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package accounttest

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Imfractical/uprofile/internal/account"
)

var (
	_ account.AccountRepository       = (*Accounts)(nil)
	_ account.ProfileRepository       = (*Profiles)(nil)
	_ account.SessionRepository       = (*Sessions)(nil)
	_ account.PasswordResetRepository = (*Resets)(nil)
	_ account.Transactor              = (*Store)(nil)
)

// Accounts implements account.AccountRepository over a Store.
type Accounts struct{ s *Store }

// Create stores a new account. A taken identifier yields account.ErrIdentifierTaken.
func (r *Accounts) Create(_ context.Context, a *account.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.accounts {
		if existing.Identifier == a.Identifier {
			return account.ErrIdentifierTaken
		}
	}
	r.s.data.accounts[a.ID] = *a
	return nil
}

// GetByID returns a copy of the account with id.
func (r *Accounts) GetByID(_ context.Context, id ulid.ULID) (*account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return &a, nil
}

// GetByIDForUpdate relies on InTransaction for serialization.
func (r *Accounts) GetByIDForUpdate(ctx context.Context, id ulid.ULID) (*account.Account, error) {
	return r.GetByID(ctx, id)
}

// GetByIdentifier returns a copy of the account holding the normalized identifier.
func (r *Accounts) GetByIdentifier(_ context.Context, identifier string) (*account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.data.accounts {
		if a.Identifier == identifier {
			return &a, nil
		}
	}
	return nil, account.ErrNotFound
}

// Exists reports whether an account holds the normalized identifier.
func (r *Accounts) Exists(ctx context.Context, identifier string) (bool, error) {
	_, err := r.GetByIdentifier(ctx, identifier)
	return err == nil, nil
}

// UpdateCredential replaces the stored credential hash.
func (r *Accounts) UpdateCredential(_ context.Context, id ulid.ULID, credentialHash string) error {
	return r.update(id, func(a *account.Account) { a.CredentialHash = credentialHash })
}

// UpdateNames replaces the given and family names.
func (r *Accounts) UpdateNames(_ context.Context, id ulid.ULID, givenName, familyName string) error {
	return r.update(id, func(a *account.Account) {
		a.GivenName = givenName
		a.FamilyName = familyName
	})
}

// SetActive sets the active flag.
func (r *Accounts) SetActive(_ context.Context, id ulid.ULID, active bool) error {
	return r.update(id, func(a *account.Account) { a.Active = active })
}

// UpdateLoginState stores the failed login counter and lockout expiry.
func (r *Accounts) UpdateLoginState(_ context.Context, id ulid.ULID, failedAttempts int, lockedUntil *time.Time) error {
	return r.update(id, func(a *account.Account) {
		a.FailedAttempts = failedAttempts
		a.LockedUntil = lockedUntil
	})
}

func (r *Accounts) update(id ulid.ULID, fn func(*account.Account)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	fn(&a)
	a.UpdatedAt = time.Now()
	r.s.data.accounts[id] = a
	return nil
}

// Profiles implements account.ProfileRepository over a Store.
type Profiles struct{ s *Store }

// CreateDefault stores the initial profile of an account.
func (r *Profiles) CreateDefault(_ context.Context, p *account.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.profiles[p.AccountID] = *p
	return nil
}

// Get returns a copy of the profile of accountID.
func (r *Profiles) Get(_ context.Context, accountID ulid.ULID) (*account.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.profiles[accountID]
	if !ok {
		return nil, account.ErrNotFound
	}
	return &p, nil
}

// Update replaces an existing profile.
func (r *Profiles) Update(_ context.Context, p *account.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.profiles[p.AccountID]; !ok {
		return account.ErrNotFound
	}
	r.s.data.profiles[p.AccountID] = *p
	return nil
}

// Sessions implements account.SessionRepository over a Store.
type Sessions struct{ s *Store }

// Create stores a new session.
func (r *Sessions) Create(_ context.Context, sess *account.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.sessions[sess.ID] = *sess
	return nil
}

// GetByID returns a copy of the session with id.
func (r *Sessions) GetByID(_ context.Context, id ulid.ULID) (*account.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.data.sessions[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return &sess, nil
}

// GetByTokenHash returns the session whose token hashes to tokenHash.
func (r *Sessions) GetByTokenHash(_ context.Context, tokenHash string) (*account.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sess := range r.s.data.sessions {
		if sess.TokenHash == tokenHash {
			return &sess, nil
		}
	}
	return nil, account.ErrNotFound
}

// UpdateLastSeen records session activity.
func (r *Sessions) UpdateLastSeen(_ context.Context, id ulid.ULID, lastSeen time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.data.sessions[id]
	if !ok {
		return account.ErrNotFound
	}
	sess.LastSeenAt = lastSeen
	r.s.data.sessions[id] = sess
	return nil
}

// Rebind gives a session of accountID a new token hash and expiry.
func (r *Sessions) Rebind(_ context.Context, id, accountID ulid.ULID, tokenHash string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.data.sessions[id]
	if !ok || sess.AccountID != accountID {
		return account.ErrNotFound
	}
	sess.TokenHash = tokenHash
	sess.ExpiresAt = expiresAt
	r.s.data.sessions[id] = sess
	return nil
}

// Delete removes one session.
func (r *Sessions) Delete(_ context.Context, id ulid.ULID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.sessions[id]; !ok {
		return account.ErrNotFound
	}
	delete(r.s.data.sessions, id)
	return nil
}

// DeleteByAccountExcept removes every session of accountID except keep.
func (r *Sessions) DeleteByAccountExcept(_ context.Context, accountID, keep ulid.ULID) (int64, error) {
	return r.deleteWhere(func(sess account.Session) bool {
		return sess.AccountID == accountID && sess.ID != keep
	}), nil
}

// DeleteByAccount removes every session of accountID.
func (r *Sessions) DeleteByAccount(_ context.Context, accountID ulid.ULID) (int64, error) {
	return r.deleteWhere(func(sess account.Session) bool { return sess.AccountID == accountID }), nil
}

// DeleteExpired removes sessions expired by the store clock.
func (r *Sessions) DeleteExpired(_ context.Context) (int64, error) {
	now := r.s.clock()
	return r.deleteWhere(func(sess account.Session) bool { return sess.IsExpiredAt(now) }), nil
}

func (r *Sessions) deleteWhere(match func(account.Session) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, sess := range r.s.data.sessions {
		if match(sess) {
			delete(r.s.data.sessions, id)
			n++
		}
	}
	return n
}

// Resets implements account.PasswordResetRepository over a Store.
type Resets struct{ s *Store }

// Create stores a new reset request.
func (r *Resets) Create(_ context.Context, reset *account.PasswordReset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.resets[reset.ID] = *reset
	return nil
}

// GetByTokenHash returns the reset request whose token hashes to tokenHash.
func (r *Resets) GetByTokenHash(_ context.Context, tokenHash string) (*account.PasswordReset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, reset := range r.s.data.resets {
		if reset.TokenHash == tokenHash {
			return &reset, nil
		}
	}
	return nil, account.ErrNotFound
}

// DeleteByAccount removes every reset request of accountID.
func (r *Resets) DeleteByAccount(_ context.Context, accountID ulid.ULID) (int64, error) {
	return r.deleteWhere(func(reset account.PasswordReset) bool { return reset.AccountID == accountID }), nil
}

// DeleteExpired removes reset requests expired by the store clock.
func (r *Resets) DeleteExpired(_ context.Context) (int64, error) {
	now := r.s.clock()
	return r.deleteWhere(func(reset account.PasswordReset) bool { return reset.IsExpiredAt(now) }), nil
}

func (r *Resets) deleteWhere(match func(account.PasswordReset) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, reset := range r.s.data.resets {
		if match(reset) {
			delete(r.s.data.resets, id)
			n++
		}
	}
	return n
}

func (s *Store) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}
