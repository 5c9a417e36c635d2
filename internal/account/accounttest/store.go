// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

// Package accounttest provides in-memory implementations of the account
// repositories for tests.
package accounttest

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Imfractical/uprofile/internal/account"
)

type state struct {
	accounts map[ulid.ULID]account.Account
	profiles map[ulid.ULID]account.Profile
	sessions map[ulid.ULID]account.Session
	resets   map[ulid.ULID]account.PasswordReset
}

func (s state) clone() state {
	return state{
		accounts: maps.Clone(s.accounts),
		profiles: maps.Clone(s.profiles),
		sessions: maps.Clone(s.sessions),
		resets:   maps.Clone(s.resets),
	}
}

// Store keeps accounts, profiles, sessions and resets in memory.
// InTransaction serializes units of work and restores the previous state
// when fn fails.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data state
	now  func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		data: state{
			accounts: map[ulid.ULID]account.Account{},
			profiles: map[ulid.ULID]account.Profile{},
			sessions: map[ulid.ULID]account.Session{},
			resets:   map[ulid.ULID]account.PasswordReset{},
		},
		now: time.Now,
	}
}

// SetClock replaces the clock used by DeleteExpired.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

type txKey struct{}

// InTransaction implements account.Transactor.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// Accounts returns the account repository view of the store.
func (s *Store) Accounts() *Accounts { return &Accounts{s: s} }

// Profiles returns the profile repository view of the store.
func (s *Store) Profiles() *Profiles { return &Profiles{s: s} }

// Sessions returns the session repository view of the store.
func (s *Store) Sessions() *Sessions { return &Sessions{s: s} }

// Resets returns the password reset repository view of the store.
func (s *Store) Resets() *Resets { return &Resets{s: s} }

// AccountCount returns the number of stored accounts.
func (s *Store) AccountCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.accounts)
}

// SessionsOf returns copies of every session of accountID.
func (s *Store) SessionsOf(accountID ulid.ULID) []account.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []account.Session
	for _, sess := range s.data.sessions {
		if sess.AccountID == accountID {
			out = append(out, sess)
		}
	}
	return out
}

// ResetsOf returns copies of every reset request of accountID.
func (s *Store) ResetsOf(accountID ulid.ULID) []account.PasswordReset {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []account.PasswordReset
	for _, r := range s.data.resets {
		if r.AccountID == accountID {
			out = append(out, r)
		}
	}
	return out
}
