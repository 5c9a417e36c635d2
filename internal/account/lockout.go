// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account

import (
	"time"

	"github.com/samber/oops"
)

// Lockout defaults.
const (
	DefaultLockoutThreshold = 7
	DefaultLockoutDuration  = 15 * time.Minute
)

// LockoutPolicy locks an account after repeated failed logins.
type LockoutPolicy struct {
	// Threshold is the number of consecutive failures that locks the
	// account. Zero disables lockout.
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy returns the lockout policy used when none is configured.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{Threshold: DefaultLockoutThreshold, Duration: DefaultLockoutDuration}
}

// Enabled reports whether failed logins are counted at all.
func (p LockoutPolicy) Enabled() bool {
	return p.Threshold > 0
}

// Validate reports a LOCKOUT_POLICY_INVALID error for unusable settings.
func (p LockoutPolicy) Validate() error {
	if p.Threshold < 0 {
		return oops.Code("LOCKOUT_POLICY_INVALID").
			With("threshold", p.Threshold).
			Errorf("lockout threshold cannot be negative")
	}
	if p.Enabled() && p.Duration <= 0 {
		return oops.Code("LOCKOUT_POLICY_INVALID").
			With("duration", p.Duration).
			Errorf("lockout duration must be positive")
	}
	return nil
}

// IsLockedAt reports whether failed logins keep the account locked at now.
func (a *Account) IsLockedAt(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// RecordLoginFailure counts a failed login and, once the threshold is
// reached, locks the account for the policy duration. Each further failure
// extends the lock.
func (a *Account) RecordLoginFailure(p LockoutPolicy, now time.Time) {
	a.FailedAttempts++
	if p.Enabled() && a.FailedAttempts >= p.Threshold {
		until := now.Add(p.Duration)
		a.LockedUntil = &until
	}
}

// RecordLoginSuccess clears the failure counter and any lock.
func (a *Account) RecordLoginSuccess() {
	a.FailedAttempts = 0
	a.LockedUntil = nil
}

func (a *Account) hasLoginFailures() bool {
	return a.FailedAttempts > 0 || a.LockedUntil != nil
}
