// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

// Package account implements the account workflows of uprofile.
//
// # Domain Types
//
// Account, Profile, Session and PasswordReset are plain records. Accounts
// are built with NewAccount, which normalizes the identifier; sessions and
// resets carry only the SHA-256 hash of their token.
//
// # Services
//
//   - Service - registration, authentication, credential change, sessions
//   - PasswordResetService - token-based password reset
//   - ProfileService - profile view and edit
//
// Expected input problems are reported as a validation.Outcome returned next
// to a nil error. A non-nil error always means an infrastructure failure and
// carries an oops code.
//
// Persistence is consumed through the repository interfaces in this package.
// Postgres implementations live in account/postgres and in-memory fakes in
// account/accounttest.
package account
