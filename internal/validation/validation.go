// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

// Package validation holds the outcome of validating caller input.
//
// An Outcome is a value, not an error: workflows return it alongside a nil
// error when the input was rejected, and reserve Go errors for failures of
// the store, hasher or other infrastructure.
package validation

import "strings"

// Code identifies why a piece of input was rejected.
type Code string

// Registration input codes.
const (
	CodeIdentifierMismatch Code = "identifier_mismatch"
	CodePasswordMismatch   Code = "password_mismatch"
	CodeUnderage           Code = "underage"
	CodeIdentifierTaken    Code = "identifier_taken"
	CodeInvalidIdentifier  Code = "invalid_identifier"
	CodeRequired           Code = "required"
	CodeTooLong            Code = "too_long"
	// CodeInvalid marks a malformed value, such as an unparsable date.
	CodeInvalid Code = "invalid"
)

// Password rule codes.
const (
	CodePasswordTooShort           Code = "password_too_short"
	CodePasswordNoDigits           Code = "password_no_digits"
	CodePasswordMonoCase           Code = "password_mono_case"
	CodePasswordNoSpecialCharacter Code = "password_no_special_characters"
	CodePasswordEntirelyNumeric    Code = "password_entirely_numeric"
	CodePasswordTooSimilar         Code = "password_too_similar"
)

// Authentication and credential codes.
const (
	CodeInvalidLogin             Code = "invalid_login"
	CodeInactiveAccount          Code = "inactive_account"
	CodeCurrentPasswordIncorrect Code = "current_password_incorrect"
	CodeResetTokenInvalid        Code = "reset_token_invalid"
	CodeResetTokenExpired        Code = "reset_token_expired"
)

// Field names used when a failure is attached to a specific input.
const (
	FieldIdentifier             = "identifier"
	FieldIdentifierConfirmation = "identifier_confirmation"
	FieldPassword               = "password"
	FieldPasswordConfirmation   = "password_confirmation"
	FieldCurrentPassword        = "current_password"
	FieldNewPassword            = "new_password"
	FieldNewPasswordConfirm     = "new_password_confirmation"
	FieldGivenName              = "given_name"
	FieldFamilyName             = "family_name"
	FieldBirthDate              = "birth_date"
	FieldToken                  = "token"
	FieldBio                    = "bio"
	FieldLocation               = "location"
	FieldRelationship           = "relationship"
	FieldAvatarRef              = "avatar_ref"
)

// Failure is a single rejected rule.
// Field is empty for failures that concern the request as a whole.
type Failure struct {
	Field   string `json:"field,omitempty"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Outcome collects every failure found while validating one request.
// The zero value is an accepted outcome.
type Outcome struct {
	Failures []Failure `json:"errors"`
}

// Accepted reports whether no failure was recorded.
func (o Outcome) Accepted() bool {
	return len(o.Failures) == 0
}

// Add records a failure.
func (o *Outcome) Add(field string, code Code, message string) {
	o.Failures = append(o.Failures, Failure{Field: field, Code: code, Message: message})
}

// Merge appends every failure of other, preserving order.
func (o *Outcome) Merge(other Outcome) {
	o.Failures = append(o.Failures, other.Failures...)
}

// Has reports whether a failure with the given code was recorded.
func (o Outcome) Has(code Code) bool {
	for _, f := range o.Failures {
		if f.Code == code {
			return true
		}
	}
	return false
}

// Codes returns the failure codes in the order they were recorded.
func (o Outcome) Codes() []Code {
	codes := make([]Code, 0, len(o.Failures))
	for _, f := range o.Failures {
		codes = append(codes, f.Code)
	}
	return codes
}

// String renders the outcome as "code: message; code: message".
func (o Outcome) String() string {
	if o.Accepted() {
		return "accepted"
	}
	parts := make([]string, 0, len(o.Failures))
	for _, f := range o.Failures {
		parts = append(parts, string(f.Code)+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

// Reject builds an outcome holding a single failure.
func Reject(field string, code Code, message string) Outcome {
	var o Outcome
	o.Add(field, code, message)
	return o
}
