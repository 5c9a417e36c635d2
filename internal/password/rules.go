// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package password

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Imfractical/uprofile/internal/validation"
)

// DefaultMinLength is the minimum password length when none is configured.
const DefaultMinLength = 8

// DefaultSpecialCharacters is the set SpecialCharacter accepts by default.
const DefaultSpecialCharacters = "!@#$%+^&*()-_/?,.[]}{<>`~\\'\""

// MinimumLength rejects candidates shorter than Min characters.
// Length counts Unicode code points, not bytes.
type MinimumLength struct {
	Min int
}

// Code implements Rule.
func (r MinimumLength) Code() validation.Code { return validation.CodePasswordTooShort }

// HelpText implements Rule.
func (r MinimumLength) HelpText() string {
	return fmt.Sprintf("Your password must contain at least %d characters.", r.Min)
}

// Validate implements Rule.
func (r MinimumLength) Validate(candidate string, _ *Subject) *validation.Failure {
	if utf8.RuneCountInString(candidate) < r.Min {
		return fail(r.Code(), fmt.Sprintf("Password must be at least %d characters", r.Min))
	}
	return nil
}

// ContainsDigit requires at least one decimal digit.
type ContainsDigit struct{}

// Code implements Rule.
func (ContainsDigit) Code() validation.Code { return validation.CodePasswordNoDigits }

// HelpText implements Rule.
func (ContainsDigit) HelpText() string {
	return "Your password must contain at least one digit."
}

// Validate implements Rule.
func (r ContainsDigit) Validate(candidate string, _ *Subject) *validation.Failure {
	if strings.IndexFunc(candidate, unicode.IsDigit) < 0 {
		return fail(r.Code(), "Password must contain at least one digit")
	}
	return nil
}

// MixedCase requires both an upper-case and a lower-case letter.
type MixedCase struct{}

// Code implements Rule.
func (MixedCase) Code() validation.Code { return validation.CodePasswordMonoCase }

// HelpText implements Rule.
func (MixedCase) HelpText() string {
	return "Your password must contain both upper- and lower-case letters."
}

// Validate implements Rule.
func (r MixedCase) Validate(candidate string, _ *Subject) *validation.Failure {
	hasUpper := strings.IndexFunc(candidate, unicode.IsUpper) >= 0
	hasLower := strings.IndexFunc(candidate, unicode.IsLower) >= 0
	if !hasUpper || !hasLower {
		return fail(r.Code(), "Password must contain upper- and lower-case letters")
	}
	return nil
}

// SpecialCharacter requires at least one character from Set.
type SpecialCharacter struct {
	Set string
}

// Code implements Rule.
func (SpecialCharacter) Code() validation.Code { return validation.CodePasswordNoSpecialCharacter }

// HelpText implements Rule.
func (r SpecialCharacter) HelpText() string {
	return "Your password must contain at least one of: " + r.Set
}

// Validate implements Rule.
func (r SpecialCharacter) Validate(candidate string, _ *Subject) *validation.Failure {
	if !strings.ContainsAny(candidate, r.Set) {
		return fail(r.Code(), "Password must contain at least one of: "+r.Set)
	}
	return nil
}

// NotNumeric rejects candidates made only of decimal digits.
// The empty string is not numeric; MinimumLength catches it.
type NotNumeric struct{}

// Code implements Rule.
func (NotNumeric) Code() validation.Code { return validation.CodePasswordEntirelyNumeric }

// HelpText implements Rule.
func (NotNumeric) HelpText() string {
	return "Your password can't be entirely numeric."
}

// Validate implements Rule.
func (r NotNumeric) Validate(candidate string, _ *Subject) *validation.Failure {
	if candidate == "" {
		return nil
	}
	if strings.IndexFunc(candidate, func(c rune) bool { return !unicode.IsDigit(c) }) < 0 {
		return fail(r.Code(), "Password can't be entirely numeric")
	}
	return nil
}
