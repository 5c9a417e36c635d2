// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account

import (
	"time"

	"github.com/samber/oops"
)

// AgeMode selects how the minimum registration age is measured.
type AgeMode string

// Age modes.
const (
	// AgeModeYears compares calendar birthdays.
	AgeModeYears AgeMode = "years"
	// AgeModeDays requires a fixed number of elapsed days.
	AgeModeDays AgeMode = "days"
)

// Default age policy values.
const (
	DefaultMinAgeYears = 13
	DefaultMinAgeDays  = 13 * 365
)

// AgePolicy decides whether a person is old enough to register.
type AgePolicy struct {
	Mode     AgeMode
	MinYears int
	MinDays  int
}

// DefaultAgePolicy requires a thirteenth birthday.
func DefaultAgePolicy() AgePolicy {
	return AgePolicy{Mode: AgeModeYears, MinYears: DefaultMinAgeYears, MinDays: DefaultMinAgeDays}
}

// Validate rejects policies with an unknown mode or negative minimum.
func (p AgePolicy) Validate() error {
	switch p.Mode {
	case AgeModeYears:
		if p.MinYears < 0 {
			return oops.Code("AGE_POLICY_INVALID").With("min_years", p.MinYears).Errorf("minimum age cannot be negative")
		}
	case AgeModeDays:
		if p.MinDays < 0 {
			return oops.Code("AGE_POLICY_INVALID").With("min_days", p.MinDays).Errorf("minimum age cannot be negative")
		}
	default:
		return oops.Code("AGE_POLICY_INVALID").With("mode", p.Mode).Errorf("unknown age mode")
	}
	return nil
}

// OldEnough reports whether someone born on birthDate meets the minimum
// age on the calendar day of now. Only the date parts are compared.
//
// In years mode a 29 February birthday is reached on 1 March in common
// years.
func (p AgePolicy) OldEnough(birthDate, now time.Time) bool {
	birth := DateOf(birthDate)
	today := DateOf(now)
	if birth.After(today) {
		return false
	}
	if p.Mode == AgeModeDays {
		return !birth.AddDate(0, 0, p.MinDays).After(today)
	}
	return !birth.AddDate(p.MinYears, 0, 0).After(today)
}

// DateOf truncates t to midnight UTC of its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
