// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

// Package password decides whether a candidate password is acceptable.
//
// # Rules
//
// Each Rule is a pure predicate over a candidate and an optional Subject
// (the account the password is for). Rules are independent:
//   - MinimumLength - at least N characters
//   - ContainsDigit - at least one decimal digit
//   - MixedCase - both an upper-case and a lower-case letter
//   - SpecialCharacter - at least one character from a configured set
//   - NotNumeric - not made only of digits
//   - AttributeSimilarity - not too close to the subject's names or email
//
// # Rule sets
//
// A RuleSet is built once from a Policy at startup and injected into the
// account workflows. RuleSet.Validate runs every rule and reports all
// failures, in rule order, as a validation.Outcome.
package password
