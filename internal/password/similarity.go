// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package password

import (
	"regexp"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/cases"

	"github.com/Imfractical/uprofile/internal/validation"
)

// DefaultMaxSimilarity is the similarity ratio at or above which a
// candidate is rejected.
const DefaultMaxSimilarity = 0.7

// nonWord matches runs of characters that are not letters, digits, marks
// or underscores. It is the Unicode-aware form of \W+.
var nonWord = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_]+`)

// AttributeSimilarity rejects candidates that resemble personal
// information about the subject.
//
// For every configured attribute the full value and each of its word
// tokens are compared to the candidate after case folding. A pair whose
// quick ratio reaches MaxSimilarity fails the rule. Without a subject the
// rule always passes.
type AttributeSimilarity struct {
	Attributes    []string
	MaxSimilarity float64
}

// Code implements Rule.
func (AttributeSimilarity) Code() validation.Code { return validation.CodePasswordTooSimilar }

// HelpText implements Rule.
func (AttributeSimilarity) HelpText() string {
	return "Your password can't be too similar to your other personal information."
}

// Validate implements Rule.
func (r AttributeSimilarity) Validate(candidate string, subject *Subject) *validation.Failure {
	if subject == nil {
		return nil
	}
	folded := fold(candidate)
	for _, name := range r.Attributes {
		attr, ok := subject.Lookup(name)
		if !ok || attr.Value == "" {
			continue
		}
		parts := append(nonWord.Split(attr.Value, -1), attr.Value)
		for _, part := range parts {
			if part == "" {
				continue
			}
			if Similarity(folded, fold(part)) >= r.MaxSimilarity {
				return fail(r.Code(), "Password is too similar to the "+attr.Label)
			}
		}
	}
	return nil
}

// Similarity returns the quick ratio of a and b: twice the number of
// characters they share (as multisets) over their combined length.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return difflib.NewMatcher(runes(a), runes(b)).QuickRatio()
}

// fold builds a fresh Caser per call; a Caser is not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
