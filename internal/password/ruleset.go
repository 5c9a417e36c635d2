// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package password

import (
	"github.com/samber/oops"

	"github.com/Imfractical/uprofile/internal/validation"
)

// Attribute names understood by AttributeSimilarity.
const (
	AttributeGivenName  = "given_name"
	AttributeFamilyName = "family_name"
	AttributeIdentifier = "identifier"
)

// Policy configures the rules of a RuleSet.
type Policy struct {
	MinLength            int
	SpecialCharacters    string
	MaxSimilarity        float64
	SimilarityAttributes []string
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:         DefaultMinLength,
		SpecialCharacters: DefaultSpecialCharacters,
		MaxSimilarity:     DefaultMaxSimilarity,
		SimilarityAttributes: []string{
			AttributeGivenName,
			AttributeFamilyName,
			AttributeIdentifier,
		},
	}
}

// Validate checks the policy for values no rule can work with.
func (p Policy) Validate() error {
	if p.MinLength < 1 {
		return oops.Code("PASSWORD_POLICY_INVALID").
			With("min_length", p.MinLength).
			Errorf("minimum length must be at least 1")
	}
	if p.SpecialCharacters == "" {
		return oops.Code("PASSWORD_POLICY_INVALID").
			Errorf("special character set must not be empty")
	}
	if p.MaxSimilarity <= 0 || p.MaxSimilarity > 1 {
		return oops.Code("PASSWORD_POLICY_INVALID").
			With("max_similarity", p.MaxSimilarity).
			Errorf("maximum similarity must be in (0, 1]")
	}
	for _, name := range p.SimilarityAttributes {
		switch name {
		case AttributeGivenName, AttributeFamilyName, AttributeIdentifier:
		default:
			return oops.Code("PASSWORD_POLICY_INVALID").
				With("attribute", name).
				Errorf("unknown similarity attribute")
		}
	}
	return nil
}

// RuleSet is an ordered list of rules. It is immutable once built and safe
// for concurrent use.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet builds the standard rule set from policy.
func NewRuleSet(policy Policy) (*RuleSet, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	attrs := make([]string, len(policy.SimilarityAttributes))
	copy(attrs, policy.SimilarityAttributes)
	return NewRuleSetFrom(
		MinimumLength{Min: policy.MinLength},
		ContainsDigit{},
		MixedCase{},
		SpecialCharacter{Set: policy.SpecialCharacters},
		NotNumeric{},
		AttributeSimilarity{Attributes: attrs, MaxSimilarity: policy.MaxSimilarity},
	), nil
}

// NewRuleSetFrom builds a rule set from an explicit list of rules.
func NewRuleSetFrom(rules ...Rule) *RuleSet {
	rs := &RuleSet{rules: make([]Rule, len(rules))}
	copy(rs.rules, rules)
	return rs
}

// Validate runs every rule against candidate and reports each failure
// under the password field.
func (rs *RuleSet) Validate(candidate string, subject *Subject) validation.Outcome {
	return rs.ValidateField(validation.FieldPassword, candidate, subject)
}

// ValidateField is Validate with failures attached to field.
func (rs *RuleSet) ValidateField(field, candidate string, subject *Subject) validation.Outcome {
	var out validation.Outcome
	for _, rule := range rs.rules {
		if f := rule.Validate(candidate, subject); f != nil {
			out.Add(field, f.Code, f.Message)
		}
	}
	return out
}

// HelpTexts lists the requirement of every rule, in order.
func (rs *RuleSet) HelpTexts() []string {
	texts := make([]string, 0, len(rs.rules))
	for _, rule := range rs.rules {
		texts = append(texts, rule.HelpText())
	}
	return texts
}

// Rules returns a copy of the rules in order.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}
