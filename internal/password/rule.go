// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package password

import "github.com/Imfractical/uprofile/internal/validation"

// Rule is a single password requirement.
type Rule interface {
	// Code is the failure code reported when the rule rejects a candidate.
	Code() validation.Code

	// HelpText describes the requirement to the person choosing a password.
	HelpText() string

	// Validate returns nil when candidate satisfies the rule.
	// subject may be nil when no account exists yet.
	Validate(candidate string, subject *Subject) *validation.Failure
}

// Attribute is one named piece of personal information about a subject.
type Attribute struct {
	// Name is the stable key rules are configured with (e.g. "given_name").
	Name string
	// Label is the human-readable name used in messages (e.g. "given name").
	Label string
	// Value is the attribute's current value.
	Value string
}

// Subject is the account a password is being chosen for.
// Attributes are listed explicitly by the caller; nothing is looked up by
// reflection.
type Subject struct {
	Attributes []Attribute
}

// Lookup returns the attribute with the given name.
func (s *Subject) Lookup(name string) (Attribute, bool) {
	if s == nil {
		return Attribute{}, false
	}
	for _, a := range s.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

func fail(code validation.Code, message string) *validation.Failure {
	return &validation.Failure{Code: code, Message: message}
}
