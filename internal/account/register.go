// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/Imfractical/uprofile/internal/validation"
)

// Registration failure messages.
const (
	msgIdentifierMismatch = "The two emails don't match"
	msgPasswordMismatch   = "The two passwords don't match"
	msgUnderage           = "You're too young!"
	msgIdentifierTaken    = "An account with this email address already exists"
	msgInvalidIdentifier  = "Enter a valid email address"
)

var inputValidator = validator.New(validator.WithRequiredStructEnabled())

// RegistrationRequest is the input of Register.
type RegistrationRequest struct {
	Identifier             string
	IdentifierConfirmation string
	Password               string
	PasswordConfirmation   string
	GivenName              string
	FamilyName             string
	BirthDate              time.Time
	UserAgent              string
	IPAddress              string
}

// Register creates an account, its default profile and a first session.
//
// Every check runs and every failure is reported. A rejected request
// persists nothing. An identifier claimed concurrently by another
// registration is reported as identifier_taken.
func (s *Service) Register(ctx context.Context, req RegistrationRequest) (grant *SessionGrant, out validation.Outcome, err error) {
	defer func() { record(s.recorder, WorkflowRegister, out, err) }()

	identifier := NormalizeIdentifier(req.Identifier)
	givenName := PlainText(req.GivenName)
	familyName := PlainText(req.FamilyName)

	identifierValid := validIdentifier(identifier)
	if !identifierValid {
		out.Add(validation.FieldIdentifier, validation.CodeInvalidIdentifier, msgInvalidIdentifier)
	}
	if identifier != NormalizeIdentifier(req.IdentifierConfirmation) {
		out.Add(validation.FieldIdentifierConfirmation, validation.CodeIdentifierMismatch, msgIdentifierMismatch)
	}
	if req.Password != req.PasswordConfirmation {
		out.Add(validation.FieldPasswordConfirmation, validation.CodePasswordMismatch, msgPasswordMismatch)
	}
	out.Merge(checkText(validation.FieldGivenName, givenName, MaxNameLength, true))
	out.Merge(checkText(validation.FieldFamilyName, familyName, MaxNameLength, true))
	switch {
	case req.BirthDate.IsZero():
		out.Add(validation.FieldBirthDate, validation.CodeRequired, "This field is required")
	case !s.agePolicy.OldEnough(req.BirthDate, s.now()):
		out.Add(validation.FieldBirthDate, validation.CodeUnderage, msgUnderage)
	}
	if identifierValid {
		exists, existsErr := s.accounts.Exists(ctx, identifier)
		if existsErr != nil {
			return nil, validation.Outcome{}, oops.Code("REGISTER_FAILED").
				With("operation", "check identifier").
				Wrap(existsErr)
		}
		if exists {
			out.Add(validation.FieldIdentifier, validation.CodeIdentifierTaken, msgIdentifierTaken)
		}
	}

	provisional := &Account{Identifier: identifier, GivenName: givenName, FamilyName: familyName}
	out.Merge(s.rules.Validate(req.Password, provisional.Subject()))
	if !out.Accepted() {
		return nil, out, nil
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, validation.Outcome{}, oops.Code("REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}
	acct, err := NewAccount(identifier, givenName, familyName, hash)
	if err != nil {
		return nil, validation.Outcome{}, err
	}
	profile := NewDefaultProfile(acct.ID, req.BirthDate)

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.accounts.Create(ctx, acct); err != nil {
			return err
		}
		if err := s.profiles.CreateDefault(ctx, profile); err != nil {
			return oops.Code("PROFILE_CREATE_FAILED").
				With("operation", "create default profile").
				With("account_id", acct.ID.String()).
				Wrap(err)
		}
		var issueErr error
		grant, issueErr = s.issueSession(ctx, acct, req.UserAgent, req.IPAddress)
		return issueErr
	})
	if errors.Is(err, ErrIdentifierTaken) {
		return nil, validation.Reject(validation.FieldIdentifier, validation.CodeIdentifierTaken, msgIdentifierTaken), nil
	}
	if err != nil {
		return nil, validation.Outcome{}, oops.Code("REGISTER_FAILED").
			With("operation", "persist registration").
			Wrap(err)
	}

	s.logger.Info("account registered", "account_id", acct.ID.String())
	return grant, validation.Outcome{}, nil
}

func validIdentifier(identifier string) bool {
	return inputValidator.Var(identifier, "required,email,max=254") == nil
}

// checkText reports required and too_long failures for a free-text field.
func checkText(field, value string, maxLen int, required bool) validation.Outcome {
	var out validation.Outcome
	if required && value == "" {
		out.Add(field, validation.CodeRequired, "This field is required")
	}
	if n := utf8.RuneCountInString(value); n > maxLen {
		out.Add(field, validation.CodeTooLong, tooLongMessage(maxLen, n))
	}
	return out
}
