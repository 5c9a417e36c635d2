// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/Imfractical/uprofile/internal/password"
)

// Field length limits.
const (
	MaxIdentifierLength = 254
	MaxNameLength       = 150
)

// Account is a registered identity.
type Account struct {
	ID             ulid.ULID
	Identifier     string
	GivenName      string
	FamilyName     string
	CredentialHash string
	Active         bool
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NormalizeIdentifier trims and lower-cases an identifier.
// Identifiers are compared case-insensitively everywhere.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// NewAccount creates an active Account with a normalized identifier.
func NewAccount(identifier, givenName, familyName, credentialHash string) (*Account, error) {
	identifier = NormalizeIdentifier(identifier)
	if identifier == "" {
		return nil, oops.Code("ACCOUNT_INVALID_IDENTIFIER").Errorf("identifier cannot be empty")
	}
	if credentialHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID_CREDENTIAL").Errorf("credential hash cannot be empty")
	}

	now := time.Now()
	return &Account{
		ID:             ulid.Make(),
		Identifier:     identifier,
		GivenName:      strings.TrimSpace(givenName),
		FamilyName:     strings.TrimSpace(familyName),
		CredentialHash: credentialHash,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// SimilarityAttribute pairs a password.Attribute name with the accessor
// that reads it from an Account.
type SimilarityAttribute struct {
	Name  string
	Label string
	Value func(*Account) string
}

// SimilarityAttributes lists every account attribute a password may be
// compared against.
var SimilarityAttributes = []SimilarityAttribute{
	{Name: password.AttributeGivenName, Label: "given name", Value: func(a *Account) string { return a.GivenName }},
	{Name: password.AttributeFamilyName, Label: "family name", Value: func(a *Account) string { return a.FamilyName }},
	{Name: password.AttributeIdentifier, Label: "email address", Value: func(a *Account) string { return a.Identifier }},
}

// Subject describes the account to the password rules.
func (a *Account) Subject() *password.Subject {
	s := &password.Subject{Attributes: make([]password.Attribute, 0, len(SimilarityAttributes))}
	for _, attr := range SimilarityAttributes {
		s.Attributes = append(s.Attributes, password.Attribute{
			Name:  attr.Name,
			Label: attr.Label,
			Value: attr.Value(a),
		})
	}
	return s
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account.
	// Returns ErrIdentifierTaken if the identifier is already in use.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByIDForUpdate retrieves an account and locks its row until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByIdentifier retrieves an account by its normalized identifier.
	GetByIdentifier(ctx context.Context, identifier string) (*Account, error)

	// Exists reports whether an account holds the normalized identifier.
	Exists(ctx context.Context, identifier string) (bool, error)

	// UpdateCredential replaces the stored credential hash.
	UpdateCredential(ctx context.Context, id ulid.ULID, credentialHash string) error

	// UpdateNames replaces the given and family names.
	UpdateNames(ctx context.Context, id ulid.ULID, givenName, familyName string) error

	// SetActive sets the active flag.
	SetActive(ctx context.Context, id ulid.ULID, active bool) error

	// UpdateLoginState stores the failed login counter and lockout expiry.
	UpdateLoginState(ctx context.Context, id ulid.ULID, failedAttempts int, lockedUntil *time.Time) error
}

// Transactor runs a function inside a single unit of work. Repository calls
// made with the context passed to fn participate in it. If fn returns an
// error the unit of work is rolled back.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
