// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package mocks

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/Imfractical/uprofile/internal/account"
)

// MockAccountRepository mocks account.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

var _ account.AccountRepository = (*MockAccountRepository)(nil)

// NewMockAccountRepository creates a MockAccountRepository bound to t.
func NewMockAccountRepository(t TestingT) *MockAccountRepository {
	m := &MockAccountRepository{}
	register(t, &m.Mock)
	return m
}

func (m *MockAccountRepository) Create(ctx context.Context, a *account.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*account.Account, error) {
	ret := m.Called(ctx, id)
	return accountResult(ret)
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, id ulid.ULID) (*account.Account, error) {
	ret := m.Called(ctx, id)
	return accountResult(ret)
}

func (m *MockAccountRepository) GetByIdentifier(ctx context.Context, identifier string) (*account.Account, error) {
	ret := m.Called(ctx, identifier)
	return accountResult(ret)
}

func (m *MockAccountRepository) Exists(ctx context.Context, identifier string) (bool, error) {
	ret := m.Called(ctx, identifier)
	return ret.Bool(0), ret.Error(1)
}

func (m *MockAccountRepository) UpdateCredential(ctx context.Context, id ulid.ULID, credentialHash string) error {
	return m.Called(ctx, id, credentialHash).Error(0)
}

func (m *MockAccountRepository) UpdateNames(ctx context.Context, id ulid.ULID, givenName, familyName string) error {
	return m.Called(ctx, id, givenName, familyName).Error(0)
}

func (m *MockAccountRepository) SetActive(ctx context.Context, id ulid.ULID, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *MockAccountRepository) UpdateLoginState(ctx context.Context, id ulid.ULID, failedAttempts int, lockedUntil *time.Time) error {
	return m.Called(ctx, id, failedAttempts, lockedUntil).Error(0)
}

func accountResult(ret mock.Arguments) (*account.Account, error) {
	var a *account.Account
	if v := ret.Get(0); v != nil {
		a = v.(*account.Account)
	}
	return a, ret.Error(1)
}
