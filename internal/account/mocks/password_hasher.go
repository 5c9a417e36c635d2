// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/Imfractical/uprofile/internal/account"
)

// MockPasswordHasher mocks account.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

var _ account.PasswordHasher = (*MockPasswordHasher)(nil)

// NewMockPasswordHasher creates a MockPasswordHasher bound to t.
func NewMockPasswordHasher(t TestingT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	register(t, &m.Mock)
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	return ret.String(0), ret.Error(1)
}

func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	ret := m.Called(password, hash)
	return ret.Bool(0), ret.Error(1)
}

func (m *MockPasswordHasher) NeedsUpgrade(hash string) bool {
	return m.Called(hash).Bool(0)
}
