// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/Imfractical/uprofile/internal/account"
)

// MockPasswordResetRepository mocks account.PasswordResetRepository.
type MockPasswordResetRepository struct {
	mock.Mock
}

var _ account.PasswordResetRepository = (*MockPasswordResetRepository)(nil)

// NewMockPasswordResetRepository creates a MockPasswordResetRepository bound to t.
func NewMockPasswordResetRepository(t TestingT) *MockPasswordResetRepository {
	m := &MockPasswordResetRepository{}
	register(t, &m.Mock)
	return m
}

func (m *MockPasswordResetRepository) Create(ctx context.Context, r *account.PasswordReset) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockPasswordResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*account.PasswordReset, error) {
	ret := m.Called(ctx, tokenHash)
	var r *account.PasswordReset
	if v := ret.Get(0); v != nil {
		r = v.(*account.PasswordReset)
	}
	return r, ret.Error(1)
}

func (m *MockPasswordResetRepository) DeleteByAccount(ctx context.Context, accountID ulid.ULID) (int64, error) {
	return countResult(m.Called(ctx, accountID))
}

func (m *MockPasswordResetRepository) DeleteExpired(ctx context.Context) (int64, error) {
	return countResult(m.Called(ctx))
}
