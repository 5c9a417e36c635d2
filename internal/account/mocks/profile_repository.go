// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/Imfractical/uprofile/internal/account"
)

// MockProfileRepository mocks account.ProfileRepository.
type MockProfileRepository struct {
	mock.Mock
}

var _ account.ProfileRepository = (*MockProfileRepository)(nil)

// NewMockProfileRepository creates a MockProfileRepository bound to t.
func NewMockProfileRepository(t TestingT) *MockProfileRepository {
	m := &MockProfileRepository{}
	register(t, &m.Mock)
	return m
}

func (m *MockProfileRepository) CreateDefault(ctx context.Context, p *account.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProfileRepository) Get(ctx context.Context, accountID ulid.ULID) (*account.Profile, error) {
	ret := m.Called(ctx, accountID)
	var p *account.Profile
	if v := ret.Get(0); v != nil {
		p = v.(*account.Profile)
	}
	return p, ret.Error(1)
}

func (m *MockProfileRepository) Update(ctx context.Context, p *account.Profile) error {
	return m.Called(ctx, p).Error(0)
}
