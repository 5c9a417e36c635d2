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

// MockSessionRepository mocks account.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

var _ account.SessionRepository = (*MockSessionRepository)(nil)

// NewMockSessionRepository creates a MockSessionRepository bound to t.
func NewMockSessionRepository(t TestingT) *MockSessionRepository {
	m := &MockSessionRepository{}
	register(t, &m.Mock)
	return m
}

func (m *MockSessionRepository) Create(ctx context.Context, s *account.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id ulid.ULID) (*account.Session, error) {
	return sessionResult(m.Called(ctx, id))
}

func (m *MockSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*account.Session, error) {
	return sessionResult(m.Called(ctx, tokenHash))
}

func (m *MockSessionRepository) UpdateLastSeen(ctx context.Context, id ulid.ULID, lastSeen time.Time) error {
	return m.Called(ctx, id, lastSeen).Error(0)
}

func (m *MockSessionRepository) Rebind(ctx context.Context, id, accountID ulid.ULID, tokenHash string, expiresAt time.Time) error {
	return m.Called(ctx, id, accountID, tokenHash, expiresAt).Error(0)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id ulid.ULID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSessionRepository) DeleteByAccountExcept(ctx context.Context, accountID, keep ulid.ULID) (int64, error) {
	ret := m.Called(ctx, accountID, keep)
	return countResult(ret)
}

func (m *MockSessionRepository) DeleteByAccount(ctx context.Context, accountID ulid.ULID) (int64, error) {
	ret := m.Called(ctx, accountID)
	return countResult(ret)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	ret := m.Called(ctx)
	return countResult(ret)
}

func sessionResult(ret mock.Arguments) (*account.Session, error) {
	var s *account.Session
	if v := ret.Get(0); v != nil {
		s = v.(*account.Session)
	}
	return s, ret.Error(1)
}

func countResult(ret mock.Arguments) (int64, error) {
	var n int64
	switch v := ret.Get(0).(type) {
	case int64:
		n = v
	case int:
		n = int64(v)
	}
	return n, ret.Error(1)
}
