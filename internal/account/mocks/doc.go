// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

// Package mocks provides testify mocks of the account package interfaces.
//
// Each NewMock* constructor registers the mock with t and asserts its
// expectations when the test ends.
package mocks

import "github.com/stretchr/testify/mock"

// TestingT is what the constructors need from *testing.T.
type TestingT interface {
	mock.TestingT
	Cleanup(func())
}

func register(t TestingT, m *mock.Mock) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}
