// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/Imfractical/uprofile/internal/account"
	"github.com/Imfractical/uprofile/internal/validation"
)

// MockRecorder mocks account.Recorder.
type MockRecorder struct {
	mock.Mock
}

var _ account.Recorder = (*MockRecorder)(nil)

// NewMockRecorder creates a MockRecorder bound to t.
func NewMockRecorder(t TestingT) *MockRecorder {
	m := &MockRecorder{}
	register(t, &m.Mock)
	return m
}

func (m *MockRecorder) RecordWorkflow(workflow, result string) {
	m.Called(workflow, result)
}

func (m *MockRecorder) RecordValidationFailure(workflow string, code validation.Code) {
	m.Called(workflow, code)
}
