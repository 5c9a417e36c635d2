// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package account

import "github.com/Imfractical/uprofile/internal/validation"

// Workflow names reported to a Recorder.
const (
	WorkflowRegister       = "register"
	WorkflowAuthenticate   = "authenticate"
	WorkflowChangePassword = "change_password"
	WorkflowResetPassword  = "reset_password"
	WorkflowUpdateProfile  = "update_profile"
)

// Workflow results reported to a Recorder.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Recorder receives workflow outcomes for metrics.
type Recorder interface {
	RecordWorkflow(workflow, result string)
	RecordValidationFailure(workflow string, code validation.Code)
}

type nopRecorder struct{}

func (nopRecorder) RecordWorkflow(string, string) {}
func (nopRecorder) RecordValidationFailure(string, validation.Code) {}

func record(r Recorder, workflow string, out validation.Outcome, err error) {
	switch {
	case err != nil:
		r.RecordWorkflow(workflow, ResultError)
	case out.Accepted():
		r.RecordWorkflow(workflow, ResultAccepted)
	default:
		r.RecordWorkflow(workflow, ResultRejected)
		for _, f := range out.Failures {
			r.RecordValidationFailure(workflow, f.Code)
		}
	}
}
