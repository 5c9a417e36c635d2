// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Imfractical/uprofile/internal/account"
	"github.com/Imfractical/uprofile/internal/validation"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordWorkflow(account.WorkflowAuthenticate, account.ResultAccepted)
	m.RecordWorkflow(account.WorkflowAuthenticate, account.ResultAccepted)
	m.RecordWorkflow(account.WorkflowAuthenticate, account.ResultRejected)
	m.RecordValidationFailure(account.WorkflowChangePassword, validation.CodePasswordMonoCase)

	assert.InDelta(t, 2, testutil.ToFloat64(m.WorkflowsTotal.WithLabelValues("authenticate", "accepted")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.WorkflowsTotal.WithLabelValues("authenticate", "rejected")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ValidationFailuresTotal.WithLabelValues("change_password", "password_mono_case")), 0)
}

func TestMetrics_ObserveHTTPRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveHTTPRequest("GET", "/v1/accounts/{id}", 404, time.Millisecond)
	m.ObserveHTTPRequest("GET", "/v1/accounts/{id}", 200, time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/v1/accounts/{id}", "404")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))
}

func TestNewMetrics_PanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
