// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 uprofile Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Imfractical/uprofile/internal/account"
	"github.com/Imfractical/uprofile/internal/validation"
)

// Metrics contains the uprofile Prometheus metrics.
type Metrics struct {
	WorkflowsTotal          *prometheus.CounterVec
	ValidationFailuresTotal *prometheus.CounterVec
	HTTPRequestsTotal       *prometheus.CounterVec
	HTTPRequestDuration     *prometheus.HistogramVec
}

// NewMetrics creates the uprofile metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WorkflowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uprofile_workflows_total",
				Help: "Total number of account workflows by workflow and result",
			},
			[]string{"workflow", "result"},
		),
		ValidationFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uprofile_validation_failures_total",
				Help: "Total number of validation failures by workflow and failure code",
			},
			[]string{"workflow", "code"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uprofile_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uprofile_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(m.WorkflowsTotal, m.ValidationFailuresTotal, m.HTTPRequestsTotal, m.HTTPRequestDuration)
	return m
}

// RecordWorkflow counts one workflow run.
func (m *Metrics) RecordWorkflow(workflow, result string) {
	m.WorkflowsTotal.WithLabelValues(workflow, result).Inc()
}

// RecordValidationFailure counts one failure reported by a rejected workflow.
func (m *Metrics) RecordValidationFailure(workflow string, code validation.Code) {
	m.ValidationFailuresTotal.WithLabelValues(workflow, string(code)).Inc()
}

// ObserveHTTPRequest records a served request. route is the matched route
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

var _ account.Recorder = (*Metrics)(nil)
