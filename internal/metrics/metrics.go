// Package metrics provides Prometheus metrics for monitoring agent turns,
// tool execution, model providers, retrieval, and session state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Turn metrics
	TurnsTotal          *prometheus.CounterVec
	TurnDurationSeconds prometheus.Histogram
	TurnSteps           prometheus.Histogram

	// Tool metrics
	ToolCallsTotal      *prometheus.CounterVec
	ToolDurationSeconds *prometheus.HistogramVec

	// Model provider metrics
	LLMRequestsTotal    *prometheus.CounterVec
	LLMDurationSeconds  *prometheus.HistogramVec
	LLMFallbackTotal    *prometheus.CounterVec
	EmbeddingsTotal     *prometheus.CounterVec

	// Entity resolution metrics
	ResolutionsTotal *prometheus.CounterVec

	// Session metrics
	SessionsActive prometheus.Gauge

	// Catalog metrics
	CatalogEntries     *prometheus.GaugeVec
	CatalogSwapsTotal  *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterWaitDuration *prometheus.HistogramVec
	RateLimiterDropped      *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec
}

// New creates and registers all metrics with the provided registry
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		TurnsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_turns_total",
				Help: "Total number of agent turns by terminal status",
			},
			[]string{"status"}, // status: answered, clarification, budget_exceeded, error
		),

		TurnDurationSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mentor_turn_duration_seconds",
				Help:    "End-to-end agent turn duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
		),

		TurnSteps: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mentor_turn_steps",
				Help:    "Planner steps consumed per turn",
				Buckets: []float64{1, 2, 3, 4, 5, 6},
			},
		),

		ToolCallsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_tool_calls_total",
				Help: "Total number of tool calls by tool and status",
			},
			[]string{"tool", "status"}, // status: success, error, timeout, not_found, ambiguous
		),

		ToolDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mentor_tool_duration_seconds",
				Help:    "Tool execution duration in seconds by tool",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
			},
			[]string{"tool"},
		),

		LLMRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_llm_requests_total",
				Help: "Total number of model provider requests by provider and status",
			},
			[]string{"provider", "status"},
		),

		LLMDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mentor_llm_duration_seconds",
				Help:    "Model provider request duration in seconds by provider",
				Buckets: []float64{0.25, 0.5, 1, 2, 3, 5, 10},
			},
			[]string{"provider"},
		),

		LLMFallbackTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_llm_fallback_total",
				Help: "Total number of provider fallbacks by source and target provider",
			},
			[]string{"from", "to"},
		),

		EmbeddingsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_embeddings_total",
				Help: "Total number of embedding API requests by status",
			},
			[]string{"status"},
		),

		ResolutionsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_resolutions_total",
				Help: "Total number of entity resolutions by kind and outcome",
			},
			[]string{"kind", "outcome"}, // outcome: resolved, ambiguous, not_found
		),

		SessionsActive: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "mentor_sessions_active",
				Help: "Number of live sessions",
			},
		),

		CatalogEntries: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mentor_catalog_entries",
				Help: "Number of rows per catalog table",
			},
			[]string{"table"}, // table: universities, departments, courses
		),

		CatalogSwapsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_catalog_swaps_total",
				Help: "Total number of catalog hot-swaps by status",
			},
			[]string{"status"}, // status: success, error, skipped
		),

		RateLimiterWaitDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mentor_ratelimiter_wait_duration_seconds",
				Help:    "Time spent waiting for rate limiter by limiter type",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"limiter"},
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_ratelimiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter"},
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentor_http_errors_total",
				Help: "Total number of HTTP error responses by status class and route",
			},
			[]string{"class", "route"},
		),
	}

	return m
}

// RecordTurn records a completed turn with its terminal status.
func (m *Metrics) RecordTurn(status string, durationSeconds float64, steps int) {
	m.TurnsTotal.WithLabelValues(status).Inc()
	m.TurnDurationSeconds.Observe(durationSeconds)
	m.TurnSteps.Observe(float64(steps))
}

// RecordToolCall records one tool execution.
func (m *Metrics) RecordToolCall(tool, status string, durationSeconds float64) {
	m.ToolCallsTotal.WithLabelValues(tool, status).Inc()
	m.ToolDurationSeconds.WithLabelValues(tool).Observe(durationSeconds)
}

// RecordLLMRequest records one model provider request.
func (m *Metrics) RecordLLMRequest(provider, status string, durationSeconds float64) {
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMDurationSeconds.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordLLMFallback records a provider fallback.
func (m *Metrics) RecordLLMFallback(from, to string) {
	m.LLMFallbackTotal.WithLabelValues(from, to).Inc()
}

// RecordEmbedding records one embedding request.
func (m *Metrics) RecordEmbedding(status string) {
	m.EmbeddingsTotal.WithLabelValues(status).Inc()
}

// RecordResolution records one entity resolution attempt.
func (m *Metrics) RecordResolution(kind, outcome string) {
	m.ResolutionsTotal.WithLabelValues(kind, outcome).Inc()
}

// SetActiveSessions updates the live session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.SessionsActive.Set(float64(n))
}

// SetCatalogEntries updates the row gauge for a catalog table.
func (m *Metrics) SetCatalogEntries(table string, n int) {
	m.CatalogEntries.WithLabelValues(table).Set(float64(n))
}

// RecordCatalogSwap records a snapshot swap attempt.
func (m *Metrics) RecordCatalogSwap(status string) {
	m.CatalogSwapsTotal.WithLabelValues(status).Inc()
}

// RecordRateLimiterWait records time spent waiting on a limiter.
func (m *Metrics) RecordRateLimiterWait(limiter string, durationSeconds float64) {
	m.RateLimiterWaitDuration.WithLabelValues(limiter).Observe(durationSeconds)
}

// RecordRateLimiterDrop records a request rejected by a limiter.
func (m *Metrics) RecordRateLimiterDrop(limiter string) {
	m.RateLimiterDropped.WithLabelValues(limiter).Inc()
}

// RecordHTTPError records an HTTP error response.
func (m *Metrics) RecordHTTPError(class, route string) {
	m.HTTPErrorsTotal.WithLabelValues(class, route).Inc()
}
