package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAllMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	require.NotNil(t, m)

	m.RecordTurn("answered", 2.5, 3)
	m.RecordToolCall("get_curriculum", "success", 0.12)
	m.RecordLLMRequest("gemini", "success", 0.8)
	m.RecordLLMFallback("gemini", "groq")
	m.RecordEmbedding("success")
	m.RecordResolution("department", "resolved")
	m.SetActiveSessions(4)
	m.SetCatalogEntries("departments", 120)
	m.RecordCatalogSwap("success")
	m.RecordRateLimiterWait("embedding", 0.01)
	m.RecordRateLimiterDrop("session")
	m.RecordHTTPError("5xx", "/api/v1/sessions/:id/messages")

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCounterValues(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordToolCall("compare_departments", "success", 0.3)
	m.RecordToolCall("compare_departments", "success", 0.4)
	m.RecordToolCall("compare_departments", "error", 0.1)

	assert.Equal(t, float64(2),
		testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues("compare_departments", "success")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues("compare_departments", "error")))
}

func TestGaugeValues(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.SetActiveSessions(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(m.SessionsActive))

	m.SetActiveSessions(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.SessionsActive))
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	New(registry)
	assert.Panics(t, func() { New(registry) })
}
