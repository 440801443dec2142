package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Javi111003/OlivIA-RAG/pkg/config"
)

func TestMetricsDisabledIsNoop(t *testing.T) {
	m, err := NewMetrics(&config.MetricsConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, m.Enabled())

	ctx := context.Background()
	m.RecordRequest(ctx)
	m.RecordLLMCall(ctx, "openai")
	m.RecordDegraded(ctx, "retriever")
	m.RecordSteps(ctx, 4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.NoError(t, m.Shutdown(ctx))
}

func TestMetricsEnabledExposesCounters(t *testing.T) {
	m, err := NewMetrics(&config.MetricsConfig{Enabled: true})
	require.NoError(t, err)
	assert.True(t, m.Enabled())

	ctx := context.Background()
	m.RecordRequest(ctx)
	m.RecordRequest(ctx)
	m.RecordLLMCall(ctx, "ollama")
	m.RecordDegraded(ctx, "math_expert")
	m.RecordSteps(ctx, 6)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "olivia_requests")
	assert.Contains(t, text, "olivia_llm_calls")
	assert.Contains(t, text, "olivia_degraded_events")
	assert.Contains(t, text, "olivia_run_steps")

	assert.NoError(t, m.Shutdown(ctx))
}

func TestMetricsNilConfigDisabled(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)
	assert.False(t, m.Enabled())
}
