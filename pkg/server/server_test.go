package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Javi111003/OlivIA-RAG/pkg/config"
	"github.com/Javi111003/OlivIA-RAG/pkg/observability"
	"github.com/Javi111003/OlivIA-RAG/pkg/pipeline"
	"github.com/Javi111003/OlivIA-RAG/pkg/testutils"
)

func newTestServer(t *testing.T, metricsEnabled bool) *Server {
	t.Helper()

	metrics, err := observability.NewMetrics(&config.MetricsConfig{Enabled: metricsEnabled})
	require.NoError(t, err)

	// no scripted replies: every agent takes its deterministic fallback
	pipe, err := pipeline.NewWithComponents(testutils.TestConfig(), pipeline.Components{
		LLM:     testutils.NewMockLLM(),
		Metrics: metrics,
	})
	require.NoError(t, err)

	cfg := &config.ServerConfig{}
	cfg.SetDefaults()
	return New(cfg, pipe, metrics)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestConversationEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	body := strings.NewReader(`{"query":"Explain linear equations"}`)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/conversations", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp conversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Answer)
	assert.NotEmpty(t, resp.StateID)
	assert.Greater(t, resp.Steps, 0)
}

func TestConversationEndpointRejectsEmptyQuery(t *testing.T) {
	srv := newTestServer(t, false)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/conversations",
		strings.NewReader(`{"query":"   "}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConversationEndpointRejectsBadJSON(t *testing.T) {
	srv := newTestServer(t, false)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/conversations",
		strings.NewReader(`{`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGraphEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/graph", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "graph TD")
	assert.Contains(t, rec.Body.String(), "supervisor")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, true)

	// produce some traffic first
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/conversations",
		strings.NewReader(`{"query":"Explain fractions"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "olivia_requests")
}
