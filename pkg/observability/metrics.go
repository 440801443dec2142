// Package observability exposes service metrics over OpenTelemetry with
// a Prometheus exporter.
package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/Javi111003/OlivIA-RAG/pkg/config"
)

const meterName = "github.com/Javi111003/OlivIA-RAG"

// Metrics records tutoring run counters. A disabled instance is a
// functional no-op so call sites never branch.
type Metrics struct {
	enabled  bool
	provider *sdkmetric.MeterProvider
	registry *prometheus.Registry

	requests metric.Int64Counter
	llmCalls metric.Int64Counter
	degraded metric.Int64Counter
	steps    metric.Int64Histogram
}

// NewMetrics builds the metrics surface from config.
func NewMetrics(cfg *config.MetricsConfig) (*Metrics, error) {
	m := &Metrics{}

	var meter metric.Meter
	if cfg != nil && cfg.Enabled {
		m.enabled = true
		m.registry = prometheus.NewRegistry()

		exporter, err := otelprom.New(otelprom.WithRegisterer(m.registry))
		if err != nil {
			return nil, err
		}
		m.provider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
		meter = m.provider.Meter(meterName)
	} else {
		meter = noop.NewMeterProvider().Meter(meterName)
	}

	var err error
	if m.requests, err = meter.Int64Counter("olivia.requests",
		metric.WithDescription("Tutoring requests handled")); err != nil {
		return nil, err
	}
	if m.llmCalls, err = meter.Int64Counter("olivia.llm.calls",
		metric.WithDescription("LLM generations issued")); err != nil {
		return nil, err
	}
	if m.degraded, err = meter.Int64Counter("olivia.degraded.events",
		metric.WithDescription("Deterministic fallbacks taken")); err != nil {
		return nil, err
	}
	if m.steps, err = meter.Int64Histogram("olivia.run.steps",
		metric.WithDescription("Graph steps per run")); err != nil {
		return nil, err
	}

	return m, nil
}

// Enabled reports whether metrics are exported.
func (m *Metrics) Enabled() bool { return m.enabled }

// RecordRequest counts one handled request.
func (m *Metrics) RecordRequest(ctx context.Context) {
	m.requests.Add(ctx, 1)
}

// RecordLLMCall counts one LLM generation for a provider.
func (m *Metrics) RecordLLMCall(ctx context.Context, provider string) {
	m.llmCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordDegraded counts one fallback taken by a component.
func (m *Metrics) RecordDegraded(ctx context.Context, component string) {
	m.degraded.Add(ctx, 1, metric.WithAttributes(attribute.String("component", component)))
}

// RecordSteps records how many graph steps a run took.
func (m *Metrics) RecordSteps(ctx context.Context, steps int) {
	m.steps.Record(ctx, int64(steps))
}

// Handler serves the Prometheus scrape endpoint. Disabled metrics get a
// handler that reports 404.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
