// Package observability exposes render metrics through an OpenTelemetry meter
// backed by the Prometheus exporter.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"roster-search/internal/common/logger"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	renderCounter  otelmetric.Int64Counter
	renderDuration otelmetric.Float64Histogram
}

// New registers a meter provider for serviceName. A failed exporter yields a
// no-op Observability rather than an error.
func New(serviceName string, log logger.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	renderCounter, _ := meter.Int64Counter(
		"search.renders",
		otelmetric.WithDescription("Number of search pages rendered"),
	)
	renderDuration, _ := meter.Float64Histogram(
		"search.render.duration",
		otelmetric.WithDescription("Time to filter and paginate a roster"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:  provider,
		renderCounter:  renderCounter,
		renderDuration: renderDuration,
	}
}

// RecordRender counts one render of surface with the given outcome.
func (o *Observability) RecordRender(ctx context.Context, surface, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("surface", surface),
		attribute.String("outcome", outcome),
	)
	if o.renderCounter != nil {
		o.renderCounter.Add(ctx, 1, attrs)
	}
	if o.renderDuration != nil {
		o.renderDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
