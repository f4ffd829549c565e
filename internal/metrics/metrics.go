// Package metrics records cache and upstream activity through OpenTelemetry.
// Recording is fire-and-forget: nothing here can fail a request.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/leonardcser/weather-mcp"

const (
	metricCacheLookups    = "weather.cache.lookups"
	metricUpstreamCalls   = "weather.upstream.calls"
	metricUpstreamLatency = "weather.upstream.duration"
)

// Recorder receives service events.
type Recorder interface {
	CacheLookup(ctx context.Context, kind string, hit bool)
	UpstreamCall(ctx context.Context, op string, elapsed time.Duration, err error)
}

// Nop discards everything.
type Nop struct{}

func (Nop) CacheLookup(context.Context, string, bool)                  {}
func (Nop) UpstreamCall(context.Context, string, time.Duration, error) {}

// OTel records events as OpenTelemetry instruments.
type OTel struct {
	lookups  metric.Int64Counter
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewOTel creates the instruments on mp. A nil mp uses the global provider.
func NewOTel(mp metric.MeterProvider) (*OTel, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	lookups, err := meter.Int64Counter(metricCacheLookups,
		metric.WithDescription("cache lookups by kind and result"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("metrics: create %s: %w", metricCacheLookups, err)
	}
	calls, err := meter.Int64Counter(metricUpstreamCalls,
		metric.WithDescription("upstream provider calls by operation and outcome"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("metrics: create %s: %w", metricUpstreamCalls, err)
	}
	duration, err := meter.Float64Histogram(metricUpstreamLatency,
		metric.WithDescription("upstream provider call latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("metrics: create %s: %w", metricUpstreamLatency, err)
	}
	return &OTel{lookups: lookups, calls: calls, duration: duration}, nil
}

func (o *OTel) CacheLookup(ctx context.Context, kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	o.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("result", result),
	))
}

func (o *OTel) UpstreamCall(ctx context.Context, op string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	)
	o.calls.Add(ctx, 1, attrs)
	o.duration.Record(ctx, elapsed.Seconds(), attrs)
}
