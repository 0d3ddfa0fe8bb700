package network

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/travelmodel/modechoice/internal/network"

// Metrics holds metrics for network store loads and the snapshot cache.
type Metrics struct {
	loadDuration metric.Float64Histogram
	loadTotal    metric.Int64Counter
	cacheHit     metric.Int64Counter
	cacheMiss    metric.Int64Counter
}

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return newMetrics(otel.Meter(meterName))
}

func noopMetrics() *Metrics {
	m, _ := newMetrics(noop.NewMeterProvider().Meter(meterName)) //nolint:errcheck // noop instruments never fail
	return m
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	loadDuration, err := meter.Float64Histogram(
		"modechoice.network.load.duration",
		metric.WithDescription("Duration of network snapshot loads in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	loadTotal, err := meter.Int64Counter(
		"modechoice.network.load.total",
		metric.WithDescription("Total number of network snapshot loads"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHit, err := meter.Int64Counter(
		"modechoice.network.cache.hit",
		metric.WithDescription("Snapshot requests served from cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMiss, err := meter.Int64Counter(
		"modechoice.network.cache.miss",
		metric.WithDescription("Snapshot requests that needed a load"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		loadDuration: loadDuration,
		loadTotal:    loadTotal,
		cacheHit:     cacheHit,
		cacheMiss:    cacheMiss,
	}, nil
}

// recordLoad records one store load. reason is "expired" or "reload".
func (m *Metrics) recordLoad(reason string, d time.Duration, err error) {
	attrs := []attribute.KeyValue{attribute.String("load.reason", reason)}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Background context so a cancelled request still gets counted.
	ctx := context.Background()
	m.loadDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
	m.loadTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) recordCacheHit() {
	m.cacheHit.Add(context.Background(), 1)
}

func (m *Metrics) recordCacheMiss() {
	m.cacheMiss.Add(context.Background(), 1)
}
