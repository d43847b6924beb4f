package obs

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type MetricsProvider struct {
	provider *sdkmetric.MeterProvider
	registry *prometheus.Registry
	exporter *promexporter.Exporter
	config   Config
}

func newMetricsProvider(ctx context.Context, config Config) (*MetricsProvider, error) {
	if !config.MetricsEnabled {
		return &MetricsProvider{config: config}, nil
	}

	res, err := newResource(ctx, config)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
		promexporter.WithoutUnits(),
		promexporter.WithoutScopeInfo(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)

	return &MetricsProvider{
		provider: provider,
		registry: registry,
		exporter: exporter,
		config:   config,
	}, nil
}

func (mp *MetricsProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

func (mp *MetricsProvider) HTTPHandler() http.Handler {
	if mp.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(mp.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (mp *MetricsProvider) Registry() *prometheus.Registry {
	return mp.registry
}

func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	return mp.provider.Shutdown(ctx)
}

func (mp *MetricsProvider) ForceFlush(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	return mp.provider.ForceFlush(ctx)
}

// RecordMetrics holds the counters shared by the codec boundary and the
// verifier. A nil *RecordMetrics is valid and records nothing.
type RecordMetrics struct {
	encoded        metric.Int64Counter
	decoded        metric.Int64Counter
	decodeFailures metric.Int64Counter
	polls          metric.Int64Counter
	mismatches     metric.Int64Counter
}

func NewRecordMetrics(meter metric.Meter) (*RecordMetrics, error) {
	var (
		m   RecordMetrics
		err error
	)

	counters := []struct {
		dst         *metric.Int64Counter
		name        string
		description string
	}{
		{&m.encoded, "records_encoded_total", "Records serialized to the wire format"},
		{&m.decoded, "records_decoded_total", "Records deserialized from the wire format"},
		{&m.decodeFailures, "record_decode_failures_total", "Records rejected while deserializing"},
		{&m.polls, "verify_polls_total", "Exporter polls issued by the round-trip verifier"},
		{&m.mismatches, "verify_mismatches_total", "Records that did not round-trip unchanged"},
	}

	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMetricsInitFailed, c.name, err)
		}
	}

	return &m, nil
}

// RecordMetricsFromGlobal builds the counters on the global meter, which is
// a no-op until Init installs a provider.
func RecordMetricsFromGlobal() *RecordMetrics {
	m, err := NewRecordMetrics(Meter(instrumentationName))
	if err != nil {
		return nil
	}
	return m
}

func (m *RecordMetrics) Encoded(ctx context.Context, valueType string) {
	if m == nil {
		return
	}
	m.encoded.Add(ctx, 1, metric.WithAttributes(attribute.String("value_type", valueType)))
}

func (m *RecordMetrics) Decoded(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.decoded.Add(ctx, int64(n))
}

func (m *RecordMetrics) DecodeFailed(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.decodeFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *RecordMetrics) Polled(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.polls.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *RecordMetrics) Mismatched(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.mismatches.Add(ctx, int64(n))
}
