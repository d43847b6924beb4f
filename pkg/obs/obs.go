package obs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Observability struct {
	config       Config
	tracing      *TracingProvider
	metrics      *MetricsProvider
	logging      *LoggingProvider
	records      *RecordMetrics
	shutdownOnce sync.Once
	shutdownErr  error
}

var (
	globalObs *Observability
	globalMu  sync.RWMutex
)

// Init builds the logging, tracing and metrics providers and installs them
// globally. A second call returns the instance installed by the first.
func Init(ctx context.Context, config Config) (*Observability, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if existing := Global(); existing != nil {
		return existing, nil
	}

	obs := &Observability{
		config:  config,
		logging: newLoggingProvider(config),
	}

	var err error
	obs.tracing, err = newTracingProvider(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTracingInitFailed, err)
	}

	obs.metrics, err = newMetricsProvider(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetricsInitFailed, err)
	}

	obs.records, err = NewRecordMetrics(obs.metrics.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}

	globalMu.Lock()
	if globalObs == nil {
		globalObs = obs
	} else {
		obs = globalObs
	}
	globalMu.Unlock()

	obs.logging.Info(ctx, "observability initialized",
		"otlp_endpoint", config.OTLPEndpoint,
		"metrics_enabled", config.MetricsEnabled,
	)

	return obs, nil
}

func Global() *Observability {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalObs
}

func MustInit(ctx context.Context, config Config) *Observability {
	obs, err := Init(ctx, config)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize observability: %v", err))
	}
	return obs
}

// Shutdown flushes and stops the providers and clears the global instance.
// Subsequent calls return the result of the first.
func (o *Observability) Shutdown(ctx context.Context) error {
	o.shutdownOnce.Do(func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		var errs []error

		if o.tracing != nil {
			if err := o.tracing.ForceFlush(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("failed to flush traces: %w", err))
			}
			if err := o.tracing.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("failed to shutdown tracing: %w", err))
			}
		}

		if o.metrics != nil {
			if err := o.metrics.ForceFlush(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("failed to flush metrics: %w", err))
			}
			if err := o.metrics.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("failed to shutdown metrics: %w", err))
			}
		}

		globalMu.Lock()
		if globalObs == o {
			globalObs = nil
		}
		globalMu.Unlock()

		if len(errs) > 0 {
			o.shutdownErr = fmt.Errorf("%w: %w", ErrShutdownFailed, errors.Join(errs...))
			return
		}

		o.logging.Info(shutdownCtx, "observability shutdown completed")
	})

	return o.shutdownErr
}

func Shutdown(ctx context.Context) error {
	obs := Global()
	if obs == nil {
		return ErrNotInitialized
	}
	return obs.Shutdown(ctx)
}

func (o *Observability) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if o.tracing == nil {
		return noop.NewTracerProvider().Tracer(name, opts...)
	}
	return o.tracing.Tracer(name, opts...)
}

func (o *Observability) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if o.metrics == nil {
		return otel.Meter(name, opts...)
	}
	return o.metrics.Meter(name, opts...)
}

func (o *Observability) Logger() *Logger {
	return o.logging.Logger()
}

func (o *Observability) RecordMetrics() *RecordMetrics {
	return o.records
}

func (o *Observability) TracingProvider() *TracingProvider {
	return o.tracing
}

func (o *Observability) MetricsProvider() *MetricsProvider {
	return o.metrics
}

func (o *Observability) LoggingProvider() *LoggingProvider {
	return o.logging
}

func (o *Observability) Config() Config {
	return o.config
}

func Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	obs := Global()
	if obs == nil {
		return otel.Tracer(name, opts...)
	}
	return obs.Tracer(name, opts...)
}

func Meter(name string, opts ...metric.MeterOption) metric.Meter {
	obs := Global()
	if obs == nil {
		return otel.Meter(name, opts...)
	}
	return obs.Meter(name, opts...)
}

// DefaultLogger returns the global logger once Init has run, otherwise a
// fresh logger built from DefaultConfig.
func DefaultLogger() *Logger {
	if obs := Global(); obs != nil {
		return obs.Logger()
	}
	return NewLogger(DefaultConfig())
}
