package exporter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/quiby-ai/recordwire/pkg/obs"
	"github.com/quiby-ai/recordwire/pkg/record"
)

// Exporter keeps the most recent records handed to it and serves them as
// JSON so a verifier can read them back.
type Exporter struct {
	cfg     Config
	codec   *record.Codec
	logger  *obs.Logger
	metrics *obs.RecordMetrics

	metricsPath    string
	metricsHandler http.Handler

	mu      sync.RWMutex
	records []record.Record
}

type Option func(*Exporter)

func WithLogger(l *obs.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

func WithRecordMetrics(m *obs.RecordMetrics) Option {
	return func(e *Exporter) { e.metrics = m }
}

// WithMetricsHandler mounts h at path on the exporter's router.
func WithMetricsHandler(path string, h http.Handler) Option {
	return func(e *Exporter) {
		e.metricsPath = path
		e.metricsHandler = h
	}
}

// New builds an exporter. A nil codec means record.DefaultCodec.
func New(cfg Config, codec *record.Codec, opts ...Option) (*Exporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if codec == nil {
		codec = record.DefaultCodec()
	}

	e := &Exporter{
		cfg:     cfg,
		codec:   codec,
		logger:  obs.DefaultLogger(),
		records: make([]record.Record, 0, min(cfg.Limit, 256)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Export stores a copy of r. Once Limit records are held the oldest is dropped.
// Records whose payload type is not registered with the codec are rejected.
func (e *Exporter) Export(r record.Record) error {
	if r.Value() == nil {
		return record.ErrNilValue
	}
	if _, err := e.codec.Registry().DiscriminatorOf(r.Value()); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.records) == e.cfg.Limit {
		copy(e.records, e.records[1:])
		e.records = e.records[:len(e.records)-1]
	}
	e.records = append(e.records, r.Copy())
	return nil
}

// Records returns the held records, newest first.
func (e *Exporter) Records() []record.Record {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]record.Record, len(e.records))
	for i, r := range e.records {
		out[len(e.records)-1-i] = r
	}
	return out
}

func (e *Exporter) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.records)
}

func (e *Exporter) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = e.records[:0]
}

func (e *Exporter) Addr() string {
	return net.JoinHostPort("", strconv.Itoa(e.cfg.Port))
}

// Serve listens on the configured port until ctx is done, then shuts the
// server down within ShutdownTimeout.
func (e *Exporter) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", e.Addr())
	if err != nil {
		return fmt.Errorf("exporter: listen: %w", err)
	}
	return e.serve(ctx, ln)
}

func (e *Exporter) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           e.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		e.logger.Info(ctx, "exporter listening", "addr", ln.Addr().String(), "limit", e.cfg.Limit)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("exporter: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("exporter: shutdown: %w", err)
	}
	e.logger.Info(ctx, "exporter stopped")
	return nil
}
