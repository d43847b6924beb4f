package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/quiby-ai/recordwire/pkg/obs"
	"github.com/quiby-ai/recordwire/pkg/record"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const RecordsPath = "/records.json"

// RecordSource reads the records an exporter currently holds.
type RecordSource struct {
	client  Client
	url     string
	codec   *record.Codec
	logger  *obs.Logger
	metrics *obs.RecordMetrics
}

type SourceOption func(*RecordSource)

func WithLogger(l *obs.Logger) SourceOption {
	return func(s *RecordSource) { s.logger = l }
}

func WithMetrics(m *obs.RecordMetrics) SourceOption {
	return func(s *RecordSource) { s.metrics = m }
}

// NewRecordSource points at the exporter rooted at baseURL. A nil codec
// means record.DefaultCodec.
func NewRecordSource(client Client, baseURL string, codec *record.Codec, opts ...SourceOption) (*RecordSource, error) {
	if baseURL == "" {
		return nil, ErrEmptyURL
	}
	u, err := buildURL(strings.TrimRight(baseURL, "/")+RecordsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if codec == nil {
		codec = record.DefaultCodec()
	}

	s := &RecordSource{
		client: client,
		url:    u,
		codec:  codec,
		logger: obs.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *RecordSource) URL() string { return s.url }

// Fetch returns the exported records in the order the exporter lists them.
func (s *RecordSource) Fetch(ctx context.Context) ([]record.Record, error) {
	ctx, span := obs.Tracer("github.com/quiby-ai/recordwire/pkg/transport").Start(ctx, "transport.fetch_records")
	defer span.End()

	elapsed := obs.StartTimer()

	resp, err := s.client.Get(ctx, s.url, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.Status))

	if resp.Status != http.StatusOK {
		err := fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.Status, s.url)
		span.SetStatus(codes.Error, "unexpected status")
		return nil, err
	}

	records, err := s.codec.UnmarshalList(resp.Body)
	if err != nil {
		kind := record.ErrorKind(err)
		s.metrics.DecodeFailed(ctx, kind)
		s.logger.Error(ctx, "failed to decode exported records", err, "reason", kind, "url", s.url)
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		return nil, fmt.Errorf("transport: decode records: %w", err)
	}

	s.metrics.Decoded(ctx, len(records))
	span.SetAttributes(attribute.Int("records.count", len(records)))
	s.logger.EventWithLatency(ctx, "records_fetched", obs.StatusOK, elapsed(), "count", len(records))

	return records, nil
}
