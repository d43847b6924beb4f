package stream

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/quiby-ai/recordwire/pkg/obs"
	"github.com/quiby-ai/recordwire/pkg/record"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes records to one topic per value type, keyed by record key.
type Publisher struct {
	w       messageWriter
	codec   *record.Codec
	prefix  string
	logger  *obs.Logger
	metrics *obs.RecordMetrics
	now     func() time.Time
}

type PublisherOption func(*Publisher)

func WithPublisherLogger(l *obs.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = l }
}

func WithPublisherMetrics(m *obs.RecordMetrics) PublisherOption {
	return func(p *Publisher) { p.metrics = m }
}

// NewPublisher connects a kafka writer to cfg.Brokers. A nil codec means
// record.DefaultCodec.
func NewPublisher(cfg Config, codec *record.Codec, opts ...PublisherOption) (*Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, cfg.TopicPrefix, codec, opts...), nil
}

func newPublisher(w messageWriter, prefix string, codec *record.Codec, opts ...PublisherOption) *Publisher {
	if codec == nil {
		codec = record.DefaultCodec()
	}
	p := &Publisher{
		w:      w,
		codec:  codec,
		prefix: prefix,
		logger: obs.DefaultLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Close() error {
	return p.w.Close()
}

// Publish encodes and writes records in one batch. Nothing is written if any
// record fails to encode.
func (p *Publisher) Publish(ctx context.Context, records ...record.Record) error {
	msgs := make([]kafka.Message, 0, len(records))
	for i, r := range records {
		msg, err := p.message(r)
		if err != nil {
			return fmt.Errorf("stream: record %d: %w", i, err)
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return nil
	}

	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error(ctx, "failed to publish records", err, "count", len(msgs))
		return fmt.Errorf("stream: write messages: %w", err)
	}

	for _, r := range records {
		p.metrics.Encoded(ctx, r.ValueType().String())
	}
	p.logger.Event(ctx, "records_published", obs.StatusOK, "count", len(msgs))
	return nil
}

func (p *Publisher) message(r record.Record) (kafka.Message, error) {
	value, err := p.codec.Marshal(r)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Topic:   Topic(p.prefix, r.ValueType()),
		Key:     []byte(strconv.FormatInt(r.Key(), 10)),
		Value:   value,
		Headers: Headers(r, uuid.NewString()),
		Time:    p.now(),
	}, nil
}
