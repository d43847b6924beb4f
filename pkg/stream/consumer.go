package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/quiby-ai/recordwire/pkg/obs"
	"github.com/quiby-ai/recordwire/pkg/record"
	"github.com/segmentio/kafka-go"
)

type Handler interface {
	Handle(ctx context.Context, r record.Record) error
}

type HandlerFunc func(ctx context.Context, r record.Record) error

func (f HandlerFunc) Handle(ctx context.Context, r record.Record) error { return f(ctx, r) }

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads every registered value type's topic and hands decoded
// records to a Handler. Messages that fail to decode are logged and skipped.
type Consumer struct {
	reader  messageReader
	codec   *record.Codec
	handler Handler
	logger  *obs.Logger
	metrics *obs.RecordMetrics
}

type ConsumerOption func(*Consumer)

func WithConsumerLogger(l *obs.Logger) ConsumerOption {
	return func(c *Consumer) { c.logger = l }
}

func WithConsumerMetrics(m *obs.RecordMetrics) ConsumerOption {
	return func(c *Consumer) { c.metrics = m }
}

func NewConsumer(cfg Config, handler Handler, codec *record.Codec, opts ...ConsumerOption) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.GroupID == "" {
		return nil, ErrNoGroupID
	}
	if codec == nil {
		codec = record.DefaultCodec()
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: Topics(cfg.TopicPrefix, codec.Registry()),
	})
	return newConsumer(reader, handler, codec, opts...), nil
}

func newConsumer(reader messageReader, handler Handler, codec *record.Codec, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader:  reader,
		codec:   codec,
		handler: handler,
		logger:  obs.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Run consumes until ctx is done or the reader fails. Cancellation is not
// reported as an error.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("stream: read message: %w", err)
		}

		r, err := decodeMessage(c.codec, m)
		if err != nil {
			kind := record.ErrorKind(err)
			c.metrics.DecodeFailed(ctx, kind)
			c.logger.Warn(ctx, "skipping undecodable message",
				"topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "reason", kind, "error", err.Error())
			continue
		}
		c.metrics.Decoded(ctx, 1)

		rctx := obs.WithRecord(ctx, r.Position(), r.PartitionID(), r.ValueType().String())
		if err := c.handler.Handle(rctx, r); err != nil {
			c.logger.Error(rctx, "handler failed", err, "topic", m.Topic, "offset", m.Offset)
		}
	}
}

// decodeMessage decodes the message value through the codec's registry and
// checks it against the value_type header when one is present.
func decodeMessage(codec *record.Codec, m kafka.Message) (record.Record, error) {
	r, err := codec.Unmarshal(m.Value)
	if err != nil {
		return record.Record{}, err
	}
	if vt, ok := header(m.Headers, HeaderValueType); ok && vt != string(r.ValueType()) {
		return record.Record{}, fmt.Errorf("%w: value_type header %q, record %q", ErrHeaderMismatch, vt, r.ValueType())
	}
	return r, nil
}
