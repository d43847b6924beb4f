package record

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/segmentio/encoding/json"
)

const (
	fieldValueType = "valueType"
	fieldIntent    = "intent"
	fieldValue     = "value"
)

const envelopeSchemaURL = "https://recordwire.local/schemas/record.schema.json"

// envelopeSchema checks the JSON types of envelope fields. The payload shape is left to
// the variant codec and the discriminator to the decoder.
const envelopeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["intent", "value"],
  "properties": {
    "position": {"type": "integer"},
    "sourceRecordPosition": {"type": "integer"},
    "key": {"type": "integer"},
    "timestamp": {"type": "integer"},
    "partitionId": {"type": "integer"},
    "brokerVersion": {"type": "string"},
    "recordType": {"type": "string"},
    "rejectionType": {"type": "string"},
    "rejectionReason": {"type": "string"},
    "intent": {"type": "string"},
    "valueType": {"type": "string"}
  }
}`

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaOnce sync.Once
)

func recordSchema() *jsonschema.Schema {
	compiledSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(envelopeSchemaURL, strings.NewReader(envelopeSchema)); err != nil {
			panic(fmt.Sprintf("record: load envelope schema: %v", err))
		}
		compiledSchema = c.MustCompile(envelopeSchemaURL)
	})
	return compiledSchema
}

type wireRecord struct {
	Position             int64           `json:"position"`
	SourceRecordPosition int64           `json:"sourceRecordPosition"`
	Key                  int64           `json:"key"`
	Timestamp            int64           `json:"timestamp"`
	RecordType           RecordType      `json:"recordType"`
	RejectionType        RejectionType   `json:"rejectionType"`
	RejectionReason      string          `json:"rejectionReason"`
	Intent               string          `json:"intent"`
	ValueType            string          `json:"valueType"`
	PartitionID          int32           `json:"partitionId"`
	BrokerVersion        string          `json:"brokerVersion"`
	Value                json.RawMessage `json:"value"`
}

// Codec renders records to JSON and back, dispatching the payload and the intent on
// the valueType discriminator through its Registry.
type Codec struct {
	registry *Registry
}

func NewCodec(registry *Registry) *Codec {
	return &Codec{registry: registry}
}

var (
	defaultCodec     *Codec
	defaultCodecOnce sync.Once
)

// DefaultCodec returns a codec over DefaultRegistry.
func DefaultCodec() *Codec {
	defaultCodecOnce.Do(func() {
		defaultCodec = NewCodec(DefaultRegistry())
	})
	return defaultCodec
}

func (c *Codec) Registry() *Registry {
	return c.registry
}

// Marshal serializes a record.
func (c *Codec) Marshal(r Record) ([]byte, error) {
	if r.value == nil {
		return nil, ErrNilValue
	}
	discriminator, err := c.registry.DiscriminatorOf(r.value)
	if err != nil {
		return nil, err
	}
	payloadCodec, err := c.registry.ResolveValueType(discriminator)
	if err != nil {
		return nil, err
	}
	payload, err := payloadCodec.Encode(r.value)
	if err != nil {
		return nil, err
	}

	w := wireRecord{
		Position:             r.position,
		SourceRecordPosition: r.sourceRecordPosition,
		Key:                  r.key,
		Timestamp:            r.timestamp,
		RecordType:           r.recordType,
		RejectionType:        r.rejectionType,
		RejectionReason:      r.rejectionReason,
		Intent:               r.intent.Name(),
		ValueType:            discriminator,
		PartitionID:          r.partitionID,
		BrokerVersion:        r.brokerVersion,
		Value:                payload,
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}

// Unmarshal reconstructs a record. Field order is irrelevant. Only recordType and
// rejectionType fall back to NULL_VAL when absent; intent and value are mandatory.
func (c *Codec) Unmarshal(data []byte) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return Record{}, fmt.Errorf("%w: record must be a JSON object", ErrMalformedRecord)
	}

	rawDiscriminator, ok := fields[fieldValueType]
	if !ok || isNull(rawDiscriminator) {
		return Record{}, ErrMissingDiscriminator
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := recordSchema().Validate(doc); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	var discriminator string
	if err := json.Unmarshal(rawDiscriminator, &discriminator); err != nil {
		return Record{}, fmt.Errorf("%w: valueType: %v", ErrMalformedRecord, err)
	}

	vocabulary, err := c.registry.ResolveIntentType(discriminator)
	if err != nil {
		return Record{}, err
	}
	var intentName string
	if err := json.Unmarshal(fields[fieldIntent], &intentName); err != nil {
		return Record{}, fmt.Errorf("%w: intent: %v", ErrMalformedRecord, err)
	}
	intent, err := vocabulary.Lookup(intentName)
	if err != nil {
		return Record{}, err
	}

	payloadCodec, err := c.registry.ResolveValueType(discriminator)
	if err != nil {
		return Record{}, err
	}
	value, err := payloadCodec.Decode(fields[fieldValue])
	if err != nil {
		return Record{}, err
	}

	opts := []Option{WithIntent(intent)}

	if s, ok, err := optionalField[string](fields, "recordType"); err != nil {
		return Record{}, err
	} else if ok {
		t, err := ParseRecordType(s)
		if err != nil {
			return Record{}, err
		}
		opts = append(opts, WithRecordType(t))
	}
	if s, ok, err := optionalField[string](fields, "rejectionType"); err != nil {
		return Record{}, err
	} else if ok {
		t, err := ParseRejectionType(s)
		if err != nil {
			return Record{}, err
		}
		opts = append(opts, WithRejectionType(t))
	}

	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	opts = append(opts,
		WithPosition(w.Position),
		WithSourceRecordPosition(w.SourceRecordPosition),
		WithKey(w.Key),
		WithTimestamp(w.Timestamp),
		WithPartitionID(w.PartitionID),
		WithBrokerVersion(w.BrokerVersion),
		WithRejectionReason(w.RejectionReason),
	)

	return New(value, opts...)
}

// MarshalList serializes records as a JSON array in the given order.
func (c *Codec) MarshalList(records []Record) ([]byte, error) {
	items := make([]json.RawMessage, 0, len(records))
	for i, r := range records {
		data, err := c.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		items = append(items, data)
	}
	return json.Marshal(items)
}

// UnmarshalList decodes a JSON array of records, preserving order.
func (c *Codec) UnmarshalList(data []byte) ([]Record, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array of records: %v", ErrMalformedRecord, err)
	}
	records := make([]Record, 0, len(items))
	for i, item := range items {
		r, err := c.Unmarshal(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// Marshal serializes a record with DefaultCodec.
func Marshal(r Record) ([]byte, error) {
	return DefaultCodec().Marshal(r)
}

// Unmarshal decodes a record with DefaultCodec.
func Unmarshal(data []byte) (Record, error) {
	return DefaultCodec().Unmarshal(data)
}

func MarshalList(records []Record) ([]byte, error) {
	return DefaultCodec().MarshalList(records)
}

func UnmarshalList(data []byte) ([]Record, error) {
	return DefaultCodec().UnmarshalList(data)
}

func optionalField[T any](fields map[string]json.RawMessage, key string) (T, bool, error) {
	var v T
	raw, ok := fields[key]
	if !ok {
		return v, false, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, key, err)
	}
	return v, true, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
