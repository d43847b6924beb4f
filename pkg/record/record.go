package record

import (
	"fmt"
	"reflect"
)

type fieldSet uint8

const (
	intentSet fieldSet = 1 << iota
	recordTypeSet
	rejectionTypeSet
)

// Record is an immutable engine record: metadata, an intent and a typed payload.
// Build one with New or decode one with a Codec; the zero Record carries no value.
//
// Intent, RecordType and RejectionType default to IntentUnknown and NULL_VAL when not
// given. The record remembers whether they were given, but Equal ignores it.
type Record struct {
	position             int64
	sourceRecordPosition int64
	key                  int64
	timestamp            int64
	partitionID          int32
	brokerVersion        string
	recordType           RecordType
	rejectionType        RejectionType
	rejectionReason      string
	intent               Intent
	value                Value
	set                  fieldSet
}

// Option sets a field of a Record under construction.
type Option func(*Record)

func WithIntent(i Intent) Option {
	return func(r *Record) {
		r.intent = i
		r.set |= intentSet
	}
}

func WithRecordType(t RecordType) Option {
	return func(r *Record) {
		r.recordType = t
		r.set |= recordTypeSet
	}
}

func WithRejectionType(t RejectionType) Option {
	return func(r *Record) {
		r.rejectionType = t
		r.set |= rejectionTypeSet
	}
}

func WithRejectionReason(reason string) Option {
	return func(r *Record) { r.rejectionReason = reason }
}

func WithPosition(position int64) Option {
	return func(r *Record) { r.position = position }
}

func WithSourceRecordPosition(position int64) Option {
	return func(r *Record) { r.sourceRecordPosition = position }
}

func WithKey(key int64) Option {
	return func(r *Record) { r.key = key }
}

// WithTimestamp sets the record timestamp in milliseconds since the epoch.
func WithTimestamp(millis int64) Option {
	return func(r *Record) { r.timestamp = millis }
}

func WithPartitionID(id int32) Option {
	return func(r *Record) { r.partitionID = id }
}

func WithBrokerVersion(version string) Option {
	return func(r *Record) { r.brokerVersion = version }
}

// New builds a Record holding a deep copy of value. The intent, if given, must belong
// to the vocabulary of value's ValueType.
func New(value Value, opts ...Option) (Record, error) {
	if isNil(value) {
		return Record{}, ErrNilValue
	}

	r := Record{
		recordType:    RecordTypeNullVal,
		rejectionType: RejectionTypeNullVal,
		intent:        IntentUnknown,
	}
	for _, opt := range opts {
		opt(&r)
	}

	if _, ok := recordTypes[r.recordType]; !ok {
		return Record{}, fmt.Errorf("%w: unknown recordType %q", ErrMalformedRecord, r.recordType)
	}
	if _, ok := rejectionTypes[r.rejectionType]; !ok {
		return Record{}, fmt.Errorf("%w: unknown rejectionType %q", ErrMalformedRecord, r.rejectionType)
	}
	if !r.intent.IsUnknown() && (r.intent.name == "" || r.intent.valueType != value.ValueType()) {
		return Record{}, fmt.Errorf("%w: %s is not a %s intent", ErrUnknownIntent, r.intent, value.ValueType())
	}

	r.value = value.Copy()
	return r, nil
}

func isNil(v Value) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// MustNew is like New but panics on error. Intended for fixtures.
func MustNew(value Value, opts ...Option) Record {
	r, err := New(value, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Record) Position() int64             { return r.position }
func (r Record) SourceRecordPosition() int64 { return r.sourceRecordPosition }
func (r Record) Key() int64                  { return r.key }
func (r Record) Timestamp() int64            { return r.timestamp }
func (r Record) PartitionID() int32          { return r.partitionID }
func (r Record) BrokerVersion() string       { return r.brokerVersion }
func (r Record) RecordType() RecordType      { return r.recordType }
func (r Record) RejectionType() RejectionType {
	return r.rejectionType
}
func (r Record) RejectionReason() string { return r.rejectionReason }
func (r Record) Intent() Intent          { return r.intent }

// Value returns the payload. Callers must not mutate it; use Copy for an owned snapshot.
func (r Record) Value() Value { return r.value }

// ValueType returns the discriminator of the payload, empty for the zero Record.
func (r Record) ValueType() ValueType {
	if r.value == nil {
		return ""
	}
	return r.value.ValueType()
}

// HasIntent reports whether the intent was given explicitly rather than defaulted.
func (r Record) HasIntent() bool        { return r.set&intentSet != 0 }
func (r Record) HasRecordType() bool    { return r.set&recordTypeSet != 0 }
func (r Record) HasRejectionType() bool { return r.set&rejectionTypeSet != 0 }

// Copy returns a record equal to r that shares no mutable state with it.
func (r Record) Copy() Record {
	c := r
	if r.value != nil {
		c.value = r.value.Copy()
	}
	return c
}

// Equal reports whether r and o hold the same field values, payload included.
func (r Record) Equal(o Record) bool {
	return r.position == o.position &&
		r.sourceRecordPosition == o.sourceRecordPosition &&
		r.key == o.key &&
		r.timestamp == o.timestamp &&
		r.partitionID == o.partitionID &&
		r.brokerVersion == o.brokerVersion &&
		r.recordType == o.recordType &&
		r.rejectionType == o.rejectionType &&
		r.rejectionReason == o.rejectionReason &&
		r.intent == o.intent &&
		reflect.DeepEqual(r.value, o.value)
}

func (r Record) String() string {
	return fmt.Sprintf("%s %s %s@%d/%d", r.recordType, r.ValueType(), r.intent.Name(), r.partitionID, r.position)
}
