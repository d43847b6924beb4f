package stream

import (
	"strconv"

	"github.com/quiby-ai/recordwire/pkg/record"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderMessageID   = "message_id"
	HeaderValueType   = "value_type"
	HeaderRecordType  = "record_type"
	HeaderIntent      = "intent"
	HeaderPartitionID = "partition_id"
	HeaderPosition    = "position"
)

// Headers mirrors the routing fields of r so consumers can filter without
// decoding the value.
func Headers(r record.Record, messageID string) []kafka.Header {
	return []kafka.Header{
		{Key: HeaderMessageID, Value: []byte(messageID)},
		{Key: HeaderValueType, Value: []byte(r.ValueType())},
		{Key: HeaderRecordType, Value: []byte(r.RecordType())},
		{Key: HeaderIntent, Value: []byte(r.Intent().Name())},
		{Key: HeaderPartitionID, Value: []byte(strconv.FormatInt(int64(r.PartitionID()), 10))},
		{Key: HeaderPosition, Value: []byte(strconv.FormatInt(r.Position(), 10))},
	}
}

func header(headers []kafka.Header, key string) (string, bool) {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}
