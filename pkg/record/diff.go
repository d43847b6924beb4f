package record

import (
	"bytes"
	"reflect"
	"sort"

	"github.com/gowebpki/jcs"
	"github.com/segmentio/encoding/json"
)

// Diff returns the names of the fields in which r and o differ. Payload differences are
// reported per JSON key as "value.<key>", compared in RFC 8785 canonical form.
// The result is empty iff r.Equal(o).
func (r Record) Diff(o Record) []string {
	var diff []string
	add := func(differs bool, name string) {
		if differs {
			diff = append(diff, name)
		}
	}

	add(r.position != o.position, "position")
	add(r.sourceRecordPosition != o.sourceRecordPosition, "sourceRecordPosition")
	add(r.key != o.key, "key")
	add(r.timestamp != o.timestamp, "timestamp")
	add(r.partitionID != o.partitionID, "partitionId")
	add(r.brokerVersion != o.brokerVersion, "brokerVersion")
	add(r.recordType != o.recordType, "recordType")
	add(r.rejectionType != o.rejectionType, "rejectionType")
	add(r.rejectionReason != o.rejectionReason, "rejectionReason")
	add(r.intent != o.intent, "intent")

	switch {
	case r.ValueType() != o.ValueType():
		diff = append(diff, "valueType", "value")
	case !reflect.DeepEqual(r.value, o.value):
		diff = append(diff, valueDiff(r.value, o.value)...)
	}
	return diff
}

func valueDiff(a, b Value) []string {
	fa, errA := canonicalFields(a)
	fb, errB := canonicalFields(b)
	if errA != nil || errB != nil {
		return []string{"value"}
	}

	keys := make([]string, 0, len(fa))
	for k := range fa {
		keys = append(keys, k)
	}
	for k := range fb {
		if _, ok := fa[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		if !bytes.Equal(fa[k], fb[k]) {
			out = append(out, "value."+k)
		}
	}
	if len(out) == 0 {
		return []string{"value"}
	}
	return out
}

func canonicalFields(v Value) (map[string][]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(raw))
	for k, m := range raw {
		c, err := jcs.Transform(m)
		if err != nil {
			return nil, err
		}
		out[k] = c
	}
	return out, nil
}
