package verify

import (
	"context"
	"iter"
	"sync"

	"github.com/quiby-ai/recordwire/pkg/record"
)

// Producer exposes the records the system under test emitted, in the order
// they were produced.
type Producer interface {
	Count() int
	Stream() iter.Seq[record.Record]
}

// Source returns what the exporter currently holds, newest first.
type Source interface {
	Fetch(ctx context.Context) ([]record.Record, error)
}

type SourceFunc func(ctx context.Context) ([]record.Record, error)

func (f SourceFunc) Fetch(ctx context.Context) ([]record.Record, error) { return f(ctx) }

// Recording is an in-memory Producer that is safe for concurrent use.
type Recording struct {
	mu      sync.RWMutex
	records []record.Record
}

func NewRecording(records ...record.Record) *Recording {
	r := &Recording{}
	r.Append(records...)
	return r
}

func (r *Recording) Append(records ...record.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.records = append(r.records, rec.Copy())
	}
}

func (r *Recording) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Stream yields a snapshot taken when iteration starts.
func (r *Recording) Stream() iter.Seq[record.Record] {
	return func(yield func(record.Record) bool) {
		r.mu.RLock()
		snapshot := make([]record.Record, len(r.records))
		copy(snapshot, r.records)
		r.mu.RUnlock()

		for _, rec := range snapshot {
			if !yield(rec) {
				return
			}
		}
	}
}

func (r *Recording) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}
