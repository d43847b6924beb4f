package verify

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/quiby-ai/recordwire/pkg/obs"
	"github.com/quiby-ai/recordwire/pkg/record"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type State int32

const (
	NotStarted State = iota
	Polling
	Satisfied
	TimedOut
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Polling:
		return "polling"
	case Satisfied:
		return "satisfied"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type Report struct {
	Expected int
	Fetched  int
	Polls    int
	Elapsed  time.Duration
	State    State
}

// Verifier checks that every record a producer emitted comes back unchanged
// from the exporter. The exporter lists records newest first, so the i-th
// produced record is compared with the i-th record from the end of the fetch.
type Verifier struct {
	source  Source
	cfg     Config
	logger  *obs.Logger
	metrics *obs.RecordMetrics
	now     func() time.Time

	state atomic.Int32
}

type Option func(*Verifier)

func WithLogger(l *obs.Logger) Option {
	return func(v *Verifier) { v.logger = l }
}

func WithMetrics(m *obs.RecordMetrics) Option {
	return func(v *Verifier) { v.metrics = m }
}

func New(source Source, cfg Config, opts ...Option) (*Verifier, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	v := &Verifier{
		source: source,
		cfg:    cfg,
		logger: obs.DefaultLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// State reports the outcome of the most recent Verify call.
func (v *Verifier) State() State {
	return State(v.state.Load())
}

// Verify drains producer, then polls the source until it holds at least as
// many records as were produced or WaitBound elapses. Fetch errors are logged
// and retried. Every difference found is returned, joined.
func (v *Verifier) Verify(ctx context.Context, producer Producer) (Report, error) {
	ctx, span := obs.Tracer("github.com/quiby-ai/recordwire/pkg/verify").Start(ctx, "verify.round_trip")
	defer span.End()

	start := v.now()
	v.state.Store(int32(Polling))

	want := producer.Count()
	expected := make([]record.Record, 0, want)
	for r := range producer.Stream() {
		expected = append(expected, r.Copy())
	}

	report := Report{Expected: len(expected)}
	span.SetAttributes(attribute.Int("records.expected", want))

	fetched, err := v.poll(ctx, want, &report)
	report.Elapsed = v.now().Sub(start)
	span.SetAttributes(attribute.Int("verify.polls", report.Polls))

	if err != nil {
		v.state.Store(int32(TimedOut))
		report.State = TimedOut
		span.RecordError(err)
		span.SetStatus(codes.Error, "timed out")
		v.logger.EventWithLatency(ctx, "verify_finished", obs.StatusError, report.Elapsed,
			"state", report.State.String(), "expected", want, "fetched", report.Fetched, "polls", report.Polls)
		return report, err
	}

	v.state.Store(int32(Satisfied))
	report.State = Satisfied

	err = v.compare(ctx, expected, fetched)
	status := obs.StatusOK
	if err != nil {
		status = obs.StatusError
		span.RecordError(err)
		span.SetStatus(codes.Error, "records differ")
	}
	v.logger.EventWithLatency(ctx, "verify_finished", status, report.Elapsed,
		"state", report.State.String(), "expected", want, "fetched", report.Fetched, "polls", report.Polls)

	return report, err
}

func (v *Verifier) poll(ctx context.Context, want int, report *Report) ([]record.Record, error) {
	deadline := v.now().Add(v.cfg.WaitBound)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = v.cfg.PollInterval
	b.MaxInterval = v.cfg.MaxPollInterval
	b.Reset()

	var lastErr error
	for {
		report.Polls++
		fetched, err := v.source.Fetch(ctx)
		switch {
		case err != nil:
			lastErr = err
			v.metrics.Polled(ctx, obs.StatusError)
			v.logger.Warn(ctx, "exporter poll failed", "poll", report.Polls, "error", err.Error())
		case len(fetched) >= want:
			report.Fetched = len(fetched)
			v.metrics.Polled(ctx, obs.StatusOK)
			return fetched, nil
		default:
			report.Fetched = len(fetched)
			lastErr = nil
			v.metrics.Polled(ctx, obs.StatusRetrying)
			v.logger.Debug(ctx, "exporter not caught up", "poll", report.Polls, "fetched", len(fetched), "expected", want)
		}

		remaining := deadline.Sub(v.now())
		if remaining <= 0 {
			break
		}
		wait := min(b.NextBackOff(), remaining)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C:
		}
		if ctx.Err() != nil {
			break
		}
	}

	err := fmt.Errorf("%w: got %d of %d records after %s", ErrTimeout, report.Fetched, want, v.cfg.WaitBound)
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", err, cause)
	}
	if lastErr != nil {
		err = fmt.Errorf("%w (last poll: %v)", err, lastErr)
	}
	return nil, err
}

func (v *Verifier) compare(ctx context.Context, expected, fetched []record.Record) error {
	if len(fetched) != len(expected) {
		return fmt.Errorf("%w: produced %d, exported %d", ErrCountMismatch, len(expected), len(fetched))
	}

	var errs []error
	n := len(fetched)
	for i, want := range expected {
		got := fetched[n-1-i]
		if want.Equal(got) {
			continue
		}
		mismatch := &MismatchError{Index: i, Position: want.Position(), Fields: want.Diff(got)}
		if len(mismatch.Fields) == 0 {
			mismatch.Fields = []string{"value"}
		}
		v.logger.Warn(obs.WithRecord(ctx, want.Position(), want.PartitionID(), want.ValueType().String()),
			"record changed in round trip", "index", i, "fields", mismatch.Fields)
		errs = append(errs, mismatch)
	}

	v.metrics.Mismatched(ctx, len(errs))
	return errors.Join(errs...)
}
