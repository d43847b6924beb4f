package verify_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quiby-ai/recordwire/pkg/exporter"
	"github.com/quiby-ai/recordwire/pkg/obs"
	"github.com/quiby-ai/recordwire/pkg/record"
	"github.com/quiby-ai/recordwire/pkg/transport"
	"github.com/quiby-ai/recordwire/pkg/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	exporter  *exporter.Exporter
	recording *verify.Recording
	verifier  *verify.Verifier
}

func newHarness(t *testing.T, cfg verify.Config) *harness {
	t.Helper()

	exp, err := exporter.New(exporter.DefaultConfig(), nil, exporter.WithLogger(obs.NopLogger()))
	require.NoError(t, err)

	server := httptest.NewServer(exp.Handler())
	t.Cleanup(server.Close)

	client := transport.New(transport.Config{Timeout: time.Second, BackoffInitial: time.Millisecond})
	source, err := transport.NewRecordSource(client, server.URL, nil, transport.WithLogger(obs.NopLogger()))
	require.NoError(t, err)

	v, err := verify.New(source, cfg, verify.WithLogger(obs.NopLogger()))
	require.NoError(t, err)

	return &harness{exporter: exp, recording: verify.NewRecording(), verifier: v}
}

// emit records r as produced and hands it to the exporter.
func (h *harness) emit(t *testing.T, r record.Record) {
	t.Helper()
	h.recording.Append(r)
	require.NoError(t, h.exporter.Export(r))
}

func TestRoundTripThroughExporter(t *testing.T) {
	h := newHarness(t, verify.DefaultConfig())

	h.emit(t, record.MustNew(
		record.ProcessInstanceCreationValue{BpmnProcessID: "order", Version: 1, ProcessDefinitionKey: 7, Variables: map[string]any{"total": 12.5}},
		record.WithIntent(record.ProcessInstanceCreationCreate),
		record.WithRecordType(record.RecordTypeCommand),
		record.WithPosition(1),
		record.WithKey(-1),
	))
	h.emit(t, record.MustNew(
		record.ProcessInstanceCreationValue{BpmnProcessID: "order", Version: 1, ProcessDefinitionKey: 7, ProcessInstanceKey: 100, Variables: map[string]any{"total": 12.5}},
		record.WithIntent(record.ProcessInstanceCreationCreated),
		record.WithRecordType(record.RecordTypeEvent),
		record.WithPosition(2),
		record.WithSourceRecordPosition(1),
		record.WithKey(100),
	))
	h.emit(t, record.MustNew(
		record.JobValue{Type: "ship", Retries: 3, CustomHeaders: map[string]string{"carrier": "dhl"}},
		record.WithIntent(record.JobCreated),
		record.WithRecordType(record.RecordTypeEvent),
		record.WithPosition(3),
		record.WithKey(101),
	))
	h.emit(t, record.MustNew(
		record.JobValue{Type: "ship", Retries: 3},
		record.WithIntent(record.JobComplete),
		record.WithRecordType(record.RecordTypeCommandRejection),
		record.WithRejectionType(record.RejectionTypeNotFound),
		record.WithRejectionReason("job 999 not found"),
		record.WithPosition(4),
		record.WithKey(999),
	))

	report, err := h.verifier.Verify(context.Background(), h.recording)
	require.NoError(t, err)
	assert.Equal(t, verify.Satisfied, h.verifier.State())
	assert.Equal(t, 4, report.Expected)
	assert.Equal(t, 4, report.Fetched)
}

func TestRoundTripWaitsForLateExport(t *testing.T) {
	h := newHarness(t, verify.DefaultConfig())

	late := record.MustNew(record.IncidentValue{ErrorType: "IO_MAPPING_ERROR", ErrorMessage: "no var"},
		record.WithIntent(record.IncidentCreated), record.WithPosition(2))

	h.emit(t, record.MustNew(record.VariableValue{Name: "x", Value: "1", ScopeKey: 1},
		record.WithIntent(record.VariableCreated), record.WithPosition(1)))
	h.recording.Append(late)

	time.AfterFunc(50*time.Millisecond, func() { _ = h.exporter.Export(late) })

	report, err := h.verifier.Verify(context.Background(), h.recording)
	require.NoError(t, err)
	assert.Greater(t, report.Polls, 1)
}

func TestRoundTripTimesOutWhenNothingIsExported(t *testing.T) {
	h := newHarness(t, verify.Config{
		WaitBound:       50 * time.Millisecond,
		PollInterval:    5 * time.Millisecond,
		MaxPollInterval: 10 * time.Millisecond,
	})

	h.recording.Append(record.MustNew(record.TimerValue{TargetElementID: "t", Repetitions: -1},
		record.WithIntent(record.TimerCreated)))

	_, err := h.verifier.Verify(context.Background(), h.recording)
	assert.ErrorIs(t, err, verify.ErrTimeout)
	assert.Equal(t, verify.TimedOut, h.verifier.State())
}
