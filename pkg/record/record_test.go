package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	r, err := New(TimerValue{TargetElementID: "t"})
	require.NoError(t, err)

	assert.Equal(t, IntentUnknown, r.Intent())
	assert.Equal(t, RecordTypeNullVal, r.RecordType())
	assert.Equal(t, RejectionTypeNullVal, r.RejectionType())
	assert.Equal(t, ValueTypeTimer, r.ValueType())
	assert.False(t, r.HasIntent())
	assert.False(t, r.HasRecordType())
	assert.False(t, r.HasRejectionType())
}

func TestNewExplicitFields(t *testing.T) {
	r, err := New(JobValue{Type: "t"},
		WithIntent(JobFailed),
		WithRecordType(RecordTypeCommandRejection),
		WithRejectionType(RejectionTypeInvalidState),
		WithRejectionReason("job is not activated"),
		WithPartitionID(3),
	)
	require.NoError(t, err)

	assert.Equal(t, JobFailed, r.Intent())
	assert.Equal(t, RecordTypeCommandRejection, r.RecordType())
	assert.Equal(t, RejectionTypeInvalidState, r.RejectionType())
	assert.Equal(t, "job is not activated", r.RejectionReason())
	assert.Equal(t, int32(3), r.PartitionID())
	assert.True(t, r.HasIntent())
	assert.True(t, r.HasRecordType())
	assert.True(t, r.HasRejectionType())
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name    string
		value   Value
		opts    []Option
		wantErr error
	}{
		{
			name:    "nil value",
			value:   nil,
			wantErr: ErrNilValue,
		},
		{
			name:    "intent of another variant",
			value:   JobValue{},
			opts:    []Option{WithIntent(ProcessInstanceElementActivated)},
			wantErr: ErrUnknownIntent,
		},
		{
			name:    "zero intent",
			value:   JobValue{},
			opts:    []Option{WithIntent(Intent{})},
			wantErr: ErrUnknownIntent,
		},
		{
			name:    "unknown record type",
			value:   JobValue{},
			opts:    []Option{WithRecordType("BOGUS")},
			wantErr: ErrMalformedRecord,
		},
		{
			name:    "unknown rejection type",
			value:   JobValue{},
			opts:    []Option{WithRejectionType("BOGUS")},
			wantErr: ErrMalformedRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.value, tt.opts...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewCopiesValue(t *testing.T) {
	headers := map[string]string{"a": "1"}
	r := MustNew(JobValue{CustomHeaders: headers}, WithIntent(JobCreated))

	headers["a"] = "changed"

	assert.Equal(t, "1", r.Value().(JobValue).CustomHeaders["a"])
}

func TestCopyIsEqualAndIndependent(t *testing.T) {
	for _, v := range sampleValues() {
		t.Run(string(v.ValueType()), func(t *testing.T) {
			original := sampleRecord(v, IntentUnknown)
			clone := original.Copy()

			assert.True(t, clone.Equal(original))
			assert.Empty(t, clone.Diff(original))
		})
	}
}

func TestCopyDoesNotAliasPayload(t *testing.T) {
	original := sampleRecord(sampleValues()[0], JobCreated)
	clone := original.Copy()

	job := clone.Value().(JobValue)
	job.CustomHeaders["region"] = "us"
	job.Variables["customer"] = "c-2"
	job.Variables["items"].([]any)[0] = "z"

	orig := original.Value().(JobValue)
	assert.Equal(t, "eu", orig.CustomHeaders["region"])
	assert.Equal(t, "c-1", orig.Variables["customer"])
	assert.Equal(t, "a", orig.Variables["items"].([]any)[0])
	assert.False(t, clone.Equal(original))
}

func TestCopyDoesNotAliasDeploymentBytes(t *testing.T) {
	original := sampleRecord(sampleValues()[1], DeploymentCreated)
	clone := original.Copy()

	clone.Value().(DeploymentValue).Resources[0].Resource[0] = 'X'
	clone.Value().(DeploymentValue).ProcessesMetadata[0].Checksum[0] = 0

	orig := original.Value().(DeploymentValue)
	assert.Equal(t, []byte("<definitions/>"), orig.Resources[0].Resource)
	assert.Equal(t, byte(0xde), orig.ProcessesMetadata[0].Checksum[0])
}

func TestEqualIgnoresExplicitFlags(t *testing.T) {
	defaulted := MustNew(ErrorValue{ExceptionMessage: "x"})
	explicit := MustNew(ErrorValue{ExceptionMessage: "x"},
		WithIntent(IntentUnknown),
		WithRecordType(RecordTypeNullVal),
		WithRejectionType(RejectionTypeNullVal),
	)

	assert.True(t, defaulted.Equal(explicit))
	assert.False(t, defaulted.HasIntent())
	assert.True(t, explicit.HasIntent())
}

func TestNewNormalizesVariableNumbers(t *testing.T) {
	ints := MustNew(MessageValue{Name: "m", Variables: map[string]any{"n": 3, "xs": []int{1, 2}}})
	floats := MustNew(MessageValue{Name: "m", Variables: map[string]any{"n": 3.0, "xs": []any{1.0, 2.0}}})

	assert.True(t, ints.Equal(floats))
	assert.Empty(t, ints.Diff(floats))
	assert.Equal(t, float64(3), ints.Value().(MessageValue).Variables["n"])
}

func TestDiff(t *testing.T) {
	base := sampleRecord(sampleValues()[0], JobCreated)

	changed := sampleValues()[0].(JobValue)
	changed.Retries = 1
	changed.Variables["customer"] = "c-9"
	other := MustNew(changed,
		WithIntent(JobFailed),
		WithRecordType(RecordTypeEvent),
		WithPosition(43),
		WithSourceRecordPosition(41),
		WithKey(2251799813685260),
		WithTimestamp(1700000000123),
		WithPartitionID(1),
		WithBrokerVersion("8.5.0"),
	)

	assert.Equal(t, []string{"position", "intent", "value.retries", "value.variables"}, base.Diff(other))
	assert.False(t, base.Equal(other))
}

func TestDiffDifferentVariants(t *testing.T) {
	a := MustNew(TimerValue{})
	b := MustNew(ErrorValue{})

	assert.Equal(t, []string{"valueType", "value"}, a.Diff(b))
}
