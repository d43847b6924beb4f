package record

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryVariants(t *testing.T) {
	reg := DefaultRegistry()

	assert.Equal(t, []ValueType{
		ValueTypeDeployment,
		ValueTypeError,
		ValueTypeIncident,
		ValueTypeJob,
		ValueTypeMessage,
		ValueTypeProcessInstance,
		ValueTypeProcessInstanceCreation,
		ValueTypeTimer,
		ValueTypeVariable,
	}, reg.Variants())
}

func TestDiscriminatorBijection(t *testing.T) {
	reg := DefaultRegistry()
	seen := make(map[string]ValueType)

	for _, vt := range reg.Variants() {
		codec, err := reg.ResolveValueType(string(vt))
		require.NoError(t, err)

		discriminator, err := reg.DiscriminatorOf(codec.Prototype())
		require.NoError(t, err)
		assert.Equal(t, string(vt), discriminator)

		other, dup := seen[discriminator]
		assert.False(t, dup, "%s shares discriminator with %s", vt, other)
		seen[discriminator] = vt
	}

	for _, v := range sampleValues() {
		discriminator, err := reg.DiscriminatorOf(v)
		require.NoError(t, err)
		assert.Equal(t, string(v.ValueType()), discriminator)
	}
}

func TestResolveUnknownVariant(t *testing.T) {
	reg := DefaultRegistry()

	_, err := reg.ResolveValueType("not-a-real-type")
	assert.ErrorIs(t, err, ErrUnknownVariant)

	_, err = reg.ResolveIntentType("not-a-real-type")
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

type strayValue struct{}

func (strayValue) ValueType() ValueType { return "STRAY" }
func (v strayValue) Copy() Value        { return v }

func TestDiscriminatorOfUnregistered(t *testing.T) {
	_, err := DefaultRegistry().DiscriminatorOf(strayValue{})
	assert.ErrorIs(t, err, ErrUnknownVariant)

	_, err = DefaultRegistry().DiscriminatorOf(nil)
	assert.ErrorIs(t, err, ErrNilValue)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))

	vocabulary, err := NewVocabulary(ValueTypeJob, JobCreated)
	require.NoError(t, err)

	err = reg.Register(ValueTypeJob, NewJSONCodec[JobValue](), vocabulary)
	assert.ErrorIs(t, err, ErrDuplicateVariant)
}

func TestRegisterRejectsSecondDiscriminatorForGoType(t *testing.T) {
	reg := NewRegistry()
	stray, err := NewVocabulary("STRAY")
	require.NoError(t, err)
	require.NoError(t, reg.Register("STRAY", NewJSONCodec[strayValue](), stray))

	// The codec prototype reports STRAY, so a second discriminator cannot claim it.
	other, err := NewVocabulary("OTHER")
	require.NoError(t, err)
	assert.Error(t, reg.Register("OTHER", NewJSONCodec[strayValue](), other))
	assert.Equal(t, []ValueType{"STRAY"}, reg.Variants())
}

func TestRegisterRejectsMismatchedVocabulary(t *testing.T) {
	reg := NewRegistry()
	vocabulary, err := NewVocabulary(ValueTypeTimer, TimerCreated)
	require.NoError(t, err)

	err = reg.Register(ValueTypeJob, NewJSONCodec[JobValue](), vocabulary)
	assert.Error(t, err)
	assert.Empty(t, reg.Variants())
}

func TestNewVocabularyErrors(t *testing.T) {
	_, err := NewVocabulary(ValueTypeJob, JobCreated, TimerCreated)
	assert.Error(t, err)

	_, err = NewVocabulary(ValueTypeJob, JobCreated, JobCreated)
	assert.Error(t, err)

	_, err = NewVocabulary(ValueTypeJob, Intent{valueType: ValueTypeJob, name: unknownIntentName})
	assert.Error(t, err)
}

func TestVocabularyLookup(t *testing.T) {
	vocabulary, err := DefaultRegistry().ResolveIntentType(string(ValueTypeJob))
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   string
		want    Intent
		wantErr error
	}{
		{"member", "COMPLETED", JobCompleted, nil},
		{"sentinel", "UNKNOWN", IntentUnknown, nil},
		{"other vocabulary", "ELEMENT_ACTIVATED", IntentUnknown, ErrUnknownIntent},
		{"lower case", "completed", IntentUnknown, ErrUnknownIntent},
		{"empty", "", IntentUnknown, ErrUnknownIntent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := vocabulary.Lookup(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, vocabulary.Contains(JobCompleted))
	assert.True(t, vocabulary.Contains(IntentUnknown))
	assert.False(t, vocabulary.Contains(TimerCreated))
	assert.Len(t, vocabulary.Members(), 13)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()

	const workers = 50
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(2)

		go func(i int) {
			defer wg.Done()
			err := RegisterBuiltins(reg)
			if i > 0 && err != nil {
				assert.ErrorIs(t, err, ErrDuplicateVariant, "worker %d", i)
			}
		}(i)

		go func(i int) {
			defer wg.Done()
			_, _ = reg.ResolveValueType(string(ValueTypeJob))
			_ = reg.Variants()
		}(i)
	}

	wg.Wait()

	assert.Len(t, reg.Variants(), 9)
}
