package record

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

type variant struct {
	valueType  ValueType
	codec      PayloadCodec
	vocabulary Vocabulary
}

// Registry maps discriminators to payload codecs and intent vocabularies, and Go
// payload types back to discriminators. Variants are registered at start-up.
type Registry struct {
	mu       sync.RWMutex
	variants map[ValueType]variant
	byGoType map[reflect.Type]ValueType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		variants: make(map[ValueType]variant),
		byGoType: make(map[reflect.Type]ValueType),
	}
}

// Register adds a variant. The codec prototype and the vocabulary must both belong to
// valueType, and neither the discriminator nor the Go payload type may be registered yet.
func (r *Registry) Register(valueType ValueType, codec PayloadCodec, vocabulary Vocabulary) error {
	if codec == nil {
		return fmt.Errorf("register %s: codec is nil", valueType)
	}
	proto := codec.Prototype()
	if proto == nil {
		return fmt.Errorf("register %s: %w", valueType, ErrNilValue)
	}
	if proto.ValueType() != valueType {
		return fmt.Errorf("register %s: codec payload reports %s", valueType, proto.ValueType())
	}
	if vocabulary.ValueType() != valueType {
		return fmt.Errorf("register %s: vocabulary belongs to %s", valueType, vocabulary.ValueType())
	}

	goType := reflect.TypeOf(proto)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.variants[valueType]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVariant, valueType)
	}
	if other, ok := r.byGoType[goType]; ok {
		return fmt.Errorf("%w: %s already registered as %s", ErrDuplicateVariant, goType, other)
	}

	r.variants[valueType] = variant{valueType: valueType, codec: codec, vocabulary: vocabulary}
	r.byGoType[goType] = valueType
	return nil
}

// ResolveValueType returns the payload codec registered under discriminator.
func (r *Registry) ResolveValueType(discriminator string) (PayloadCodec, error) {
	v, err := r.lookup(discriminator)
	if err != nil {
		return nil, err
	}
	return v.codec, nil
}

// ResolveIntentType returns the intent vocabulary registered under discriminator.
func (r *Registry) ResolveIntentType(discriminator string) (Vocabulary, error) {
	v, err := r.lookup(discriminator)
	if err != nil {
		return Vocabulary{}, err
	}
	return v.vocabulary, nil
}

// DiscriminatorOf returns the discriminator registered for the Go type of value.
func (r *Registry) DiscriminatorOf(value Value) (string, error) {
	if value == nil {
		return "", ErrNilValue
	}
	goType := reflect.TypeOf(value)

	r.mu.RLock()
	vt, ok := r.byGoType[goType]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: payload type %s", ErrUnknownVariant, goType)
	}
	return string(vt), nil
}

// Variants returns the registered discriminators in lexical order.
func (r *Registry) Variants() []ValueType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ValueType, 0, len(r.variants))
	for vt := range r.variants {
		out = append(out, vt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) lookup(discriminator string) (variant, error) {
	r.mu.RLock()
	v, ok := r.variants[ValueType(discriminator)]
	r.mu.RUnlock()

	if !ok {
		return variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, discriminator)
	}
	return v, nil
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry holding every built-in variant.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		if err := RegisterBuiltins(defaultRegistry); err != nil {
			panic(fmt.Sprintf("record: register builtins: %v", err))
		}
	})
	return defaultRegistry
}

// RegisterBuiltins registers every built-in variant into r.
func RegisterBuiltins(r *Registry) error {
	builtins := []struct {
		codec   PayloadCodec
		intents []Intent
	}{
		{NewJSONCodec[JobValue](), []Intent{
			JobCreated, JobComplete, JobCompleted, JobTimeOut, JobTimedOut, JobFail, JobFailed,
			JobUpdateRetries, JobRetriesUpdated, JobCancel, JobCanceled, JobThrowError, JobErrorThrown,
		}},
		{NewJSONCodec[DeploymentValue](), []Intent{
			DeploymentCreate, DeploymentCreated, DeploymentFullyDistributed,
		}},
		{NewJSONCodec[ProcessInstanceValue](), []Intent{
			ProcessInstanceCancel, ProcessInstanceActivateElement, ProcessInstanceCompleteElement,
			ProcessInstanceTerminateElement, ProcessInstanceElementActivating, ProcessInstanceElementActivated,
			ProcessInstanceElementCompleting, ProcessInstanceElementCompleted, ProcessInstanceElementTerminating,
			ProcessInstanceElementTerminated, ProcessInstanceSequenceFlowTaken,
		}},
		{NewJSONCodec[ProcessInstanceCreationValue](), []Intent{
			ProcessInstanceCreationCreate, ProcessInstanceCreationCreated,
		}},
		{NewJSONCodec[IncidentValue](), []Intent{
			IncidentCreated, IncidentResolve, IncidentResolved,
		}},
		{NewJSONCodec[MessageValue](), []Intent{
			MessagePublish, MessagePublished, MessageExpire, MessageExpired,
		}},
		{NewJSONCodec[TimerValue](), []Intent{
			TimerCreated, TimerTrigger, TimerTriggered, TimerCancel, TimerCanceled,
		}},
		{NewJSONCodec[VariableValue](), []Intent{
			VariableCreated, VariableUpdated,
		}},
		{NewJSONCodec[ErrorValue](), []Intent{
			ErrorCreated,
		}},
	}

	for _, b := range builtins {
		vt := b.codec.Prototype().ValueType()
		vocabulary, err := NewVocabulary(vt, b.intents...)
		if err != nil {
			return err
		}
		if err := r.Register(vt, b.codec, vocabulary); err != nil {
			return err
		}
	}
	return nil
}
