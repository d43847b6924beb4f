package record

import "fmt"

const unknownIntentName = "UNKNOWN"

// Intent names the action a record represents. Every intent except IntentUnknown
// belongs to the vocabulary of exactly one ValueType.
type Intent struct {
	valueType ValueType
	name      string
	event     bool
}

// IntentUnknown is the default intent of a record that was built without one.
var IntentUnknown = Intent{name: unknownIntentName}

func command(vt ValueType, name string) Intent { return Intent{valueType: vt, name: name} }
func event(vt ValueType, name string) Intent   { return Intent{valueType: vt, name: name, event: true} }

func (i Intent) Name() string { return i.name }

// ValueType returns the variant owning the intent, empty for IntentUnknown.
func (i Intent) ValueType() ValueType { return i.valueType }

// IsEvent reports whether the intent describes something that already happened.
func (i Intent) IsEvent() bool { return i.event }

func (i Intent) IsUnknown() bool { return i.name == unknownIntentName && i.valueType == "" }

func (i Intent) String() string {
	if i.IsUnknown() {
		return unknownIntentName
	}
	return string(i.valueType) + "." + i.name
}

var (
	JobCreated        = event(ValueTypeJob, "CREATED")
	JobComplete       = command(ValueTypeJob, "COMPLETE")
	JobCompleted      = event(ValueTypeJob, "COMPLETED")
	JobTimeOut        = command(ValueTypeJob, "TIME_OUT")
	JobTimedOut       = event(ValueTypeJob, "TIMED_OUT")
	JobFail           = command(ValueTypeJob, "FAIL")
	JobFailed         = event(ValueTypeJob, "FAILED")
	JobUpdateRetries  = command(ValueTypeJob, "UPDATE_RETRIES")
	JobRetriesUpdated = event(ValueTypeJob, "RETRIES_UPDATED")
	JobCancel         = command(ValueTypeJob, "CANCEL")
	JobCanceled       = event(ValueTypeJob, "CANCELED")
	JobThrowError     = command(ValueTypeJob, "THROW_ERROR")
	JobErrorThrown    = event(ValueTypeJob, "ERROR_THROWN")

	DeploymentCreate           = command(ValueTypeDeployment, "CREATE")
	DeploymentCreated          = event(ValueTypeDeployment, "CREATED")
	DeploymentFullyDistributed = event(ValueTypeDeployment, "FULLY_DISTRIBUTED")

	ProcessInstanceCancel             = command(ValueTypeProcessInstance, "CANCEL")
	ProcessInstanceActivateElement    = command(ValueTypeProcessInstance, "ACTIVATE_ELEMENT")
	ProcessInstanceCompleteElement    = command(ValueTypeProcessInstance, "COMPLETE_ELEMENT")
	ProcessInstanceTerminateElement   = command(ValueTypeProcessInstance, "TERMINATE_ELEMENT")
	ProcessInstanceElementActivating  = event(ValueTypeProcessInstance, "ELEMENT_ACTIVATING")
	ProcessInstanceElementActivated   = event(ValueTypeProcessInstance, "ELEMENT_ACTIVATED")
	ProcessInstanceElementCompleting  = event(ValueTypeProcessInstance, "ELEMENT_COMPLETING")
	ProcessInstanceElementCompleted   = event(ValueTypeProcessInstance, "ELEMENT_COMPLETED")
	ProcessInstanceElementTerminating = event(ValueTypeProcessInstance, "ELEMENT_TERMINATING")
	ProcessInstanceElementTerminated  = event(ValueTypeProcessInstance, "ELEMENT_TERMINATED")
	ProcessInstanceSequenceFlowTaken  = event(ValueTypeProcessInstance, "SEQUENCE_FLOW_TAKEN")

	ProcessInstanceCreationCreate  = command(ValueTypeProcessInstanceCreation, "CREATE")
	ProcessInstanceCreationCreated = event(ValueTypeProcessInstanceCreation, "CREATED")

	IncidentCreated  = event(ValueTypeIncident, "CREATED")
	IncidentResolve  = command(ValueTypeIncident, "RESOLVE")
	IncidentResolved = event(ValueTypeIncident, "RESOLVED")

	MessagePublish   = command(ValueTypeMessage, "PUBLISH")
	MessagePublished = event(ValueTypeMessage, "PUBLISHED")
	MessageExpire    = command(ValueTypeMessage, "EXPIRE")
	MessageExpired   = event(ValueTypeMessage, "EXPIRED")

	TimerCreated   = event(ValueTypeTimer, "CREATED")
	TimerTrigger   = command(ValueTypeTimer, "TRIGGER")
	TimerTriggered = event(ValueTypeTimer, "TRIGGERED")
	TimerCancel    = command(ValueTypeTimer, "CANCEL")
	TimerCanceled  = event(ValueTypeTimer, "CANCELED")

	VariableCreated = event(ValueTypeVariable, "CREATED")
	VariableUpdated = event(ValueTypeVariable, "UPDATED")

	ErrorCreated = event(ValueTypeError, "CREATED")
)

// Vocabulary is the closed set of intents legal for one ValueType.
type Vocabulary struct {
	valueType ValueType
	members   []Intent
	byName    map[string]Intent
}

// NewVocabulary builds the vocabulary of valueType. Every intent must be owned by
// valueType and names must be unique.
func NewVocabulary(valueType ValueType, intents ...Intent) (Vocabulary, error) {
	v := Vocabulary{
		valueType: valueType,
		members:   make([]Intent, 0, len(intents)),
		byName:    make(map[string]Intent, len(intents)),
	}
	for _, i := range intents {
		if i.valueType != valueType {
			return Vocabulary{}, fmt.Errorf("intent %s does not belong to %s", i, valueType)
		}
		if i.name == unknownIntentName {
			return Vocabulary{}, fmt.Errorf("intent name %s is reserved", unknownIntentName)
		}
		if _, dup := v.byName[i.name]; dup {
			return Vocabulary{}, fmt.Errorf("duplicate intent %s", i)
		}
		v.byName[i.name] = i
		v.members = append(v.members, i)
	}
	return v, nil
}

func (v Vocabulary) ValueType() ValueType { return v.valueType }

// Members returns the vocabulary intents in declaration order, without IntentUnknown.
func (v Vocabulary) Members() []Intent {
	out := make([]Intent, len(v.members))
	copy(out, v.members)
	return out
}

// Lookup resolves a textual intent. UNKNOWN resolves to IntentUnknown in every vocabulary.
func (v Vocabulary) Lookup(name string) (Intent, error) {
	if name == unknownIntentName {
		return IntentUnknown, nil
	}
	i, ok := v.byName[name]
	if !ok {
		return IntentUnknown, fmt.Errorf("%w: %q is not a %s intent", ErrUnknownIntent, name, v.valueType)
	}
	return i, nil
}

func (v Vocabulary) Contains(i Intent) bool {
	if i.IsUnknown() {
		return true
	}
	member, ok := v.byName[i.name]
	return ok && member == i
}
