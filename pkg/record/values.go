package record

import "github.com/segmentio/encoding/json"

// Value is a record payload. Implementations are registered in a Registry under
// the ValueType they report.
type Value interface {
	ValueType() ValueType
	// Copy returns a deep copy sharing no mutable state with the receiver.
	Copy() Value
}

// JobValue is the payload of JOB records.
type JobValue struct {
	Type                     string            `json:"type"`
	Worker                   string            `json:"worker"`
	Retries                  int               `json:"retries" validate:"min=0"`
	RetryBackoff             int64             `json:"retryBackoff" validate:"min=0"`
	Deadline                 int64             `json:"deadline"`
	ErrorMessage             string            `json:"errorMessage"`
	ErrorCode                string            `json:"errorCode"`
	CustomHeaders            map[string]string `json:"customHeaders"`
	Variables                map[string]any    `json:"variables"`
	ElementID                string            `json:"elementId"`
	ElementInstanceKey       int64             `json:"elementInstanceKey"`
	BpmnProcessID            string            `json:"bpmnProcessId"`
	ProcessDefinitionVersion int               `json:"processDefinitionVersion" validate:"min=0"`
	ProcessDefinitionKey     int64             `json:"processDefinitionKey"`
	ProcessInstanceKey       int64             `json:"processInstanceKey"`
}

func (JobValue) ValueType() ValueType { return ValueTypeJob }

func (v JobValue) Copy() Value {
	v.CustomHeaders = copyStrings(v.CustomHeaders)
	v.Variables = copyVariables(v.Variables)
	return v
}

// DeploymentResource is a single deployed resource, e.g. a BPMN file.
type DeploymentResource struct {
	ResourceName string `json:"resourceName" validate:"required"`
	Resource     []byte `json:"resource"`
}

// ProcessMetadata describes a process definition created by a deployment.
type ProcessMetadata struct {
	BpmnProcessID        string `json:"bpmnProcessId" validate:"required"`
	Version              int    `json:"version" validate:"min=0"`
	ProcessDefinitionKey int64  `json:"processDefinitionKey"`
	ResourceName         string `json:"resourceName"`
	Checksum             []byte `json:"checksum"`
	IsDuplicate          bool   `json:"isDuplicate"`
}

// DeploymentValue is the payload of DEPLOYMENT records.
type DeploymentValue struct {
	Resources         []DeploymentResource `json:"resources" validate:"dive"`
	ProcessesMetadata []ProcessMetadata    `json:"processesMetadata" validate:"dive"`
}

func (DeploymentValue) ValueType() ValueType { return ValueTypeDeployment }

func (v DeploymentValue) Copy() Value {
	if v.Resources != nil {
		resources := make([]DeploymentResource, len(v.Resources))
		for i, r := range v.Resources {
			r.Resource = copyBytes(r.Resource)
			resources[i] = r
		}
		v.Resources = resources
	}
	if v.ProcessesMetadata != nil {
		metadata := make([]ProcessMetadata, len(v.ProcessesMetadata))
		for i, m := range v.ProcessesMetadata {
			m.Checksum = copyBytes(m.Checksum)
			metadata[i] = m
		}
		v.ProcessesMetadata = metadata
	}
	return v
}

// ProcessInstanceValue is the payload of PROCESS_INSTANCE records.
type ProcessInstanceValue struct {
	BpmnProcessID            string `json:"bpmnProcessId"`
	Version                  int    `json:"version" validate:"min=0"`
	ProcessDefinitionKey     int64  `json:"processDefinitionKey"`
	ProcessInstanceKey       int64  `json:"processInstanceKey"`
	ElementID                string `json:"elementId"`
	FlowScopeKey             int64  `json:"flowScopeKey"`
	BpmnElementType          string `json:"bpmnElementType"`
	ParentProcessInstanceKey int64  `json:"parentProcessInstanceKey"`
	ParentElementInstanceKey int64  `json:"parentElementInstanceKey"`
}

func (ProcessInstanceValue) ValueType() ValueType { return ValueTypeProcessInstance }

func (v ProcessInstanceValue) Copy() Value { return v }

// ProcessInstanceCreationValue is the payload of PROCESS_INSTANCE_CREATION records.
type ProcessInstanceCreationValue struct {
	BpmnProcessID        string         `json:"bpmnProcessId"`
	Version              int            `json:"version"`
	ProcessDefinitionKey int64          `json:"processDefinitionKey"`
	ProcessInstanceKey   int64          `json:"processInstanceKey"`
	Variables            map[string]any `json:"variables"`
}

func (ProcessInstanceCreationValue) ValueType() ValueType { return ValueTypeProcessInstanceCreation }

func (v ProcessInstanceCreationValue) Copy() Value {
	v.Variables = copyVariables(v.Variables)
	return v
}

// IncidentValue is the payload of INCIDENT records.
type IncidentValue struct {
	ErrorType            string `json:"errorType"`
	ErrorMessage         string `json:"errorMessage"`
	BpmnProcessID        string `json:"bpmnProcessId"`
	ProcessDefinitionKey int64  `json:"processDefinitionKey"`
	ProcessInstanceKey   int64  `json:"processInstanceKey"`
	ElementID            string `json:"elementId"`
	ElementInstanceKey   int64  `json:"elementInstanceKey"`
	JobKey               int64  `json:"jobKey"`
	VariableScopeKey     int64  `json:"variableScopeKey"`
}

func (IncidentValue) ValueType() ValueType { return ValueTypeIncident }

func (v IncidentValue) Copy() Value { return v }

// MessageValue is the payload of MESSAGE records.
type MessageValue struct {
	Name           string         `json:"name"`
	CorrelationKey string         `json:"correlationKey"`
	MessageID      string         `json:"messageId"`
	TimeToLive     int64          `json:"timeToLive" validate:"min=0"`
	Deadline       int64          `json:"deadline"`
	Variables      map[string]any `json:"variables"`
}

func (MessageValue) ValueType() ValueType { return ValueTypeMessage }

func (v MessageValue) Copy() Value {
	v.Variables = copyVariables(v.Variables)
	return v
}

// TimerValue is the payload of TIMER records. Repetitions is -1 for an unbounded cycle.
type TimerValue struct {
	ElementInstanceKey   int64  `json:"elementInstanceKey"`
	ProcessInstanceKey   int64  `json:"processInstanceKey"`
	ProcessDefinitionKey int64  `json:"processDefinitionKey"`
	DueDate              int64  `json:"dueDate"`
	TargetElementID      string `json:"targetElementId"`
	Repetitions          int    `json:"repetitions" validate:"min=-1"`
}

func (TimerValue) ValueType() ValueType { return ValueTypeTimer }

func (v TimerValue) Copy() Value { return v }

// VariableValue is the payload of VARIABLE records. Value holds the variable as JSON text.
type VariableValue struct {
	Name                 string `json:"name" validate:"required"`
	Value                string `json:"value"`
	ScopeKey             int64  `json:"scopeKey"`
	ProcessInstanceKey   int64  `json:"processInstanceKey"`
	ProcessDefinitionKey int64  `json:"processDefinitionKey"`
	BpmnProcessID        string `json:"bpmnProcessId"`
}

func (VariableValue) ValueType() ValueType { return ValueTypeVariable }

func (v VariableValue) Copy() Value { return v }

// ErrorValue is the payload of ERROR records written when processing failed unexpectedly.
type ErrorValue struct {
	ExceptionMessage   string `json:"exceptionMessage"`
	Stacktrace         string `json:"stacktrace"`
	ErrorEventPosition int64  `json:"errorEventPosition"`
	ProcessInstanceKey int64  `json:"processInstanceKey"`
}

func (ErrorValue) ValueType() ValueType { return ValueTypeError }

func (v ErrorValue) Copy() Value { return v }

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func copyStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// copyVariables deep-copies a variables document. Values are brought to the form
// they take after a JSON round trip, so numbers become float64.
func copyVariables(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyJSON(v)
	}
	return out
}

func copyJSON(v any) any {
	switch t := v.(type) {
	case nil, string, bool, float64:
		return v
	case map[string]any:
		return copyVariables(t)
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyJSON(e)
		}
		return out
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return decodedJSON(v)
	}
}

// decodedJSON re-encodes v and decodes it into the generic JSON model. Values that
// cannot be encoded are returned unchanged and fail on Marshal instead.
func decodedJSON(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
