package record

import "fmt"

// RecordType classifies a record as a command, an event or a rejected command.
type RecordType string

const (
	RecordTypeEvent            RecordType = "EVENT"
	RecordTypeCommand          RecordType = "COMMAND"
	RecordTypeCommandRejection RecordType = "COMMAND_REJECTION"
	RecordTypeSBEUnknown       RecordType = "SBE_UNKNOWN"
	RecordTypeNullVal          RecordType = "NULL_VAL"
)

var recordTypes = map[RecordType]struct{}{
	RecordTypeEvent:            {},
	RecordTypeCommand:          {},
	RecordTypeCommandRejection: {},
	RecordTypeSBEUnknown:       {},
	RecordTypeNullVal:          {},
}

// ParseRecordType returns the RecordType named s.
func ParseRecordType(s string) (RecordType, error) {
	t := RecordType(s)
	if _, ok := recordTypes[t]; !ok {
		return RecordTypeNullVal, fmt.Errorf("%w: unknown recordType %q", ErrMalformedRecord, s)
	}
	return t, nil
}

func (t RecordType) String() string {
	return string(t)
}

// RejectionType classifies why a command was rejected.
type RejectionType string

const (
	RejectionTypeInvalidArgument         RejectionType = "INVALID_ARGUMENT"
	RejectionTypeNotFound                RejectionType = "NOT_FOUND"
	RejectionTypeAlreadyExists           RejectionType = "ALREADY_EXISTS"
	RejectionTypeInvalidState            RejectionType = "INVALID_STATE"
	RejectionTypeProcessingError         RejectionType = "PROCESSING_ERROR"
	RejectionTypeExceededBatchRecordSize RejectionType = "EXCEEDED_BATCH_RECORD_SIZE"
	RejectionTypeSBEUnknown              RejectionType = "SBE_UNKNOWN"
	RejectionTypeNullVal                 RejectionType = "NULL_VAL"
)

var rejectionTypes = map[RejectionType]struct{}{
	RejectionTypeInvalidArgument:         {},
	RejectionTypeNotFound:                {},
	RejectionTypeAlreadyExists:           {},
	RejectionTypeInvalidState:            {},
	RejectionTypeProcessingError:         {},
	RejectionTypeExceededBatchRecordSize: {},
	RejectionTypeSBEUnknown:              {},
	RejectionTypeNullVal:                 {},
}

// ParseRejectionType returns the RejectionType named s.
func ParseRejectionType(s string) (RejectionType, error) {
	t := RejectionType(s)
	if _, ok := rejectionTypes[t]; !ok {
		return RejectionTypeNullVal, fmt.Errorf("%w: unknown rejectionType %q", ErrMalformedRecord, s)
	}
	return t, nil
}

func (t RejectionType) String() string {
	return string(t)
}

// ValueType is the discriminator of a record payload. It selects both the payload
// decoder and the intent vocabulary.
type ValueType string

const (
	ValueTypeJob                     ValueType = "JOB"
	ValueTypeDeployment              ValueType = "DEPLOYMENT"
	ValueTypeProcessInstance         ValueType = "PROCESS_INSTANCE"
	ValueTypeProcessInstanceCreation ValueType = "PROCESS_INSTANCE_CREATION"
	ValueTypeIncident                ValueType = "INCIDENT"
	ValueTypeMessage                 ValueType = "MESSAGE"
	ValueTypeTimer                   ValueType = "TIMER"
	ValueTypeVariable                ValueType = "VARIABLE"
	ValueTypeError                   ValueType = "ERROR"
)

func (t ValueType) String() string {
	return string(t)
}
