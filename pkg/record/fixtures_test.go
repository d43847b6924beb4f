package record

func sampleValues() []Value {
	return []Value{
		JobValue{
			Type:                     "payment-service",
			Worker:                   "worker-1",
			Retries:                  3,
			RetryBackoff:             1000,
			Deadline:                 1700000000000,
			ErrorMessage:             "",
			ErrorCode:                "",
			CustomHeaders:            map[string]string{"region": "eu"},
			Variables:                map[string]any{"amount": 12.5, "customer": "c-1", "items": []any{"a", "b"}},
			ElementID:                "charge",
			ElementInstanceKey:       2251799813685251,
			BpmnProcessID:            "order-process",
			ProcessDefinitionVersion: 2,
			ProcessDefinitionKey:     2251799813685249,
			ProcessInstanceKey:       2251799813685250,
		},
		DeploymentValue{
			Resources: []DeploymentResource{
				{ResourceName: "order.bpmn", Resource: []byte("<definitions/>")},
			},
			ProcessesMetadata: []ProcessMetadata{
				{
					BpmnProcessID:        "order-process",
					Version:              1,
					ProcessDefinitionKey: 2251799813685249,
					ResourceName:         "order.bpmn",
					Checksum:             []byte{0xde, 0xad, 0xbe, 0xef},
				},
			},
		},
		ProcessInstanceValue{
			BpmnProcessID:            "order-process",
			Version:                  1,
			ProcessDefinitionKey:     2251799813685249,
			ProcessInstanceKey:       2251799813685250,
			ElementID:                "start",
			FlowScopeKey:             2251799813685250,
			BpmnElementType:          "START_EVENT",
			ParentProcessInstanceKey: -1,
			ParentElementInstanceKey: -1,
		},
		ProcessInstanceCreationValue{
			BpmnProcessID:        "order-process",
			Version:              -1,
			ProcessDefinitionKey: 2251799813685249,
			ProcessInstanceKey:   2251799813685250,
			Variables:            map[string]any{"orderId": "o-42", "nested": map[string]any{"ok": true}},
		},
		IncidentValue{
			ErrorType:            "JOB_NO_RETRIES",
			ErrorMessage:         "no more retries left",
			BpmnProcessID:        "order-process",
			ProcessDefinitionKey: 2251799813685249,
			ProcessInstanceKey:   2251799813685250,
			ElementID:            "charge",
			ElementInstanceKey:   2251799813685251,
			JobKey:               2251799813685252,
			VariableScopeKey:     2251799813685251,
		},
		MessageValue{
			Name:           "payment-received",
			CorrelationKey: "o-42",
			MessageID:      "m-1",
			TimeToLive:     60000,
			Deadline:       1700000060000,
			Variables:      map[string]any{},
		},
		TimerValue{
			ElementInstanceKey:   2251799813685253,
			ProcessInstanceKey:   2251799813685250,
			ProcessDefinitionKey: 2251799813685249,
			DueDate:              1700000090000,
			TargetElementID:      "timeout",
			Repetitions:          -1,
		},
		VariableValue{
			Name:                 "orderId",
			Value:                `"o-42"`,
			ScopeKey:             2251799813685250,
			ProcessInstanceKey:   2251799813685250,
			ProcessDefinitionKey: 2251799813685249,
			BpmnProcessID:        "order-process",
		},
		ErrorValue{
			ExceptionMessage:   "boom",
			Stacktrace:         "at step 1",
			ErrorEventPosition: 17,
			ProcessInstanceKey: 2251799813685250,
		},
	}
}

func sampleRecord(value Value, intent Intent) Record {
	return MustNew(value,
		WithIntent(intent),
		WithRecordType(RecordTypeEvent),
		WithPosition(42),
		WithSourceRecordPosition(41),
		WithKey(2251799813685260),
		WithTimestamp(1700000000123),
		WithPartitionID(1),
		WithBrokerVersion("8.5.0"),
	)
}
