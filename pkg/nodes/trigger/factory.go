package trigger

import (
	"context"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/protocol"
)

type TriggerNodeFactory struct {
	nodeType    models.NodeType
	name        string
	description string
}

func (f *TriggerNodeFactory) Create(_ context.Context, id string, _ map[string]any) (protocol.Node, error) {
	return NewTriggerNode(id, f.nodeType), nil
}

func (f *TriggerNodeFactory) ID() string {
	return string(f.nodeType)
}

func (f *TriggerNodeFactory) Name() string {
	return f.name
}

func (f *TriggerNodeFactory) Description() string {
	return f.description
}

func (f *TriggerNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func NewManualTriggerNodeFactory() protocol.NodeFactory {
	return &TriggerNodeFactory{
		nodeType:    models.NodeTypeManualTrigger,
		name:        "Manual Trigger",
		description: "Starts the workflow when a lead is enrolled by hand or through the API",
	}
}

func NewVoicemailTriggerNodeFactory() protocol.NodeFactory {
	return &TriggerNodeFactory{
		nodeType:    models.NodeTypeVoicemailTrigger,
		name:        "Voicemail Trigger",
		description: "Starts the workflow when a lead leaves a voicemail",
	}
}
