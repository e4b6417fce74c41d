package wait

import (
	"context"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/protocol"
)

type WaitNodeFactory struct{}

func (f *WaitNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	parsed, err := models.ParseNodeConfig(models.Node{ID: id, Type: models.NodeTypeWait, Data: config})
	if err != nil {
		return nil, err
	}

	return NewWaitNode(id, parsed.(models.WaitConfig)), nil
}

func (f *WaitNodeFactory) ID() string {
	return string(models.NodeTypeWait)
}

func (f *WaitNodeFactory) Name() string {
	return "Wait"
}

func (f *WaitNodeFactory) Description() string {
	return "Pauses the enrollment for a number of minutes, hours or days"
}

func (f *WaitNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"amount": map[string]any{
				"type":    "integer",
				"minimum": 1,
			},
			"unit": map[string]any{
				"type": "string",
				"enum": []string{
					string(models.WaitUnitMinutes),
					string(models.WaitUnitHours),
					string(models.WaitUnitDays),
				},
			},
		},
		"required": []string{"amount", "unit"},
	}
}

func NewWaitNodeFactory() protocol.NodeFactory {
	return &WaitNodeFactory{}
}
