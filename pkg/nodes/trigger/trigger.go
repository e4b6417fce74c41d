// Package trigger provides the entry nodes of a workflow.
package trigger

import (
	"context"

	"github.com/dukex/leadflow/pkg/models"
)

// TriggerNode marks where a lead enters a workflow. Executing it always succeeds.
type TriggerNode struct {
	id       string
	nodeType models.NodeType
}

func NewTriggerNode(id string, nodeType models.NodeType) *TriggerNode {
	return &TriggerNode{id: id, nodeType: nodeType}
}

func (n *TriggerNode) ID() string {
	return n.id
}

func (n *TriggerNode) Type() models.NodeType {
	return n.nodeType
}

func (n *TriggerNode) Execute(_ context.Context, _ *models.ExecutionContext) (map[string]any, error) {
	return map[string]any{}, nil
}
