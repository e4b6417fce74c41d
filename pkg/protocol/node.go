// Package protocol defines the contracts between the runner and node implementations.
package protocol

import (
	"context"

	"github.com/dukex/leadflow/pkg/models"
)

// Node is an executable instance of one node of a workflow definition.
type Node interface {
	ID() string
	Type() models.NodeType

	// Execute performs the node's action once and returns the step output.
	// A returned error marks the step as failed.
	Execute(ctx context.Context, executionCtx *models.ExecutionContext) (map[string]any, error)
}

// NodeFactory builds nodes of one type from their definition data. The
// metadata methods back the node catalog served by the API.
type NodeFactory interface {
	// Create returns a *models.ConfigError when config is not usable.
	Create(ctx context.Context, id string, config map[string]any) (Node, error)

	// ID is the node type, e.g. "send-sms".
	ID() string
	Name() string
	Description() string

	// Schema describes the node's data object as JSON schema.
	Schema() map[string]any
}
