package handoff

import (
	"context"

	"github.com/dukex/leadflow/pkg/delivery"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/protocol"
)

type AgentHandoffNodeFactory struct {
	agent delivery.AgentHandoff
}

func (f *AgentHandoffNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	parsed, err := models.ParseNodeConfig(models.Node{ID: id, Type: models.NodeTypeAgentHandoff, Data: config})
	if err != nil {
		return nil, err
	}

	return NewAgentHandoffNode(id, parsed.(models.AgentHandoffConfig), f.agent), nil
}

func (f *AgentHandoffNodeFactory) ID() string {
	return string(models.NodeTypeAgentHandoff)
}

func (f *AgentHandoffNodeFactory) Name() string {
	return "Agent Handoff"
}

func (f *AgentHandoffNodeFactory) Description() string {
	return "Hands the conversation to an AI agent that replies on the lead's channel"
}

func (f *AgentHandoffNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agentId": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"notes": map[string]any{
				"type":        "string",
				"description": "Context passed to the agent. Supports {{lead.*}} references.",
			},
		},
		"required": []string{"agentId"},
	}
}

func NewAgentHandoffNodeFactory(agent delivery.AgentHandoff) protocol.NodeFactory {
	return &AgentHandoffNodeFactory{agent: agent}
}
