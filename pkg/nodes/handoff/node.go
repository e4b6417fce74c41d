// Package handoff provides the agent-handoff node.
package handoff

import (
	"context"
	"fmt"

	"github.com/dukex/leadflow/pkg/delivery"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/nodes"
	"github.com/dukex/leadflow/pkg/template"
)

type AgentHandoffNode struct {
	id     string
	config models.AgentHandoffConfig
	agent  delivery.AgentHandoff
}

func NewAgentHandoffNode(id string, config models.AgentHandoffConfig, agent delivery.AgentHandoff) *AgentHandoffNode {
	return &AgentHandoffNode{id: id, config: config, agent: agent}
}

func (n *AgentHandoffNode) ID() string {
	return n.id
}

func (n *AgentHandoffNode) Type() models.NodeType {
	return models.NodeTypeAgentHandoff
}

// ResolveChannel picks the channel the agent replies on: the override, then
// the last channel delivered on, then email for email-only leads, else sms.
func ResolveChannel(executionCtx *models.ExecutionContext) models.Channel {
	if override := executionCtx.Options.Overrides.Channel; override.Valid() {
		return override
	}

	if executionCtx.LastChannel.Valid() {
		return executionCtx.LastChannel
	}

	if executionCtx.Lead.Email != "" && executionCtx.Lead.Phone == "" {
		return models.ChannelEmail
	}

	return models.ChannelSMS
}

func (n *AgentHandoffNode) Execute(ctx context.Context, executionCtx *models.ExecutionContext) (map[string]any, error) {
	channel := ResolveChannel(executionCtx)

	to, err := nodes.LeadContact(n.id, channel, executionCtx)
	if err != nil {
		return nil, err
	}

	notes, err := template.RenderWithContext(n.config.Notes, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render notes: %w", err)
	}

	result, err := n.agent.Handoff(ctx, delivery.HandoffRequest{
		AgentID:      n.config.AgentID,
		Notes:        notes,
		Channel:      channel,
		To:           to,
		Lead:         executionCtx.Lead,
		WorkflowID:   executionCtx.WorkflowID,
		EnrollmentID: executionCtx.EnrollmentID,
	})
	if err != nil {
		return nil, fmt.Errorf("agent handoff failed: %w", err)
	}

	executionCtx.LastChannel = channel

	output := map[string]any{
		"agent_id": result.AgentID,
		"channel":  string(channel),
		"to":       to,
	}

	if result.SuggestedReply != "" {
		output["reply"] = result.SuggestedReply
	}

	if result.Delivery != nil {
		output["provider"] = result.Delivery.Provider
		output["provider_message_id"] = result.Delivery.ProviderMessageID
	}

	return output, nil
}
