// Package sms provides the send-sms node.
package sms

import (
	"context"
	"fmt"

	"github.com/dukex/leadflow/pkg/delivery"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/nodes"
	"github.com/dukex/leadflow/pkg/template"
)

type SendSMSNode struct {
	id     string
	config models.SendSMSConfig
	sender delivery.SMSSender
}

func NewSendSMSNode(id string, config models.SendSMSConfig, sender delivery.SMSSender) *SendSMSNode {
	return &SendSMSNode{id: id, config: config, sender: sender}
}

func (n *SendSMSNode) ID() string {
	return n.id
}

func (n *SendSMSNode) Type() models.NodeType {
	return models.NodeTypeSendSMS
}

func (n *SendSMSNode) Execute(ctx context.Context, executionCtx *models.ExecutionContext) (map[string]any, error) {
	to, err := nodes.ResolveRecipient(n.id, models.ChannelSMS, n.config.To, executionCtx)
	if err != nil {
		return nil, err
	}

	message, err := template.RenderWithContext(n.config.Message, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render message: %w", err)
	}

	result, err := n.sender.SendSMS(ctx, delivery.SMSMessage{To: to, Body: message})
	if err != nil {
		return nil, fmt.Errorf("sms delivery failed: %w", err)
	}

	executionCtx.LastChannel = models.ChannelSMS

	return map[string]any{
		"channel":             string(models.ChannelSMS),
		"to":                  to,
		"provider":            result.Provider,
		"provider_message_id": result.ProviderMessageID,
	}, nil
}
