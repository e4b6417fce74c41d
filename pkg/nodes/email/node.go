// Package email provides the send-email node.
package email

import (
	"context"
	"fmt"

	"github.com/dukex/leadflow/pkg/delivery"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/nodes"
	"github.com/dukex/leadflow/pkg/template"
)

// SendEmailNode renders and sends one email to the resolved recipient.
type SendEmailNode struct {
	id     string
	config models.SendEmailConfig
	sender delivery.EmailSender
}

func NewSendEmailNode(id string, config models.SendEmailConfig, sender delivery.EmailSender) *SendEmailNode {
	return &SendEmailNode{id: id, config: config, sender: sender}
}

func (n *SendEmailNode) ID() string {
	return n.id
}

func (n *SendEmailNode) Type() models.NodeType {
	return models.NodeTypeSendEmail
}

func (n *SendEmailNode) Execute(ctx context.Context, executionCtx *models.ExecutionContext) (map[string]any, error) {
	to, err := nodes.ResolveRecipient(n.id, models.ChannelEmail, n.config.To, executionCtx)
	if err != nil {
		return nil, err
	}

	subject, err := template.RenderWithContext(n.config.Subject, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}

	body, err := template.RenderWithContext(n.config.Body, executionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render body: %w", err)
	}

	result, err := n.sender.SendEmail(ctx, delivery.EmailMessage{To: to, Subject: subject, Body: body})
	if err != nil {
		return nil, fmt.Errorf("email delivery failed: %w", err)
	}

	executionCtx.LastChannel = models.ChannelEmail

	return map[string]any{
		"channel":             string(models.ChannelEmail),
		"to":                  to,
		"subject":             subject,
		"provider":            result.Provider,
		"provider_message_id": result.ProviderMessageID,
	}, nil
}
