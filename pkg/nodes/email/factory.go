package email

import (
	"context"

	"github.com/dukex/leadflow/pkg/delivery"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/protocol"
)

// SendEmailNodeFactory creates SendEmailNode instances.
type SendEmailNodeFactory struct {
	sender delivery.EmailSender
}

func (f *SendEmailNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	parsed, err := models.ParseNodeConfig(models.Node{ID: id, Type: models.NodeTypeSendEmail, Data: config})
	if err != nil {
		return nil, err
	}

	return NewSendEmailNode(id, parsed.(models.SendEmailConfig), f.sender), nil
}

func (f *SendEmailNodeFactory) ID() string {
	return string(models.NodeTypeSendEmail)
}

func (f *SendEmailNodeFactory) Name() string {
	return "Send Email"
}

func (f *SendEmailNodeFactory) Description() string {
	return "Sends an email to the lead or to a fixed address"
}

func (f *SendEmailNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"type":        "string",
				"description": "Recipient address. Use {{lead.email}} or leave empty to send to the lead.",
				"examples":    []string{"{{lead.email}}", "sales@example.com"},
			},
			"subject": map[string]any{
				"type":      "string",
				"minLength": 1,
				"examples":  []string{"Thanks for calling, {{lead.name}}"},
			},
			"body": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
		},
		"required": []string{"subject", "body"},
	}
}

func NewSendEmailNodeFactory(sender delivery.EmailSender) protocol.NodeFactory {
	return &SendEmailNodeFactory{sender: sender}
}
