package sms

import (
	"context"

	"github.com/dukex/leadflow/pkg/delivery"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/protocol"
)

type SendSMSNodeFactory struct {
	sender delivery.SMSSender
}

func (f *SendSMSNodeFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	parsed, err := models.ParseNodeConfig(models.Node{ID: id, Type: models.NodeTypeSendSMS, Data: config})
	if err != nil {
		return nil, err
	}

	return NewSendSMSNode(id, parsed.(models.SendSMSConfig), f.sender), nil
}

func (f *SendSMSNodeFactory) ID() string {
	return string(models.NodeTypeSendSMS)
}

func (f *SendSMSNodeFactory) Name() string {
	return "Send SMS"
}

func (f *SendSMSNodeFactory) Description() string {
	return "Sends a text message to the lead or to a fixed number"
}

func (f *SendSMSNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"type":        "string",
				"description": "Recipient number. Use {{lead.phone}} or leave empty to text the lead.",
			},
			"message": map[string]any{
				"type":      "string",
				"minLength": 1,
				"examples":  []string{"Hi {{lead.name}}, sorry we missed your call!"},
			},
		},
		"required": []string{"message"},
	}
}

func NewSendSMSNodeFactory(sender delivery.SMSSender) protocol.NodeFactory {
	return &SendSMSNodeFactory{sender: sender}
}
