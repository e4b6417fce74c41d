package email

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/leadflow/pkg/delivery"
	"github.com/dukex/leadflow/pkg/mocks"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/nodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSendEmailNode_Execute(t *testing.T) {
	t.Parallel()

	sender := &mocks.MockEmailSender{}
	sender.On("SendEmail", mock.Anything, delivery.EmailMessage{
		To:      "ada@example.com",
		Subject: "Thanks for calling, Ada",
		Body:    "We will be in touch from Spring promo.",
	}).Return(&delivery.Result{Provider: "mailgun", ProviderMessageID: "msg-1"}, nil).Once()

	node, err := NewSendEmailNodeFactory(sender).Create(context.Background(), "email-1", map[string]any{
		"to":      "{{lead.email}}",
		"subject": "Thanks for calling, {{lead.name}}",
		"body":    "We will be in touch from {{workflow.name}}.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.NodeTypeSendEmail, node.Type())

	executionCtx := &models.ExecutionContext{
		WorkflowName: "Spring promo",
		Lead:         models.Lead{Name: "Ada", Email: "ada@example.com"},
	}

	output, err := node.Execute(context.Background(), executionCtx)
	require.NoError(t, err)
	assert.Equal(t, "mailgun", output["provider"])
	assert.Equal(t, "msg-1", output["provider_message_id"])
	assert.Equal(t, "ada@example.com", output["to"])
	assert.Equal(t, "email", output["channel"])
	assert.Equal(t, models.ChannelEmail, executionCtx.LastChannel)

	sender.AssertExpectations(t)
}

func TestSendEmailNode_MissingRecipient(t *testing.T) {
	t.Parallel()

	sender := &mocks.MockEmailSender{}

	node := NewSendEmailNode("email-1", models.SendEmailConfig{Subject: "s", Body: "b"}, sender)

	_, err := node.Execute(context.Background(), &models.ExecutionContext{Lead: models.Lead{Phone: "+15550100"}})
	require.ErrorIs(t, err, nodes.ErrRecipientMissing)

	sender.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestSendEmailNode_DeliveryError(t *testing.T) {
	t.Parallel()

	providerErr := errors.New("connection reset")

	sender := &mocks.MockEmailSender{}
	sender.On("SendEmail", mock.Anything, mock.Anything).Return(nil, providerErr)

	node := NewSendEmailNode("email-1", models.SendEmailConfig{To: "ops@example.com", Subject: "s", Body: "b"}, sender)

	executionCtx := &models.ExecutionContext{}
	_, err := node.Execute(context.Background(), executionCtx)
	require.ErrorIs(t, err, providerErr)
	assert.Empty(t, executionCtx.LastChannel)
}

func TestSendEmailNodeFactory_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := NewSendEmailNodeFactory(nil).Create(context.Background(), "email-1", map[string]any{"subject": "only"})
	require.ErrorIs(t, err, models.ErrInvalidNodeConfig)
}
