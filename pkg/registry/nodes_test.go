package registry

import (
	"context"
	"testing"

	"github.com/dukex/leadflow/pkg/delivery/dryrun"
	"github.com/dukex/leadflow/pkg/log"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNode_DefaultNodes(t *testing.T) {
	t.Parallel()

	sender := dryrun.New(log.Discard())

	reg := NewRegistry(log.Discard())
	reg.RegisterDefaultNodes(protocol.Dependencies{Logger: log.Discard(), Email: sender, SMS: sender, Agent: sender})

	tests := []struct {
		name      string
		node      models.Node
		wantField string
	}{
		{
			name: "manual trigger",
			node: models.Node{ID: "t", Type: models.NodeTypeManualTrigger},
		},
		{
			name: "voicemail trigger",
			node: models.Node{ID: "t", Type: models.NodeTypeVoicemailTrigger},
		},
		{
			name: "send email",
			node: models.Node{ID: "e", Type: models.NodeTypeSendEmail, Data: map[string]any{"subject": "Hi", "body": "Hello"}},
		},
		{
			name:      "send email without subject",
			node:      models.Node{ID: "e", Type: models.NodeTypeSendEmail, Data: map[string]any{"body": "Hello"}},
			wantField: "subject",
		},
		{
			name: "send sms",
			node: models.Node{ID: "s", Type: models.NodeTypeSendSMS, Data: map[string]any{"message": "Hi"}},
		},
		{
			name:      "send sms without message",
			node:      models.Node{ID: "s", Type: models.NodeTypeSendSMS},
			wantField: "message",
		},
		{
			name: "wait",
			node: models.Node{ID: "w", Type: models.NodeTypeWait, Data: map[string]any{"amount": 2, "unit": "days"}},
		},
		{
			name:      "wait with zero amount",
			node:      models.Node{ID: "w", Type: models.NodeTypeWait, Data: map[string]any{"amount": 0, "unit": "days"}},
			wantField: "amount",
		},
		{
			name: "agent handoff",
			node: models.Node{ID: "h", Type: models.NodeTypeAgentHandoff, Data: map[string]any{"agentId": "agent-7"}},
		},
		{
			name:      "agent handoff without agent",
			node:      models.Node{ID: "h", Type: models.NodeTypeAgentHandoff},
			wantField: "agentId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			node, err := reg.CreateNode(context.Background(), tt.node)

			if tt.wantField != "" {
				var configErr *models.ConfigError

				require.ErrorAs(t, err, &configErr)
				assert.Equal(t, tt.node.ID, configErr.NodeID)
				assert.Equal(t, tt.wantField, configErr.Field)
				assert.ErrorIs(t, err, models.ErrInvalidNodeConfig)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.node.ID, node.ID())
			assert.Equal(t, tt.node.Type, node.Type())
		})
	}
}
