package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeType_Classification(t *testing.T) {
	t.Parallel()

	assert.True(t, NodeTypeManualTrigger.IsTrigger())
	assert.True(t, NodeTypeVoicemailTrigger.IsTrigger())
	assert.False(t, NodeTypeWait.IsTrigger())

	assert.True(t, NodeTypeSendEmail.RespectsSendWindow())
	assert.True(t, NodeTypeSendSMS.RespectsSendWindow())
	assert.True(t, NodeTypeAgentHandoff.RespectsSendWindow())
	assert.False(t, NodeTypeWait.RespectsSendWindow())
	assert.False(t, NodeTypeManualTrigger.RespectsSendWindow())

	assert.True(t, NodeTypeAgentHandoff.Valid())
	assert.False(t, NodeType("http-request").Valid())
}

func TestParseNodeConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		node          Node
		expected      NodeConfig
		expectedField string
	}{
		{
			name:     "manual trigger",
			node:     Node{ID: "t", Type: NodeTypeManualTrigger},
			expected: TriggerConfig{Type: NodeTypeManualTrigger},
		},
		{
			name: "email with template recipient",
			node: Node{ID: "e", Type: NodeTypeSendEmail, Data: map[string]any{
				"to": "{{lead.email}}", "subject": "Hi", "body": "Hello {{lead.name}}",
			}},
			expected: SendEmailConfig{To: "{{lead.email}}", Subject: "Hi", Body: "Hello {{lead.name}}"},
		},
		{
			name:          "email missing subject",
			node:          Node{ID: "e", Type: NodeTypeSendEmail, Data: map[string]any{"body": "x"}},
			expectedField: "subject",
		},
		{
			name:          "email blank body",
			node:          Node{ID: "e", Type: NodeTypeSendEmail, Data: map[string]any{"subject": "x", "body": "   "}},
			expectedField: "body",
		},
		{
			name:          "email non-string recipient",
			node:          Node{ID: "e", Type: NodeTypeSendEmail, Data: map[string]any{"to": 42, "subject": "x", "body": "y"}},
			expectedField: "to",
		},
		{
			name:     "sms without recipient",
			node:     Node{ID: "s", Type: NodeTypeSendSMS, Data: map[string]any{"message": "Hey"}},
			expected: SendSMSConfig{Message: "Hey"},
		},
		{
			name:          "sms missing message",
			node:          Node{ID: "s", Type: NodeTypeSendSMS},
			expectedField: "message",
		},
		{
			name:     "wait from json number",
			node:     Node{ID: "w", Type: NodeTypeWait, Data: map[string]any{"amount": float64(2), "unit": "hours"}},
			expected: WaitConfig{Amount: 2, Unit: WaitUnitHours},
		},
		{
			name:     "wait from yaml int",
			node:     Node{ID: "w", Type: NodeTypeWait, Data: map[string]any{"amount": 3, "unit": "days"}},
			expected: WaitConfig{Amount: 3, Unit: WaitUnitDays},
		},
		{
			name:          "wait fractional amount",
			node:          Node{ID: "w", Type: NodeTypeWait, Data: map[string]any{"amount": 1.5, "unit": "hours"}},
			expectedField: "amount",
		},
		{
			name:          "wait zero amount",
			node:          Node{ID: "w", Type: NodeTypeWait, Data: map[string]any{"amount": 0, "unit": "hours"}},
			expectedField: "amount",
		},
		{
			name:     "wait of one year",
			node:     Node{ID: "w", Type: NodeTypeWait, Data: map[string]any{"amount": 365, "unit": "days"}},
			expected: WaitConfig{Amount: 365, Unit: WaitUnitDays},
		},
		{
			name:          "wait longer than one year",
			node:          Node{ID: "w", Type: NodeTypeWait, Data: map[string]any{"amount": 366, "unit": "days"}},
			expectedField: "amount",
		},
		{
			name:          "wait that would overflow a duration",
			node:          Node{ID: "w", Type: NodeTypeWait, Data: map[string]any{"amount": 200000, "unit": "days"}},
			expectedField: "amount",
		},
		{
			name:          "wait minutes past one year",
			node:          Node{ID: "w", Type: NodeTypeWait, Data: map[string]any{"amount": float64(525601), "unit": "minutes"}},
			expectedField: "amount",
		},
		{
			name:          "wait unknown unit",
			node:          Node{ID: "w", Type: NodeTypeWait, Data: map[string]any{"amount": 1, "unit": "weeks"}},
			expectedField: "unit",
		},
		{
			name:     "agent handoff",
			node:     Node{ID: "a", Type: NodeTypeAgentHandoff, Data: map[string]any{"agentId": "agent-1", "notes": "warm lead"}},
			expected: AgentHandoffConfig{AgentID: "agent-1", Notes: "warm lead"},
		},
		{
			name:          "agent handoff missing agent",
			node:          Node{ID: "a", Type: NodeTypeAgentHandoff},
			expectedField: "agentId",
		},
		{
			name:          "unknown type",
			node:          Node{ID: "x", Type: "http-request"},
			expectedField: "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			config, err := ParseNodeConfig(tt.node)
			if tt.expectedField != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidNodeConfig))

				var configErr *ConfigError
				require.ErrorAs(t, err, &configErr)
				assert.Equal(t, tt.expectedField, configErr.Field)
				assert.Equal(t, tt.node.ID, configErr.NodeID)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, config)
			assert.Equal(t, tt.node.Type, config.NodeType())
		})
	}
}

func TestWaitConfig_Delay(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 90*time.Minute, WaitConfig{Amount: 90, Unit: WaitUnitMinutes}.Delay())
	assert.Equal(t, 2*time.Hour, WaitConfig{Amount: 2, Unit: WaitUnitHours}.Delay())
	assert.Equal(t, 72*time.Hour, WaitConfig{Amount: 3, Unit: WaitUnitDays}.Delay())
}
