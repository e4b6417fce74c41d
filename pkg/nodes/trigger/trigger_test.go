package trigger

import (
	"context"
	"testing"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerNodeFactories(t *testing.T) {
	t.Parallel()

	manual := NewManualTriggerNodeFactory()
	voicemail := NewVoicemailTriggerNodeFactory()

	assert.Equal(t, "manual-trigger", manual.ID())
	assert.Equal(t, "voicemail-trigger", voicemail.ID())

	node, err := voicemail.Create(context.Background(), "start", nil)
	require.NoError(t, err)
	assert.Equal(t, "start", node.ID())
	assert.Equal(t, models.NodeTypeVoicemailTrigger, node.Type())

	output, err := node.Execute(context.Background(), &models.ExecutionContext{})
	require.NoError(t, err)
	assert.Empty(t, output)
}
