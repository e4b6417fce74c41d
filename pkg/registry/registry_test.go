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

func TestRegistry_RegisterDefaultNodes(t *testing.T) {
	t.Parallel()

	sender := dryrun.New(log.Discard())

	reg := NewRegistry(log.Discard())
	reg.RegisterDefaultNodes(protocol.Dependencies{Email: sender, SMS: sender, Agent: sender})

	factories := reg.NodeFactories()
	require.Len(t, factories, len(models.NodeTypes))

	for _, nodeType := range models.NodeTypes {
		factory, ok := reg.GetNodeFactory(string(nodeType))
		require.True(t, ok, "missing factory for %s", nodeType)
		assert.NotEmpty(t, factory.Name())
		assert.NotEmpty(t, factory.Description())
		assert.Equal(t, "object", factory.Schema()["type"])
	}

	assert.Equal(t, "agent-handoff", factories[0].ID())
}

func TestRegistry_CreateNode(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(log.Discard())
	reg.RegisterDefaultNodes(protocol.Dependencies{})

	node, err := reg.CreateNode(context.Background(), models.Node{
		ID:   "wait-1",
		Type: models.NodeTypeWait,
		Data: map[string]any{"amount": 5, "unit": "minutes"},
	})
	require.NoError(t, err)
	assert.Equal(t, "wait-1", node.ID())

	_, err = reg.CreateNode(context.Background(), models.Node{ID: "x", Type: "http-request"})
	require.ErrorIs(t, err, ErrNodeTypeNotRegistered)
}

func TestRegistry_HealthCheck(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(log.Discard())

	_, ok := reg.HealthCheck()
	assert.False(t, ok)

	sender := dryrun.New(log.Discard())
	reg.RegisterDefaultNodes(protocol.Dependencies{Email: sender, SMS: sender, Agent: sender})

	message, ok := reg.HealthCheck()
	assert.True(t, ok)
	assert.Equal(t, "Registry is healthy", message)
}
