package workflow

import "github.com/dukex/leadflow/pkg/models"

// ChainNode is one position of a validated chain.
type ChainNode struct {
	Index  int
	Node   models.Node
	Config models.NodeConfig
}

// Chain is the linear execution order derived from a valid definition.
// Index 0 is always the trigger.
type Chain struct {
	nodes      []ChainNode
	index      map[string]int
	SendWindow *models.SendWindow
}

func newChain(nodes []ChainNode, window *models.SendWindow) *Chain {
	index := make(map[string]int, len(nodes))
	for i := range nodes {
		nodes[i].Index = i
		index[nodes[i].Node.ID] = i
	}

	return &Chain{nodes: nodes, index: index, SendWindow: window}
}

func (c *Chain) Len() int {
	return len(c.nodes)
}

// At returns the node at position i. It panics when i is out of range.
func (c *Chain) At(i int) ChainNode {
	return c.nodes[i]
}

func (c *Chain) IndexOf(nodeID string) (int, bool) {
	i, ok := c.index[nodeID]

	return i, ok
}

func (c *Chain) Trigger() ChainNode {
	return c.nodes[0]
}

// NodeIDs returns the node ids in execution order.
func (c *Chain) NodeIDs() []string {
	ids := make([]string, len(c.nodes))
	for i, n := range c.nodes {
		ids[i] = n.Node.ID
	}

	return ids
}

// Next returns the position after i, or false at the end of the chain.
func (c *Chain) Next(i int) (int, bool) {
	if i+1 >= len(c.nodes) {
		return 0, false
	}

	return i + 1, true
}
