package services

import (
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/workflow"
	"github.com/patrickmn/go-cache"
)

const DefaultChainCacheTTL = 10 * time.Minute

type cachedChain struct {
	updatedAt time.Time
	chain     *workflow.Chain
}

// ChainCache keeps validated chains per workflow. An entry is only served
// while the workflow's UpdatedAt matches the one it was built from.
type ChainCache struct {
	cache *cache.Cache
}

func NewChainCache(ttl time.Duration) *ChainCache {
	if ttl <= 0 {
		ttl = DefaultChainCacheTTL
	}

	return &ChainCache{cache: cache.New(ttl, 2*ttl)}
}

// Chain returns the validated chain of the workflow, validating on a miss.
func (c *ChainCache) Chain(wf *models.Workflow) (*workflow.Chain, error) {
	if value, ok := c.cache.Get(wf.ID); ok {
		if entry, ok := value.(cachedChain); ok && entry.updatedAt.Equal(wf.UpdatedAt) {
			return entry.chain, nil
		}
	}

	chain, err := workflow.Validate(wf.Definition)
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(wf.ID, cachedChain{updatedAt: wf.UpdatedAt, chain: chain})

	return chain, nil
}

func (c *ChainCache) Invalidate(workflowID string) {
	c.cache.Delete(workflowID)
}

func (c *ChainCache) Len() int {
	return c.cache.ItemCount()
}
