// Package registry maps node types to the factories that build them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/protocol"
)

var ErrNodeTypeNotRegistered = errors.New("node type not registered")

type Registry struct {
	logger        *slog.Logger
	mu            sync.RWMutex
	nodeFactories map[string]protocol.NodeFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}

	return &Registry{
		logger:        log,
		nodeFactories: make(map[string]protocol.NodeFactory),
	}
}

func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodeFactories[factory.ID()] = factory

	r.logger.Debug("Registered node factory", slog.String("type", factory.ID()))
}

// CreateNode builds the executable form of a definition node.
func (r *Registry) CreateNode(ctx context.Context, node models.Node) (protocol.Node, error) {
	factory, ok := r.GetNodeFactory(string(node.Type))
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrNodeTypeNotRegistered, node.Type)
	}

	return factory.Create(ctx, node.ID, node.Data)
}

func (r *Registry) GetNodeFactory(nodeType string) (protocol.NodeFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.nodeFactories[nodeType]

	return factory, ok
}

// NodeFactories returns every registered factory ordered by type.
func (r *Registry) NodeFactories() []protocol.NodeFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factories := make([]protocol.NodeFactory, 0, len(r.nodeFactories))
	for _, factory := range r.nodeFactories {
		factories = append(factories, factory)
	}

	sort.Slice(factories, func(i, j int) bool {
		return factories[i].ID() < factories[j].ID()
	})

	return factories
}

// HealthCheck reports whether any node type is registered.
func (r *Registry) HealthCheck() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.nodeFactories) == 0 {
		return "No node types registered", false
	}

	return "Registry is healthy", true
}
