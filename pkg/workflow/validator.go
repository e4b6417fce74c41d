// Package workflow validates workflow definitions and runs enrollments through them.
package workflow

import (
	"errors"
	"fmt"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/sendwindow"
	"github.com/dukex/leadflow/pkg/template"
)

// ErrInvalidDefinition is wrapped by every ValidationError.
var ErrInvalidDefinition = errors.New("invalid workflow definition")

// ValidationError rejects a definition. NodeID is set when a single node is at fault.
type ValidationError struct {
	Message string `json:"message"`
	NodeID  string `json:"nodeId,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("%s (node %s)", e.Message, e.NodeID)
	}

	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDefinition
}

func invalid(nodeID, format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...), NodeID: nodeID}
}

// Validate reduces a definition to its linear chain, or explains why it cannot.
// It performs no I/O.
func Validate(definition models.Definition) (*Chain, error) {
	byID := make(map[string]models.Node, len(definition.Nodes))

	for _, node := range definition.Nodes {
		if node.ID == "" {
			return nil, invalid("", "every node must have an id")
		}

		if _, exists := byID[node.ID]; exists {
			return nil, invalid(node.ID, "duplicate node id %q", node.ID)
		}

		byID[node.ID] = node
	}

	var triggers []models.Node

	for _, node := range definition.Nodes {
		if node.Type.IsTrigger() {
			triggers = append(triggers, node)
		}
	}

	switch {
	case len(triggers) == 0:
		return nil, invalid("", "workflow must have exactly one trigger node")
	case len(triggers) > 1:
		return nil, invalid(triggers[1].ID, "workflow must have exactly one trigger node, found %d", len(triggers))
	}

	trigger := triggers[0]

	outgoing := make(map[string]string, len(definition.Edges))
	incoming := make(map[string]int, len(definition.Nodes))

	for _, edge := range definition.Edges {
		if _, ok := byID[edge.Source]; !ok {
			return nil, invalid("", "edge %q references unknown source node %q", edge.ID, edge.Source)
		}

		if _, ok := byID[edge.Target]; !ok {
			return nil, invalid("", "edge %q references unknown target node %q", edge.ID, edge.Target)
		}

		if _, exists := outgoing[edge.Source]; exists {
			return nil, invalid(edge.Source, "node has more than one outgoing edge; branching is not supported")
		}

		outgoing[edge.Source] = edge.Target
		incoming[edge.Target]++
	}

	for _, node := range definition.Nodes {
		count := incoming[node.ID]

		if node.ID == trigger.ID {
			if count != 0 {
				return nil, invalid(node.ID, "trigger node cannot have incoming edges")
			}

			continue
		}

		if count != 1 {
			return nil, invalid(node.ID, "node must have exactly one incoming edge, found %d", count)
		}
	}

	visited := make(map[string]bool, len(definition.Nodes))
	order := make([]models.Node, 0, len(definition.Nodes))

	for current, ok := trigger.ID, true; ok; current, ok = outgoing[current] {
		if visited[current] {
			return nil, invalid(current, "workflow contains a cycle")
		}

		visited[current] = true
		order = append(order, byID[current])
	}

	if len(order) != len(definition.Nodes) {
		for _, node := range definition.Nodes {
			if !visited[node.ID] {
				return nil, invalid(node.ID, "node is not reachable from the trigger")
			}
		}
	}

	chainNodes := make([]ChainNode, 0, len(order))

	for _, node := range order {
		config, err := models.ParseNodeConfig(node)
		if err != nil {
			var configErr *models.ConfigError
			if errors.As(err, &configErr) {
				return nil, invalid(node.ID, "%s", configErr.Message)
			}

			return nil, invalid(node.ID, "%s", err.Error())
		}

		err = checkTemplates(config)
		if err != nil {
			return nil, invalid(node.ID, "%s", err.Error())
		}

		chainNodes = append(chainNodes, ChainNode{Node: node, Config: config})
	}

	window := definition.Settings.SendWindow

	err := sendwindow.Validate(window)
	if err != nil {
		return nil, invalid("", "%s", err.Error())
	}

	return newChain(chainNodes, window), nil
}

// checkTemplates parses every templated field of a node so that a message
// which could never render is rejected with the definition.
func checkTemplates(config models.NodeConfig) error {
	fields := map[string]string{}

	switch c := config.(type) {
	case models.SendEmailConfig:
		fields["to"], fields["subject"], fields["body"] = c.To, c.Subject, c.Body
	case models.SendSMSConfig:
		fields["to"], fields["message"] = c.To, c.Message
	case models.AgentHandoffConfig:
		fields["notes"] = c.Notes
	}

	for _, name := range []string{"to", "subject", "body", "message", "notes"} {
		value, ok := fields[name]
		if !ok {
			continue
		}

		if _, contact := template.ContactToken(value); name == "to" && contact {
			continue
		}

		err := template.Check(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}
