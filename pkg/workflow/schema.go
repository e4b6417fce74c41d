package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrMalformedDefinition means a definition document does not have the
// shape of nodes, edges and settings.
var ErrMalformedDefinition = errors.New("malformed workflow definition")

// DefinitionSchema describes the envelope of a definition document. Node
// data is checked later by the node configs.
var DefinitionSchema = map[string]any{
	"type":     "object",
	"required": []string{"nodes"},
	"properties": map[string]any{
		"nodes": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"id", "type"},
				"properties": map[string]any{
					"id":   map[string]any{"type": "string", "minLength": 1},
					"type": map[string]any{"type": "string"},
					"position": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"x": map[string]any{"type": "number"},
							"y": map[string]any{"type": "number"},
						},
					},
					"data": map[string]any{"type": "object"},
				},
			},
		},
		"edges": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"source", "target"},
				"properties": map[string]any{
					"id":     map[string]any{"type": "string"},
					"source": map[string]any{"type": "string"},
					"target": map[string]any{"type": "string"},
				},
			},
		},
		"settings": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"sendWindow": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"enabled":   map[string]any{"type": "boolean"},
						"startTime": map[string]any{"type": "string"},
						"endTime":   map[string]any{"type": "string"},
						"timezone":  map[string]any{"type": "string"},
						"allowedDays": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "integer", "minimum": 0, "maximum": 6},
						},
					},
				},
			},
		},
	},
}

// validateEnvelope checks a generic decoded document against DefinitionSchema.
func validateEnvelope(document any) error {
	schemaLoader := gojsonschema.NewGoLoader(DefinitionSchema)
	dataLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedDefinition, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			messages = append(messages, resultErr.String())
		}

		return fmt.Errorf("%w: %s", ErrMalformedDefinition, strings.Join(messages, "; "))
	}

	return nil
}
