package workflow

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/dukex/leadflow/pkg/models"
	"gopkg.in/yaml.v3"
)

// ParseDefinition decodes a definition from YAML or JSON bytes and checks
// its envelope. It does not validate the graph; use Validate for that.
func ParseDefinition(data []byte) (models.Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Definition{}, fmt.Errorf("%w: definition payload is empty", ErrMalformedDefinition)
	}

	var document any

	err := yaml.Unmarshal(data, &document)
	if err != nil {
		return models.Definition{}, fmt.Errorf("%w: %w", ErrMalformedDefinition, err)
	}

	err = validateEnvelope(document)
	if err != nil {
		return models.Definition{}, err
	}

	var definition models.Definition

	err = yaml.Unmarshal(data, &definition)
	if err != nil {
		return models.Definition{}, fmt.Errorf("%w: %w", ErrMalformedDefinition, err)
	}

	return definition, nil
}

// LoadDefinitionReader reads definition data from an io.Reader.
func LoadDefinitionReader(r io.Reader) (models.Definition, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return models.Definition{}, fmt.Errorf("failed to read definition: %w", err)
	}

	return ParseDefinition(content)
}

// LoadDefinitionFile loads a definition from path.
func LoadDefinitionFile(path string) (models.Definition, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return models.Definition{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	definition, err := ParseDefinition(content)
	if err != nil {
		return models.Definition{}, fmt.Errorf("%s: %w", path, err)
	}

	return definition, nil
}
