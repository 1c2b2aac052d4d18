package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aretw0/stepform/pkg/definition"
	"github.com/aretw0/stepform/pkg/domain"
)

// Loader implements ports.DefinitionLoader using an in-memory map.
type Loader struct {
	defs map[string][]byte
}

// NewLoader creates a new memory loader from raw JSON definitions keyed by name.
func NewLoader(data map[string]string) *Loader {
	defs := make(map[string][]byte)
	for k, v := range data {
		defs[k] = []byte(v)
	}
	return &Loader{defs: defs}
}

// NewFromDefinitions creates a new memory loader from definitions.
// This handles serialization automatically, so callers cannot mutate what
// the loader serves.
func NewFromDefinitions(defs ...*definition.Definition) (*Loader, error) {
	data := make(map[string][]byte)
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("definition missing name")
		}
		bytes, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal definition %s: %w", d.Name, err)
		}
		data[d.Name] = bytes
	}
	return &Loader{defs: data}, nil
}

// GetDefinition decodes the named definition.
func (l *Loader) GetDefinition(_ context.Context, name string) (*definition.Definition, error) {
	content, ok := l.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, name)
	}
	def, err := definition.Parse(content, definition.FormatJSON, name+".json")
	if err != nil {
		return nil, err
	}
	if def.Name == "" {
		def.Name = name
	}
	return def, nil
}

// ListDefinitions returns all available definition names.
func (l *Loader) ListDefinitions(_ context.Context) ([]string, error) {
	keys := make([]string, 0, len(l.defs))
	for k := range l.defs {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
