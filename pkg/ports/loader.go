package ports

import (
	"context"

	"github.com/aretw0/stepform/pkg/definition"
)

// DefinitionLoader defines how the engine retrieves form definitions.
// This allows the storage layer (Loam, FS, Memory) to be decoupled.
type DefinitionLoader interface {
	// GetDefinition retrieves a definition by name.
	GetDefinition(ctx context.Context, name string) (*definition.Definition, error)

	// ListDefinitions returns the names of all available definitions.
	// Used by `stepform validate` and the MCP list tool.
	ListDefinitions(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying definitions change.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
