package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/stepform/pkg/definition"
	"github.com/aretw0/stepform/pkg/domain"
)

// Loader serves the single form defined in a YAML, JSON or HCL file.
// The file is read on every call so edits show up without a restart.
type Loader struct {
	Path string
}

// NewLoader creates a Loader for the definition file at path.
func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

func (l *Loader) load() (*definition.Definition, error) {
	def, err := definition.LoadFile(l.Path)
	if err != nil {
		return nil, err
	}
	if def.Name == "" {
		base := filepath.Base(l.Path)
		def.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return def, nil
}

// GetDefinition parses the file and returns its form if the name matches.
func (l *Loader) GetDefinition(_ context.Context, name string) (*definition.Definition, error) {
	def, err := l.load()
	if err != nil {
		return nil, err
	}
	if def.Name != name {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, name)
	}
	return def, nil
}

// ListDefinitions returns the name of the form in the file.
func (l *Loader) ListDefinitions(_ context.Context) ([]string, error) {
	def, err := l.load()
	if err != nil {
		return nil, err
	}
	return []string{def.Name}, nil
}
