package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/stepform"
	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/observability"
)

// createEngine initializes an engine with standard CLI conventions: the
// shared logger, debug lifecycle logging, and any extra hooks (metrics).
func createEngine(path string, debug bool, logger *slog.Logger, extra ...domain.LifecycleHooks) (*stepform.Engine, error) {
	hooks := extra
	if debug {
		hooks = append([]domain.LifecycleHooks{observability.LogHooks(logger)}, hooks...)
	}
	eng, err := stepform.New(path,
		stepform.WithLogger(logger),
		stepform.WithLifecycleHooks(domain.ChainHooks(hooks...)),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return eng, nil
}

// NewEngine is createEngine for commands that only inspect definitions.
func NewEngine(path string, logger *slog.Logger) (*stepform.Engine, error) {
	return createEngine(path, false, logger)
}
