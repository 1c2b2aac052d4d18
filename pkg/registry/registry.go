package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/stepform/internal/logging"
	"github.com/aretw0/stepform/pkg/definition"
	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
	"github.com/aretw0/stepform/pkg/ports"
)

// Registry resolves form names to compiled blueprints. Blueprints come
// either from Register or from a DefinitionLoader, compiled on first use
// and cached until Invalidate.
type Registry struct {
	loader  ports.DefinitionLoader
	compile []definition.CompileOption
	logger  *slog.Logger

	mu         sync.RWMutex
	blueprints map[string]*form.Blueprint
	pinned     map[string]bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLoader sets where unregistered names are looked up.
func WithLoader(l ports.DefinitionLoader) Option {
	return func(r *Registry) {
		r.loader = l
	}
}

// WithCompileOptions passes options to definition.Compile.
func WithCompileOptions(opts ...definition.CompileOption) Option {
	return func(r *Registry) {
		r.compile = append(r.compile, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates a new empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		logger:     logging.NewNop(),
		blueprints: make(map[string]*form.Blueprint),
		pinned:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a prebuilt blueprint under its own name.
// If a blueprint with the same name exists, it is overwritten.
func (r *Registry) Register(bp *form.Blueprint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blueprints[bp.Name()] = bp
	r.pinned[bp.Name()] = true
}

// Blueprint returns the named blueprint, loading and compiling it if needed.
// Unknown names wrap domain.ErrDefinitionNotFound.
func (r *Registry) Blueprint(ctx context.Context, name string) (*form.Blueprint, error) {
	r.mu.RLock()
	bp, ok := r.blueprints[name]
	r.mu.RUnlock()
	if ok {
		return bp, nil
	}
	if r.loader == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, name)
	}

	def, err := r.loader.GetDefinition(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if err := definition.Validate(def); err != nil {
		return nil, fmt.Errorf("invalid definition %q: %w", name, err)
	}
	bp, err = definition.Compile(def, r.compile...)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have compiled it meanwhile; keep the first.
	if cached, ok := r.blueprints[name]; ok {
		return cached, nil
	}
	r.blueprints[name] = bp
	r.logger.Debug("blueprint compiled", "form", name, "controls", len(bp.Controls()), "steps", len(bp.Steps()))
	return bp, nil
}

// Names lists registered and loadable form names, sorted.
func (r *Registry) Names(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	r.mu.RLock()
	for name := range r.pinned {
		seen[name] = true
	}
	r.mu.RUnlock()
	if r.loader != nil {
		names, err := r.loader.ListDefinitions(ctx)
		if err != nil {
			return nil, fmt.Errorf("list definitions: %w", err)
		}
		for _, n := range names {
			seen[n] = true
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// Invalidate drops cached compilations so the next lookup reloads them.
// With no names it drops every loaded blueprint. Registered ones stay.
func (r *Registry) Invalidate(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(names) == 0 {
		for n := range r.blueprints {
			if !r.pinned[n] {
				delete(r.blueprints, n)
			}
		}
		return
	}
	for _, n := range names {
		if !r.pinned[n] {
			delete(r.blueprints, n)
		}
	}
}
