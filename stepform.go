package stepform

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/stepform/internal/logging"
	fileAdapter "github.com/aretw0/stepform/pkg/adapters/file"
	loamAdapter "github.com/aretw0/stepform/pkg/adapters/loam"
	"github.com/aretw0/stepform/pkg/definition"
	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
	"github.com/aretw0/stepform/pkg/ports"
	"github.com/aretw0/stepform/pkg/registry"
	"github.com/aretw0/stepform/pkg/rules"
	"github.com/aretw0/stepform/pkg/runner"
	"github.com/aretw0/stepform/pkg/session"
)

// Engine is the high-level entry point for the library. It finds form
// definitions, compiles them on demand and starts forms from them.
type Engine struct {
	Name string

	path       string
	loader     ports.DefinitionLoader
	registry   *registry.Registry
	rules      *rules.Registry
	blueprints []*form.Blueprint
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks on every form.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLoader injects a custom DefinitionLoader, bypassing path discovery.
func WithLoader(l ports.DefinitionLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithRules sets the expression registry used to compile rules.
func WithRules(r *rules.Registry) Option {
	return func(e *Engine) {
		e.rules = r
	}
}

// WithBlueprints serves prebuilt blueprints (see pkg/dsl) by name.
func WithBlueprints(bps ...*form.Blueprint) Option {
	return func(e *Engine) {
		e.blueprints = append(e.blueprints, bps...)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine. path is either a definition file (.yaml, .yml,
// .json, .hcl) or a Loam repository of step documents. With WithLoader or
// WithBlueprints, path may be empty and is only used as a label.
func New(path string, opts ...Option) (*Engine, error) {
	eng := &Engine{path: path}
	for _, opt := range opts {
		opt(eng)
	}

	switch {
	case eng.loader != nil || (path == "" && len(eng.blueprints) > 0):
		if path != "" {
			eng.Name = filepath.Base(path)
		}
	case path == "":
		return nil, fmt.Errorf("a definition path is required when no loader or blueprint is provided")
	default:
		if err := eng.discover(path); err != nil {
			return nil, err
		}
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("form", eng.Name)
	}

	regOpts := []registry.Option{registry.WithLogger(eng.logger)}
	if eng.loader != nil {
		regOpts = append(regOpts, registry.WithLoader(eng.loader))
	}
	if eng.rules != nil {
		regOpts = append(regOpts, registry.WithCompileOptions(definition.WithRegistry(eng.rules)))
	}
	eng.registry = registry.NewRegistry(regOpts...)
	for _, bp := range eng.blueprints {
		eng.registry.Register(bp)
	}
	return eng, nil
}

func (e *Engine) discover(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	e.path = abs
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	if info.IsDir() {
		l, err := loamAdapter.Open(abs)
		if err != nil {
			return err
		}
		e.loader = l
		e.Name = filepath.Base(abs)
		return nil
	}

	l := fileAdapter.NewLoader(abs)
	names, err := l.ListDefinitions(context.Background())
	if err != nil {
		return err
	}
	e.loader = l
	e.Name = names[0]
	return nil
}

// Forms lists the names of every form the engine can start.
func (e *Engine) Forms(ctx context.Context) ([]string, error) {
	return e.registry.Names(ctx)
}

// Blueprint returns the compiled form. An empty name picks the only form,
// and fails when there are several.
func (e *Engine) Blueprint(ctx context.Context, name string) (*form.Blueprint, error) {
	name, err := e.resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	return e.registry.Blueprint(ctx, name)
}

// NewForm starts a form with the engine's logger and hooks applied before
// opts.
func (e *Engine) NewForm(ctx context.Context, name string, opts ...form.Option) (*form.Form, error) {
	bp, err := e.Blueprint(ctx, name)
	if err != nil {
		return nil, err
	}
	return bp.NewForm(ctx, append(e.FormOptions(), opts...)...), nil
}

// FormOptions are the options NewForm applies; hosts that start forms
// themselves (session.Manager) pass them along.
func (e *Engine) FormOptions() []form.Option {
	return []form.Option{form.WithLogger(e.logger), form.WithLifecycleHooks(e.hooks)}
}

// Service returns a request/response driver over mgr for this engine's forms.
func (e *Engine) Service(mgr *session.Manager) *runner.Service {
	return &runner.Service{Registry: e.registry, Sessions: mgr, Options: e.FormOptions()}
}

// Definition returns the raw definition of a loader-backed form.
func (e *Engine) Definition(ctx context.Context, name string) (*definition.Definition, error) {
	if e.loader == nil {
		return nil, fmt.Errorf("%w: engine has no definition loader", domain.ErrDefinitionNotFound)
	}
	name, err := e.resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	return e.loader.GetDefinition(ctx, name)
}

// Validate checks every loader-backed definition and returns the problems
// of each broken one, keyed by form name.
func (e *Engine) Validate(ctx context.Context) (map[string]error, error) {
	if e.loader == nil {
		return nil, nil
	}
	names, err := e.loader.ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	var opts []definition.CompileOption
	if e.rules != nil {
		opts = append(opts, definition.WithRegistry(e.rules))
	}
	problems := map[string]error{}
	for _, name := range names {
		def, err := e.loader.GetDefinition(ctx, name)
		if err == nil {
			err = definition.Check(def, opts...)
		}
		if err != nil {
			problems[name] = err
		}
	}
	return problems, nil
}

// Registry returns the blueprint registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Loader returns the underlying DefinitionLoader, or nil.
func (e *Engine) Loader() ports.DefinitionLoader {
	return e.loader
}

func (e *Engine) resolve(ctx context.Context, name string) (string, error) {
	if name != "" {
		return name, nil
	}
	names, err := e.registry.Names(ctx)
	if err != nil {
		return "", err
	}
	switch len(names) {
	case 0:
		return "", fmt.Errorf("%w: no forms found", domain.ErrDefinitionNotFound)
	case 1:
		return names[0], nil
	default:
		return "", fmt.Errorf("several forms found, pick one of: %s", strings.Join(names, ", "))
	}
}
