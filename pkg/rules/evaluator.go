package rules

import (
	"fmt"
	"strings"
	"sync"
)

// Program is a compiled expression.
type Program interface {
	Engine() string
	Source() string
	Eval(env map[string]any) (any, error)
}

// Evaluator compiles expressions for one engine. vars lists every variable
// the expression may reference; engines with static checking need them.
type Evaluator interface {
	Name() string
	Compile(expression string, vars []string) (Program, error)
}

// Engine names.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// Registry dispatches expressions to evaluators by prefix and caches the
// compiled programs. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	evaluators map[string]Evaluator
	fallback   string
	cache      sync.Map
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithEvaluator registers an additional evaluator, replacing any evaluator
// with the same name.
func WithEvaluator(e Evaluator) RegistryOption {
	return func(r *Registry) {
		r.evaluators[e.Name()] = e
	}
}

// WithDefaultEngine selects the engine for unprefixed expressions.
func WithDefaultEngine(name string) RegistryOption {
	return func(r *Registry) {
		r.fallback = name
	}
}

// NewRegistry returns a registry with the expr, cel and js engines.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		evaluators: map[string]Evaluator{
			EngineExpr: NewExprEvaluator(),
			EngineCEL:  NewCELEvaluator(),
			EngineJS:   NewJSEvaluator(),
		},
		fallback: EngineExpr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Split separates an engine prefix from an expression.
func (r *Registry) Split(expression string) (string, string) {
	trimmed := strings.TrimSpace(expression)
	if i := strings.Index(trimmed, ":"); i > 0 {
		name := trimmed[:i]
		r.mu.RLock()
		_, ok := r.evaluators[name]
		r.mu.RUnlock()
		if ok {
			return name, strings.TrimSpace(trimmed[i+1:])
		}
	}
	return r.fallback, trimmed
}

// Compile compiles an expression with the engine named by its prefix.
func (r *Registry) Compile(expression string, vars []string) (Program, error) {
	engine, src := r.Split(expression)
	if src == "" {
		return nil, compileError(engine, expression, fmt.Errorf("expression must not be empty"))
	}
	key := engine + "\x00" + src + "\x00" + strings.Join(vars, ",")
	if cached, ok := r.cache.Load(key); ok {
		return cached.(Program), nil
	}

	r.mu.RLock()
	ev, ok := r.evaluators[engine]
	r.mu.RUnlock()
	if !ok {
		return nil, compileError(engine, src, fmt.Errorf("unknown engine"))
	}
	prg, err := ev.Compile(src, vars)
	if err != nil {
		return nil, err
	}
	r.cache.Store(key, prg)
	return prg, nil
}
