package dsl

import (
	"fmt"

	"github.com/aretw0/stepform/pkg/adapters/memory"
	"github.com/aretw0/stepform/pkg/definition"
	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
)

// Builder manages the definition construction.
type Builder struct {
	def   definition.Definition
	steps []*StepBuilder
	index map[string]*StepBuilder
}

// New creates a new definition builder.
func New(name string) *Builder {
	return &Builder{
		def:   definition.Definition{Name: name},
		index: make(map[string]*StepBuilder),
	}
}

// Title sets the human-readable form title.
func (b *Builder) Title(title string) *Builder {
	b.def.Title = title
	return b
}

// Description sets the form description.
func (b *Builder) Description(text string) *Builder {
	b.def.Description = text
	return b
}

// Step appends a step. If the step already exists, it returns the existing
// builder.
func (b *Builder) Step(id string) *StepBuilder {
	if sb, ok := b.index[id]; ok {
		return sb
	}
	sb := &StepBuilder{step: definition.Step{ID: id}}
	b.index[id] = sb
	b.steps = append(b.steps, sb)
	return sb
}

// Edge adds an explicit dependency between two controls.
func (b *Builder) Edge(from, to string, effect domain.Effect) *EdgeBuilder {
	b.def.Edges = append(b.def.Edges, definition.Edge{From: from, To: to, Effect: string(effect)})
	return &EdgeBuilder{b: b, i: len(b.def.Edges) - 1}
}

// Definition returns the definition built so far.
func (b *Builder) Definition() *definition.Definition {
	def := b.def
	def.Edges = append([]definition.Edge(nil), b.def.Edges...)
	def.Steps = make([]definition.Step, 0, len(b.steps))
	for _, sb := range b.steps {
		def.Steps = append(def.Steps, sb.build())
	}
	return &def
}

// Build validates the definition and compiles it into a blueprint.
func (b *Builder) Build(opts ...definition.CompileOption) (*form.Blueprint, error) {
	def := b.Definition()
	if err := definition.Validate(def); err != nil {
		return nil, fmt.Errorf("invalid definition %q: %w", def.Name, err)
	}
	return definition.Compile(def, opts...)
}

// Loader returns an in-memory loader serving this definition.
func (b *Builder) Loader() (*memory.Loader, error) {
	loader, err := memory.NewFromDefinitions(b.Definition())
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}

// EdgeBuilder configures an explicit edge.
type EdgeBuilder struct {
	b *Builder
	i int
}

// When gates a visibility or enablement edge with an expression.
func (e *EdgeBuilder) When(expr string) *EdgeBuilder {
	e.b.def.Edges[e.i].When = expr
	return e
}

// Derive sets the expression of a derivation edge. Without it the source
// value is copied.
func (e *EdgeBuilder) Derive(expr string) *EdgeBuilder {
	e.b.def.Edges[e.i].Derive = expr
	return e
}
