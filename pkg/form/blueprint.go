package form

import (
	"fmt"

	"github.com/aretw0/stepform/pkg/domain"
)

// Builder assembles a Blueprint. Controls must be added before the edges
// and steps that reference them.
type Builder struct {
	name     string
	controls []*Control
	index    map[string]domain.ControlID
	graph    *Graph
	steps    []*Step
	stepIDs  map[string]bool
	owner    map[domain.ControlID]string
}

// NewBuilder starts a form definition.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:    name,
		index:   make(map[string]domain.ControlID),
		graph:   newGraph(),
		stepIDs: make(map[string]bool),
		owner:   make(map[domain.ControlID]string),
	}
}

// AddControl adds a top-level control.
func (b *Builder) AddControl(spec ControlSpec) (domain.ControlID, error) {
	return b.add(spec, nil)
}

// AddChild adds a control owned by a group.
func (b *Builder) AddChild(parent domain.ControlID, spec ControlSpec) (domain.ControlID, error) {
	if parent < 0 || int(parent) >= len(b.controls) {
		return domain.NoControl, &domain.DefinitionError{Code: domain.UnknownControl, Subject: fmt.Sprintf("control #%d", parent)}
	}
	return b.add(spec, b.controls[parent])
}

func (b *Builder) add(spec ControlSpec, parent *Control) (domain.ControlID, error) {
	id := domain.ControlID(len(b.controls))
	c, err := newControl(id, spec, parent)
	if err != nil {
		return domain.NoControl, err
	}
	if _, dup := b.index[c.Path]; dup {
		return domain.NoControl, &domain.DefinitionError{Code: domain.DuplicateControl, Subject: c.Path}
	}
	if parent != nil {
		if _, placed := b.owner[parent.ID]; placed {
			return domain.NoControl, &domain.DefinitionError{Code: domain.InvalidDefinition, Subject: c.Path, Detail: "group already placed in a step"}
		}
		parent.Children = append(parent.Children, id)
		parent.children = append(parent.children, c)
	}
	b.controls = append(b.controls, c)
	b.index[c.Path] = id
	b.graph.addNode(c)
	return id, nil
}

// Lookup resolves a control path.
func (b *Builder) Lookup(path string) (domain.ControlID, bool) {
	id, ok := b.index[path]
	return id, ok
}

// Control returns a control added so far.
func (b *Builder) Control(id domain.ControlID) (*Control, bool) {
	if id < 0 || int(id) >= len(b.controls) {
		return nil, false
	}
	return b.controls[id], true
}

// RegisterEdge adds a dependency edge. See Graph.RegisterEdge.
func (b *Builder) RegisterEdge(e Edge) error {
	return b.graph.RegisterEdge(e)
}

// AddStep appends a step. Steps are navigated in the order they are added.
func (b *Builder) AddStep(spec StepSpec) error {
	if spec.ID == "" {
		spec.ID = fmt.Sprintf("step%d", len(b.steps)+1)
	}
	if b.stepIDs[spec.ID] {
		return &domain.DefinitionError{Code: domain.InvalidDefinition, Subject: spec.ID, Detail: "duplicate step id"}
	}
	st := &Step{StepSpec: spec, Index: len(b.steps)}
	st.Controls = append([]domain.ControlID(nil), spec.Controls...)
	for _, id := range st.Controls {
		c, ok := b.Control(id)
		if !ok {
			return &domain.DefinitionError{Code: domain.UnknownControl, Subject: fmt.Sprintf("control #%d", id), Detail: fmt.Sprintf("referenced by step %q", spec.ID)}
		}
		if c.Parent != domain.NoControl {
			return &domain.DefinitionError{Code: domain.InvalidDefinition, Subject: c.Path, Detail: "group members are placed with their group"}
		}
		if other, taken := b.owner[id]; taken {
			return &domain.DefinitionError{Code: domain.ControlInTwoSteps, Subject: c.Path, Detail: fmt.Sprintf("steps %q and %q", other, spec.ID)}
		}
	}
	for _, id := range st.Controls {
		b.owner[id] = spec.ID
		st.members = append(st.members, b.expand(id)...)
	}
	b.stepIDs[spec.ID] = true
	b.steps = append(b.steps, st)
	return nil
}

func (b *Builder) expand(id domain.ControlID) []domain.ControlID {
	out := []domain.ControlID{id}
	for _, child := range b.controls[id].Children {
		out = append(out, b.expand(child)...)
	}
	return out
}

// Build validates the definition and freezes it.
func (b *Builder) Build() (*Blueprint, error) {
	if len(b.steps) == 0 {
		return nil, &domain.DefinitionError{Code: domain.InvalidDefinition, Subject: b.name, Detail: "a form needs at least one step"}
	}
	for _, c := range b.controls {
		if c.Parent != domain.NoControl {
			continue
		}
		if _, placed := b.owner[c.ID]; !placed {
			return nil, &domain.DefinitionError{Code: domain.InvalidDefinition, Subject: c.Path, Detail: "control is not placed in any step"}
		}
	}
	for _, c := range b.controls {
		if c.Default == nil || c.Kind == domain.KindGroup {
			continue
		}
		if _, err := c.Validate(c.Default); err != nil {
			return nil, &domain.DefinitionError{Code: domain.InvalidDefault, Subject: c.Path, Detail: err.Error()}
		}
	}
	b.graph.Order()

	stepOf := make(map[domain.ControlID]int, len(b.controls))
	for _, st := range b.steps {
		for _, id := range st.members {
			stepOf[id] = st.Index
		}
	}
	return &Blueprint{
		name:     b.name,
		controls: b.controls,
		index:    b.index,
		graph:    b.graph,
		steps:    b.steps,
		stepOf:   stepOf,
	}, nil
}

// Blueprint is an immutable form definition. It is safe to create many
// forms from one blueprint concurrently.
type Blueprint struct {
	name     string
	controls []*Control
	index    map[string]domain.ControlID
	graph    *Graph
	steps    []*Step
	stepOf   map[domain.ControlID]int
}

// Name returns the form name.
func (bp *Blueprint) Name() string { return bp.name }

// Controls returns every control in id order. Callers must not modify them.
func (bp *Blueprint) Controls() []*Control { return bp.controls }

// Steps returns the steps in navigation order. Callers must not modify them.
func (bp *Blueprint) Steps() []*Step { return bp.steps }

// Graph returns the dependency graph.
func (bp *Blueprint) Graph() *Graph { return bp.graph }

// Control returns the control with the given id.
func (bp *Blueprint) Control(id domain.ControlID) (*Control, bool) {
	if id < 0 || int(id) >= len(bp.controls) {
		return nil, false
	}
	return bp.controls[id], true
}

// Lookup resolves a control path.
func (bp *Blueprint) Lookup(path string) (domain.ControlID, bool) {
	id, ok := bp.index[path]
	return id, ok
}

// StepOf returns the index of the step owning a control.
func (bp *Blueprint) StepOf(id domain.ControlID) int {
	if i, ok := bp.stepOf[id]; ok {
		return i
	}
	return -1
}

func (bp *Blueprint) newStore() *ValueStore {
	s := newValueStore(bp.controls, bp.index)
	bp.loadDefaults(s)
	return s
}

func (bp *Blueprint) loadDefaults(s *ValueStore) {
	s.reset()
	for _, c := range bp.controls {
		if c.Default == nil || c.Kind == domain.KindGroup {
			continue
		}
		// Defaults were validated at build time.
		v, _ := c.Validate(c.Default)
		s.commit(c.ID, v)
	}
}
