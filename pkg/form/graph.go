package form

import (
	"fmt"
	"sort"

	"github.com/aretw0/stepform/pkg/domain"
)

// Edge is a directed dependency between two controls.
type Edge struct {
	From   domain.ControlID
	To     domain.ControlID
	Effect domain.Effect
	// When gates visibility and enablement edges. Nil means WhenSet.
	When Condition
	// Derive computes the target value of derivation edges.
	Derive Derivation
	// Label describes the rule for diagrams and logs.
	Label string
	// Rule names the rule the edge belongs to. A rule reading several
	// controls registers one edge per source; edges of the same rule into
	// the same target are evaluated once per pass.
	Rule string
}

// Pass records one propagation pass.
type Pass struct {
	Seeds   []domain.ControlID
	Visited []domain.ControlID
	Full    bool
	// Errors holds rule evaluation failures; each failed rule counted as false.
	Errors []error
}

// Graph is the acyclic dependency graph of a form. Group containment is an
// implicit edge from every group to each of its children.
type Graph struct {
	controls []*Control
	edges    []Edge
	in       [][]int
	out      [][]int

	order []domain.ControlID
	rank  []int
}

func newGraph() *Graph {
	return &Graph{}
}

func (g *Graph) addNode(c *Control) {
	g.controls = append(g.controls, c)
	g.in = append(g.in, nil)
	g.out = append(g.out, nil)
	g.order = nil
}

func (g *Graph) has(id domain.ControlID) bool {
	return id >= 0 && int(id) < len(g.controls)
}

// RegisterEdge adds an edge. It fails with CycleDetected, leaving the graph
// unchanged, when the target already reaches the source.
func (g *Graph) RegisterEdge(e Edge) error {
	for _, id := range []domain.ControlID{e.From, e.To} {
		if !g.has(id) {
			return &domain.DefinitionError{Code: domain.UnknownControl, Subject: fmt.Sprintf("control #%d", id)}
		}
	}
	subject := g.describe(e)
	switch e.Effect {
	case domain.EffectVisibility, domain.EffectEnablement:
		if e.When == nil {
			e.When = WhenSet()
		}
	case domain.EffectValueDerivation:
		if e.Derive == nil {
			return &domain.DefinitionError{Code: domain.InvalidRule, Subject: subject, Detail: "derivation edge without a derivation"}
		}
		if g.controls[e.To].Kind == domain.KindStatic {
			return &domain.DefinitionError{Code: domain.InvalidRule, Subject: subject, Detail: "static text cannot be derived"}
		}
	default:
		return &domain.DefinitionError{Code: domain.InvalidRule, Subject: subject, Detail: fmt.Sprintf("unknown effect %q", e.Effect)}
	}
	if e.From == e.To || g.reaches(e.To, e.From) {
		return &domain.DefinitionError{Code: domain.CycleDetected, Subject: subject}
	}

	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.out[e.From] = append(g.out[e.From], idx)
	g.in[e.To] = append(g.in[e.To], idx)
	g.order = nil
	return nil
}

func (g *Graph) describe(e Edge) string {
	from, to := fmt.Sprintf("#%d", e.From), fmt.Sprintf("#%d", e.To)
	if g.has(e.From) {
		from = g.controls[e.From].Path
	}
	if g.has(e.To) {
		to = g.controls[e.To].Path
	}
	return fmt.Sprintf("%s -[%s]-> %s", from, e.Effect, to)
}

func (g *Graph) successors(id domain.ControlID) []domain.ControlID {
	out := make([]domain.ControlID, 0, len(g.out[id])+len(g.controls[id].Children))
	for _, ei := range g.out[id] {
		out = append(out, g.edges[ei].To)
	}
	return append(out, g.controls[id].Children...)
}

func (g *Graph) reaches(from, to domain.ControlID) bool {
	seen := make([]bool, len(g.controls))
	stack := []domain.ControlID{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == to {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, g.successors(n)...)
	}
	return false
}

// Edges returns a copy of the registered edges in registration order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Incoming returns the edges targeting id in registration order.
func (g *Graph) Incoming(id domain.ControlID) []Edge {
	if !g.has(id) {
		return nil
	}
	out := make([]Edge, 0, len(g.in[id]))
	for _, ei := range g.in[id] {
		out = append(out, g.edges[ei])
	}
	return out
}

// Order returns a topological order of all controls. Ties are broken by id,
// so the order is stable for a given definition.
func (g *Graph) Order() []domain.ControlID {
	if g.order != nil {
		return g.order
	}
	n := len(g.controls)
	indegree := make([]int, n)
	for id := range g.controls {
		for _, succ := range g.successors(domain.ControlID(id)) {
			indegree[succ]++
		}
	}
	var ready []domain.ControlID
	for id, d := range indegree {
		if d == 0 {
			ready = append(ready, domain.ControlID(id))
		}
	}
	order := make([]domain.ControlID, 0, n)
	rank := make([]int, n)
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		id := ready[0]
		ready = ready[1:]
		rank[id] = len(order)
		order = append(order, id)
		for _, succ := range g.successors(id) {
			indegree[succ]--
			if indegree[succ] == 0 {
				ready = append(ready, succ)
			}
		}
	}
	g.order, g.rank = order, rank
	return order
}

// Affected returns every control reachable from the seeds through at least
// one edge, in topological order. A seed appears only when another seed
// reaches it.
func (g *Graph) Affected(seeds ...domain.ControlID) []domain.ControlID {
	g.Order()
	seen := make([]bool, len(g.controls))
	var stack []domain.ControlID
	for _, s := range seeds {
		if g.has(s) {
			stack = append(stack, g.successors(s)...)
		}
	}
	var out []domain.ControlID
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
		stack = append(stack, g.successors(n)...)
	}
	sort.Slice(out, func(i, j int) bool { return g.rank[out[i]] < g.rank[out[j]] })
	return out
}

// Propagate recomputes every control downstream of the changed ones.
// Each affected control is visited once, after all of its sources.
func (g *Graph) Propagate(s *ValueStore, changed ...domain.ControlID) Pass {
	p := Pass{Seeds: append([]domain.ControlID(nil), changed...)}
	for _, id := range g.Affected(changed...) {
		g.recompute(s, id, &p)
		p.Visited = append(p.Visited, id)
	}
	return p
}

// PropagateAll recomputes every control in topological order.
func (g *Graph) PropagateAll(s *ValueStore) Pass {
	p := Pass{Full: true}
	for _, id := range g.Order() {
		g.recompute(s, id, &p)
		p.Visited = append(p.Visited, id)
	}
	return p
}

func (g *Graph) recompute(s *ValueStore, id domain.ControlID, p *Pass) {
	c := g.controls[id]
	visible, enabled := true, true
	if c.Parent != domain.NoControl {
		visible = s.Visible(c.Parent)
		enabled = s.Enabled(c.Parent)
	}

	held := map[string]bool{}
	for _, ei := range g.in[id] {
		e := g.edges[ei]
		switch e.Effect {
		case domain.EffectVisibility:
			if visible {
				visible = g.holdsOnce(s, e, p, held)
			}
		case domain.EffectEnablement:
			if enabled {
				enabled = g.holdsOnce(s, e, p, held)
			}
		}
	}
	s.setFlags(id, visible, enabled && visible)

	derived := map[string]bool{}
	for _, ei := range g.in[id] {
		e := g.edges[ei]
		if e.Effect != domain.EffectValueDerivation {
			continue
		}
		if e.Rule != "" {
			if derived[e.Rule] {
				continue
			}
			derived[e.Rule] = true
		}
		v, err := e.Derive(s.Value(e.From), s.Value(id), s)
		if err != nil {
			verr := c.violation(domain.DerivationFailed, err.Error())
			s.markInvalid(id, verr)
			p.Errors = append(p.Errors, fmt.Errorf("%s: %w", g.describe(e), verr))
			continue
		}
		if _, verr := s.assign(id, v); verr != nil && !IsClear(v) {
			derr := c.violation(domain.DerivationFailed, verr.Reason)
			s.markInvalid(id, derr)
			p.Errors = append(p.Errors, fmt.Errorf("%s: %w", g.describe(e), derr))
		}
	}
}

// holdsOnce is holds with the result of named rules remembered for the
// rest of the target's recomputation.
func (g *Graph) holdsOnce(s *ValueStore, e Edge, p *Pass, held map[string]bool) bool {
	if e.Rule == "" {
		return g.holds(s, e, p)
	}
	key := string(e.Effect) + "\x00" + e.Rule
	if ok, seen := held[key]; seen {
		return ok
	}
	ok := g.holds(s, e, p)
	held[key] = ok
	return ok
}

func (g *Graph) holds(s *ValueStore, e Edge, p *Pass) bool {
	ok, err := e.When(s.Value(e.From), s)
	if err != nil {
		p.Errors = append(p.Errors, fmt.Errorf("%s: %w", g.describe(e), err))
		return false
	}
	return ok
}
