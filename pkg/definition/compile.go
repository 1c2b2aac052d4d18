package definition

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
	"github.com/aretw0/stepform/pkg/rules"
)

var defaultRegistry = rules.NewRegistry()

// CompileOption configures Compile.
type CompileOption func(*compiler)

// WithRegistry sets the expression registry. The default registry knows the
// expr, cel and js engines with expr as default.
func WithRegistry(r *rules.Registry) CompileOption {
	return func(c *compiler) {
		c.reg = r
	}
}

type compiler struct {
	def   *Definition
	reg   *rules.Registry
	b     *form.Builder
	known []string
	vars  []string
}

// Compile turns a definition into a blueprint. Rule dependencies come from
// depends_on when given, otherwise from the control paths the expression
// mentions.
func Compile(def *Definition, opts ...CompileOption) (*form.Blueprint, error) {
	c := &compiler{def: def, reg: defaultRegistry, b: form.NewBuilder(def.Name)}
	for _, opt := range opts {
		opt(c)
	}

	tops := make([][]domain.ControlID, len(def.Steps))
	for i, st := range def.Steps {
		for j := range st.Controls {
			id, err := c.addControl(domain.NoControl, &st.Controls[j])
			if err != nil {
				return nil, err
			}
			tops[i] = append(tops[i], id)
		}
	}
	c.collectNames()

	var err error
	def.Walk(func(path string, _ int, ctl *Control) {
		if err == nil {
			err = c.controlRules(path, ctl)
		}
	})
	if err != nil {
		return nil, err
	}
	for _, e := range def.Edges {
		if err := c.edge(e); err != nil {
			return nil, err
		}
	}

	for i, st := range def.Steps {
		spec := form.StepSpec{ID: st.ID, Title: st.Title, Description: st.Description, Controls: tops[i]}
		if spec.Skip, err = c.predicate(st.SkipIf); err != nil {
			return nil, err
		}
		if spec.Complete, err = c.predicate(st.CompleteIf); err != nil {
			return nil, err
		}
		if err := c.b.AddStep(spec); err != nil {
			return nil, err
		}
	}
	return c.b.Build()
}

func (c *compiler) addControl(parent domain.ControlID, ctl *Control) (domain.ControlID, error) {
	kind, err := domain.ParseKind(ctl.Kind)
	if err != nil {
		return domain.NoControl, &domain.DefinitionError{Code: domain.InvalidDefinition, Subject: ctl.Name, Detail: err.Error()}
	}
	spec := form.ControlSpec{
		Name:           ctl.Name,
		Label:          ctl.Label,
		Kind:           kind,
		Required:       ctl.Required,
		Default:        ctl.Default,
		Help:           ctl.Help,
		Placeholder:    ctl.Placeholder,
		MinLength:      ctl.MinLength,
		MaxLength:      ctl.MaxLength,
		Pattern:        ctl.Pattern,
		ForceLowercase: ctl.Lowercase,
		Multiline:      ctl.Multiline,
		MaxLineLength:  ctl.MaxLineLength,
		MinSelected:    ctl.MinSelected,
		MaxSelected:    ctl.MaxSelected,
		OmitIfFalse:    ctl.OmitIfFalse,
		Text:           ctl.Text,
		MinEntries:     ctl.MinEntries,
		MaxEntries:     ctl.MaxEntries,
	}
	for _, o := range ctl.Options {
		spec.Choices = append(spec.Choices, form.Choice{Value: o.Value, Description: o.Description})
	}

	var id domain.ControlID
	if parent == domain.NoControl {
		id, err = c.b.AddControl(spec)
	} else {
		id, err = c.b.AddChild(parent, spec)
	}
	if err != nil {
		return domain.NoControl, err
	}
	for i := range ctl.Controls {
		if _, err := c.addControl(id, &ctl.Controls[i]); err != nil {
			return domain.NoControl, err
		}
	}
	return id, nil
}

// collectNames records every control path, and the variables rule
// programs may reference: top-level names plus the reserved ones.
func (c *compiler) collectNames() {
	vars := map[string]bool{rules.VarValue: true, rules.VarCurrent: true}
	c.def.Walk(func(path string, _ int, ctl *Control) {
		c.known = append(c.known, path)
		if !strings.Contains(path, ".") {
			vars[path] = true
		}
	})
	for v := range vars {
		c.vars = append(c.vars, v)
	}
	sort.Strings(c.vars)
}

func (c *compiler) controlRules(path string, ctl *Control) error {
	to, _ := c.b.Lookup(path)
	if ctl.VisibleWhen != nil {
		if err := c.when(to, path, domain.EffectVisibility, ctl.VisibleWhen); err != nil {
			return err
		}
	}
	if ctl.EnabledWhen != nil {
		if err := c.when(to, path, domain.EffectEnablement, ctl.EnabledWhen); err != nil {
			return err
		}
	}
	rulesByEffect := []struct {
		effect domain.Effect
		expr   string
	}{
		{domain.EffectVisibility, ctl.VisibleIf},
		{domain.EffectEnablement, ctl.EnabledIf},
		{domain.EffectValueDerivation, ctl.Derive},
	}
	for _, r := range rulesByEffect {
		if r.expr == "" {
			continue
		}
		if err := c.expression(to, path, r.effect, r.expr, ctl.DependsOn); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) expression(to domain.ControlID, path string, effect domain.Effect, expr string, dependsOn []string) error {
	prg, err := c.reg.Compile(expr, c.vars)
	if err != nil {
		return err
	}
	deps := dependsOn
	if len(deps) == 0 {
		_, src := c.reg.Split(expr)
		deps = rules.Dependencies(src, c.known)
	}
	if len(deps) == 0 {
		return &domain.DefinitionError{Code: domain.InvalidRule, Subject: path, Detail: fmt.Sprintf("%s rule %q references no control", effect, expr)}
	}
	for _, dep := range deps {
		from, ok := c.b.Lookup(dep)
		if !ok {
			return &domain.DefinitionError{Code: domain.UnknownControl, Subject: dep, Detail: fmt.Sprintf("referenced by %s", path)}
		}
		e := form.Edge{From: from, To: to, Effect: effect, Label: expr, Rule: path + ":" + string(effect)}
		if effect == domain.EffectValueDerivation {
			e.Derive = rules.Derivation(prg)
		} else {
			e.When = rules.Condition(prg)
		}
		if err := c.b.RegisterEdge(e); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) when(to domain.ControlID, path string, effect domain.Effect, w *When) error {
	from, ok := c.b.Lookup(w.Control)
	if !ok {
		return &domain.DefinitionError{Code: domain.UnknownControl, Subject: w.Control, Detail: fmt.Sprintf("referenced by %s", path)}
	}
	cond, label, err := builtin(w)
	if err != nil {
		return &domain.DefinitionError{Code: domain.InvalidRule, Subject: path, Detail: err.Error()}
	}
	return c.b.RegisterEdge(form.Edge{From: from, To: to, Effect: effect, When: cond, Label: label})
}

func parseAction(s string) (form.Action, error) {
	switch strings.ToLower(s) {
	case "", "show", "enable":
		return form.Show, nil
	case "hide", "disable":
		return form.Hide, nil
	default:
		return form.Show, fmt.Errorf("unknown action %q", s)
	}
}

func builtin(w *When) (form.Condition, string, error) {
	action, err := parseAction(w.Action)
	if err != nil {
		return nil, "", err
	}
	verb := "show"
	if action == form.Hide {
		verb = "hide"
	}
	switch {
	case w.Equals != nil:
		return form.WhenEquals(w.Equals, action), fmt.Sprintf("%s when %s == %v", verb, w.Control, w.Equals), nil
	case w.NotEquals != nil:
		return form.WhenNotEquals(w.NotEquals, action), fmt.Sprintf("%s when %s != %v", verb, w.Control, w.NotEquals), nil
	case w.Empty:
		return form.WhenEmpty(action), fmt.Sprintf("%s when %s is empty", verb, w.Control), nil
	case action == form.Hide:
		return form.WhenEmpty(form.Show), fmt.Sprintf("hide when %s is set", w.Control), nil
	default:
		return form.WhenSet(), fmt.Sprintf("show when %s is set", w.Control), nil
	}
}

func (c *compiler) edge(e Edge) error {
	subject := fmt.Sprintf("%s -> %s", e.From, e.To)
	from, ok := c.b.Lookup(e.From)
	if !ok {
		return &domain.DefinitionError{Code: domain.UnknownControl, Subject: e.From, Detail: "edge source"}
	}
	to, ok := c.b.Lookup(e.To)
	if !ok {
		return &domain.DefinitionError{Code: domain.UnknownControl, Subject: e.To, Detail: "edge target"}
	}
	effect, err := domain.ParseEffect(e.Effect)
	if err != nil {
		return &domain.DefinitionError{Code: domain.InvalidRule, Subject: subject, Detail: err.Error()}
	}
	out := form.Edge{From: from, To: to, Effect: effect}
	if e.When != "" {
		prg, err := c.reg.Compile(e.When, c.vars)
		if err != nil {
			return err
		}
		out.When = rules.Condition(prg)
		out.Label = e.When
	}
	if effect == domain.EffectValueDerivation {
		out.Derive = form.Copy()
		out.Label = "copy"
		if e.Derive != "" {
			prg, err := c.reg.Compile(e.Derive, c.vars)
			if err != nil {
				return err
			}
			out.Derive = rules.Derivation(prg)
			out.Label = e.Derive
		}
	}
	return c.b.RegisterEdge(out)
}

func (c *compiler) predicate(expr string) (form.Predicate, error) {
	if expr == "" {
		return nil, nil
	}
	prg, err := c.reg.Compile(expr, c.vars)
	if err != nil {
		return nil, err
	}
	return rules.Predicate(prg), nil
}
