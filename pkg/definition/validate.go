package definition

import (
	"fmt"
	"regexp"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/rules"
	"github.com/aretw0/stepform/pkg/schema"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate performs the structural checks that need no compilation and
// reports every problem found as a *schema.AggregateError.
func Validate(def *Definition) error {
	v := &validator{paths: map[string]int{}}
	if def.Name == "" {
		v.add("name", "a form needs a name")
	}
	if len(def.Steps) == 0 {
		v.add("steps", "a form needs at least one step")
	}

	ids := map[string]bool{}
	for i, st := range def.Steps {
		key := stepKey(i, st)
		if st.ID != "" {
			if ids[st.ID] {
				v.add(key, "duplicate step id")
			}
			ids[st.ID] = true
		}
		if len(st.Controls) == 0 {
			v.add(key, "a step needs at least one control")
		}
	}

	def.Walk(func(path string, step int, c *Control) {
		if _, dup := v.paths[path]; dup {
			v.add(path, "duplicate control")
		}
		v.paths[path] = step
		v.control(path, c)
	})

	for i, st := range def.Steps {
		v.stepRule(stepKey(i, st)+".skip_if", i, st.SkipIf, false)
		v.stepRule(stepKey(i, st)+".complete_if", i, st.CompleteIf, true)
	}
	def.Walk(func(path string, _ int, c *Control) {
		for _, w := range []*When{c.VisibleWhen, c.EnabledWhen} {
			if w != nil && !v.known(w.Control) {
				v.add(path, fmt.Sprintf("condition references unknown control %q", w.Control))
			}
		}
		for _, dep := range c.DependsOn {
			if !v.known(dep) {
				v.add(path, fmt.Sprintf("depends_on references unknown control %q", dep))
			}
		}
	})
	for i, e := range def.Edges {
		key := fmt.Sprintf("edges[%d]", i)
		if !v.known(e.From) {
			v.add(key, fmt.Sprintf("unknown source %q", e.From))
		}
		if !v.known(e.To) {
			v.add(key, fmt.Sprintf("unknown target %q", e.To))
		}
		if _, err := domain.ParseEffect(e.Effect); err != nil {
			v.add(key, err.Error())
		}
	}
	return v.err()
}

// Check runs Validate and, when the structure is sound, Compile, so callers
// see every problem a definition has.
func Check(def *Definition, opts ...CompileOption) error {
	if err := Validate(def); err != nil {
		return err
	}
	if _, err := Compile(def, opts...); err != nil {
		return &schema.AggregateError{Errors: []error{err}}
	}
	return nil
}

type validator struct {
	errs  []error
	paths map[string]int
}

func (v *validator) add(key, reason string) {
	v.errs = append(v.errs, &schema.ValidationError{Key: key, Reason: reason})
}

func (v *validator) known(path string) bool {
	_, ok := v.paths[path]
	return ok
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return &schema.AggregateError{Errors: v.errs}
}

func stepKey(i int, st Step) string {
	if st.ID != "" {
		return "steps." + st.ID
	}
	return fmt.Sprintf("steps[%d]", i)
}

func (v *validator) control(path string, c *Control) {
	if !identifier.MatchString(c.Name) {
		v.add(path, "control names must be identifiers")
	}
	kind, err := domain.ParseKind(c.Kind)
	if err != nil {
		v.add(path, err.Error())
		return
	}

	switch kind {
	case domain.KindGroup:
		if len(c.Controls) == 0 {
			v.add(path, "a group needs at least one control")
		}
	default:
		if len(c.Controls) > 0 {
			v.add(path, "only groups can own controls")
		}
	}

	if kind == domain.KindSingleSelect || kind == domain.KindMultiSelect {
		v.options(path, kind, c)
	} else if len(c.Options) > 0 {
		v.add(path, "options only apply to select controls")
	}
	if c.MaxLength > 0 && c.MinLength > c.MaxLength {
		v.add(path, "min_length exceeds max_length")
	}
	if c.MaxSelected > 0 && c.MinSelected > c.MaxSelected {
		v.add(path, "min_selected exceeds max_selected")
	}
	if c.MaxEntries > 0 && c.MinEntries > c.MaxEntries {
		v.add(path, "min_entries exceeds max_entries")
	}
	if kind == domain.KindStatic {
		if c.Text == "" && c.Label == "" {
			v.add(path, "static text needs text or a label")
		}
		if c.Required || c.Default != nil || c.Derive != "" {
			v.add(path, "static text holds no value")
		}
	} else if c.Text != "" {
		v.add(path, "text only applies to static controls")
	}
	for _, w := range []*When{c.VisibleWhen, c.EnabledWhen} {
		if w == nil {
			continue
		}
		if _, err := parseAction(w.Action); err != nil {
			v.add(path, err.Error())
		}
	}
}

func (v *validator) options(path string, kind domain.Kind, c *Control) {
	if len(c.Options) == 0 {
		v.add(path, "select controls need at least one option")
		return
	}
	valid := map[string]bool{}
	for _, o := range c.Options {
		if valid[o.Value] {
			v.add(path, fmt.Sprintf("duplicate option %q", o.Value))
		}
		valid[o.Value] = true
	}
	if c.Default == nil {
		return
	}
	var picked []string
	if kind == domain.KindSingleSelect {
		s, ok := c.Default.(string)
		if !ok {
			v.add(path, fmt.Sprintf("default must be a string, got %T", c.Default))
			return
		}
		picked = []string{s}
	} else {
		list, ok := schema.StringList(c.Default)
		if !ok {
			v.add(path, fmt.Sprintf("default must be a list of strings, got %T", c.Default))
			return
		}
		picked = list
	}
	for _, p := range picked {
		if !valid[p] {
			v.add(path, fmt.Sprintf("default %q is not one of the options", p))
		}
	}
}

// stepRule checks that a step rule only reads controls the user has had a
// chance to fill: earlier steps for skip rules, earlier or the same step
// for completion rules.
func (v *validator) stepRule(key string, step int, expr string, sameStep bool) {
	if expr == "" {
		return
	}
	_, src := defaultRegistry.Split(expr)
	known := make([]string, 0, len(v.paths))
	for p := range v.paths {
		known = append(known, p)
	}
	for _, dep := range rules.Dependencies(src, known) {
		at := v.paths[dep]
		if at > step || (at == step && !sameStep) {
			v.add(key, fmt.Sprintf("references %q which is not filled before this step", dep))
		}
	}
}

// Problems flattens a Validate or Check error into its individual problems.
func Problems(err error) []error {
	if err == nil {
		return nil
	}
	if errs := schema.ValidationErrors(err); errs != nil {
		return errs
	}
	return []error{err}
}
