package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/stepform/pkg/form"
)

// Reserved variables bound for derivations.
const (
	VarValue   = "value"
	VarCurrent = "current"
)

// Condition adapts a boolean program into a form.Condition.
func Condition(p Program) form.Condition {
	return func(source any, values form.Values) (bool, error) {
		return truth(p, env(values, source, nil))
	}
}

// Predicate adapts a boolean program into a step predicate.
func Predicate(p Program) form.Predicate {
	return func(values form.Values) (bool, error) {
		return truth(p, env(values, nil, nil))
	}
}

// Derivation adapts a program into a form.Derivation.
func Derivation(p Program) form.Derivation {
	return func(source, current any, values form.Values) (any, error) {
		out, err := p.Eval(env(values, source, current))
		if err != nil {
			return nil, err
		}
		return normalise(out), nil
	}
}

func env(values form.Values, source, current any) map[string]any {
	m := values.Env()
	m[VarValue] = source
	m[VarCurrent] = current
	return m
}

func truth(p Program, env map[string]any) (bool, error) {
	out, err := p.Eval(env)
	if err != nil {
		return false, err
	}
	switch v := out.(type) {
	case bool:
		return v, nil
	case nil:
		return false, nil
	default:
		return false, evalError(p.Engine(), p.Source(), fmt.Errorf("result is %T, want bool", out))
	}
}

// normalise turns engine list results into []string when possible so
// derived values match what multi-select controls hold.
func normalise(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		s, ok := e.(string)
		if !ok {
			return v
		}
		out = append(out, s)
	}
	return out
}

// Dependencies returns the control paths an expression references, found
// by scanning identifiers outside string literals. Dotted references
// resolve to the longest known path.
func Dependencies(expression string, known []string) []string {
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}
	found := make(map[string]bool)
	for _, ident := range identifiers(expression) {
		parts := strings.Split(ident, ".")
		for n := len(parts); n > 0; n-- {
			cand := strings.Join(parts[:n], ".")
			if set[cand] {
				found[cand] = true
				break
			}
		}
	}
	out := make([]string, 0, len(found))
	for k := range found {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func identifiers(s string) []string {
	var out []string
	var quote rune
	start := -1
	flush := func(end int) {
		if start >= 0 {
			out = append(out, strings.TrimSuffix(s[start:end], "."))
			start = -1
		}
	}
	for i, r := range s {
		if quote != 0 {
			if r == quote && (i == 0 || s[i-1] != '\\') {
				quote = 0
			}
			continue
		}
		switch {
		case r == '"' || r == '\'' || r == '`':
			flush(i)
			quote = r
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			if start < 0 && (i == 0 || s[i-1] != '.') {
				start = i
			}
		case r >= '0' && r <= '9':
		case r == '.':
			if start < 0 {
				continue
			}
		default:
			flush(i)
		}
	}
	flush(len(s))
	return out
}
