package form

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/schema"
)

// Choice is one selectable option of a select control.
type Choice struct {
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// ControlSpec declares a control. Only the fields relevant to Kind are used.
type ControlSpec struct {
	Name        string
	Label       string
	Kind        domain.Kind
	Required    bool
	Default     any
	Help        string
	Placeholder string

	// Text
	MinLength      int
	MaxLength      int
	Pattern        string
	ForceLowercase bool
	Multiline      bool
	MaxLineLength  int

	// SingleSelect / MultiSelect
	Choices     []Choice
	MinSelected int
	MaxSelected int

	// Boolean
	OmitIfFalse bool

	// Static
	Text string

	// KeyValue
	MinEntries int
	MaxEntries int
}

// Control is an immutable, compiled control definition.
// Runtime state lives in the ValueStore.
type Control struct {
	ControlSpec

	ID       domain.ControlID
	Path     string
	Parent   domain.ControlID
	Children []domain.ControlID
	Depth    int

	pattern  *regexp.Regexp
	children []*Control
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func newControl(id domain.ControlID, spec ControlSpec, parent *Control) (*Control, error) {
	if !namePattern.MatchString(spec.Name) {
		return nil, &domain.DefinitionError{
			Code:    domain.InvalidDefinition,
			Subject: spec.Name,
			Detail:  "control names must be identifiers",
		}
	}
	switch spec.Kind {
	case domain.KindText, domain.KindSingleSelect, domain.KindMultiSelect, domain.KindBoolean, domain.KindGroup, domain.KindKeyValue:
	case domain.KindStatic:
		if spec.Required || spec.Default != nil {
			return nil, &domain.DefinitionError{Code: domain.InvalidDefinition, Subject: spec.Name, Detail: "static text holds no value"}
		}
	default:
		return nil, &domain.DefinitionError{Code: domain.InvalidDefinition, Subject: spec.Name, Detail: fmt.Sprintf("unknown kind %q", spec.Kind)}
	}

	c := &Control{
		ControlSpec: spec,
		ID:          id,
		Path:        spec.Name,
		Parent:      domain.NoControl,
	}
	if parent != nil {
		if parent.Kind != domain.KindGroup {
			return nil, &domain.DefinitionError{Code: domain.InvalidDefinition, Subject: parent.Path, Detail: "only groups can own controls"}
		}
		c.Path = parent.Path + "." + spec.Name
		c.Parent = parent.ID
		c.Depth = parent.Depth + 1
	}
	if c.Label == "" {
		c.Label = spec.Name
	}

	if spec.Pattern != "" {
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, &domain.DefinitionError{Code: domain.InvalidRule, Subject: c.Path, Detail: err.Error()}
		}
		c.pattern = re
	}
	if (spec.Kind == domain.KindSingleSelect || spec.Kind == domain.KindMultiSelect) && len(spec.Choices) == 0 {
		return nil, &domain.DefinitionError{Code: domain.InvalidDefinition, Subject: c.Path, Detail: "select controls need at least one choice"}
	}
	seen := make(map[string]bool, len(spec.Choices))
	for _, ch := range spec.Choices {
		if seen[ch.Value] {
			return nil, &domain.DefinitionError{Code: domain.InvalidDefinition, Subject: c.Path, Detail: fmt.Sprintf("duplicate choice %q", ch.Value)}
		}
		seen[ch.Value] = true
	}
	return c, nil
}

// Focusable reports whether the control can take keyboard focus.
func (c *Control) Focusable() bool { return c.Kind != domain.KindGroup && c.Kind != domain.KindStatic }

// HoldsValue reports whether the control stores a value of its own.
func (c *Control) HoldsValue() bool { return c.Kind != domain.KindGroup && c.Kind != domain.KindStatic }

// Content returns the display text of a static control.
func (c *Control) Content() string {
	if c.Text != "" {
		return c.Text
	}
	return c.Label
}

// Shape returns the schema type every non-empty value of this control must match.
func (c *Control) Shape() schema.Type {
	switch c.Kind {
	case domain.KindText, domain.KindSingleSelect:
		return schema.String()
	case domain.KindMultiSelect:
		return schema.Slice(schema.String())
	case domain.KindBoolean:
		return schema.Bool()
	case domain.KindStatic:
		return schema.Custom("none", func(v any) error {
			return fmt.Errorf("static text takes no value, got %T", v)
		})
	case domain.KindKeyValue:
		return schema.Custom("pairs", func(v any) error {
			_, err := Pairs(v)
			return err
		})
	default:
		return schema.Map()
	}
}

// ChoiceIndex returns the position of value among the choices, or -1.
func (c *Control) ChoiceIndex(value string) int {
	for i, ch := range c.Choices {
		if ch.Value == value {
			return i
		}
	}
	return -1
}

// IsClear reports whether v clears a control rather than setting it.
func IsClear(v any) bool { return domain.IsEmpty(v) }

// Validate checks v against the control's kind and constraints and returns
// the normalised value. It never touches runtime state.
// A clearing value yields (nil, nil) unless the control is required.
// Group values are validated by the store, which knows the children.
func (c *Control) Validate(v any) (any, error) {
	if c.Kind == domain.KindKeyValue {
		return c.validatePairs(v)
	}
	if IsClear(v) {
		if c.Required {
			return nil, c.violation(domain.ConstraintViolated, "a value is required")
		}
		return nil, nil
	}

	if c.Kind == domain.KindStatic {
		return nil, c.violation(domain.TypeMismatch, "static text takes no value")
	}
	if list, ok := schema.StringList(v); ok && c.Kind == domain.KindMultiSelect {
		v = list
	}
	if err := c.Shape().Validate(v); err != nil {
		return nil, c.violation(domain.TypeMismatch, err.Error())
	}

	switch c.Kind {
	case domain.KindText:
		return c.validateText(v.(string))
	case domain.KindSingleSelect:
		s := v.(string)
		if c.ChoiceIndex(s) < 0 {
			return nil, c.violation(domain.ConstraintViolated, fmt.Sprintf("%q is not one of the options", s))
		}
		return s, nil
	case domain.KindMultiSelect:
		return c.validateSelection(v.([]string))
	case domain.KindBoolean:
		return v, nil
	default:
		return v, nil
	}
}

func (c *Control) validateText(s string) (any, error) {
	if c.ForceLowercase {
		s = strings.ToLower(s)
	}
	if c.Multiline {
		lines := strings.Split(s, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimRight(line, " \t\r")
		}
		s = strings.TrimRight(strings.Join(lines, "\n"), "\n")
	} else if strings.ContainsAny(s, "\r\n") {
		return nil, c.violation(domain.ConstraintViolated, "must be a single line")
	}

	n := utf8.RuneCountInString(s)
	if c.MinLength > 0 && n < c.MinLength {
		return nil, c.violation(domain.ConstraintViolated, fmt.Sprintf("must be at least %d characters", c.MinLength))
	}
	if c.MaxLength > 0 && n > c.MaxLength {
		return nil, c.violation(domain.ConstraintViolated, fmt.Sprintf("must be at most %d characters", c.MaxLength))
	}
	if c.MaxLineLength > 0 {
		for i, line := range strings.Split(s, "\n") {
			if utf8.RuneCountInString(line) > c.MaxLineLength {
				return nil, c.violation(domain.ConstraintViolated, fmt.Sprintf("line %d exceeds %d characters", i+1, c.MaxLineLength))
			}
		}
	}
	if c.pattern != nil && !c.pattern.MatchString(s) {
		return nil, c.violation(domain.ConstraintViolated, fmt.Sprintf("must match %s", c.Pattern))
	}
	return s, nil
}

func (c *Control) validateSelection(picked []string) (any, error) {
	chosen := make(map[string]bool, len(picked))
	for _, p := range picked {
		if c.ChoiceIndex(p) < 0 {
			return nil, c.violation(domain.ConstraintViolated, fmt.Sprintf("%q is not one of the options", p))
		}
		if chosen[p] {
			return nil, c.violation(domain.ConstraintViolated, fmt.Sprintf("%q selected twice", p))
		}
		chosen[p] = true
	}
	if c.MinSelected > 0 && len(picked) < c.MinSelected {
		return nil, c.violation(domain.ConstraintViolated, fmt.Sprintf("select at least %d", c.MinSelected))
	}
	if c.MaxSelected > 0 && len(picked) > c.MaxSelected {
		return nil, c.violation(domain.ConstraintViolated, fmt.Sprintf("select at most %d", c.MaxSelected))
	}

	// Normalise to declaration order so equal selections compare equal.
	out := make([]string, 0, len(picked))
	for _, ch := range c.Choices {
		if chosen[ch.Value] {
			out = append(out, ch.Value)
		}
	}
	return out, nil
}

func (c *Control) validatePairs(v any) (any, error) {
	pairs, err := Pairs(v)
	if err != nil {
		return nil, c.violation(domain.TypeMismatch, err.Error())
	}
	if len(pairs) == 0 {
		if c.Required {
			return nil, c.violation(domain.ConstraintViolated, "a value is required")
		}
		return nil, nil
	}
	if c.MinEntries > 0 && len(pairs) < c.MinEntries {
		return nil, c.violation(domain.ConstraintViolated, fmt.Sprintf("enter at least %d pairs", c.MinEntries))
	}
	if c.MaxEntries > 0 && len(pairs) > c.MaxEntries {
		return nil, c.violation(domain.ConstraintViolated, fmt.Sprintf("enter at most %d pairs", c.MaxEntries))
	}
	return pairs, nil
}

// Pairs converts a key/value value into map[string]string. It accepts maps
// with string values and text of "key=value" entries separated by newlines
// or semicolons. Keys are trimmed and must be unique and non-empty.
func Pairs(v any) (map[string]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return checkPairs(t)
	case map[string]any:
		out := make(map[string]string, len(t))
		for k, raw := range t {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("value of %q must be a string, got %T", k, raw)
			}
			out[k] = s
		}
		return checkPairs(out)
	case string:
		return ParsePairs(t)
	default:
		return nil, fmt.Errorf("expected key/value pairs, got %T", v)
	}
}

// ParsePairs parses "key=value" entries separated by newlines or semicolons.
// Blank entries are ignored.
func ParsePairs(s string) (map[string]string, error) {
	out := map[string]string{}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == ';' })
	for _, field := range fields {
		if strings.TrimSpace(field) == "" {
			continue
		}
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			return nil, fmt.Errorf("entry %q is not key=value", strings.TrimSpace(field))
		}
		k = strings.TrimSpace(k)
		if _, dup := out[k]; dup {
			return nil, fmt.Errorf("duplicate key %q", k)
		}
		out[k] = strings.TrimSpace(v)
	}
	return checkPairs(out)
}

func checkPairs(m map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(m))
	for k, v := range m {
		key := strings.TrimSpace(k)
		if key == "" {
			return nil, fmt.Errorf("keys must not be empty")
		}
		if strings.ContainsAny(key, "=;\n") || strings.ContainsAny(v, ";\n") {
			return nil, fmt.Errorf("entry %q contains a separator", key)
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		out[key] = v
	}
	return out, nil
}

// FormatPairs renders pairs as "key=value" entries in key order, the form
// ParsePairs reads back.
func FormatPairs(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + m[k]
	}
	return strings.Join(parts, "; ")
}

// RenderText renders a value of this control as plain text.
// Group text is assembled from the children by the caller.
func (c *Control) RenderText(v any) string {
	if v == nil {
		return ""
	}
	switch c.Kind {
	case domain.KindBoolean:
		if b, _ := v.(bool); b {
			return "Yes"
		}
		return "No"
	case domain.KindMultiSelect:
		list, _ := schema.StringList(v)
		return strings.Join(list, ", ")
	case domain.KindKeyValue:
		pairs, _ := Pairs(v)
		return FormatPairs(pairs)
	default:
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
}

func (c *Control) violation(code domain.ValidationCode, reason string) *domain.ValidationError {
	return &domain.ValidationError{Code: code, Control: c.Path, Reason: reason}
}
