package definition

// Definition is the declarative description of a form.
type Definition struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Steps       []Step `json:"steps" yaml:"steps" mapstructure:"steps"`
	Edges       []Edge `json:"edges,omitempty" yaml:"edges,omitempty" mapstructure:"edges"`
}

// Step declares a step and the controls it shows.
type Step struct {
	ID          string    `json:"id" yaml:"id" mapstructure:"id"`
	Title       string    `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	SkipIf      string    `json:"skip_if,omitempty" yaml:"skip_if,omitempty" mapstructure:"skip_if"`
	CompleteIf  string    `json:"complete_if,omitempty" yaml:"complete_if,omitempty" mapstructure:"complete_if"`
	Controls    []Control `json:"controls" yaml:"controls" mapstructure:"controls"`
}

// Control declares a control. Controls nested under a group control are its
// children.
type Control struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	Kind        string `json:"kind" yaml:"kind" mapstructure:"kind"`
	Help        string `json:"help,omitempty" yaml:"help,omitempty" mapstructure:"help"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty" mapstructure:"placeholder"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`

	MinLength     int    `json:"min_length,omitempty" yaml:"min_length,omitempty" mapstructure:"min_length"`
	MaxLength     int    `json:"max_length,omitempty" yaml:"max_length,omitempty" mapstructure:"max_length"`
	MaxLineLength int    `json:"max_line_length,omitempty" yaml:"max_line_length,omitempty" mapstructure:"max_line_length"`
	Pattern       string `json:"pattern,omitempty" yaml:"pattern,omitempty" mapstructure:"pattern"`
	Lowercase     bool   `json:"lowercase,omitempty" yaml:"lowercase,omitempty" mapstructure:"lowercase"`
	Multiline     bool   `json:"multiline,omitempty" yaml:"multiline,omitempty" mapstructure:"multiline"`

	Options     []Option `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
	MinSelected int      `json:"min_selected,omitempty" yaml:"min_selected,omitempty" mapstructure:"min_selected"`
	MaxSelected int      `json:"max_selected,omitempty" yaml:"max_selected,omitempty" mapstructure:"max_selected"`

	OmitIfFalse bool `json:"omit_if_false,omitempty" yaml:"omit_if_false,omitempty" mapstructure:"omit_if_false"`

	// Text is the content of a static control; the label is used when empty.
	Text       string `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text"`
	MinEntries int    `json:"min_entries,omitempty" yaml:"min_entries,omitempty" mapstructure:"min_entries"`
	MaxEntries int    `json:"max_entries,omitempty" yaml:"max_entries,omitempty" mapstructure:"max_entries"`

	// Rules. Expressions may carry an engine prefix ("cel:", "js:").
	VisibleIf   string   `json:"visible_if,omitempty" yaml:"visible_if,omitempty" mapstructure:"visible_if"`
	EnabledIf   string   `json:"enabled_if,omitempty" yaml:"enabled_if,omitempty" mapstructure:"enabled_if"`
	VisibleWhen *When    `json:"visible_when,omitempty" yaml:"visible_when,omitempty" mapstructure:"visible_when"`
	EnabledWhen *When    `json:"enabled_when,omitempty" yaml:"enabled_when,omitempty" mapstructure:"enabled_when"`
	Derive      string   `json:"derive,omitempty" yaml:"derive,omitempty" mapstructure:"derive"`
	DependsOn   []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty" mapstructure:"depends_on"`

	Controls []Control `json:"controls,omitempty" yaml:"controls,omitempty" mapstructure:"controls"`
}

// Option is one choice of a select control. In YAML a bare string is
// accepted as an option without description.
type Option struct {
	Value       string `json:"value" yaml:"value" mapstructure:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
}

// When is a built-in condition on another control's value.
// Exactly one of Equals, NotEquals or Empty applies; Action is show (the
// default) or hide.
type When struct {
	Control   string `json:"control" yaml:"control" mapstructure:"control"`
	Equals    any    `json:"equals,omitempty" yaml:"equals,omitempty" mapstructure:"equals"`
	NotEquals any    `json:"not_equals,omitempty" yaml:"not_equals,omitempty" mapstructure:"not_equals"`
	Empty     bool   `json:"empty,omitempty" yaml:"empty,omitempty" mapstructure:"empty"`
	Action    string `json:"action,omitempty" yaml:"action,omitempty" mapstructure:"action"`
}

// Edge is an explicit dependency between two controls, for rules that do
// not fit on the target control.
type Edge struct {
	From   string `json:"from" yaml:"from" mapstructure:"from"`
	To     string `json:"to" yaml:"to" mapstructure:"to"`
	Effect string `json:"effect" yaml:"effect" mapstructure:"effect"`
	When   string `json:"when,omitempty" yaml:"when,omitempty" mapstructure:"when"`
	Derive string `json:"derive,omitempty" yaml:"derive,omitempty" mapstructure:"derive"`
}

// Walk visits every control depth-first with its dotted path and the index
// of its step.
func (d *Definition) Walk(fn func(path string, step int, c *Control)) {
	var walk func(prefix string, step int, cs []Control)
	walk = func(prefix string, step int, cs []Control) {
		for i := range cs {
			c := &cs[i]
			path := c.Name
			if prefix != "" {
				path = prefix + "." + c.Name
			}
			fn(path, step, c)
			walk(path, step, c.Controls)
		}
	}
	for i := range d.Steps {
		walk("", i, d.Steps[i].Controls)
	}
}
