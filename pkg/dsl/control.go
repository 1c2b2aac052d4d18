package dsl

import "github.com/aretw0/stepform/pkg/definition"

// ControlBuilder provides a fluent API for configuring a control.
type ControlBuilder struct {
	ctl      definition.Control
	children []*ControlBuilder
}

// Label sets the display label. It defaults to the name.
func (c *ControlBuilder) Label(label string) *ControlBuilder {
	c.ctl.Label = label
	return c
}

// Help sets the help line shown while the control has focus.
func (c *ControlBuilder) Help(text string) *ControlBuilder {
	c.ctl.Help = text
	return c
}

// Placeholder sets the text shown while a text control is empty.
func (c *ControlBuilder) Placeholder(text string) *ControlBuilder {
	c.ctl.Placeholder = text
	return c
}

// Required marks the control as required.
func (c *ControlBuilder) Required() *ControlBuilder {
	c.ctl.Required = true
	return c
}

// Default sets the initial value.
func (c *ControlBuilder) Default(v any) *ControlBuilder {
	c.ctl.Default = v
	return c
}

// Length bounds a text value, in runes. Zero means unbounded.
func (c *ControlBuilder) Length(min, max int) *ControlBuilder {
	c.ctl.MinLength = min
	c.ctl.MaxLength = max
	return c
}

// Pattern requires text values to match a regular expression.
func (c *ControlBuilder) Pattern(re string) *ControlBuilder {
	c.ctl.Pattern = re
	return c
}

// Lowercase lowercases text before validation.
func (c *ControlBuilder) Lowercase() *ControlBuilder {
	c.ctl.Lowercase = true
	return c
}

// Multiline accepts several lines, each at most maxLine runes (0: no limit).
func (c *ControlBuilder) Multiline(maxLine int) *ControlBuilder {
	c.ctl.Multiline = true
	c.ctl.MaxLineLength = maxLine
	return c
}

// Options appends options without descriptions.
func (c *ControlBuilder) Options(values ...string) *ControlBuilder {
	for _, v := range values {
		c.ctl.Options = append(c.ctl.Options, definition.Option{Value: v})
	}
	return c
}

// Option appends an option with a description.
func (c *ControlBuilder) Option(value, description string) *ControlBuilder {
	c.ctl.Options = append(c.ctl.Options, definition.Option{Value: value, Description: description})
	return c
}

// Selected bounds the number of picked options of a multi-select.
func (c *ControlBuilder) Selected(min, max int) *ControlBuilder {
	c.ctl.MinSelected = min
	c.ctl.MaxSelected = max
	return c
}

// OmitIfFalse leaves a false boolean out of the text result.
func (c *ControlBuilder) OmitIfFalse() *ControlBuilder {
	c.ctl.OmitIfFalse = true
	return c
}

// VisibleIf shows the control while expr holds.
func (c *ControlBuilder) VisibleIf(expr string) *ControlBuilder {
	c.ctl.VisibleIf = expr
	return c
}

// EnabledIf enables the control while expr holds.
func (c *ControlBuilder) EnabledIf(expr string) *ControlBuilder {
	c.ctl.EnabledIf = expr
	return c
}

// ShowWhen shows the control while control equals value.
func (c *ControlBuilder) ShowWhen(control string, value any) *ControlBuilder {
	c.ctl.VisibleWhen = &definition.When{Control: control, Equals: value}
	return c
}

// HideWhen hides the control while control equals value.
func (c *ControlBuilder) HideWhen(control string, value any) *ControlBuilder {
	c.ctl.VisibleWhen = &definition.When{Control: control, Equals: value, Action: "hide"}
	return c
}

// EnableWhen enables the control while control equals value.
func (c *ControlBuilder) EnableWhen(control string, value any) *ControlBuilder {
	c.ctl.EnabledWhen = &definition.When{Control: control, Equals: value}
	return c
}

// Derive computes the value from other controls.
func (c *ControlBuilder) Derive(expr string) *ControlBuilder {
	c.ctl.Derive = expr
	return c
}

// DependsOn lists the sources of the control's rules explicitly.
func (c *ControlBuilder) DependsOn(paths ...string) *ControlBuilder {
	c.ctl.DependsOn = append(c.ctl.DependsOn, paths...)
	return c
}

// Text adds a text child to a group.
func (c *ControlBuilder) Text(name string) *ControlBuilder {
	return c.child(name, "text")
}

// Select adds a single-select child to a group.
func (c *ControlBuilder) Select(name string, options ...string) *ControlBuilder {
	return c.child(name, "single_select").Options(options...)
}

// Bool adds a boolean child to a group.
func (c *ControlBuilder) Bool(name string) *ControlBuilder {
	return c.child(name, "boolean")
}

// Pairs adds a key/value child to a group.
func (c *ControlBuilder) Pairs(name string) *ControlBuilder {
	return c.child(name, "key_value")
}

// Entries bounds the number of pairs of a key/value control. Zero means
// unbounded.
func (c *ControlBuilder) Entries(min, max int) *ControlBuilder {
	c.ctl.MinEntries = min
	c.ctl.MaxEntries = max
	return c
}

// Group adds a nested group.
func (c *ControlBuilder) Group(name string) *ControlBuilder {
	return c.child(name, "group")
}

func (c *ControlBuilder) child(name, kind string) *ControlBuilder {
	cb := &ControlBuilder{ctl: definition.Control{Name: name, Kind: kind}}
	c.children = append(c.children, cb)
	return cb
}

// Build returns the underlying definition.Control, children included.
func (c *ControlBuilder) Build() definition.Control {
	ctl := c.ctl
	ctl.Options = append([]definition.Option(nil), c.ctl.Options...)
	ctl.Controls = buildControls(c.children)
	return ctl
}

func buildControls(cbs []*ControlBuilder) []definition.Control {
	if len(cbs) == 0 {
		return nil
	}
	out := make([]definition.Control, 0, len(cbs))
	for _, cb := range cbs {
		out = append(out, cb.Build())
	}
	return out
}
