package dsl

import "github.com/aretw0/stepform/pkg/definition"

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step     definition.Step
	controls []*ControlBuilder
}

// Title sets the step title.
func (s *StepBuilder) Title(title string) *StepBuilder {
	s.step.Title = title
	return s
}

// Description sets the step description. Markdown is rendered by the TUI.
func (s *StepBuilder) Description(text string) *StepBuilder {
	s.step.Description = text
	return s
}

// SkipIf passes over the step while expr holds.
func (s *StepBuilder) SkipIf(expr string) *StepBuilder {
	s.step.SkipIf = expr
	return s
}

// CompleteIf replaces the default completion rule.
func (s *StepBuilder) CompleteIf(expr string) *StepBuilder {
	s.step.CompleteIf = expr
	return s
}

// Text adds a text control.
func (s *StepBuilder) Text(name string) *ControlBuilder {
	return s.add(name, "text")
}

// Select adds a single-select control with the given options.
func (s *StepBuilder) Select(name string, options ...string) *ControlBuilder {
	return s.add(name, "single_select").Options(options...)
}

// MultiSelect adds a multi-select control with the given options.
func (s *StepBuilder) MultiSelect(name string, options ...string) *ControlBuilder {
	return s.add(name, "multi_select").Options(options...)
}

// Bool adds a yes/no control.
func (s *StepBuilder) Bool(name string) *ControlBuilder {
	return s.add(name, "boolean")
}

// Note adds static text. Conditions on it show or hide the text.
func (s *StepBuilder) Note(name, text string) *ControlBuilder {
	cb := s.add(name, "static")
	cb.ctl.Text = text
	return cb
}

// Pairs adds a key/value control.
func (s *StepBuilder) Pairs(name string) *ControlBuilder {
	return s.add(name, "key_value")
}

// Group adds a group control. Add its children through the returned builder.
func (s *StepBuilder) Group(name string) *ControlBuilder {
	return s.add(name, "group")
}

func (s *StepBuilder) add(name, kind string) *ControlBuilder {
	cb := &ControlBuilder{ctl: definition.Control{Name: name, Kind: kind}}
	s.controls = append(s.controls, cb)
	return cb
}

func (s *StepBuilder) build() definition.Step {
	st := s.step
	st.Controls = buildControls(s.controls)
	return st
}
