package domain

import (
	"reflect"
)

// OptionView is one selectable option as presented to a renderer.
type OptionView struct {
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	Selected    bool   `json:"selected"`
	Highlighted bool   `json:"highlighted,omitempty"`
}

// DrawInstruction tells a renderer how one control should look.
// Renderers must be idempotent under repeated identical instructions.
type DrawInstruction struct {
	ControlID    ControlID    `json:"control_id"`
	Path         string       `json:"path"`
	Label        string       `json:"label,omitempty"`
	Kind         Kind         `json:"kind"`
	Depth        int          `json:"depth,omitempty"`
	Visible      bool         `json:"visible"`
	Enabled      bool         `json:"enabled"`
	Required     bool         `json:"required,omitempty"`
	Focused      bool         `json:"focused,omitempty"`
	RenderedText string       `json:"rendered_text"`
	Placeholder  string       `json:"placeholder,omitempty"`
	CursorHint   *int         `json:"cursor_hint,omitempty"`
	Error        string       `json:"error,omitempty"`
	Help         string       `json:"help,omitempty"`
	Options      []OptionView `json:"options,omitempty"`
}

// FrameHeader carries step-level information for the renderer.
type FrameHeader struct {
	Form            string       `json:"form"`
	StepID          string       `json:"step_id"`
	StepTitle       string       `json:"step_title,omitempty"`
	StepDescription string       `json:"step_description,omitempty"`
	StepIndex       int          `json:"step_index"`
	StepCount       int          `json:"step_count"`
	Phase           Phase        `json:"phase"`
	Statuses        []StepStatus `json:"statuses"`
	Notice          string       `json:"notice,omitempty"`
}

// Frame is the full ordered set of draw instructions for the current step.
type Frame struct {
	Header       FrameHeader       `json:"header"`
	Instructions []DrawInstruction `json:"instructions"`
}

// FrameDiff represents the changes between two frames.
// It is designed to be serialized to JSON for partial updates on the client.
type FrameDiff struct {
	// Full means the client must discard what it shows and repaint Instructions.
	Full bool `json:"full"`

	// Header is present only when it changed (always present when Full).
	Header *FrameHeader `json:"header,omitempty"`

	// Instructions holds changed instructions, in frame order.
	Instructions []DrawInstruction `json:"instructions,omitempty"`
}

// Diff calculates the difference between oldFrame and newFrame.
// If oldFrame is nil, or the step changed, it returns a full frame.
func Diff(oldFrame, newFrame *Frame) *FrameDiff {
	if newFrame == nil {
		return nil
	}

	if oldFrame == nil || oldFrame.Header.StepID != newFrame.Header.StepID ||
		len(oldFrame.Instructions) != len(newFrame.Instructions) {
		return FullDiff(newFrame)
	}

	diff := &FrameDiff{}

	// 1. Header
	if !reflect.DeepEqual(oldFrame.Header, newFrame.Header) {
		h := newFrame.Header
		diff.Header = &h
	}

	// 2. Instructions (same step, so the control sequence is identical)
	for i, next := range newFrame.Instructions {
		prev := oldFrame.Instructions[i]
		if prev.ControlID != next.ControlID {
			return FullDiff(newFrame)
		}
		if !reflect.DeepEqual(prev, next) {
			diff.Instructions = append(diff.Instructions, next)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// FullDiff wraps a frame as a full repaint.
func FullDiff(frame *Frame) *FrameDiff {
	h := frame.Header
	return &FrameDiff{
		Full:         true,
		Header:       &h,
		Instructions: append([]DrawInstruction(nil), frame.Instructions...),
	}
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *FrameDiff) IsEmpty() bool {
	return !d.Full && d.Header == nil && len(d.Instructions) == 0
}

// Apply merges the diff into frame and returns the resulting frame.
// Clients holding a local copy can use it to stay in sync.
func (d *FrameDiff) Apply(frame *Frame) *Frame {
	if d == nil {
		return frame
	}
	if d.Full || frame == nil {
		out := &Frame{Instructions: append([]DrawInstruction(nil), d.Instructions...)}
		if d.Header != nil {
			out.Header = *d.Header
		}
		return out
	}
	out := &Frame{Header: frame.Header, Instructions: append([]DrawInstruction(nil), frame.Instructions...)}
	if d.Header != nil {
		out.Header = *d.Header
	}
	for _, changed := range d.Instructions {
		for i := range out.Instructions {
			if out.Instructions[i].ControlID == changed.ControlID {
				out.Instructions[i] = changed
				break
			}
		}
	}
	return out
}
