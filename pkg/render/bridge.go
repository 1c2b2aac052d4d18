package render

import (
	"unicode/utf8"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
)

// View is the UI-only state a frame depends on besides the form itself:
// text cursors, highlighted options, drafts and a transient notice.
// A draft is text being typed that the store has not accepted yet.
type View struct {
	Cursor    map[domain.ControlID]int
	Highlight map[domain.ControlID]int
	Draft     map[domain.ControlID]string
	Notice    string
}

// Bridge remembers the last emitted frame so it can send diffs.
// A Bridge belongs to one session and is not safe for concurrent use.
type Bridge struct {
	last *domain.Frame
}

// NewBridge returns a bridge that has emitted nothing yet.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Last returns the last emitted frame, or nil.
func (b *Bridge) Last() *domain.Frame { return b.last }

// Reset forgets the last frame; the next diff will be full.
func (b *Bridge) Reset() { b.last = nil }

// Next computes the frame for f and returns the diff against the last one.
// full forces a repaint. It returns nil when nothing changed.
func (b *Bridge) Next(f *form.Form, v View, full bool) *domain.FrameDiff {
	frame := Build(f, v)
	var diff *domain.FrameDiff
	if full {
		diff = domain.FullDiff(frame)
	} else {
		diff = domain.Diff(b.last, frame)
	}
	b.last = frame
	return diff
}

// Build computes the full frame for the current state of f.
func Build(f *form.Form, v View) *domain.Frame {
	steps := f.Blueprint().Steps()
	frame := &domain.Frame{
		Header: domain.FrameHeader{
			Form:      f.Name(),
			StepCount: len(steps),
			StepIndex: f.CurrentIndex(),
			Phase:     f.Phase(),
			Statuses:  f.Statuses(),
			Notice:    v.Notice,
		},
	}
	if f.Phase() != domain.PhaseActive {
		return frame
	}

	st := f.CurrentStep()
	frame.Header.StepID = st.ID
	frame.Header.StepTitle = st.Title
	frame.Header.StepDescription = st.Description

	store := f.Store()
	for _, id := range st.Members() {
		c, _ := f.Blueprint().Control(id)
		state := store.State(id)
		ins := domain.DrawInstruction{
			ControlID:   id,
			Path:        c.Path,
			Label:       c.Label,
			Kind:        c.Kind,
			Depth:       c.Depth,
			Visible:     state.Visible,
			Enabled:     state.Enabled,
			Required:    c.Required,
			Focused:     f.Focus() == id,
			Error:       state.ValidationError,
			Help:        c.Help,
			Placeholder: c.Placeholder,
		}
		switch c.Kind {
		case domain.KindGroup:
		case domain.KindStatic:
			ins.RenderedText = c.Content()
		default:
			ins.RenderedText = c.RenderText(state.Value)
		}
		typed := c.Kind == domain.KindText || c.Kind == domain.KindKeyValue
		if d, ok := v.Draft[id]; ok && typed {
			ins.RenderedText = d
		}
		if ins.Focused && typed {
			pos, ok := v.Cursor[id]
			if n := utf8.RuneCountInString(ins.RenderedText); !ok || pos > n {
				pos = n
			}
			if pos < 0 {
				pos = 0
			}
			ins.CursorHint = &pos
		}
		if c.Kind == domain.KindSingleSelect || c.Kind == domain.KindMultiSelect {
			ins.Options = options(c, state.Value, v.Highlight, ins.Focused)
		}
		frame.Instructions = append(frame.Instructions, ins)
	}
	return frame
}

func options(c *form.Control, value any, highlight map[domain.ControlID]int, focused bool) []domain.OptionView {
	selected := map[string]bool{}
	switch t := value.(type) {
	case string:
		selected[t] = true
	case []string:
		for _, s := range t {
			selected[s] = true
		}
	}
	hi := -1
	if focused {
		hi = highlight[c.ID]
	}
	out := make([]domain.OptionView, len(c.Choices))
	for i, ch := range c.Choices {
		out[i] = domain.OptionView{
			Value:       ch.Value,
			Description: ch.Description,
			Selected:    selected[ch.Value],
			Highlighted: i == hi,
		}
	}
	return out
}
