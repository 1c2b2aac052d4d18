package runner

import (
	"context"
	"strings"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
	"github.com/aretw0/stepform/pkg/schema"
)

// key applies a key press to the focused control.
//
// Esc retreats. Enter and Tab move to the next control, or advance from the
// last one; in a multiline text Enter inserts a newline instead. Key/value
// controls are typed as "key=value; key=value". Once every step is complete
// Enter submits.
func (s *Session) key(ctx context.Context, k domain.Key, full *bool) error {
	f := s.form
	if k.Code == domain.KeyEsc {
		*full = true
		return f.Retreat(ctx)
	}
	if f.Phase() == domain.PhaseAllStepsComplete {
		if k.Code == domain.KeyEnter {
			return s.submit(ctx)
		}
		return nil
	}

	c, ok := f.Blueprint().Control(f.Focus())
	if !ok {
		if k.Code == domain.KeyEnter || k.Code == domain.KeyTab {
			return f.Advance(ctx)
		}
		return nil
	}

	switch k.Code {
	case domain.KeyTab:
		return s.forward(ctx)
	case domain.KeyShiftTab:
		f.FocusPrev()
		return nil
	}

	switch c.Kind {
	case domain.KindText, domain.KindKeyValue:
		return s.textKey(ctx, c, k)
	case domain.KindSingleSelect, domain.KindMultiSelect:
		return s.selectKey(ctx, c, k)
	case domain.KindBoolean:
		return s.boolKey(ctx, c, k)
	}
	return nil
}

func (s *Session) forward(ctx context.Context) error {
	if s.form.IsLastFocus() {
		return s.form.Advance(ctx)
	}
	s.form.FocusNext()
	return nil
}

func (s *Session) textKey(ctx context.Context, c *form.Control, k domain.Key) error {
	d := s.editDraft(c)
	switch k.Code {
	case domain.KeyRune:
		text, err := SanitizeInput(k.Text)
		if err != nil {
			return err
		}
		d.insert([]rune(text)...)
	case domain.KeySpace:
		d.insert(' ')
	case domain.KeyEnter:
		if !c.Multiline {
			return s.forward(ctx)
		}
		d.insert('\n')
	case domain.KeyBackspace:
		if d.cursor == 0 {
			return nil
		}
		d.text = append(d.text[:d.cursor-1], d.text[d.cursor:]...)
		d.cursor--
	case domain.KeyDelete:
		if d.cursor >= len(d.text) {
			return nil
		}
		d.text = append(d.text[:d.cursor], d.text[d.cursor+1:]...)
	case domain.KeyLeft:
		if d.cursor > 0 {
			d.cursor--
		}
		return nil
	case domain.KeyRight:
		if d.cursor < len(d.text) {
			d.cursor++
		}
		return nil
	case domain.KeyHome:
		d.cursor = 0
		return nil
	case domain.KeyEnd:
		d.cursor = len(d.text)
		return nil
	case domain.KeyUp:
		s.form.FocusPrev()
		return nil
	case domain.KeyDown:
		s.form.FocusNext()
		return nil
	default:
		return nil
	}
	return s.form.Edit(ctx, c.ID, string(d.text))
}

// editDraft returns the draft of c, starting one from the stored value.
func (s *Session) editDraft(c *form.Control) *draft {
	if s.draft == nil || s.draft.id != c.ID {
		text := []rune(c.RenderText(s.form.Store().Value(c.ID)))
		s.draft = &draft{id: c.ID, text: text, cursor: len(text)}
	}
	return s.draft
}

func (d *draft) insert(r ...rune) {
	tail := append([]rune(nil), d.text[d.cursor:]...)
	d.text = append(append(d.text[:d.cursor], r...), tail...)
	d.cursor += len(r)
}

// selectKey moves the highlight with Up and Down, wrapping around. Space
// picks (single) or toggles (multi) the highlighted option; Enter picks it
// too on a single select before moving on.
func (s *Session) selectKey(ctx context.Context, c *form.Control, k domain.Key) error {
	n := len(c.Choices)
	if n == 0 {
		return nil
	}
	hi := s.highlight[c.ID]
	switch k.Code {
	case domain.KeyUp, domain.KeyLeft:
		s.highlight[c.ID] = (hi - 1 + n) % n
	case domain.KeyDown, domain.KeyRight:
		s.highlight[c.ID] = (hi + 1) % n
	case domain.KeyHome:
		s.highlight[c.ID] = 0
	case domain.KeyEnd:
		s.highlight[c.ID] = n - 1
	case domain.KeyRune:
		// Type-ahead: jump to the next option starting with the typed text.
		prefix := strings.ToLower(k.Text)
		for i := 1; i <= n; i++ {
			j := (hi + i) % n
			if strings.HasPrefix(strings.ToLower(c.Choices[j].Value), prefix) {
				s.highlight[c.ID] = j
				break
			}
		}
	case domain.KeySpace:
		if c.Kind == domain.KindMultiSelect {
			return s.form.Edit(ctx, c.ID, toggle(c, s.form.Store().Value(c.ID), hi))
		}
		return s.form.Edit(ctx, c.ID, c.Choices[hi].Value)
	case domain.KeyEnter:
		if c.Kind == domain.KindSingleSelect {
			if err := s.form.Edit(ctx, c.ID, c.Choices[hi].Value); err != nil {
				return err
			}
		}
		return s.forward(ctx)
	}
	return nil
}

// toggle flips option i in the current selection, keeping option order.
func toggle(c *form.Control, current any, i int) []string {
	picked := map[string]bool{}
	if list, ok := schema.StringList(current); ok {
		for _, v := range list {
			picked[v] = true
		}
	}
	v := c.Choices[i].Value
	picked[v] = !picked[v]

	out := []string{}
	for _, ch := range c.Choices {
		if picked[ch.Value] {
			out = append(out, ch.Value)
		}
	}
	return out
}

func (s *Session) boolKey(ctx context.Context, c *form.Control, k domain.Key) error {
	current, _ := s.form.Store().Value(c.ID).(bool)
	switch k.Code {
	case domain.KeySpace, domain.KeyLeft, domain.KeyRight:
		return s.form.Edit(ctx, c.ID, !current)
	case domain.KeyRune:
		switch strings.ToLower(k.Text) {
		case "y":
			return s.form.Edit(ctx, c.ID, true)
		case "n":
			return s.form.Edit(ctx, c.ID, false)
		}
	case domain.KeyEnter:
		return s.forward(ctx)
	case domain.KeyUp:
		s.form.FocusPrev()
	case domain.KeyDown:
		s.form.FocusNext()
	}
	return nil
}
