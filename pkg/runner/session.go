package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/stepform/internal/logging"
	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
	"github.com/aretw0/stepform/pkg/render"
)

// Session couples a form with the UI state needed to turn input events into
// frame diffs: the render bridge, text drafts, cursors and highlighted
// options. A Session is not safe for concurrent use.
type Session struct {
	form   *form.Form
	bridge *render.Bridge
	logger *slog.Logger

	draft     *draft
	highlight map[domain.ControlID]int
	notice    string
	result    *domain.Result
}

type draft struct {
	id     domain.ControlID
	text   []rune
	cursor int
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger configures the session logger.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// NewSession wraps f. Nothing has been drawn yet: the first diff is full.
func NewSession(f *form.Form, opts ...SessionOption) *Session {
	s := &Session{
		form:      f,
		bridge:    render.NewBridge(),
		logger:    logging.NewNop(),
		highlight: make(map[domain.ControlID]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Form returns the underlying form.
func (s *Session) Form() *form.Form { return s.form }

// Result returns the submitted result, or nil before submission.
func (s *Session) Result() *domain.Result { return s.result }

// Done reports whether the form reached a terminal phase.
func (s *Session) Done() bool { return s.form.Phase().Terminal() }

// View returns the UI state used to build frames.
func (s *Session) View() render.View {
	v := render.View{Highlight: s.highlight, Notice: s.notice}
	if s.draft != nil {
		v.Draft = map[domain.ControlID]string{s.draft.id: string(s.draft.text)}
		v.Cursor = map[domain.ControlID]int{s.draft.id: s.draft.cursor}
	}
	return v
}

// Frame returns the current frame as a full diff, for first paint and for
// clients that lost track of the screen.
func (s *Session) Frame() *domain.FrameDiff {
	return s.bridge.Next(s.form, s.View(), true)
}

// Prime records the current frame as already shown, so the next diff is
// relative to it. Stateless callers use it after restoring a form.
func (s *Session) Prime() {
	s.bridge.Next(s.form, s.View(), true)
}

// Handle processes one event to completion and returns the resulting diff,
// nil when nothing visible changed.
//
// Recoverable failures (navigation refusals, unknown controls) are shown as
// a notice in the header and also returned, so callers can tell them apart
// with errors.As. The diff is valid either way.
func (s *Session) Handle(ctx context.Context, ev domain.Event) (*domain.FrameDiff, error) {
	s.notice = ""
	focus := s.form.Focus()
	step := s.form.CurrentIndex()
	full := false

	err := s.dispatch(ctx, ev, &full)
	if err != nil {
		s.notice = notice(err)
		s.logger.Debug("event refused", "event", ev.Type, "err", err)
	}
	if s.form.Focus() != focus || s.form.CurrentIndex() != step || s.form.Phase().Terminal() {
		s.draft = nil
	}
	return s.bridge.Next(s.form, s.View(), full), err
}

func (s *Session) dispatch(ctx context.Context, ev domain.Event, full *bool) error {
	f := s.form
	switch ev.Type {
	case domain.EventKeyPress:
		if ev.Key == nil {
			return fmt.Errorf("%w: key press without a key", domain.ErrUnknownEvent)
		}
		return s.key(ctx, *ev.Key, full)
	case domain.EventSelectionChange:
		id, err := s.target(ev.Control)
		if err != nil {
			return err
		}
		v, err := SanitizeValue(ev.Value)
		if err != nil {
			return err
		}
		s.draft = nil
		return f.Edit(ctx, id, v)
	case domain.EventSubmitRequested:
		return s.submit(ctx)
	case domain.EventCancelRequested:
		return f.Cancel(ctx)
	case domain.EventAdvance:
		return f.Advance(ctx)
	case domain.EventRetreat:
		*full = true
		return f.Retreat(ctx)
	case domain.EventFocusNext:
		f.FocusNext()
		return nil
	case domain.EventFocusPrev:
		f.FocusPrev()
		return nil
	case domain.EventFocus:
		id, err := s.target(ev.Control)
		if err != nil {
			return err
		}
		return f.FocusOn(id)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownEvent, ev.Type)
	}
}

func (s *Session) submit(ctx context.Context) error {
	res, err := s.form.Submit(ctx)
	if err != nil {
		return err
	}
	s.result = res
	return nil
}

// target resolves an event's control path; empty means the focused control.
func (s *Session) target(path string) (domain.ControlID, error) {
	if path == "" {
		if s.form.Focus() == domain.NoControl {
			return domain.NoControl, fmt.Errorf("%w: nothing is focused", domain.ErrUnknownControl)
		}
		return s.form.Focus(), nil
	}
	id, ok := s.form.Lookup(path)
	if !ok {
		return domain.NoControl, fmt.Errorf("%w: %q", domain.ErrUnknownControl, path)
	}
	return id, nil
}

func notice(err error) string {
	var nav *domain.NavigationError
	if errors.As(err, &nav) {
		switch nav.Code {
		case domain.StepIncomplete:
			if nav.Control != "" {
				return fmt.Sprintf("Step incomplete: check %q.", nav.Control)
			}
			return "Step incomplete."
		case domain.AtFirstStep:
			return "Already at the first step."
		case domain.StepsRemaining:
			return "Complete the remaining steps before submitting."
		case domain.FormClosed:
			return "The form is closed."
		}
	}
	return err.Error()
}
