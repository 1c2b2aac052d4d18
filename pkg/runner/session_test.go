package runner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/runner"
)

func typeText(t *testing.T, s *runner.Session, text string) *domain.FrameDiff {
	t.Helper()
	var diff *domain.FrameDiff
	for _, r := range text {
		d, err := s.Handle(context.Background(), domain.TypeText(string(r)))
		require.NoError(t, err)
		if d != nil {
			diff = d
		}
	}
	return diff
}

func value(s *runner.Session, path string) any {
	v, _ := s.Form().Store().Get(path)
	return v
}

func TestSession_FirstFrameIsFull(t *testing.T) {
	s := runner.NewSession(newForm(t))
	diff := s.Frame()
	require.NotNil(t, diff)
	assert.True(t, diff.Full)
	assert.Equal(t, "account", diff.Header.StepID)
	require.Len(t, diff.Instructions, 2)
	assert.True(t, diff.Instructions[0].Focused)
}

func TestSession_TypingKeepsDraft(t *testing.T) {
	s := runner.NewSession(newForm(t))
	s.Frame()

	diff := typeText(t, s, "ab")
	require.NotNil(t, diff)
	require.Len(t, diff.Instructions, 1)
	ins := diff.Instructions[0]
	assert.Equal(t, "ab", ins.RenderedText, "the draft is shown even though it is invalid")
	assert.NotEmpty(t, ins.Error)
	assert.Equal(t, 2, *ins.CursorHint)
	assert.Nil(t, value(s, "name"))

	typeText(t, s, "c")
	assert.Equal(t, "abc", value(s, "name"))

	ctx := context.Background()
	_, err := s.Handle(ctx, domain.KeyPress(domain.KeyLeft))
	require.NoError(t, err)
	_, err = s.Handle(ctx, domain.KeyPress(domain.KeyBackspace))
	require.NoError(t, err)
	typeText(t, s, "xy")
	assert.Equal(t, "axyc", value(s, "name"))

	_, err = s.Handle(ctx, domain.KeyPress(domain.KeyHome))
	require.NoError(t, err)
	_, err = s.Handle(ctx, domain.KeyPress(domain.KeyDelete))
	require.NoError(t, err)
	assert.Equal(t, "xyc", value(s, "name"))
	assert.Equal(t, 0, *s.Frame().Instructions[0].CursorHint)
}

func TestSession_EnterMovesFocusThenAdvances(t *testing.T) {
	s := runner.NewSession(newForm(t))
	s.Frame()
	ctx := context.Background()

	// Incomplete step: Enter on the last control is refused with a notice.
	_, err := s.Handle(ctx, domain.KeyPress(domain.KeyEnter))
	require.NoError(t, err)
	diff, err := s.Handle(ctx, domain.KeyPress(domain.KeyEnter))
	assert.ErrorIs(t, err, domain.ErrStepIncomplete)
	assert.True(t, runner.Recoverable(err))
	require.NotNil(t, diff)
	require.NotNil(t, diff.Header)
	assert.Contains(t, diff.Header.Notice, "Step incomplete")

	_, err = s.Handle(ctx, domain.SelectionChange("name", "ada"))
	require.NoError(t, err)
	diff, err = s.Handle(ctx, domain.KeyPress(domain.KeyEnter))
	require.NoError(t, err)
	require.NotNil(t, diff)
	assert.True(t, diff.Full, "step change repaints")
	assert.Equal(t, "prefs", diff.Header.StepID)
	assert.Empty(t, diff.Header.Notice, "notices last one event")
}

func TestSession_SelectKeys(t *testing.T) {
	f := newForm(t)
	ctx := context.Background()
	require.NoError(t, f.EditPath(ctx, "name", "ada"))
	require.NoError(t, f.Advance(ctx))
	s := runner.NewSession(f)
	s.Frame()

	press := func(code domain.KeyCode) {
		t.Helper()
		_, err := s.Handle(ctx, domain.KeyPress(code))
		require.NoError(t, err)
	}

	// Up from the first option wraps to the last.
	press(domain.KeyUp)
	frame := s.Frame()
	assert.True(t, frame.Instructions[0].Options[2].Highlighted)
	press(domain.KeyDown)
	press(domain.KeyDown)
	press(domain.KeySpace)
	assert.Equal(t, "green", value(s, "color"))

	_, err := s.Handle(ctx, domain.TypeText("b"))
	require.NoError(t, err)
	press(domain.KeyEnter)
	assert.Equal(t, "blue", value(s, "color"), "enter picks the highlighted option")

	// Focus is now on tags.
	press(domain.KeySpace)
	press(domain.KeyDown)
	press(domain.KeyDown)
	press(domain.KeySpace)
	assert.Equal(t, []string{"a", "c"}, value(s, "tags"))

	press(domain.KeyUp)
	press(domain.KeySpace)
	state := s.Form().State(mustLookup(t, s, "tags"))
	assert.NotEmpty(t, state.ValidationError, "a third pick exceeds the maximum")
	assert.Equal(t, []string{"a", "c"}, value(s, "tags"))

	press(domain.KeyDown)
	press(domain.KeySpace)
	assert.Equal(t, []string{"a"}, value(s, "tags"), "space toggles off")
}

func TestSession_BooleanAndSubmit(t *testing.T) {
	f := newForm(t)
	ctx := context.Background()
	require.NoError(t, f.EditPath(ctx, "name", "ada"))
	require.NoError(t, f.Advance(ctx))
	s := runner.NewSession(f)
	s.Frame()

	_, err := s.Handle(ctx, domain.Event{Type: domain.EventFocus, Control: "ok"})
	require.NoError(t, err)
	_, err = s.Handle(ctx, domain.KeyPress(domain.KeySpace))
	require.NoError(t, err)
	assert.Equal(t, true, value(s, "ok"))
	_, err = s.Handle(ctx, domain.TypeText("n"))
	require.NoError(t, err)
	assert.Equal(t, false, value(s, "ok"))

	diff, err := s.Handle(ctx, domain.KeyPress(domain.KeyEnter))
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseAllStepsComplete, diff.Header.Phase)
	assert.Nil(t, s.Result())

	_, err = s.Handle(ctx, domain.KeyPress(domain.KeyEnter))
	require.NoError(t, err)
	require.True(t, s.Done())
	require.NotNil(t, s.Result())
	assert.Equal(t, "ada", s.Result().ByPath()["name"])
}

func TestSession_EscRetreatsWithFullFrame(t *testing.T) {
	f := newForm(t)
	ctx := context.Background()
	require.NoError(t, f.EditPath(ctx, "name", "ada"))
	require.NoError(t, f.Advance(ctx))
	s := runner.NewSession(f)
	s.Frame()

	diff, err := s.Handle(ctx, domain.KeyPress(domain.KeyEsc))
	require.NoError(t, err)
	require.NotNil(t, diff)
	assert.True(t, diff.Full)
	assert.Equal(t, "account", diff.Header.StepID)

	_, err = s.Handle(ctx, domain.KeyPress(domain.KeyEsc))
	assert.ErrorIs(t, err, domain.ErrAtFirstStep)
}

func TestSession_Errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		ev   domain.Event
		want error
	}{
		{"Unknown Control", domain.SelectionChange("nope", "x"), domain.ErrUnknownControl},
		{"Unknown Event", domain.Event{Type: "dance"}, domain.ErrUnknownEvent},
		{"Key Press Without Key", domain.Event{Type: domain.EventKeyPress}, domain.ErrUnknownEvent},
		{"Focus Hidden Path", domain.Event{Type: domain.EventFocus, Control: "color"}, domain.ErrUnknownControl},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := runner.NewSession(newForm(t))
			s.Frame()
			diff, err := s.Handle(ctx, tt.ev)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, runner.Recoverable(err))
			require.NotNil(t, diff)
			assert.NotEmpty(t, diff.Header.Notice)
		})
	}

	assert.False(t, runner.Recoverable(errors.New("disk on fire")))
}

func TestSession_CancelClosesTheForm(t *testing.T) {
	s := runner.NewSession(newForm(t))
	s.Frame()
	ctx := context.Background()

	diff, err := s.Handle(ctx, domain.CancelRequested())
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseCancelled, diff.Header.Phase)
	assert.True(t, s.Done())
	assert.Nil(t, s.Result())

	_, err = s.Handle(ctx, domain.SelectionChange("name", "late"))
	assert.ErrorIs(t, err, domain.ErrFormClosed)
}

func mustLookup(t *testing.T, s *runner.Session, path string) domain.ControlID {
	t.Helper()
	id, ok := s.Form().Lookup(path)
	require.True(t, ok)
	return id
}
