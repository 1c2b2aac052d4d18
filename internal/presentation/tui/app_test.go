package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/dsl"
	"github.com/aretw0/stepform/pkg/form"
	"github.com/aretw0/stepform/pkg/runner"
)

func newSession(t *testing.T) *runner.Session {
	t.Helper()
	b := dsl.New("profile")
	account := b.Step("account").Title("Account").Description("Tell us **who** you are.")
	account.Text("name").Label("Name").Required().Length(3, 0).Placeholder("your name")
	prefs := b.Step("prefs")
	prefs.Select("color", "red", "green").Label("Color")
	prefs.Bool("ok").Label("OK")
	bp, err := b.Build()
	require.NoError(t, err)
	return runner.NewSession(bp.NewForm(context.Background()))
}

func press(t *testing.T, a *App, msgs ...tea.KeyMsg) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var m tea.Model
		m, cmd = a.Update(msg)
		require.Same(t, a, m)
	}
	return cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func keyMsg(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestTranslate(t *testing.T) {
	k := defaultKeys()
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want domain.Event
		ok   bool
	}{
		{"Runes", runes("ab"), domain.TypeText("ab"), true},
		{"Space Rune", runes(" "), domain.KeyPress(domain.KeySpace), true},
		{"Space Key", keyMsg(tea.KeySpace), domain.KeyPress(domain.KeySpace), true},
		{"Pasted Space", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(" "), Paste: true}, domain.TypeText(" "), true},
		{"Enter", keyMsg(tea.KeyEnter), domain.KeyPress(domain.KeyEnter), true},
		{"Esc", keyMsg(tea.KeyEsc), domain.KeyPress(domain.KeyEsc), true},
		{"Ctrl+C Cancels", keyMsg(tea.KeyCtrlC), domain.CancelRequested(), true},
		{"Ctrl+S Submits", keyMsg(tea.KeyCtrlS), domain.SubmitRequested(), true},
		{"Unmapped", keyMsg(tea.KeyF5), domain.Event{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := k.translate(tt.msg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApp_FillAndSubmit(t *testing.T) {
	s := newSession(t)
	saves := 0
	a := NewApp(context.Background(), s, WithCheckpoint(func(context.Context, *form.Form) error {
		saves++
		return nil
	}))

	view := a.View()
	assert.Contains(t, view, "Account")
	assert.Contains(t, view, "1/2")
	assert.Contains(t, view, "Name*:")

	press(t, a, runes("ad"))
	assert.Contains(t, a.View(), "at least", "short names show the length error")

	press(t, a, runes("a"), keyMsg(tea.KeyEnter))
	assert.Equal(t, "prefs", a.Frame().Header.StepID)
	assert.Contains(t, a.View(), "( ) green")

	press(t, a, keyMsg(tea.KeyDown), keyMsg(tea.KeyEnter), runes("y"), keyMsg(tea.KeyEnter))
	assert.Equal(t, domain.PhaseAllStepsComplete, a.Frame().Header.Phase)
	assert.Contains(t, a.View(), "All steps complete")

	cmd := press(t, a, keyMsg(tea.KeyEnter))
	assert.True(t, isQuit(cmd))
	require.NotNil(t, s.Result())
	got := s.Result().ByPath()
	assert.Equal(t, "ada", got["name"])
	assert.Equal(t, "green", got["color"])
	assert.Equal(t, true, got["ok"])
	assert.Equal(t, "Submitted.\n", a.View())
	assert.Equal(t, 8, saves)
}

func TestApp_NoticeAndCancel(t *testing.T) {
	a := NewApp(context.Background(), newSession(t))

	press(t, a, keyMsg(tea.KeyEsc))
	assert.Contains(t, a.View(), "Already at the first step.")

	press(t, a, keyMsg(tea.KeyTab))
	assert.Contains(t, a.View(), "Step incomplete")

	cmd := press(t, a, keyMsg(tea.KeyCtrlC))
	assert.True(t, isQuit(cmd))
	assert.Equal(t, domain.PhaseCancelled, a.Frame().Header.Phase)
	assert.NoError(t, a.Err())
}

func TestApp_MarkdownRenderedOnce(t *testing.T) {
	calls := 0
	a := NewApp(context.Background(), newSession(t), WithMarkdown(func(md string) (string, error) {
		calls++
		return strings.ToUpper(md), nil
	}))
	assert.Contains(t, a.View(), "TELL US **WHO** YOU ARE.")
	a.View()
	assert.Equal(t, 1, calls)
}

func TestApp_CheckpointFailureStops(t *testing.T) {
	a := NewApp(context.Background(), newSession(t), WithCheckpoint(func(context.Context, *form.Form) error {
		return assert.AnError
	}))
	cmd := press(t, a, runes("x"))
	assert.True(t, isQuit(cmd))
	assert.ErrorIs(t, a.Err(), assert.AnError)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3\n")
	out := buf.String()
	assert.Contains(t, out, "|___/")
	assert.Contains(t, out, "v1.2.3")
	assert.NotContains(t, out, "\x1b[", "plain output when not a terminal")
}
