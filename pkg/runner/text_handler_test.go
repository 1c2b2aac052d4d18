package runner

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepform/pkg/domain"
)

func frameWith(ins ...domain.DrawInstruction) *domain.FrameDiff {
	return &domain.FrameDiff{
		Full:         true,
		Header:       &domain.FrameHeader{Form: "f", StepID: "one", StepCount: 1, Phase: domain.PhaseActive},
		Instructions: ins,
	}
}

func TestTextHandler_Draw(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(outBuf, WithTextHandlerRenderer(func(s string) (string, error) {
		return "Rendered: " + s, nil
	}))

	diff := frameWith(domain.DrawInstruction{Path: "name", Label: "Name", Kind: domain.KindText, Visible: true, Enabled: true, Focused: true, RenderedText: "ada"})
	diff.Header.StepDescription = "Hello World"
	require.NoError(t, handler.Draw(context.Background(), diff))

	assert.Contains(t, outBuf.String(), "Rendered: Hello World")
	assert.Contains(t, outBuf.String(), "> Name: ada")

	outBuf.Reset()
	require.NoError(t, handler.Draw(context.Background(), nil))
	assert.Empty(t, outBuf.String(), "nil diffs draw nothing")
}

func TestTextHandler_Next(t *testing.T) {
	ctx := context.Background()
	pets := []domain.OptionView{{Value: "cat"}, {Value: "dog"}}

	tests := []struct {
		name  string
		focus domain.DrawInstruction
		line  string
		want  []domain.Event
	}{
		{
			name:  "Text Answer",
			focus: domain.DrawInstruction{Path: "name", Kind: domain.KindText},
			line:  "ada lovelace",
			want:  []domain.Event{domain.SelectionChange("name", "ada lovelace"), domain.KeyPress(domain.KeyTab)},
		},
		{
			name:  "Empty Line Moves On",
			focus: domain.DrawInstruction{Path: "name", Kind: domain.KindText},
			line:  "",
			want:  []domain.Event{domain.KeyPress(domain.KeyTab)},
		},
		{
			name:  "Select By Index",
			focus: domain.DrawInstruction{Path: "pet", Kind: domain.KindSingleSelect, Options: pets},
			line:  "2",
			want:  []domain.Event{domain.SelectionChange("pet", "dog"), domain.KeyPress(domain.KeyTab)},
		},
		{
			name:  "Multi Select Mixed",
			focus: domain.DrawInstruction{Path: "pets", Kind: domain.KindMultiSelect, Options: pets},
			line:  "1, dog",
			want:  []domain.Event{domain.SelectionChange("pets", []string{"cat", "dog"}), domain.KeyPress(domain.KeyTab)},
		},
		{
			name:  "Boolean",
			focus: domain.DrawInstruction{Path: "ok", Kind: domain.KindBoolean},
			line:  "Yes",
			want:  []domain.Event{domain.SelectionChange("ok", true), domain.KeyPress(domain.KeyTab)},
		},
		{
			name:  "Command",
			focus: domain.DrawInstruction{Path: "ok", Kind: domain.KindBoolean},
			line:  ":back",
			want:  []domain.Event{{Type: domain.EventRetreat}},
		},
		{
			name:  "Focus Command",
			focus: domain.DrawInstruction{Path: "ok", Kind: domain.KindBoolean},
			line:  ":focus address.city",
			want:  []domain.Event{{Type: domain.EventFocus, Control: "address.city"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTextHandler(&bytes.Buffer{})
			tt.focus.Focused = true
			tt.focus.Visible = true
			require.NoError(t, handler.Draw(ctx, frameWith(tt.focus)))

			go handler.FeedInput(tt.line+"\n", nil)
			for _, want := range tt.want {
				got, err := handler.Next(ctx)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestTextHandler_GuardDropsMoveAfterError(t *testing.T) {
	ctx := context.Background()
	handler := NewTextHandler(&bytes.Buffer{})
	focus := domain.DrawInstruction{ControlID: 0, Path: "name", Kind: domain.KindText, Visible: true, Focused: true}
	require.NoError(t, handler.Draw(ctx, frameWith(focus)))

	go handler.FeedInput("x\n", nil)
	ev, err := handler.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.EventSelectionChange, ev.Type)

	// The session rejected the value.
	focus.Error = "too short"
	require.NoError(t, handler.Draw(ctx, &domain.FrameDiff{Instructions: []domain.DrawInstruction{focus}}))

	go handler.FeedInput(":next\n", nil)
	ev, err = handler.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.EventAdvance, ev.Type, "the queued tab was dropped")
}

func TestTextHandler_AllStepsComplete(t *testing.T) {
	ctx := context.Background()
	handler := NewTextHandler(&bytes.Buffer{})
	require.NoError(t, handler.Draw(ctx, &domain.FrameDiff{Full: true, Header: &domain.FrameHeader{Phase: domain.PhaseAllStepsComplete}}))

	go handler.FeedInput("\n", nil)
	ev, err := handler.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmitRequested(), ev)

	go handler.FeedInput("no\n", nil)
	ev, err = handler.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.EventRetreat, ev.Type)
}

func TestTextHandler_RejectsOversizedInput(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "4")
	ctx := context.Background()
	out := &bytes.Buffer{}
	handler := NewTextHandler(out)

	go func() {
		handler.FeedInput("way too long\n", nil)
		handler.FeedInput("ok\n", nil)
	}()
	line, err := handler.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", line)
	assert.Contains(t, out.String(), "Please try again")
}

func TestTextHandler_ContextCancel(t *testing.T) {
	handler := NewTextHandler(&bytes.Buffer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := handler.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
