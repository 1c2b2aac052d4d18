package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepform/pkg/domain"
)

func TestJSONHandler_Draw(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(buf)

	diff := frameWith(domain.DrawInstruction{Path: "name", Kind: domain.KindText, Visible: true, RenderedText: "ada"})
	require.NoError(t, handler.Draw(context.Background(), diff))
	require.NoError(t, handler.SystemOutput(context.Background(), "hello"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var frame Message
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &frame))
	assert.Equal(t, MessageFrame, frame.Type)
	require.NotNil(t, frame.Diff)
	assert.Equal(t, "ada", frame.Diff.Instructions[0].RenderedText)

	var sys Message
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &sys))
	assert.Equal(t, Message{Type: MessageSystem, Text: "hello"}, sys)
}

func TestJSONHandler_Next(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    domain.Event
		wantErr bool
	}{
		{"Event Object", `{"type":"advance"}`, domain.Event{Type: domain.EventAdvance}, false},
		{"Key Press", `{"type":"key_press","key":{"code":"rune","text":"a"}}`, domain.TypeText("a"), false},
		{"JSON String Answers Focus", `"Hello World"`, domain.SelectionChange("", "Hello World"), false},
		{"Raw Text Answers Focus", `Hello World`, domain.SelectionChange("", "Hello World"), false},
		{"String Array", `["a","b"]`, domain.SelectionChange("", []string{"a", "b"}), false},
		{"Boolean", `true`, domain.SelectionChange("", true), false},
		{"Missing Type", `{"control":"x"}`, domain.Event{}, true},
		{"Broken Object", `{"type":`, domain.Event{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewJSONHandler(&bytes.Buffer{}, WithJSONInput(strings.NewReader("\n"+tt.line+"\n")))
			got, err := handler.Next(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONHandler_ReadLine(t *testing.T) {
	handler := NewJSONHandler(&bytes.Buffer{})
	go handler.FeedInput(`"yes"`+"\n", nil)
	line, err := handler.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "yes", line)
}
