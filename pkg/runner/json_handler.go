package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/stepform/pkg/domain"
)

// Message types written by the JSONHandler, one JSON object per line.
const (
	MessageFrame  = "frame"
	MessageSystem = "system"
	MessageResult = "result"
)

// Message is one line of JSONHandler output.
type Message struct {
	Type    string            `json:"type"`
	Diff    *domain.FrameDiff `json:"diff,omitempty"`
	Text    string            `json:"text,omitempty"`
	Result  *domain.Result    `json:"result,omitempty"`
	Entries map[string]any    `json:"values,omitempty"`
}

// JSONHandler implements IOHandler for structured JSON-Lines communication.
// It writes Messages and reads one domain.Event per line. A bare JSON
// string (or plain text) sets the focused control.
type JSONHandler struct {
	Writer io.Writer

	mu      sync.Mutex
	encoder *json.Encoder
	in      linePump
}

// JSONHandlerOption defines configuration for JSONHandler.
type JSONHandlerOption func(*JSONHandler)

// WithJSONInput reads events from r.
func WithJSONInput(r io.Reader) JSONHandlerOption {
	return func(h *JSONHandler) {
		h.in.source = r
	}
}

// NewJSONHandler creates a handler writing to w.
func NewJSONHandler(w io.Writer, opts ...JSONHandlerOption) *JSONHandler {
	if w == nil {
		w = os.Stdout
	}
	h := &JSONHandler{Writer: w, encoder: json.NewEncoder(w)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FeedInput injects one input line, blocking until it is consumed.
func (h *JSONHandler) FeedInput(text string, err error) {
	h.in.feed(text, err)
}

func (h *JSONHandler) emit(m Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(m)
}

// Draw emits the diff as a frame message.
func (h *JSONHandler) Draw(ctx context.Context, diff *domain.FrameDiff) error {
	if diff == nil {
		return nil
	}
	return h.emit(Message{Type: MessageFrame, Diff: diff})
}

// SystemOutput emits a system message.
func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.emit(Message{Type: MessageSystem, Text: msg})
}

// WriteResult emits the submitted result.
func (h *JSONHandler) WriteResult(ctx context.Context, res *domain.Result) error {
	return h.emit(Message{Type: MessageResult, Result: res, Entries: res.ByPath()})
}

// Next decodes the next event, skipping blank lines.
func (h *JSONHandler) Next(ctx context.Context) (domain.Event, error) {
	for {
		line, err := h.in.read(ctx, h.invalid)
		if err != nil {
			return domain.Event{}, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return DecodeEvent(line)
	}
}

// ReadLine reads one raw line, unquoting a JSON string.
func (h *JSONHandler) ReadLine(ctx context.Context) (string, error) {
	line, err := h.in.read(ctx, h.invalid)
	if err != nil {
		return "", err
	}
	line = strings.TrimSpace(line)
	var s string
	if json.Unmarshal([]byte(line), &s) == nil {
		return s, nil
	}
	return line, nil
}

func (h *JSONHandler) invalid(err error) {
	_ = h.emit(Message{Type: MessageSystem, Text: fmt.Sprintf("invalid input: %v", err)})
}

// DecodeEvent reads one wire event. An object is an Event; any other JSON
// value, or text that is not JSON, answers the focused control.
func DecodeEvent(line string) (domain.Event, error) {
	if strings.HasPrefix(line, "{") {
		var ev domain.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return domain.Event{}, fmt.Errorf("failed to decode event: %w", err)
		}
		if ev.Type == "" {
			return domain.Event{}, fmt.Errorf("%w: missing type", domain.ErrUnknownEvent)
		}
		return ev, nil
	}

	// Fallback: a JSON value or raw text answers the focused control.
	var v any
	if err := json.Unmarshal([]byte(line), &v); err != nil {
		v = line
	}
	return domain.SelectionChange("", normalize(v)), nil
}

// normalize turns decoded JSON arrays of strings into []string.
func normalize(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		s, ok := e.(string)
		if !ok {
			return v
		}
		out = append(out, s)
	}
	return out
}
