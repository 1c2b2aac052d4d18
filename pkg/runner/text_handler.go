package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/render"
)

// ContentRenderer transforms step descriptions before they are printed.
// This allows Markdown rendering without coupling the core package.
type ContentRenderer func(string) (string, error)

// TextHandler is a line-oriented IOHandler. It prints the whole frame after
// every change and reads one answer per line:
//
//	value        sets the focused control and moves on
//	(empty)      moves on without changing anything
//	:back :next :submit :cancel :focus <path>
//
// Selects accept option values or 1-based indexes; multi-selects take a
// comma-separated list. Booleans accept y/yes/true and n/no/false.
type TextHandler struct {
	Writer   io.Writer
	Renderer ContentRenderer

	in      linePump
	frame   *domain.Frame
	pending []pendingEvent
}

// pendingEvent is queued behind a translated line. When guard is set the
// event is dropped if that control shows an error by the time it is due.
type pendingEvent struct {
	ev    domain.Event
	guard string
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithStdin reads answers from os.Stdin.
func WithStdin() TextHandlerOption {
	return WithInputReader(os.Stdin)
}

// WithInputReader reads answers from r.
func WithInputReader(r io.Reader) TextHandlerOption {
	return func(h *TextHandler) {
		h.in.source = r
	}
}

// WithTextHandlerRenderer configures the description renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler writing to w. Without an input option
// answers must be fed with FeedInput.
func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{Writer: w}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FeedInput injects one answer line, blocking until it is consumed.
func (h *TextHandler) FeedInput(text string, err error) {
	h.in.feed(text, err)
}

// Draw applies the diff and prints the resulting frame.
func (h *TextHandler) Draw(ctx context.Context, diff *domain.FrameDiff) error {
	if diff == nil {
		return nil
	}
	h.frame = diff.Apply(h.frame)

	frame := h.frame
	if h.Renderer != nil && frame.Header.StepDescription != "" {
		if rendered, err := h.Renderer(frame.Header.StepDescription); err == nil {
			copied := *frame
			copied.Header.StepDescription = strings.TrimSpace(rendered)
			frame = &copied
		}
	}
	_, err := fmt.Fprint(h.Writer, "\n"+render.Text(frame))
	return err
}

// Next returns the next event, reading and translating a line when nothing
// is queued.
func (h *TextHandler) Next(ctx context.Context) (domain.Event, error) {
	for {
		for len(h.pending) > 0 {
			p := h.pending[0]
			h.pending = h.pending[1:]
			if p.guard != "" && h.hasError(p.guard) {
				continue
			}
			return p.ev, nil
		}

		if err := ctx.Err(); err != nil {
			return domain.Event{}, err
		}
		fmt.Fprint(h.Writer, "> ")
		line, err := h.in.read(ctx, h.invalid)
		if err != nil {
			return domain.Event{}, err
		}
		h.pending = h.translate(line)
	}
}

// ReadLine reads one raw answer.
func (h *TextHandler) ReadLine(ctx context.Context) (string, error) {
	fmt.Fprint(h.Writer, "? ")
	line, err := h.in.read(ctx, h.invalid)
	return strings.TrimSpace(line), err
}

// SystemOutput prints a meta-message.
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "\n[System] %s\n", msg)
	return err
}

func (h *TextHandler) invalid(err error) {
	fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
}

func (h *TextHandler) translate(line string) []pendingEvent {
	trimmed := strings.TrimSpace(line)
	if ev, ok := command(trimmed); ok {
		return []pendingEvent{{ev: ev}}
	}
	if h.frame != nil && h.frame.Header.Phase == domain.PhaseAllStepsComplete {
		switch strings.ToLower(trimmed) {
		case "", "y", "yes":
			return []pendingEvent{{ev: domain.SubmitRequested()}}
		case "n", "no":
			return []pendingEvent{{ev: domain.Event{Type: domain.EventRetreat}}}
		}
	}

	ins := h.focused()
	if ins == nil || trimmed == "" {
		return []pendingEvent{{ev: domain.KeyPress(domain.KeyTab)}}
	}
	value := parseAnswer(ins, line)
	return []pendingEvent{
		{ev: domain.SelectionChange(ins.Path, value)},
		{ev: domain.KeyPress(domain.KeyTab), guard: ins.Path},
	}
}

func command(s string) (domain.Event, bool) {
	switch {
	case s == ":back" || s == ":b":
		return domain.Event{Type: domain.EventRetreat}, true
	case s == ":next" || s == ":n":
		return domain.Event{Type: domain.EventAdvance}, true
	case s == ":submit":
		return domain.SubmitRequested(), true
	case s == ":cancel" || s == "exit" || s == "quit":
		return domain.CancelRequested(), true
	case s == ":prev":
		return domain.Event{Type: domain.EventFocusPrev}, true
	case strings.HasPrefix(s, ":focus "):
		return domain.Event{Type: domain.EventFocus, Control: strings.TrimSpace(strings.TrimPrefix(s, ":focus "))}, true
	}
	return domain.Event{}, false
}

func (h *TextHandler) focused() *domain.DrawInstruction {
	if h.frame == nil {
		return nil
	}
	for i := range h.frame.Instructions {
		if h.frame.Instructions[i].Focused {
			return &h.frame.Instructions[i]
		}
	}
	return nil
}

func (h *TextHandler) hasError(path string) bool {
	if h.frame == nil {
		return false
	}
	for _, ins := range h.frame.Instructions {
		if ins.Path == path {
			return ins.Error != ""
		}
	}
	return false
}

// parseAnswer converts a typed line into the value shape of the control.
// Unparseable answers are passed through so validation can report them.
func parseAnswer(ins *domain.DrawInstruction, line string) any {
	s := strings.TrimSpace(line)
	switch ins.Kind {
	case domain.KindText:
		return line
	case domain.KindBoolean:
		switch strings.ToLower(s) {
		case "y", "yes", "true", "1":
			return true
		case "n", "no", "false", "0":
			return false
		}
		return s
	case domain.KindSingleSelect:
		return optionValue(ins.Options, s)
	case domain.KindMultiSelect:
		out := []string{}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, optionValue(ins.Options, part))
			}
		}
		return out
	}
	return s
}

func optionValue(opts []domain.OptionView, s string) string {
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(opts) {
		return opts[n-1].Value
	}
	return s
}
