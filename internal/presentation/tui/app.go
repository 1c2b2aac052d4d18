package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
	"github.com/aretw0/stepform/pkg/runner"
)

// App is a bubbletea model that drives one form session from raw key
// presses. Every key becomes a domain event handled by the session; the
// resulting diff is applied to the frame the view draws.
type App struct {
	ctx        context.Context
	session    *runner.Session
	frame      *domain.Frame
	keys       keyMap
	help       help.Model
	styles     styles
	markdown   runner.ContentRenderer
	rendered   map[string]string
	checkpoint func(context.Context, *form.Form) error
	in         io.Reader
	out        io.Writer
	width      int
	err        error
}

// AppOption configures an App.
type AppOption func(*App)

// WithMarkdown renders step descriptions through r.
func WithMarkdown(r runner.ContentRenderer) AppOption {
	return func(a *App) {
		a.markdown = r
	}
}

// WithCheckpoint calls fn after every handled event, typically to persist
// the session.
func WithCheckpoint(fn func(context.Context, *form.Form) error) AppOption {
	return func(a *App) {
		a.checkpoint = fn
	}
}

// WithIO replaces the terminal streams.
func WithIO(in io.Reader, out io.Writer) AppOption {
	return func(a *App) {
		a.in = in
		a.out = out
	}
}

// NewApp creates the model for s.
func NewApp(ctx context.Context, s *runner.Session, opts ...AppOption) *App {
	a := &App{
		ctx:      ctx,
		session:  s,
		keys:     defaultKeys(),
		help:     help.New(),
		styles:   defaultStyles(),
		rendered: map[string]string{},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.frame = s.Frame().Apply(nil)
	return a
}

func (a *App) Init() tea.Cmd { return nil }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.help.Width = msg.Width
	case tea.KeyMsg:
		ev, ok := a.keys.translate(msg)
		if !ok {
			return a, nil
		}
		return a, a.handle(ev)
	}
	return a, nil
}

func (a *App) handle(ev domain.Event) tea.Cmd {
	diff, err := a.session.Handle(a.ctx, ev)
	if err != nil && !runner.Recoverable(err) {
		a.err = err
		return tea.Quit
	}
	a.frame = diff.Apply(a.frame)
	if a.checkpoint != nil {
		if err := a.checkpoint(a.ctx, a.session.Form()); err != nil {
			a.err = fmt.Errorf("critical persistence error: %w", err)
			return tea.Quit
		}
	}
	if a.session.Done() {
		return tea.Quit
	}
	return nil
}

// Frame returns the frame the view currently shows.
func (a *App) Frame() *domain.Frame { return a.frame }

// Err returns the error that stopped the app, if any.
func (a *App) Err() error { return a.err }

// Run starts the program and blocks until the form is submitted or
// cancelled, or ctx ends. It returns the result, nil when cancelled.
func Run(ctx context.Context, s *runner.Session, opts ...AppOption) (*domain.Result, error) {
	app := NewApp(ctx, s, opts...)
	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if app.in != nil {
		progOpts = append(progOpts, tea.WithInput(app.in))
	}
	if app.out != nil {
		progOpts = append(progOpts, tea.WithOutput(app.out))
	}

	if _, err := tea.NewProgram(app, progOpts...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if app.err != nil {
		return nil, app.err
	}
	return s.Result(), nil
}
