package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/aretw0/stepform"
	"github.com/aretw0/stepform/internal/presentation/tui"
	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
	"github.com/aretw0/stepform/pkg/runner"
	"github.com/aretw0/stepform/pkg/session"
)

// RunSession fills one form from the terminal, a pipe or JSON lines.
func RunSession(opts RunOptions, values map[string]any) error {
	logger := CreateLogger(opts.Debug)
	out := opts.stdout()

	if !opts.quiet() {
		tui.PrintBanner(out, stepform.Version)
	}

	eng, err := createEngine(opts.Path, opts.Debug, logger)
	if err != nil {
		return err
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	mgr, err := sessionManager(opts, logger)
	if err != nil {
		return err
	}
	f, resumed, err := openForm(sigCtx, eng, mgr, opts, values)
	if err != nil {
		return fmt.Errorf("failed to init session: %w", err)
	}
	if !opts.quiet() {
		switch {
		case resumed:
			printSystemMessage(out, "Resuming session '%s' at '%s' step...", opts.SessionID, f.CurrentStep().ID)
		case opts.SessionID != "":
			printSystemMessage(out, "Session '%s' active.", opts.SessionID)
		}
	}

	tty := opts.In == nil && interactive()
	var runErr error
	if tty && !opts.Plain && !opts.quiet() {
		runErr = runTUI(sigCtx, f, mgr, out, logger)
	} else {
		r := runner.NewRunner(runnerOptions(opts, logger, mgr, newHandler(opts, tty))...)
		_, runErr = r.Run(sigCtx, runner.NewSession(f, runner.WithSessionLogger(logger)))
	}
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}

	if !opts.quiet() {
		reportOutcome(out, f.Phase(), stepOf(f), runErr, sigCtx.Signal())
	}
	logger.Debug("session finished", "phase", f.Phase())
	return handleExecutionError(runErr)
}

func runTUI(ctx context.Context, f *form.Form, mgr *session.Manager, out io.Writer, logger *slog.Logger) error {
	appOpts := []tui.AppOption{tui.WithMarkdown(tui.NewMarkdownRenderer(80))}
	if mgr != nil {
		appOpts = append(appOpts, tui.WithCheckpoint(mgr.Checkpoint))
	}
	res, err := tui.Run(ctx, runner.NewSession(f, runner.WithSessionLogger(logger)), appOpts...)
	if res != nil {
		fmt.Fprintln(out, strings.TrimRight(res.Text(), "\n"))
	}
	return err
}

func newHandler(opts RunOptions, tty bool) runner.IOHandler {
	if opts.JSON {
		return runner.NewJSONHandler(opts.stdout(), runner.WithJSONInput(opts.stdin()))
	}
	textOpts := []runner.TextHandlerOption{runner.WithInputReader(opts.stdin())}
	if tty {
		textOpts = append(textOpts, runner.WithTextHandlerRenderer(tui.NewMarkdownRenderer(80)))
	}
	return runner.NewTextHandler(opts.stdout(), textOpts...)
}

func runnerOptions(opts RunOptions, logger *slog.Logger, mgr *session.Manager, h runner.IOHandler) []runner.Option {
	ropts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithHeadless(opts.quiet()),
		runner.WithInputHandler(h),
	}
	if mgr != nil {
		ropts = append(ropts, runner.WithManager(mgr))
	}
	return ropts
}

// sessionManager returns nil without a session ID; such runs are not
// persisted.
func sessionManager(opts RunOptions, logger *slog.Logger) (*session.Manager, error) {
	if opts.SessionID == "" {
		return nil, nil
	}
	return NewManager(opts.Store, logger)
}

// openForm resumes or starts the form. A fresh session is prefilled with
// values and saved right away.
func openForm(ctx context.Context, eng *stepform.Engine, mgr *session.Manager, opts RunOptions, values map[string]any) (*form.Form, bool, error) {
	bp, err := eng.Blueprint(ctx, opts.Form)
	if err != nil {
		return nil, false, err
	}
	if mgr == nil {
		f := bp.NewForm(ctx, eng.FormOptions()...)
		return f, false, prefill(ctx, f, values)
	}

	if opts.Fresh {
		if err := mgr.Delete(ctx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, false, err
		}
	}
	f, resumed, err := mgr.LoadOrStart(ctx, opts.SessionID, bp, eng.FormOptions()...)
	if err != nil || resumed {
		return f, resumed, err
	}
	if len(values) == 0 {
		return f, false, nil
	}
	if err := prefill(ctx, f, values); err != nil {
		return nil, false, err
	}
	return f, false, mgr.Checkpoint(ctx, f)
}

func prefill(ctx context.Context, f *form.Form, values map[string]any) error {
	paths := make([]string, 0, len(values))
	for p := range values {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := f.EditPath(ctx, p, values[p]); err != nil {
			return fmt.Errorf("--values %s: %w", p, err)
		}
	}
	return nil
}

func stepOf(f *form.Form) string {
	if f.Phase() != domain.PhaseActive {
		return strings.ReplaceAll(string(f.Phase()), "_", " ")
	}
	return f.CurrentStep().ID
}
