package cli

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/stepform"
	"github.com/aretw0/stepform/internal/presentation/tui"
	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
	"github.com/aretw0/stepform/pkg/runner"
	"github.com/aretw0/stepform/pkg/session"
)

// WatchSessionID scopes the default watch session to the definition path so
// two projects never share progress.
func WatchSessionID(path string) string {
	hash := md5.Sum([]byte(path))
	return fmt.Sprintf("watch-%x", hash[:4])
}

// RunWatch fills a form in development mode: every change to the
// definitions restarts the session from its last checkpoint.
func RunWatch(opts RunOptions, values map[string]any) error {
	logger := CreateLogger(opts.Debug)
	out := opts.stdout()
	tui.PrintBanner(out, stepform.Version)

	if opts.SessionID == "" {
		opts.SessionID = WatchSessionID(opts.Path)
	}
	mgr, err := NewManager(opts.Store, logger)
	if err != nil {
		return err
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	if opts.Fresh {
		if err := mgr.Delete(sigCtx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
		opts.Fresh = false
	}

	logger.Info("starting watcher", "path", opts.Path, "session_id", opts.SessionID)
	printSystemMessage(out, "Watcher at '%s' session.", opts.SessionID)

	// One handler for every iteration, so stdin has a single reader.
	handler := newHandler(opts, opts.In == nil && interactive())
	w := &watcher{opts: opts, values: values, mgr: mgr, handler: handler, out: out, logger: logger}
	for w.iterate(sigCtx) {
		logger.Info("watcher restarting")
	}
	return nil
}

type watcher struct {
	opts    RunOptions
	values  map[string]any
	mgr     *session.Manager
	handler runner.IOHandler
	out     io.Writer
	logger  *slog.Logger
}

// iterate runs the form once and reports whether the loop should go on.
func (w *watcher) iterate(parent *SignalContext) bool {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	eng, err := createEngine(w.opts.Path, w.opts.Debug, w.logger)
	if err != nil {
		w.logger.Error("engine initialization failed", "err", err)
		select {
		case <-parent.Done():
			return false
		case <-time.After(2 * time.Second):
			return true
		}
	}
	changes, err := eng.Watch(ctx)
	if err != nil {
		w.logger.Warn("hot reload unavailable", "err", err)
	}

	f, resumed, err := w.open(ctx, eng)
	if err != nil {
		w.logger.Error("session start failed", "err", err)
		printSystemMessage(w.out, "Cannot start '%s': %v. Waiting for changes...", w.opts.Path, err)
		return waitForChange(parent, changes)
	}
	if resumed {
		printSystemMessage(w.out, "Resuming at '%s' step...", f.CurrentStep().ID)
	}

	r := runner.NewRunner(runnerOptions(w.opts, w.logger, w.mgr, w.handler)...)
	done := make(chan error, 1)
	go func() {
		_, err := r.Run(ctx, runner.NewSession(f, runner.WithSessionLogger(w.logger)))
		done <- err
	}()

	select {
	case <-parent.Done():
		cancel()
		<-done
		reportOutcome(w.out, f.Phase(), stepOf(f), context.Canceled, parent.Signal())
		return false
	case _, ok := <-changes:
		cancel()
		<-done
		if ok {
			fmt.Fprintln(w.out)
			printSystemMessage(w.out, "Change detected in '%s'.", w.opts.Path)
		}
		return ok
	case err := <-done:
		if err != nil && !isInterrupted(err) {
			w.logger.Error("runtime error", "err", err)
		}
		reportOutcome(w.out, f.Phase(), stepOf(f), handleExecutionError(err), nil)
		if f.Phase().Terminal() {
			// A finished form starts over on the next change.
			if err := w.mgr.Delete(parent, w.opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
				w.logger.Warn("failed to clear finished session", "err", err)
			}
		}
		printSystemMessage(w.out, "Waiting for changes...")
		return waitForChange(parent, changes)
	}
}

// open resumes the watch session. A checkpoint the edited definition can
// no longer load is dropped and the form starts over.
func (w *watcher) open(ctx context.Context, eng *stepform.Engine) (*form.Form, bool, error) {
	f, resumed, err := openForm(ctx, eng, w.mgr, w.opts, w.values)
	if err == nil {
		return f, resumed, nil
	}
	if errors.Is(err, domain.ErrDefinitionNotFound) {
		return nil, false, err
	}
	w.logger.Warn("discarding stale session", "session_id", w.opts.SessionID, "err", err)
	if derr := w.mgr.Delete(ctx, w.opts.SessionID); derr != nil && !errors.Is(derr, domain.ErrSessionNotFound) {
		return nil, false, derr
	}
	return openForm(ctx, eng, w.mgr, w.opts, w.values)
}

func waitForChange(parent *SignalContext, changes <-chan struct{}) bool {
	if changes == nil {
		<-parent.Done()
		return false
	}
	select {
	case <-parent.Done():
		return false
	case _, ok := <-changes:
		return ok
	}
}
