package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/stepform/internal/logging"
	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/session"
)

// ResultWriter is implemented by handlers that present results themselves.
// Other handlers receive the result's text through SystemOutput.
type ResultWriter interface {
	WriteResult(ctx context.Context, res *domain.Result) error
}

// Runner drives a Session from an IOHandler until the form is submitted,
// cancelled or the input ends.
type Runner struct {
	Handler     IOHandler
	Interceptor EventInterceptor
	Logger      *slog.Logger
	Manager     *session.Manager
	Headless    bool
}

// NewRunner creates a Runner. Without a handler option it reads lines from
// stdin and prints to stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, WithStdin())
	}
	if r.Interceptor == nil {
		if r.Headless {
			r.Interceptor = AutoApproveMiddleware()
		} else {
			r.Interceptor = ConfirmCancel(r.Handler)
		}
	}
	return r
}

// Run executes the event loop. It returns the result on submission and nil
// when the form was cancelled or the input ended; the session phase tells
// which. Cancellation of ctx is checked only between events; an interrupt
// signal is turned into a cancel request.
func (r *Runner) Run(ctx context.Context, s *Session) (*domain.Result, error) {
	signals := NewSignalManager(ctx)
	defer signals.Stop()

	if err := r.Handler.Draw(ctx, s.Frame()); err != nil {
		return nil, fmt.Errorf("output error: %w", err)
	}

	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var ev domain.Event
		if signals.Interrupted() {
			r.Logger.Debug("interrupt received")
			signals.Reset()
			ev = domain.CancelRequested()
		} else {
			next, err := r.Handler.Next(signals.Context())
			if err != nil {
				signals.CheckRace()
				if signals.Context().Err() != nil {
					continue
				}
				if errors.Is(err, io.EOF) {
					r.Logger.Debug("input closed", "phase", s.Form().Phase())
					return nil, nil
				}
				return nil, fmt.Errorf("input error: %w", err)
			}
			ev = next
		}

		allowed, err := r.Interceptor(ctx, ev)
		if err != nil {
			return nil, fmt.Errorf("interceptor error: %w", err)
		}
		if !allowed {
			r.Logger.Debug("event blocked", "event", ev.Type)
			continue
		}

		diff, err := s.Handle(ctx, ev)
		if err != nil && !Recoverable(err) {
			return nil, err
		}
		if err := r.Handler.Draw(ctx, diff); err != nil {
			return nil, fmt.Errorf("output error: %w", err)
		}
		if err := r.checkpoint(ctx, s); err != nil {
			return nil, fmt.Errorf("critical persistence error: %w", err)
		}
	}

	res := s.Result()
	if res != nil {
		if err := r.writeResult(ctx, res); err != nil {
			return res, fmt.Errorf("output error: %w", err)
		}
	}
	return res, nil
}

func (r *Runner) checkpoint(ctx context.Context, s *Session) error {
	f := s.Form()
	if r.Manager == nil || f.SessionID() == "" {
		return nil
	}
	if err := r.Manager.Checkpoint(ctx, f); err != nil {
		return err
	}
	r.Logger.Debug("session saved", "session_id", f.SessionID(), "step", f.CurrentIndex())
	return nil
}

func (r *Runner) writeResult(ctx context.Context, res *domain.Result) error {
	if w, ok := r.Handler.(ResultWriter); ok {
		return w.WriteResult(ctx, res)
	}
	return r.Handler.SystemOutput(ctx, "Submitted:\n"+res.Text())
}

// Recoverable reports whether err leaves the session usable: navigation
// refusals, rejected input, and events naming unknown controls or types.
func Recoverable(err error) bool {
	var nav *domain.NavigationError
	return errors.As(err, &nav) ||
		errors.Is(err, domain.ErrUnknownControl) ||
		errors.Is(err, domain.ErrUnknownEvent) ||
		errors.Is(err, domain.ErrTypeMismatch) ||
		errors.Is(err, ErrInputTooLarge) ||
		errors.Is(err, ErrInvalidUTF8)
}
