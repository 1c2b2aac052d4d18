package runner

import (
	"log/slog"

	"github.com/aretw0/stepform/pkg/session"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures the IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithManager checkpoints the form through m after every event.
// Forms without a session ID are not persisted.
func WithManager(m *session.Manager) Option {
	return func(r *Runner) {
		r.Manager = m
	}
}

// WithHeadless sets the runner to headless mode: no confirmations.
func WithHeadless(headless bool) Option {
	return func(r *Runner) {
		r.Headless = headless
	}
}

// WithInterceptor configures the event middleware.
func WithInterceptor(interceptor EventInterceptor) Option {
	return func(r *Runner) {
		r.Interceptor = interceptor
	}
}
