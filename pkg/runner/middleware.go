package runner

import (
	"context"
	"strings"

	"github.com/aretw0/stepform/pkg/domain"
)

// EventInterceptor is a middleware that can veto an event before the
// session handles it. It returns true if handling should proceed.
type EventInterceptor func(ctx context.Context, ev domain.Event) (bool, error)

// MultiInterceptor chains multiple interceptors.
func MultiInterceptor(interceptors ...EventInterceptor) EventInterceptor {
	return func(ctx context.Context, ev domain.Event) (bool, error) {
		for _, interceptor := range interceptors {
			allowed, err := interceptor(ctx, ev)
			if err != nil {
				return false, err // System Error
			}
			if !allowed {
				return false, nil // Blocked by policy
			}
		}
		return true, nil
	}
}

// ConfirmationMiddleware asks the user before events of type t go through.
// It uses the handler's SystemOutput and ReadLine, so the question stays
// distinct from the form frames.
func ConfirmationMiddleware(handler IOHandler, t domain.EventType, question string) EventInterceptor {
	return func(ctx context.Context, ev domain.Event) (bool, error) {
		if ev.Type != t {
			return true, nil
		}
		if err := handler.SystemOutput(ctx, question+" [y/N]"); err != nil {
			return false, err
		}
		input, err := handler.ReadLine(ctx)
		if err != nil {
			return false, err
		}
		input = strings.TrimSpace(strings.ToLower(input))
		return input == "y" || input == "yes", nil
	}
}

// ConfirmCancel asks before discarding the form.
func ConfirmCancel(handler IOHandler) EventInterceptor {
	return ConfirmationMiddleware(handler, domain.EventCancelRequested, "Discard this form?")
}

// AutoApproveMiddleware allows everything.
func AutoApproveMiddleware() EventInterceptor {
	return func(ctx context.Context, ev domain.Event) (bool, error) {
		return true, nil
	}
}
