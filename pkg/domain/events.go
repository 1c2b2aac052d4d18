package domain

import (
	"context"
	"time"
)

// LifecycleEventType defines the category of a lifecycle event.
type LifecycleEventType string

const (
	LifecycleStepEnter   LifecycleEventType = "step_enter"
	LifecycleStepLeave   LifecycleEventType = "step_leave"
	LifecycleEdit        LifecycleEventType = "edit"
	LifecyclePropagate   LifecycleEventType = "propagate"
	LifecyclePhaseChange LifecycleEventType = "phase_change"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time          `json:"timestamp"`
	Type      LifecycleEventType `json:"type"`
	Form      string             `json:"form"`
	SessionID string             `json:"session_id,omitempty"`
}

// StepEvent represents entry into or exit from a step.
type StepEvent struct {
	EventBase
	StepID string     `json:"step_id"`
	Index  int        `json:"index"`
	Status StepStatus `json:"status"`
}

// EditEvent represents a value edit. Err is the validation failure, if any.
type EditEvent struct {
	EventBase
	Control string    `json:"control"`
	ID      ControlID `json:"id"`
	Value   any       `json:"value,omitempty"`
	Err     error     `json:"-"`
}

// PassEvent represents one propagation pass.
type PassEvent struct {
	EventBase
	Seeds    []ControlID   `json:"seeds"`
	Visited  []ControlID   `json:"visited"`
	Full     bool          `json:"full"`
	Duration time.Duration `json:"duration"`
}

// PhaseEvent represents a form-level phase transition.
type PhaseEvent struct {
	EventBase
	From Phase `json:"from"`
	To   Phase `json:"to"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStepEnter   func(context.Context, *StepEvent)
	OnStepLeave   func(context.Context, *StepEvent)
	OnEdit        func(context.Context, *EditEvent)
	OnPropagate   func(context.Context, *PassEvent)
	OnPhaseChange func(context.Context, *PhaseEvent)
}

// ChainHooks combines several hook sets; callbacks run in argument order.
func ChainHooks(sets ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range sets {
		out.OnStepEnter = chain(out.OnStepEnter, h.OnStepEnter)
		out.OnStepLeave = chain(out.OnStepLeave, h.OnStepLeave)
		out.OnEdit = chain(out.OnEdit, h.OnEdit)
		out.OnPropagate = chain(out.OnPropagate, h.OnPropagate)
		out.OnPhaseChange = chain(out.OnPhaseChange, h.OnPhaseChange)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
