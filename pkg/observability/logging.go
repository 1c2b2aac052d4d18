package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/stepform/pkg/domain"
)

// LogHooks returns lifecycle callbacks that write one structured record per
// event. Propagation passes are logged at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "step_enter", attrs(e.EventBase, "step", e.StepID, "index", e.Index)...)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "step_leave", attrs(e.EventBase, "step", e.StepID, "status", e.Status)...)
		},
		OnEdit: func(ctx context.Context, e *domain.EditEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "edit_rejected", attrs(e.EventBase, "control", e.Control, "error", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "edit", attrs(e.EventBase, "control", e.Control)...)
		},
		OnPropagate: func(ctx context.Context, e *domain.PassEvent) {
			logger.DebugContext(ctx, "propagate", attrs(e.EventBase, "full", e.Full, "visited", len(e.Visited), "duration", e.Duration)...)
		},
		OnPhaseChange: func(ctx context.Context, e *domain.PhaseEvent) {
			logger.InfoContext(ctx, "phase_change", attrs(e.EventBase, "from", e.From, "to", e.To)...)
		},
	}
}

func attrs(b domain.EventBase, kv ...any) []any {
	out := []any{"form", b.Form}
	if b.SessionID != "" {
		out = append(out, "session_id", b.SessionID)
	}
	return append(out, kv...)
}
