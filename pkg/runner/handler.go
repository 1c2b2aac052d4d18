package runner

import (
	"context"

	"github.com/aretw0/stepform/pkg/domain"
)

// Renderer draws frame diffs. Implementations must be idempotent under
// repeated identical instructions.
type Renderer interface {
	Draw(ctx context.Context, diff *domain.FrameDiff) error
}

// InputSource produces logical input events. It returns io.EOF when the
// input is exhausted.
type InputSource interface {
	Next(ctx context.Context) (domain.Event, error)
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI) and JSON (Structured) modes.
type IOHandler interface {
	Renderer
	InputSource

	// SystemOutput presents a meta-message to the user (e.g. confirmations,
	// the final result). This is distinct from frame rendering.
	SystemOutput(ctx context.Context, msg string) error

	// ReadLine reads one raw answer, bypassing event translation.
	ReadLine(ctx context.Context) (string, error)
}
