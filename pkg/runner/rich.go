package runner

import (
	"context"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
)

// RichResponse combines state and rendering for rich clients (Web, MCP, etc).
type RichResponse struct {
	Snapshot *domain.Snapshot  `json:"snapshot"`
	Frame    *domain.Frame     `json:"frame"`
	Diff     *domain.FrameDiff `json:"diff,omitempty"`
	Result   *domain.Result    `json:"result,omitempty"`
	Notice   string            `json:"notice,omitempty"`
	Terminal bool              `json:"terminal"`
}

// Render describes the current state of f without changing it.
func Render(f *form.Form) *RichResponse {
	s := NewSession(f)
	s.Prime()
	return respond(s, nil)
}

// HandleAndRender applies one event to f and describes the outcome. The
// diff is relative to the state before the event, so stateless clients can
// patch what they show. Recoverable refusals become the notice.
func HandleAndRender(ctx context.Context, f *form.Form, ev domain.Event) (*RichResponse, error) {
	s := NewSession(f)
	s.Prime()
	diff, err := s.Handle(ctx, ev)
	if err != nil && !Recoverable(err) {
		return nil, err
	}
	resp := respond(s, diff)
	if err != nil {
		resp.Notice = notice(err)
	}
	return resp, nil
}

func respond(s *Session, diff *domain.FrameDiff) *RichResponse {
	f := s.Form()
	res := s.Result()
	if res == nil && f.Phase() == domain.PhaseSubmitted {
		res = f.Result()
	}
	return &RichResponse{
		Snapshot: f.Snapshot(),
		Frame:    s.bridge.Last(),
		Diff:     diff,
		Result:   res,
		Terminal: s.Done(),
	}
}
