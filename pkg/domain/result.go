package domain

// ResultEntry is one control's final value.
type ResultEntry struct {
	ID      ControlID `json:"id"`
	Path    string    `json:"path"`
	Label   string    `json:"label,omitempty"`
	Kind    Kind      `json:"kind"`
	Step    string    `json:"step"`
	Visible bool      `json:"visible"`
	Value   any       `json:"value"`
}

// Result is the final value store, exposed to the host on submission.
type Result struct {
	Form      string        `json:"form"`
	SessionID string        `json:"session_id,omitempty"`
	Entries   []ResultEntry `json:"entries"`
	Summary   string        `json:"summary"`
}

// ByID maps every control id to its value.
func (r *Result) ByID() map[ControlID]any {
	out := make(map[ControlID]any, len(r.Entries))
	for _, e := range r.Entries {
		out[e.ID] = e.Value
	}
	return out
}

// ByPath maps every control path (dotted for group children) to its value.
func (r *Result) ByPath() map[string]any {
	out := make(map[string]any, len(r.Entries))
	for _, e := range r.Entries {
		out[e.Path] = e.Value
	}
	return out
}

// Text returns the human-readable rendering of the result.
func (r *Result) Text() string {
	return r.Summary
}
