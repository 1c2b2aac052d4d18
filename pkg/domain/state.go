package domain

import "time"

// StepStatus is the navigation status of a single step.
type StepStatus string

const (
	StepNotVisited StepStatus = "not_visited"
	StepActive     StepStatus = "active"
	StepCompleted  StepStatus = "completed"
	StepSkipped    StepStatus = "skipped"
)

// Phase is the form-level navigation state.
type Phase string

const (
	PhaseActive           Phase = "active"
	PhaseAllStepsComplete Phase = "all_steps_complete"
	PhaseSubmitted        Phase = "submitted"
	PhaseCancelled        Phase = "cancelled"
)

// Terminal reports whether no further edits or navigation are accepted.
func (p Phase) Terminal() bool {
	return p == PhaseSubmitted || p == PhaseCancelled
}

// Snapshot is the persisted runtime state of a form session.
// Values are keyed by control path so that snapshots survive re-layout
// of a definition as long as paths are stable.
type Snapshot struct {
	SessionID string                     `json:"session_id"`
	Form      string                     `json:"form"`
	Phase     Phase                      `json:"phase"`
	Current   int                        `json:"current"`
	Statuses  []StepStatus               `json:"statuses"`
	Values    map[string]any             `json:"values,omitempty"`
	Errors    map[string]ValidationError `json:"errors,omitempty"`
	Focus     string                     `json:"focus,omitempty"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// Clone returns a deep-enough copy for store isolation.
// Values are copied one level down; slices of strings are duplicated.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Statuses = append([]StepStatus(nil), s.Statuses...)
	if s.Values != nil {
		c.Values = make(map[string]any, len(s.Values))
		for k, v := range s.Values {
			if list, ok := v.([]string); ok {
				v = append([]string(nil), list...)
			}
			c.Values[k] = v
		}
	}
	if s.Errors != nil {
		c.Errors = make(map[string]ValidationError, len(s.Errors))
		for k, v := range s.Errors {
			c.Errors[k] = v
		}
	}
	return &c
}
