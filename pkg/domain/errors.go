package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrDefinitionNotFound is returned when a loader has no definition by that name.
var ErrDefinitionNotFound = errors.New("definition not found")

// ErrFormClosed is returned for any edit or navigation after submission or cancellation.
var ErrFormClosed = errors.New("form is closed")

// ErrUnknownControl is returned when a control id or path does not exist.
var ErrUnknownControl = errors.New("unknown control")

// ErrUnknownEvent is returned when an input event type is not recognised.
var ErrUnknownEvent = errors.New("unknown event")

// Definition sentinels.
var (
	ErrCycleDetected     = errors.New("dependency cycle detected")
	ErrDuplicateControl  = errors.New("duplicate control")
	ErrControlInTwoSteps = errors.New("control belongs to more than one step")
	ErrInvalidRule       = errors.New("invalid rule")
	ErrInvalidDefault    = errors.New("invalid default value")
	ErrInvalidDefinition = errors.New("invalid definition")
)

// Validation sentinels.
var (
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrConstraintViolated = errors.New("constraint violated")
	ErrDerivationFailed   = errors.New("derivation failed")
)

// Navigation sentinels.
var (
	ErrStepIncomplete = errors.New("step incomplete")
	ErrAtFirstStep    = errors.New("no previous step")
	ErrStepsRemaining = errors.New("steps remaining")
)

// DefinitionCode classifies construction-time failures.
type DefinitionCode string

const (
	CycleDetected     DefinitionCode = "cycle_detected"
	DuplicateControl  DefinitionCode = "duplicate_control"
	UnknownControl    DefinitionCode = "unknown_control"
	ControlInTwoSteps DefinitionCode = "control_in_two_steps"
	InvalidRule       DefinitionCode = "invalid_rule"
	InvalidDefault    DefinitionCode = "invalid_default"
	InvalidDefinition DefinitionCode = "invalid_definition"
)

// DefinitionError is fatal at form-construction time.
type DefinitionError struct {
	Code    DefinitionCode
	Subject string // control path, step id or edge description
	Detail  string
}

func (e *DefinitionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("definition error (%s): %s", e.Code, e.Subject)
	}
	return fmt.Sprintf("definition error (%s): %s: %s", e.Code, e.Subject, e.Detail)
}

func (e *DefinitionError) Unwrap() error {
	switch e.Code {
	case CycleDetected:
		return ErrCycleDetected
	case DuplicateControl:
		return ErrDuplicateControl
	case UnknownControl:
		return ErrUnknownControl
	case ControlInTwoSteps:
		return ErrControlInTwoSteps
	case InvalidRule:
		return ErrInvalidRule
	case InvalidDefault:
		return ErrInvalidDefault
	default:
		return ErrInvalidDefinition
	}
}

// ValidationCode classifies recoverable value failures.
type ValidationCode string

const (
	TypeMismatch       ValidationCode = "type_mismatch"
	ConstraintViolated ValidationCode = "constraint_violated"
	DerivationFailed   ValidationCode = "derivation_failed"
)

// ValidationError is attached to the offending control; it never aborts a session.
type ValidationError struct {
	Code    ValidationCode `json:"code"`
	Control string         `json:"control"`
	Reason  string         `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("control %q: %s: %s", e.Control, e.Code, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	switch e.Code {
	case TypeMismatch:
		return ErrTypeMismatch
	case DerivationFailed:
		return ErrDerivationFailed
	default:
		return ErrConstraintViolated
	}
}

// NavigationCode classifies refused navigation.
type NavigationCode string

const (
	StepIncomplete NavigationCode = "step_incomplete"
	AtFirstStep    NavigationCode = "at_first_step"
	StepsRemaining NavigationCode = "steps_remaining"
	FormClosed     NavigationCode = "form_closed"
)

// NavigationError blocks a transition but leaves all state intact.
type NavigationError struct {
	Code    NavigationCode
	Step    string
	Control string // first offending control, when known
}

func (e *NavigationError) Error() string {
	switch {
	case e.Control != "":
		return fmt.Sprintf("navigation refused (%s) at step %q: control %q", e.Code, e.Step, e.Control)
	case e.Step != "":
		return fmt.Sprintf("navigation refused (%s) at step %q", e.Code, e.Step)
	default:
		return fmt.Sprintf("navigation refused (%s)", e.Code)
	}
}

func (e *NavigationError) Unwrap() error {
	switch e.Code {
	case StepIncomplete:
		return ErrStepIncomplete
	case AtFirstStep:
		return ErrAtFirstStep
	case StepsRemaining:
		return ErrStepsRemaining
	default:
		return ErrFormClosed
	}
}
