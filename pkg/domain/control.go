package domain

import (
	"fmt"
	"strings"
)

// ControlID identifies a control within a form.
// IDs are dense, assigned in declaration order and never reused.
type ControlID int

// NoControl marks the absence of a control (e.g. nothing focused, no parent).
const NoControl ControlID = -1

// Kind is the tagged variant of a control.
type Kind string

const (
	KindText         Kind = "text"
	KindSingleSelect Kind = "single_select"
	KindMultiSelect  Kind = "multi_select"
	KindBoolean      Kind = "boolean"
	KindGroup        Kind = "group"
	// KindStatic is display text with no value. It never takes focus.
	KindStatic Kind = "static"
	// KindKeyValue holds a variable number of key/value pairs.
	KindKeyValue Kind = "key_value"
)

// ParseKind converts a definition keyword into a Kind.
// A few aliases are accepted for convenience in hand-written definitions.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "input", "textblock", "text_block":
		return KindText, nil
	case "single_select", "select", "choice":
		return KindSingleSelect, nil
	case "multi_select", "multiselect", "checklist":
		return KindMultiSelect, nil
	case "boolean", "bool", "checkbox", "yes_no", "confirm":
		return KindBoolean, nil
	case "group", "compound":
		return KindGroup, nil
	case "static", "static_text", "note":
		return KindStatic, nil
	case "key_value", "keyvalue", "pairs":
		return KindKeyValue, nil
	default:
		return "", fmt.Errorf("unknown control kind %q", s)
	}
}

// Effect is what a dependency edge controls on its target.
type Effect string

const (
	EffectVisibility      Effect = "visibility"
	EffectEnablement      Effect = "enablement"
	EffectValueDerivation Effect = "value_derivation"
)

// ParseEffect converts a definition keyword into an Effect.
func ParseEffect(s string) (Effect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "visibility", "visible":
		return EffectVisibility, nil
	case "enablement", "enabled":
		return EffectEnablement, nil
	case "value_derivation", "derive", "value":
		return EffectValueDerivation, nil
	default:
		return "", fmt.Errorf("unknown dependency effect %q", s)
	}
}

// ControlState is the observable runtime state of a control.
type ControlState struct {
	ID              ControlID `json:"id"`
	Path            string    `json:"path"`
	Kind            Kind      `json:"kind"`
	Value           any       `json:"value,omitempty"`
	Valid           bool      `json:"valid"`
	Visible         bool      `json:"visible"`
	Enabled         bool      `json:"enabled"`
	ValidationError string    `json:"validation_error,omitempty"`
}

// IsEmpty reports whether v counts as "no value" for the purpose of
// required checks and the IsEmpty dependency evaluation.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case map[string]string:
		return len(t) == 0
	case map[string]any:
		for _, child := range t {
			if !IsEmpty(child) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
