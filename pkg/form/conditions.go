package form

import (
	"reflect"

	"github.com/aretw0/stepform/pkg/schema"
)

// Condition evaluates a visibility or enablement edge.
// source is the current value of the edge's source control.
type Condition func(source any, values Values) (bool, error)

// Derivation computes a new value for the target of a derivation edge.
type Derivation func(source, current any, values Values) (any, error)

// Action decides whether a matching condition shows or hides its target.
type Action int

const (
	Show Action = iota
	Hide
)

func (a Action) apply(matched bool) bool {
	if a == Hide {
		return !matched
	}
	return matched
}

// WhenEmpty matches when the source has no value.
func WhenEmpty(a Action) Condition {
	return func(source any, _ Values) (bool, error) {
		return a.apply(IsClear(source)), nil
	}
}

// WhenSet matches when the source has a value. It is the default condition
// of edges declared without one.
func WhenSet() Condition {
	return WhenEmpty(Hide)
}

// WhenEquals matches when the source equals want. For multi-select sources a
// string want matches when it is among the selected options.
func WhenEquals(want any, a Action) Condition {
	return func(source any, _ Values) (bool, error) {
		return a.apply(equalValues(source, want)), nil
	}
}

// WhenNotEquals is the negation of WhenEquals.
func WhenNotEquals(want any, a Action) Condition {
	return func(source any, _ Values) (bool, error) {
		return a.apply(!equalValues(source, want)), nil
	}
}

// Copy derives the target value from the source value unchanged.
func Copy() Derivation {
	return func(source, _ any, _ Values) (any, error) {
		return source, nil
	}
}

// DeriveWith adapts a single-argument function into a Derivation.
func DeriveWith(fn func(source any) (any, error)) Derivation {
	return func(source, _ any, _ Values) (any, error) {
		return fn(source)
	}
}

func equalValues(got, want any) bool {
	if list, ok := schema.StringList(got); ok {
		if s, ok := want.(string); ok {
			for _, v := range list {
				if v == s {
					return true
				}
			}
			return false
		}
		if wl, ok := schema.StringList(want); ok {
			return reflect.DeepEqual(list, wl)
		}
		return false
	}
	return reflect.DeepEqual(got, want)
}
