package schema

import (
	"fmt"
	"testing"
)

func TestStringType(t *testing.T) {
	typ := String()

	if typ.Name() != "string" {
		t.Errorf("Name() = %q, want %q", typ.Name(), "string")
	}

	tests := []struct {
		value   any
		wantErr bool
	}{
		{"hello", false},
		{"", false},
		{42, true},
		{true, true},
		{nil, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestBoolType(t *testing.T) {
	typ := Bool()

	tests := []struct {
		value   any
		wantErr bool
	}{
		{true, false},
		{false, false},
		{"true", true},
		{1, true},
	}

	for _, tt := range tests {
		err := typ.Validate(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
	}
}

func TestSliceType(t *testing.T) {
	typ := Slice(String())

	if typ.Name() != "[string]" {
		t.Errorf("Name() = %q, want %q", typ.Name(), "[string]")
	}

	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{"string slice", []string{"a", "b"}, false},
		{"empty slice", []string{}, false},
		{"any slice of strings", []any{"a", "b"}, false},
		{"mixed slice", []any{"a", 1}, true},
		{"not a slice", "a", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := typ.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestMapType(t *testing.T) {
	typ := Map()

	if err := typ.Validate(map[string]any{"a": 1}); err != nil {
		t.Errorf("Validate(map) error = %v", err)
	}
	if err := typ.Validate(map[string]string{"a": "b"}); err == nil {
		t.Error("Validate(map[string]string) should fail")
	}
}

func TestCustomType(t *testing.T) {
	nonBlank := Custom("non_blank", func(v any) error {
		s, ok := v.(string)
		if !ok || s == "" {
			return fmt.Errorf("must not be blank")
		}
		return nil
	})

	if nonBlank.Name() != "non_blank" {
		t.Errorf("Name() = %q, want non_blank", nonBlank.Name())
	}
	if err := nonBlank.Validate("x"); err != nil {
		t.Errorf("Validate(x) error = %v", err)
	}
	if err := nonBlank.Validate(""); err == nil {
		t.Error("Validate(\"\") should fail")
	}
}

func TestStringList(t *testing.T) {
	got, ok := StringList([]any{"a", "b"})
	if !ok || len(got) != 2 || got[0] != "a" {
		t.Errorf("StringList([]any) = %v, %v", got, ok)
	}
	if _, ok := StringList([]any{"a", 2}); ok {
		t.Error("StringList should reject non-string elements")
	}
	if _, ok := StringList("a"); ok {
		t.Error("StringList should reject scalars")
	}
}
