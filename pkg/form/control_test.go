package form_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
)

func control(t *testing.T, spec form.ControlSpec) *form.Control {
	t.Helper()
	b := form.NewBuilder("c")
	id, err := b.AddControl(spec)
	require.NoError(t, err)
	c, ok := b.Control(id)
	require.True(t, ok)
	return c
}

func TestControl_ValidateText(t *testing.T) {
	c := control(t, form.ControlSpec{Name: "bio", Kind: domain.KindText, Multiline: true, MaxLineLength: 5, MinLength: 2})

	v, err := c.Validate("ab  \ncd\n\n")
	require.NoError(t, err)
	assert.Equal(t, "ab\ncd", v)

	_, err = c.Validate("abcdef")
	assert.ErrorIs(t, err, domain.ErrConstraintViolated)

	_, err = c.Validate("a")
	assert.ErrorIs(t, err, domain.ErrConstraintViolated)

	single := control(t, form.ControlSpec{Name: "name", Kind: domain.KindText})
	_, err = single.Validate("a\nb")
	assert.ErrorIs(t, err, domain.ErrConstraintViolated)
	_, err = single.Validate(true)
	assert.ErrorIs(t, err, domain.ErrTypeMismatch)
}

func TestControl_ValidateClear(t *testing.T) {
	optional := control(t, form.ControlSpec{Name: "a", Kind: domain.KindText})
	v, err := optional.Validate("   ")
	assert.NoError(t, err)
	assert.Nil(t, v)

	required := control(t, form.ControlSpec{Name: "a", Kind: domain.KindMultiSelect, Required: true, Choices: []form.Choice{{Value: "x"}}})
	_, err = required.Validate([]string{})
	assert.ErrorIs(t, err, domain.ErrConstraintViolated)
}

func TestControl_ValidateSelection(t *testing.T) {
	c := control(t, form.ControlSpec{Name: "tags", Kind: domain.KindMultiSelect, MaxSelected: 2, Choices: []form.Choice{{Value: "a"}, {Value: "b"}, {Value: "c"}}})

	v, err := c.Validate([]any{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, v)

	_, err = c.Validate([]string{"a", "b", "c"})
	assert.ErrorIs(t, err, domain.ErrConstraintViolated)
	_, err = c.Validate([]string{"z"})
	assert.ErrorIs(t, err, domain.ErrConstraintViolated)
	_, err = c.Validate([]any{"a", 1})
	assert.ErrorIs(t, err, domain.ErrTypeMismatch)
}

func TestControl_RenderText(t *testing.T) {
	b := control(t, form.ControlSpec{Name: "ok", Kind: domain.KindBoolean})
	assert.Equal(t, "Yes", b.RenderText(true))
	assert.Equal(t, "No", b.RenderText(false))
	assert.Equal(t, "", b.RenderText(nil))

	m := control(t, form.ControlSpec{Name: "m", Kind: domain.KindMultiSelect, Choices: []form.Choice{{Value: "a"}, {Value: "b"}}})
	assert.Equal(t, "a, b", m.RenderText([]string{"a", "b"}))
}

func TestControl_KeyValue(t *testing.T) {
	c := control(t, form.ControlSpec{Name: "env", Kind: domain.KindKeyValue, MinEntries: 1})

	v, err := c.Validate("B = 2\nA=1;")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, v)
	assert.Equal(t, "A=1; B=2", c.RenderText(v))

	v, err = c.Validate(map[string]any{"K": ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"K": ""}, v, "an empty value is still a pair")

	tests := []struct {
		name string
		in   any
		want error
	}{
		{"missing separator", "A=1; B", domain.ErrTypeMismatch},
		{"duplicate key", "A=1; A=2", domain.ErrTypeMismatch},
		{"empty key", "=1", domain.ErrTypeMismatch},
		{"non-string value", map[string]any{"A": 1}, domain.ErrTypeMismatch},
		{"wrong shape", []string{"A=1"}, domain.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Validate(tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	v, err = c.Validate("")
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestControl_Static(t *testing.T) {
	c := control(t, form.ControlSpec{Name: "intro", Label: "Welcome aboard", Kind: domain.KindStatic})
	assert.False(t, c.Focusable())
	assert.False(t, c.HoldsValue())
	assert.Equal(t, "Welcome aboard", c.Content())

	b := form.NewBuilder("c")
	_, err := b.AddControl(form.ControlSpec{Name: "intro", Kind: domain.KindStatic, Required: true})
	assert.ErrorIs(t, err, domain.ErrInvalidDefinition)
}

func TestValueStore_EnvNestsGroups(t *testing.T) {
	s := newSignup(t)
	f := s.start(t)
	require.NoError(t, f.EditPath(context.Background(), "address.city", "Porto"))

	env := f.Store().Env()
	assert.Equal(t, map[string]any{"street": nil, "city": "Porto"}, env["address"])
	assert.Equal(t, "free", env["plan"])
	assert.Contains(t, env, "username")

	v, ok := f.Store().Get("address")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"city": "Porto"}, v)
	_, ok = f.Store().Get("missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]any{"plan": "free", "newsletter": false, "address.city": "Porto"}, f.Store().Flat())
}

func TestConditions(t *testing.T) {
	tests := []struct {
		name   string
		cond   form.Condition
		source any
		want   bool
	}{
		{"empty show", form.WhenEmpty(form.Show), "", true},
		{"empty hide", form.WhenEmpty(form.Hide), nil, false},
		{"set", form.WhenSet(), "x", true},
		{"equals", form.WhenEquals("pro", form.Show), "pro", true},
		{"equals hide", form.WhenEquals("pro", form.Hide), "pro", false},
		{"not equals", form.WhenNotEquals("pro", form.Show), "free", true},
		{"multi contains", form.WhenEquals("go", form.Show), []string{"go", "zig"}, true},
		{"multi missing", form.WhenEquals("rust", form.Show), []string{"go"}, false},
		{"bool", form.WhenEquals(true, form.Show), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cond(tt.source, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
