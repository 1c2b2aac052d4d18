package runner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepform/pkg/dsl"
	"github.com/aretw0/stepform/pkg/form"
)

// newForm builds:
//
//	account: name (text, required, min 3), nick (text)
//	prefs:   color (single select red/green/blue), tags (multi a/b/c, max 2), ok (boolean)
func newForm(t *testing.T, opts ...form.Option) *form.Form {
	t.Helper()
	b := dsl.New("profile")
	account := b.Step("account")
	account.Text("name").Label("Name").Required().Length(3, 0)
	account.Text("nick").Label("Nick")
	prefs := b.Step("prefs")
	prefs.Select("color", "red", "green", "blue").Label("Color")
	prefs.MultiSelect("tags", "a", "b", "c").Label("Tags").Selected(0, 2)
	prefs.Bool("ok").Label("OK")

	bp, err := b.Build()
	require.NoError(t, err)
	return bp.NewForm(context.Background(), opts...)
}
