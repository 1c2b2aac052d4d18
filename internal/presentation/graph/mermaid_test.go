package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepform/internal/presentation/graph"
	"github.com/aretw0/stepform/pkg/dsl"
	"github.com/aretw0/stepform/pkg/form"
)

func blueprint(t *testing.T) *form.Blueprint {
	t.Helper()
	b := dsl.New("order")
	who := b.Step("who").Title(`The "buyer"`)
	who.Text("name").Label("Name").Required()
	who.Select("kind", "person", "company").Label("Kind")
	addr := who.Group("address")
	addr.Text("street")
	addr.Text("city")
	end := b.Step("end")
	end.Text("vat").Label("VAT").ShowWhen("kind", "company")
	end.MultiSelect("tags", "a", "b")
	end.Bool("agree").Label("Agree")
	end.Text("greeting").Derive(`"Hello " + name`)
	bp, err := b.Build()
	require.NoError(t, err)
	return bp
}

func TestGenerateMermaid(t *testing.T) {
	out := graph.GenerateMermaid(blueprint(t), nil)

	tests := []struct {
		name     string
		contains []string
	}{
		{"Header", []string{"graph TD\n"}},
		{"Step Subgraphs", []string{
			`subgraph s_who["The 'buyer'"]`,
			`subgraph s_end["end"]`,
		}},
		{"Shapes By Kind", []string{
			`c_name["Name*"]`,
			`c_kind[/"Kind"/]`,
			`c_address[("address")]`,
			`c_tags[["tags"]]`,
			`c_agree(["Agree"])`,
		}},
		{"Group Children", []string{
			"c_address -.- c_address_street",
			"c_address -.- c_address_city",
		}},
		{"Edges", []string{
			`c_kind -- "show when kind == company" --> c_vat`,
			`c_name == "derive: 'Hello ' + name" ==> c_greeting`,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}

	assert.NotContains(t, out, "Overlay Styles")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	bp := blueprint(t)
	f := bp.NewForm(context.Background())

	overlay := graph.OverlayOf(f)
	assert.Equal(t, "who", overlay.CurrentStep)
	assert.Contains(t, overlay.Hidden, "vat")

	out := graph.GenerateMermaid(bp, overlay)
	assert.Contains(t, out, "%% Overlay Styles")
	assert.Contains(t, out, "class c_vat hidden;")
	assert.Contains(t, out, "style s_who stroke:#fbc02d")
	assert.Equal(t, 1, strings.Count(out, "style s_"))

	require.NoError(t, f.Cancel(context.Background()))
	assert.Empty(t, graph.OverlayOf(f).CurrentStep)
}
