package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/form"
)

// Overlay carries live form state to highlight on the diagram.
type Overlay struct {
	CurrentStep string
	Hidden      []string
	Disabled    []string
}

// OverlayOf captures the current step and the hidden and disabled controls
// of f.
func OverlayOf(f *form.Form) *Overlay {
	o := &Overlay{}
	if f.Phase() == domain.PhaseActive {
		o.CurrentStep = f.CurrentStep().ID
	}
	for _, c := range f.Blueprint().Controls() {
		st := f.State(c.ID)
		if !st.Visible {
			o.Hidden = append(o.Hidden, c.Path)
		}
		if !st.Enabled {
			o.Disabled = append(o.Disabled, c.Path)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a form: one subgraph per
// step and one arrow per dependency edge. Shapes follow the control kind:
//   - Text: [Rectangle]
//   - SingleSelect: [/Parallelogram/]
//   - MultiSelect: [[Subroutine]]
//   - Boolean: ([Stadium])
//   - Group: [(Cylinder)], joined to its children by dotted lines
func GenerateMermaid(bp *form.Blueprint, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, st := range bp.Steps() {
		title := st.Title
		if title == "" {
			title = st.ID
		}
		fmt.Fprintf(&sb, "    subgraph %s[\"%s\"]\n", stepID(st.ID), quote(title))
		for _, id := range st.Members() {
			c, _ := bp.Control(id)
			label := c.Label
			if c.Kind == domain.KindStatic {
				label = c.Content()
			}
			if label == "" {
				label = c.Path
			}
			if c.Required {
				label += "*"
			}
			opener, closer := shape(c.Kind)
			fmt.Fprintf(&sb, "        %s%s\"%s\"%s\n", nodeID(c.Path), opener, quote(label), closer)
		}
		sb.WriteString("    end\n")
	}

	for _, c := range bp.Controls() {
		for _, child := range c.Children {
			cc, _ := bp.Control(child)
			fmt.Fprintf(&sb, "    %s -.- %s\n", nodeID(c.Path), nodeID(cc.Path))
		}
	}

	for _, e := range bp.Graph().Edges() {
		from, _ := bp.Control(e.From)
		to, _ := bp.Control(e.To)
		fmt.Fprintf(&sb, "    %s %s %s\n", nodeID(from.Path), arrow(e), nodeID(to.Path))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef hidden stroke-dasharray:5 5,color:#999;\n")
		sb.WriteString("    classDef disabled fill:#eee,color:#999;\n")
		for _, p := range overlay.Hidden {
			fmt.Fprintf(&sb, "    class %s hidden;\n", nodeID(p))
		}
		for _, p := range overlay.Disabled {
			fmt.Fprintf(&sb, "    class %s disabled;\n", nodeID(p))
		}
		if overlay.CurrentStep != "" {
			fmt.Fprintf(&sb, "    style %s stroke:#fbc02d,stroke-width:4px;\n", stepID(overlay.CurrentStep))
		}
	}
	return sb.String()
}

func shape(k domain.Kind) (string, string) {
	switch k {
	case domain.KindSingleSelect:
		return "[/", "/]"
	case domain.KindMultiSelect:
		return "[[", "]]"
	case domain.KindBoolean:
		return "([", "])"
	case domain.KindGroup:
		return "[(", ")]"
	case domain.KindStatic:
		return ">", "]"
	case domain.KindKeyValue:
		return "{{", "}}"
	default:
		return "[", "]"
	}
}

func arrow(e form.Edge) string {
	verb := map[domain.Effect]string{
		domain.EffectVisibility:      "show",
		domain.EffectEnablement:      "enable",
		domain.EffectValueDerivation: "derive",
	}[e.Effect]
	text := verb
	switch {
	case strings.HasPrefix(e.Label, "show "), strings.HasPrefix(e.Label, "hide "):
		text = e.Label
	case e.Label != "":
		text += ": " + e.Label
	}
	if e.Effect == domain.EffectValueDerivation {
		return fmt.Sprintf("== \"%s\" ==>", quote(text))
	}
	return fmt.Sprintf("-- \"%s\" -->", quote(text))
}

// Mermaid ids cannot contain dots and "end" is reserved, hence the prefixes.
func nodeID(path string) string { return "c_" + sanitize(path) }

func stepID(id string) string { return "s_" + sanitize(id) }

func sanitize(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}

func quote(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
