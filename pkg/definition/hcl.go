package definition

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// HCL mirrors of the definition types. Block labels carry ids and names;
// free-form values are decoded as cty values and converted afterwards.

type hclDefinition struct {
	Name        string     `hcl:"name"`
	Title       string     `hcl:"title,optional"`
	Description string     `hcl:"description,optional"`
	Steps       []*hclStep `hcl:"step,block"`
	Edges       []*hclEdge `hcl:"edge,block"`
}

type hclStep struct {
	ID          string        `hcl:"id,label"`
	Title       string        `hcl:"title,optional"`
	Description string        `hcl:"description,optional"`
	SkipIf      string        `hcl:"skip_if,optional"`
	CompleteIf  string        `hcl:"complete_if,optional"`
	Controls    []*hclControl `hcl:"control,block"`
}

type hclControl struct {
	Name        string     `hcl:"name,label"`
	Label       string     `hcl:"label,optional"`
	Kind        string     `hcl:"kind"`
	Help        string     `hcl:"help,optional"`
	Placeholder string     `hcl:"placeholder,optional"`
	Required    bool       `hcl:"required,optional"`
	Default     *cty.Value `hcl:"default,optional"`

	MinLength     int    `hcl:"min_length,optional"`
	MaxLength     int    `hcl:"max_length,optional"`
	MaxLineLength int    `hcl:"max_line_length,optional"`
	Pattern       string `hcl:"pattern,optional"`
	Lowercase     bool   `hcl:"lowercase,optional"`
	Multiline     bool   `hcl:"multiline,optional"`

	Options      []string     `hcl:"options,optional"`
	OptionBlocks []*hclOption `hcl:"option,block"`
	MinSelected  int          `hcl:"min_selected,optional"`
	MaxSelected  int          `hcl:"max_selected,optional"`
	OmitIfFalse  bool         `hcl:"omit_if_false,optional"`
	Text         string       `hcl:"text,optional"`
	MinEntries   int          `hcl:"min_entries,optional"`
	MaxEntries   int          `hcl:"max_entries,optional"`

	VisibleIf   string   `hcl:"visible_if,optional"`
	EnabledIf   string   `hcl:"enabled_if,optional"`
	VisibleWhen *hclWhen `hcl:"visible_when,block"`
	EnabledWhen *hclWhen `hcl:"enabled_when,block"`
	Derive      string   `hcl:"derive,optional"`
	DependsOn   []string `hcl:"depends_on,optional"`

	Controls []*hclControl `hcl:"control,block"`
}

type hclOption struct {
	Value       string `hcl:"value,label"`
	Description string `hcl:"description,optional"`
}

type hclWhen struct {
	Control   string     `hcl:"control"`
	Equals    *cty.Value `hcl:"equals,optional"`
	NotEquals *cty.Value `hcl:"not_equals,optional"`
	Empty     bool       `hcl:"empty,optional"`
	Action    string     `hcl:"action,optional"`
}

type hclEdge struct {
	From   string `hcl:"from"`
	To     string `hcl:"to"`
	Effect string `hcl:"effect"`
	When   string `hcl:"when,optional"`
	Derive string `hcl:"derive,optional"`
}

func parseHCL(data []byte, filename string) (*Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, diags)
	}
	var dto hclDefinition
	if diags := gohcl.DecodeBody(file.Body, nil, &dto); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, diags)
	}
	return dto.definition(), nil
}

func (h *hclDefinition) definition() *Definition {
	def := &Definition{Name: h.Name, Title: h.Title, Description: h.Description}
	for _, s := range h.Steps {
		def.Steps = append(def.Steps, Step{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			SkipIf:      s.SkipIf,
			CompleteIf:  s.CompleteIf,
			Controls:    convertControls(s.Controls),
		})
	}
	for _, e := range h.Edges {
		def.Edges = append(def.Edges, Edge(*e))
	}
	return def
}

func convertControls(in []*hclControl) []Control {
	if len(in) == 0 {
		return nil
	}
	out := make([]Control, 0, len(in))
	for _, c := range in {
		ctl := Control{
			Name:          c.Name,
			Label:         c.Label,
			Kind:          c.Kind,
			Help:          c.Help,
			Placeholder:   c.Placeholder,
			Required:      c.Required,
			Default:       ctyToGo(c.Default),
			MinLength:     c.MinLength,
			MaxLength:     c.MaxLength,
			MaxLineLength: c.MaxLineLength,
			Pattern:       c.Pattern,
			Lowercase:     c.Lowercase,
			Multiline:     c.Multiline,
			MinSelected:   c.MinSelected,
			MaxSelected:   c.MaxSelected,
			OmitIfFalse:   c.OmitIfFalse,
			Text:          c.Text,
			MinEntries:    c.MinEntries,
			MaxEntries:    c.MaxEntries,
			VisibleIf:     c.VisibleIf,
			EnabledIf:     c.EnabledIf,
			VisibleWhen:   convertWhen(c.VisibleWhen),
			EnabledWhen:   convertWhen(c.EnabledWhen),
			Derive:        c.Derive,
			DependsOn:     c.DependsOn,
			Controls:      convertControls(c.Controls),
		}
		for _, v := range c.Options {
			ctl.Options = append(ctl.Options, Option{Value: v})
		}
		for _, o := range c.OptionBlocks {
			ctl.Options = append(ctl.Options, Option{Value: o.Value, Description: o.Description})
		}
		out = append(out, ctl)
	}
	return out
}

func convertWhen(w *hclWhen) *When {
	if w == nil {
		return nil
	}
	return &When{
		Control:   w.Control,
		Equals:    ctyToGo(w.Equals),
		NotEquals: ctyToGo(w.NotEquals),
		Empty:     w.Empty,
		Action:    w.Action,
	}
}

func ctyToGo(v *cty.Value) any {
	if v == nil {
		return nil
	}
	return ctyValueToInterface(*v)
}

// ctyValueToInterface converts a cty value into plain Go values. Lists of
// strings become []string so multi-select defaults need no coercion.
func ctyValueToInterface(val cty.Value) any {
	if val.IsNull() || !val.IsKnown() {
		return nil
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString()
	case ty == cty.Bool:
		return val.True()
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		var items []any
		strs := true
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			item := ctyValueToInterface(ev)
			if _, ok := item.(string); !ok {
				strs = false
			}
			items = append(items, item)
		}
		if strs {
			out := make([]string, len(items))
			for i, item := range items {
				out[i] = item.(string)
			}
			return out
		}
		return items
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			out[k.AsString()] = ctyValueToInterface(ev)
		}
		return out
	default:
		return nil
	}
}
