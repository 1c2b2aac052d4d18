package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/aretw0/stepform/pkg/runner"
)

// NewMarkdownRenderer renders step descriptions as terminal markdown.
// width wraps the output; zero keeps glamour's default.
func NewMarkdownRenderer(width int) runner.ContentRenderer {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return func(md string) (string, error) { return md, nil }
	}
	return func(md string) (string, error) {
		out, err := r.Render(md)
		if err != nil {
			return "", err
		}
		return strings.Trim(out, "\n"), nil
	}
}
