package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/stepform/pkg/domain"
)

type styles struct {
	title       lipgloss.Style
	progress    lipgloss.Style
	label       lipgloss.Style
	focused     lipgloss.Style
	placeholder lipgloss.Style
	disabled    lipgloss.Style
	errorText   lipgloss.Style
	helpText    lipgloss.Style
	notice      lipgloss.Style
	highlight   lipgloss.Style
	box         lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a78bfa")),
		progress:    lipgloss.NewStyle().Faint(true),
		label:       lipgloss.NewStyle(),
		focused:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f472b6")),
		placeholder: lipgloss.NewStyle().Faint(true).Italic(true),
		disabled:    lipgloss.NewStyle().Faint(true).Strikethrough(true),
		errorText:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),
		helpText:    lipgloss.NewStyle().Faint(true),
		notice:      lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b")),
		highlight:   lipgloss.NewStyle().Foreground(lipgloss.Color("#818cf8")),
		box:         lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

var statusMarks = map[domain.StepStatus]string{
	domain.StepCompleted:  "●",
	domain.StepActive:     "◉",
	domain.StepSkipped:    "◌",
	domain.StepNotVisited: "○",
}

func (a *App) View() string {
	if a.frame == nil {
		return ""
	}
	var sb strings.Builder
	h := a.frame.Header
	st := a.styles

	switch h.Phase {
	case domain.PhaseAllStepsComplete:
		sb.WriteString(st.title.Render("All steps complete") + "\n")
		sb.WriteString(st.helpText.Render("Press enter to submit or esc to review.") + "\n")
	case domain.PhaseSubmitted:
		return st.title.Render("Submitted.") + "\n"
	case domain.PhaseCancelled:
		return st.notice.Render("Cancelled.") + "\n"
	default:
		title := h.StepTitle
		if title == "" {
			title = h.StepID
		}
		sb.WriteString(st.title.Render(title) + "  " + st.progress.Render(progress(h)) + "\n")
		if h.StepDescription != "" {
			sb.WriteString(a.description(h.StepID, h.StepDescription) + "\n")
		}
		sb.WriteString("\n")
	}

	var body strings.Builder
	for _, ins := range a.frame.Instructions {
		if ins.Visible {
			a.writeInstruction(&body, ins)
		}
	}
	if body.Len() > 0 {
		box := st.box
		if a.width > 4 {
			box = box.Width(a.width - 2)
		}
		sb.WriteString(box.Render(strings.TrimRight(body.String(), "\n")) + "\n")
	}
	if h.Notice != "" {
		sb.WriteString(st.notice.Render("! "+h.Notice) + "\n")
	}
	sb.WriteString("\n" + a.help.View(a.keys) + "\n")
	return sb.String()
}

func progress(h domain.FrameHeader) string {
	marks := make([]string, len(h.Statuses))
	for i, s := range h.Statuses {
		marks[i] = statusMarks[s]
	}
	return fmt.Sprintf("%d/%d %s", h.StepIndex+1, h.StepCount, strings.Join(marks, ""))
}

// description renders markdown once per step.
func (a *App) description(step, text string) string {
	if a.markdown == nil {
		return text
	}
	if out, ok := a.rendered[step]; ok {
		return out
	}
	out, err := a.markdown(text)
	if err != nil {
		out = text
	}
	a.rendered[step] = out
	return out
}

func (a *App) writeInstruction(sb *strings.Builder, ins domain.DrawInstruction) {
	st := a.styles
	indent := strings.Repeat("  ", ins.Depth)
	label := ins.Label
	if ins.Required {
		label += "*"
	}
	labelStyle := st.label
	marker := "  "
	switch {
	case !ins.Enabled:
		labelStyle = st.disabled
	case ins.Focused:
		labelStyle = st.focused
		marker = "› "
	}

	switch ins.Kind {
	case domain.KindGroup:
		sb.WriteString(indent + marker + labelStyle.Render(label) + "\n")
		return
	case domain.KindStatic:
		sb.WriteString(indent + "  " + st.helpText.Render(ins.RenderedText) + "\n")
		return
	}

	value := ins.RenderedText
	switch {
	case ins.CursorHint != nil:
		r := []rune(value)
		pos := min(max(*ins.CursorHint, 0), len(r))
		value = string(r[:pos]) + st.highlight.Render("▏") + string(r[pos:])
	case value == "" && ins.Placeholder != "":
		value = st.placeholder.Render(ins.Placeholder)
	}
	if ins.Kind == domain.KindSingleSelect || ins.Kind == domain.KindMultiSelect {
		value = ""
	}
	sb.WriteString(indent + marker + labelStyle.Render(label+":") + " " + value + "\n")

	for _, opt := range ins.Options {
		box := "( )"
		if ins.Kind == domain.KindMultiSelect {
			box = "[ ]"
		}
		if opt.Selected {
			box = box[:1] + "x" + box[2:]
		}
		line := box + " " + opt.Value
		if opt.Highlighted {
			line = st.highlight.Render("› " + line)
			if opt.Description != "" {
				line += " " + st.helpText.Render(opt.Description)
			}
		} else {
			line = "  " + line
		}
		sb.WriteString(indent + "    " + line + "\n")
	}
	if ins.Focused && ins.Help != "" {
		sb.WriteString(indent + "    " + st.helpText.Render(ins.Help) + "\n")
	}
	if ins.Error != "" {
		sb.WriteString(indent + "    " + st.errorText.Render(ins.Error) + "\n")
	}
}
