package render

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepform/pkg/domain"
)

// Text renders a frame as plain lines for line-oriented terminals and logs.
// Hidden controls are left out.
func Text(frame *domain.Frame) string {
	if frame == nil {
		return ""
	}
	var sb strings.Builder
	h := frame.Header

	switch h.Phase {
	case domain.PhaseAllStepsComplete:
		sb.WriteString("All steps complete. Submit to finish or go back to review.\n")
	case domain.PhaseSubmitted:
		sb.WriteString("Submitted.\n")
	case domain.PhaseCancelled:
		sb.WriteString("Cancelled.\n")
	default:
		title := h.StepTitle
		if title == "" {
			title = h.StepID
		}
		fmt.Fprintf(&sb, "[%d/%d] %s\n", h.StepIndex+1, h.StepCount, title)
		if h.StepDescription != "" {
			sb.WriteString(h.StepDescription + "\n")
		}
	}

	for _, ins := range frame.Instructions {
		if !ins.Visible {
			continue
		}
		writeInstruction(&sb, ins)
	}
	if h.Notice != "" {
		sb.WriteString("! " + h.Notice + "\n")
	}
	return sb.String()
}

func writeInstruction(sb *strings.Builder, ins domain.DrawInstruction) {
	indent := strings.Repeat("  ", ins.Depth)
	marker := "  "
	if ins.Focused {
		marker = "> "
	}
	label := ins.Label
	if ins.Required {
		label += "*"
	}
	if !ins.Enabled {
		label += " (disabled)"
	}

	switch ins.Kind {
	case domain.KindGroup:
		fmt.Fprintf(sb, "%s%s%s\n", indent, marker, label)
		return
	case domain.KindStatic:
		fmt.Fprintf(sb, "%s  %s\n", indent, ins.RenderedText)
		return
	}

	text := ins.RenderedText
	if text == "" && ins.Placeholder != "" {
		text = "<" + ins.Placeholder + ">"
	}
	if ins.CursorHint != nil && *ins.CursorHint <= len([]rune(text)) && ins.RenderedText != "" {
		r := []rune(text)
		text = string(r[:*ins.CursorHint]) + "|" + string(r[*ins.CursorHint:])
	}
	fmt.Fprintf(sb, "%s%s%s: %s\n", indent, marker, label, text)

	for _, opt := range ins.Options {
		box := "( )"
		if ins.Kind == domain.KindMultiSelect {
			box = "[ ]"
		}
		if opt.Selected {
			box = box[:1] + "x" + box[2:]
		}
		cursor := " "
		if opt.Highlighted {
			cursor = ">"
		}
		line := fmt.Sprintf("%s    %s %s %s", indent, cursor, box, opt.Value)
		if opt.Description != "" {
			line += " - " + opt.Description
		}
		sb.WriteString(line + "\n")
	}
	if ins.Help != "" && ins.Focused {
		fmt.Fprintf(sb, "%s    ? %s\n", indent, ins.Help)
	}
	if ins.Error != "" {
		fmt.Fprintf(sb, "%s    ! %s\n", indent, ins.Error)
	}
}
