package output

import (
	"fmt"
	"strings"

	"focusgroup/pkg/session"
)

// TextWriter produces compact terminal output.
type TextWriter struct {
	Width int
}

// NewTextWriter returns a writer with the standard terminal width.
func NewTextWriter() *TextWriter {
	return &TextWriter{Width: 80}
}

// Format renders a session record as plain text.
func (w *TextWriter) Format(rec *session.SessionRecord) string {
	width := w.Width
	if width <= 0 {
		width = 80
	}
	separator := strings.Repeat("=", width)
	divider := strings.Repeat("-", width)

	var b strings.Builder
	title := rec.Name
	if title == "" {
		title = "Focusgroup: " + rec.Tool
	}

	b.WriteString(separator + "\n")
	b.WriteString(center(title, width) + "\n")
	b.WriteString(center("Session: "+rec.DisplayID(), width) + "\n")
	b.WriteString(separator + "\n\n")

	status := "In Progress"
	if rec.IsComplete() {
		status = "Complete"
	}
	fmt.Fprintf(&b, "Mode: %s | Agents: %d | Status: %s\n\n", rec.Mode, rec.AgentCount, status)

	for _, round := range rec.Rounds {
		b.WriteString(divider + "\n")
		fmt.Fprintf(&b, "ROUND %d: %s\n", round.RoundNumber, round.Question)
		b.WriteString(divider + "\n\n")

		for _, resp := range round.Responses {
			fmt.Fprintf(&b, "[%s]\n", resp.AgentName)
			if resp.Failed() {
				fmt.Fprintf(&b, "(failed: %s)\n\n", resp.Error)
				continue
			}
			b.WriteString(strings.TrimSpace(resp.Response) + "\n\n")
		}

		if round.ModeratorSynthesis != "" {
			b.WriteString("[Moderator Synthesis]\n")
			b.WriteString(strings.TrimSpace(round.ModeratorSynthesis) + "\n\n")
		}
	}

	if rec.FinalSynthesis != "" {
		b.WriteString(separator + "\n")
		b.WriteString("FINAL SYNTHESIS\n")
		b.WriteString(separator + "\n")
		b.WriteString(strings.TrimSpace(rec.FinalSynthesis) + "\n")
	}

	return b.String()
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
