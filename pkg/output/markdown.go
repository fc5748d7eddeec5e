package output

import (
	"fmt"
	"os"
	"strings"

	"focusgroup/pkg/session"
)

// MarkdownWriter produces a human-readable session report.
type MarkdownWriter struct {
	IncludeMetadata   bool
	IncludeTimestamps bool
}

// NewMarkdownWriter returns a writer with the standard report settings.
func NewMarkdownWriter() *MarkdownWriter {
	return &MarkdownWriter{IncludeMetadata: true}
}

// Format renders a session record as a Markdown document.
func (w *MarkdownWriter) Format(rec *session.SessionRecord) string {
	var b strings.Builder

	title := rec.Name
	if title == "" {
		title = "Focusgroup Session: " + rec.Tool
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**Session ID:** `%s`\n", rec.DisplayID())
	fmt.Fprintf(&b, "**Tool:** `%s`\n", rec.Tool)
	fmt.Fprintf(&b, "**Date:** %s\n", rec.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "**Mode:** %s\n\n", rec.Mode)

	w.writeOverview(&b, rec)

	for _, round := range rec.Rounds {
		w.writeRound(&b, round)
	}

	if rec.FinalSynthesis != "" {
		fmt.Fprintf(&b, "# Final Synthesis\n\n%s\n", rec.FinalSynthesis)
	}

	return b.String()
}

// Write renders the session and writes it to a file.
func (w *MarkdownWriter) Write(rec *session.SessionRecord, path string) error {
	return os.WriteFile(path, []byte(w.Format(rec)), 0o644)
}

func (w *MarkdownWriter) writeOverview(b *strings.Builder, rec *session.SessionRecord) {
	status := "In Progress"
	if rec.IsComplete() {
		status = "Complete"
	}

	b.WriteString("## Overview\n\n")
	fmt.Fprintf(b, "- **Status:** %s\n", status)
	fmt.Fprintf(b, "- **Agents:** %d\n", rec.AgentCount)
	fmt.Fprintf(b, "- **Rounds:** %d\n", len(rec.Rounds))

	if w.IncludeMetadata {
		sum := rec.Summarize()
		if sum.TotalTokens > 0 {
			fmt.Fprintf(b, "- **Total Tokens:** %d\n", sum.TotalTokens)
		}
		if sum.TotalDurationMS > 0 {
			fmt.Fprintf(b, "- **Total Response Time:** %.1fs\n", float64(sum.TotalDurationMS)/1000)
		}
		if rec.CompletedAt != nil {
			fmt.Fprintf(b, "- **Session Duration:** %.1fs\n", sum.WallTimeSeconds)
		}
	}
	b.WriteString("\n")
}

func (w *MarkdownWriter) writeRound(b *strings.Builder, round session.QuestionRound) {
	fmt.Fprintf(b, "## Round %d\n\n", round.RoundNumber)
	fmt.Fprintf(b, "**Question:** %s\n\n", round.Question)

	for _, resp := range round.Responses {
		w.writeResponse(b, resp)
		b.WriteString("\n")
	}

	if round.ModeratorSynthesis != "" {
		fmt.Fprintf(b, "### Round Synthesis\n\n%s\n\n", round.ModeratorSynthesis)
	}
}

func (w *MarkdownWriter) writeResponse(b *strings.Builder, resp session.AgentResponse) {
	header := []string{fmt.Sprintf("**%s**", resp.AgentName)}
	if resp.Model != "" {
		header = append(header, fmt.Sprintf("(%s)", resp.Model))
	}

	var meta []string
	if w.IncludeMetadata {
		if resp.DurationMS > 0 {
			meta = append(meta, fmt.Sprintf("%dms", resp.DurationMS))
		}
		if resp.TokensUsed > 0 {
			meta = append(meta, fmt.Sprintf("%d tokens", resp.TokensUsed))
		}
	}
	if w.IncludeTimestamps {
		meta = append(meta, resp.Timestamp.Format("15:04:05"))
	}
	if len(meta) > 0 {
		header = append(header, fmt.Sprintf("*[%s]*", strings.Join(meta, ", ")))
	}
	b.WriteString(strings.Join(header, " "))
	b.WriteString("\n\n")

	if resp.Failed() {
		fmt.Fprintf(b, "> _(%s: %s)_\n", resp.ErrorKind, resp.Error)
		return
	}

	for _, line := range strings.Split(strings.TrimSpace(resp.Response), "\n") {
		fmt.Fprintf(b, "> %s\n", line)
	}
}
