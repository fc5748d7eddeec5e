package cli

import (
	"fmt"
	"io"

	"focusgroup/pkg/output"
	"focusgroup/pkg/session"
)

// renderRecord writes a session in the requested format.
func renderRecord(w io.Writer, rec *session.SessionRecord, format string) error {
	switch format {
	case "json":
		content, err := output.NewJSONWriter().Format(rec)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, content)
	case "markdown":
		fmt.Fprint(w, output.NewMarkdownWriter().Format(rec))
	default:
		fmt.Fprint(w, output.NewTextWriter().Format(rec))
	}
	return nil
}
