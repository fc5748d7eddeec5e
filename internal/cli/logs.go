package cli

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"focusgroup/internal/config"
	"focusgroup/pkg/output"
	"focusgroup/pkg/storage"
)

var (
	logsLimit        int
	logsTool         string
	logsTags         []string
	logsShowFormat   string
	logsExportFormat string
	exportPath       string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View and manage session logs",
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past sessions",
	RunE:  runLogsList,
}

var logsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a past session",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogsShow,
}

var logsExportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogsExport,
}

var logsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogsDelete,
}

func init() {
	logsListCmd.Flags().IntVarP(&logsLimit, "limit", "n", 10, "maximum number of sessions to show")
	logsListCmd.Flags().StringVarP(&logsTool, "tool", "t", "", "filter by tool command")
	logsListCmd.Flags().StringSliceVar(&logsTags, "tag", nil, "filter by tag (repeatable, all must match)")
	logsShowCmd.Flags().StringVarP(&logsShowFormat, "format", "f", "text", "output format: json, markdown, or text")
	logsExportCmd.Flags().StringVarP(&logsExportFormat, "format", "f", "markdown", "export format: json or markdown")
	logsExportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "output file path (default session-<id>.<ext>)")

	logsCmd.AddCommand(logsListCmd, logsShowCmd, logsExportCmd, logsDeleteCmd)
	rootCmd.AddCommand(logsCmd)
}

// openStore opens the session database in the data directory. Logs
// commands run without a session config; the data dir comes from the
// environment or its default.
func openStore() (*storage.Store, error) {
	return storage.NewStore(filepath.Join(config.DefaultDataDir(), "sessions.db"), zerolog.Nop())
}

func runLogsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(storage.ListOptions{
		Tool:  logsTool,
		Tags:  logsTags,
		Limit: logsLimit,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		return nil
	}

	for _, entry := range entries {
		status := "in progress"
		if entry.IsComplete {
			status = "complete"
		}
		name := entry.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(out, "%s  %-12s %-10s %d agents, %d rounds  %-11s %s\n",
			entry.DisplayID, entry.Tool, entry.Mode, entry.AgentCount, entry.RoundCount, status, name)
	}
	return nil
}

func runLogsShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Load(args[0])
	if err != nil {
		return err
	}
	return renderRecord(cmd.OutOrStdout(), rec, logsShowFormat)
}

func runLogsExport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Load(args[0])
	if err != nil {
		return err
	}

	path := exportPath
	switch logsExportFormat {
	case "json":
		if path == "" {
			path = "session-" + rec.DisplayID() + ".json"
		}
		err = output.NewJSONWriter().Write(rec, path)
	case "markdown":
		if path == "" {
			path = "session-" + rec.DisplayID() + ".md"
		}
		err = output.NewMarkdownWriter().Write(rec, path)
	default:
		return fmt.Errorf("unsupported export format: %s", logsExportFormat)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", rec.DisplayID(), path)
	return nil
}

func runLogsDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
	return nil
}
