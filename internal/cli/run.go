package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"focusgroup/internal/config"
	"focusgroup/pkg/agent"
	"focusgroup/pkg/costs"
	"focusgroup/pkg/output"
	"focusgroup/pkg/session"
	"focusgroup/pkg/storage"
	"focusgroup/pkg/tool"
)

var (
	runOutputDir string
	runDryRun    bool
	runYes       bool
	runTags      []string
)

var runCmd = &cobra.Command{
	Use:   "run <config-file>",
	Short: "Run a full feedback session from a config file",
	Long: `Run a complete feedback session described by a TOML config file.
The config names the tool under evaluation, the agent panel, the
question rounds, and the session mode.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "directory for session output files")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "show the session plan and cost estimate without executing")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "skip the cost confirmation prompt")
	runCmd.Flags().StringSliceVar(&runTags, "tag", nil, "tag the saved session (repeatable)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(args[0]).Load()
	if err != nil {
		return err
	}
	if runOutputDir != "" {
		cfg.Output.Directory = runOutputDir
	}
	cfg.Session.Tags = append(cfg.Session.Tags, runTags...)
	cfg.EnsureAgentNames()

	if err := config.NewValidator().Validate(cfg); err != nil {
		return err
	}

	estimate := costs.EstimateFromConfig(cfg)
	if runDryRun {
		printPlan(cmd, cfg, estimate)
		return nil
	}

	if estimate.ShouldConfirm() && !runYes {
		if !confirm(cmd, estimate) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	} else if estimate.ShouldWarn() {
		fmt.Fprintf(cmd.OutOrStdout(), "Note: %s\n", estimate.FormatShort())
	}

	return executeSession(cmd, cfg)
}

// printPlan shows what a session would do, without running it.
func printPlan(cmd *cobra.Command, cfg *config.Config, estimate costs.Estimate) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session plan for %q (%s mode)\n\n", cfg.Tool.Command, cfg.Session.Mode)
	fmt.Fprintln(out, "Agents:")
	for _, ag := range cfg.Agents {
		mode := ag.Mode
		if mode == "" {
			mode = config.AgentModeCLI
		}
		fmt.Fprintf(out, "  - %s (%s, %s mode)\n", ag.DisplayName(), ag.Provider, mode)
	}
	fmt.Fprintln(out, "\nQuestions:")
	for i, q := range cfg.Questions.Rounds {
		fmt.Fprintf(out, "  %d. %s\n", i+1, q)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, estimate.FormatDetailed())
}

func confirm(cmd *cobra.Command, estimate costs.Estimate) bool {
	fmt.Fprintln(cmd.OutOrStdout(), estimate.FormatDetailed())
	fmt.Fprint(cmd.OutOrStdout(), "\nProceed? [y/N] ")

	reader := bufio.NewReader(cmd.InOrStdin())
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// executeSession is the shared core of run and ask: build the agent
// panel, fetch tool context, run every round, persist and render.
func executeSession(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	// Session-level exploration turns it on for the whole panel;
	// per-agent flags stand on their own.
	if cfg.Session.Exploration {
		for i := range cfg.Agents {
			cfg.Agents[i].Exploration = true
		}
	}

	registry := agent.NewRegistry()
	custom, err := config.LoadCustomProviders("")
	if err != nil {
		return err
	}
	if err := registry.RegisterCustomProviders(custom); err != nil {
		return err
	}

	opts := agent.Options{
		SessionTimeout: time.Duration(cfg.Session.AgentTimeout) * time.Second,
		Logger:         log.Zerolog(),
	}
	agents, err := registry.CreateAgents(cfg.Agents, opts)
	if err != nil {
		return err
	}

	evaluated := tool.New(cfg.Tool, log.Zerolog())
	help, err := evaluated.GetHelp(ctx)
	if err != nil {
		return err
	}

	var moderator *agent.Agent
	if cfg.Session.Moderator {
		moderator, err = session.NewModerator(registry, cfg, opts)
		if err != nil {
			return err
		}
	}

	runner, err := session.NewRunner(cfg, session.RunnerOptions{
		Agents:      agents,
		Moderator:   moderator,
		ToolContext: help.ContextString(cfg.Session.Exploration),
		ToolName:    evaluated.Name(),
		Logger:      log.Zerolog(),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	runner.OnRound = func(round *session.QuestionRound) {
		ok := 0
		for _, resp := range round.Responses {
			if !resp.Failed() {
				ok++
			}
		}
		fmt.Fprintf(out, "Round %d complete: %d/%d responses\n",
			round.RoundNumber, ok, len(round.Responses))
	}

	rec, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	rec.Tags = cfg.Session.Tags

	if cfg.Output.SaveLog {
		if err := saveRecord(cfg, rec, log.Zerolog()); err != nil {
			log.Warn().Err(err).Msg("failed to save session log")
		} else {
			fmt.Fprintf(out, "Session saved: %s\n", rec.DisplayID())
		}
	}

	if cfg.Output.Directory != "" {
		path, err := writeSessionFile(cfg, rec)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written: %s\n", path)
	}

	fmt.Fprintln(out)
	return renderRecord(out, rec, cfg.Output.Format)
}

func saveRecord(cfg *config.Config, rec *session.SessionRecord, log zerolog.Logger) error {
	store, err := storage.NewStore(filepath.Join(cfg.DataDir, "sessions.db"), log)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(rec)
}

// writeSessionFile writes the report into the configured output
// directory, named after the session's display id.
func writeSessionFile(cfg *config.Config, rec *session.SessionRecord) (string, error) {
	if err := os.MkdirAll(cfg.Output.Directory, 0o755); err != nil {
		return "", err
	}

	switch cfg.Output.Format {
	case "json":
		path := filepath.Join(cfg.Output.Directory, "session-"+rec.DisplayID()+".json")
		return path, output.NewJSONWriter().Write(rec, path)
	default:
		path := filepath.Join(cfg.Output.Directory, "session-"+rec.DisplayID()+".md")
		return path, output.NewMarkdownWriter().Write(rec, path)
	}
}
