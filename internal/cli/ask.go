package cli

import (
	"github.com/spf13/cobra"

	"focusgroup/internal/config"
)

var (
	askAgents      int
	askProviders   []string
	askModel       string
	askOutput      string
	askModerator   bool
	askExploration bool
	askSchema      string
)

var askCmd = &cobra.Command{
	Use:   "ask <tool> <question>",
	Short: "Quick ad-hoc query to an agent panel about a tool",
	Long: `Ask a single question about a tool without writing a config file.
A panel is built from the requested providers and the question runs
as a one-round single-mode session.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askAgents, "agents", "n", 3, "number of agents to query")
	askCmd.Flags().StringSliceVar(&askProviders, "provider", []string{"claude"}, "providers to cycle through when building the panel")
	askCmd.Flags().StringVar(&askModel, "model", "", "model override for every agent")
	askCmd.Flags().StringVarP(&askOutput, "output", "o", "text", "output format: json, markdown, or text")
	askCmd.Flags().BoolVar(&askModerator, "moderator", false, "synthesize responses with a moderator agent")
	askCmd.Flags().BoolVar(&askExploration, "exploration", false, "let agents run the tool themselves")
	askCmd.Flags().StringVar(&askSchema, "schema", "", "feedback schema preset (rating, pros-cons, review)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	cfg.DataDir = config.DefaultDataDir()
	cfg.Tool.Command = args[0]
	cfg.Questions.Rounds = []string{args[1]}
	cfg.Session.Mode = config.ModeSingle
	cfg.Session.Moderator = askModerator
	cfg.Session.Exploration = askExploration
	cfg.Session.SchemaPreset = askSchema
	cfg.Output.Format = askOutput

	if askAgents < 1 {
		askAgents = 1
	}
	for i := 0; i < askAgents; i++ {
		cfg.Agents = append(cfg.Agents, config.AgentConfig{
			Provider: askProviders[i%len(askProviders)],
			Model:    askModel,
		})
	}
	cfg.EnsureAgentNames()

	if err := config.NewValidator().Validate(cfg); err != nil {
		return err
	}
	return executeSession(cmd, cfg)
}
