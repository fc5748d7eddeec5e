package agent

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"focusgroup/internal/config"
)

// ClaudeCLI invokes the Claude Code CLI (`claude -p <prompt>`). Using
// the real CLI gives authentic agent behavior: the same binary agents
// themselves run.
type ClaudeCLI struct {
	runner cliRunner
	model  string
}

// NewClaudeCLI creates a Claude CLI invoker for the given agent config.
func NewClaudeCLI(cfg config.AgentConfig, sessionTimeout time.Duration, logger zerolog.Logger) *ClaudeCLI {
	return &ClaudeCLI{
		runner: cliRunner{
			provider: "claude",
			command:  "claude",
			timeout:  resolveTimeout(cfg, sessionTimeout, DefaultTimeout, DefaultExplorationTimeout),
			logger:   logger,
		},
		model: cfg.Model,
	}
}

// Provider returns the provider identifier
func (c *ClaudeCLI) Provider() string { return "claude" }

// Timeout returns the effective per-invocation timeout
func (c *ClaudeCLI) Timeout() time.Duration { return c.runner.timeout }

// Invoke sends one prompt through the Claude CLI and returns its output.
func (c *ClaudeCLI) Invoke(ctx context.Context, req Request) (*Result, error) {
	args := []string{"-p", combinePrompt(req.SystemPrompt, req.Prompt), "--dangerously-skip-permissions"}
	if c.model != "" {
		args = append(args, "--model", c.model)
	}

	text, elapsed, err := c.runner.run(ctx, args)
	if err != nil {
		return nil, err
	}
	return &Result{Text: text, Duration: elapsed}, nil
}
