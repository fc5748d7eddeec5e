package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"focusgroup/internal/config"
)

// CodexCLI invokes the OpenAI Codex CLI (`codex exec <prompt>`), the
// terminal-based coding agent.
type CodexCLI struct {
	runner      cliRunner
	model       string
	exploration bool
}

// NewCodexCLI creates a Codex CLI invoker for the given agent config.
func NewCodexCLI(cfg config.AgentConfig, sessionTimeout time.Duration, logger zerolog.Logger) *CodexCLI {
	return &CodexCLI{
		runner: cliRunner{
			provider: "codex",
			command:  "codex",
			timeout:  resolveTimeout(cfg, sessionTimeout, DefaultTimeout, DefaultExplorationTimeout),
			logger:   logger,
		},
		model:       cfg.Model,
		exploration: cfg.Exploration,
	}
}

// Provider returns the provider identifier
func (c *CodexCLI) Provider() string { return "codex" }

// Timeout returns the effective per-invocation timeout
func (c *CodexCLI) Timeout() time.Duration { return c.runner.timeout }

// Invoke sends one prompt through the Codex CLI and returns its output.
// Exploration agents run with the permissive sandbox so they can
// execute the tool under evaluation.
func (c *CodexCLI) Invoke(ctx context.Context, req Request) (*Result, error) {
	prompt := combinePrompt(req.SystemPrompt, req.Prompt)

	var args []string
	if c.exploration {
		args = []string{"exec", "--sandbox", "danger-full-access", prompt}
	} else {
		args = []string{"exec", "--full-auto", prompt}
	}
	if c.model != "" {
		args = append(args, "--model", c.model)
	}

	text, elapsed, err := c.runner.run(ctx, args)
	if err != nil {
		if agentErr, ok := err.(*Error); ok && agentErr.Kind == ErrRuntime && isTrustMessage(agentErr.Message) {
			agentErr.Message = fmt.Sprintf(
				"codex requires a trusted directory for exploration; run from a git repository (%s)",
				agentErr.Message)
		}
		return nil, err
	}
	return &Result{Text: text, Duration: elapsed}, nil
}

// isTrustMessage detects Codex trusted-directory errors, which need
// different guidance than generic runtime failures.
func isTrustMessage(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range []string{"trusted", "untrusted", "approval", "not in a git repo", "trust directory"} {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
