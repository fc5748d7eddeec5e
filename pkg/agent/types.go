package agent

import (
	"context"
	"time"

	"focusgroup/internal/config"
)

// Default invocation timeouts, matching the CLI providers' behavior.
const (
	DefaultTimeout            = 120 * time.Second
	DefaultExplorationTimeout = 300 * time.Second
)

// Request contains the input for a single agent invocation.
type Request struct {
	Prompt       string `json:"prompt"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// Result contains the output of a successful agent invocation.
type Result struct {
	Text     string        `json:"text"`
	Duration time.Duration `json:"duration"`
	Usage    *TokenUsage   `json:"usage,omitempty"`
}

// TokenUsage tracks token consumption when the provider reports it.
// CLI providers generally do not.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns combined input and output tokens.
func (u *TokenUsage) Total() int {
	if u == nil {
		return 0
	}
	return u.InputTokens + u.OutputTokens
}

// Invoker wraps exactly one external call to an agent process or API.
// Implementations enforce their own timeout and return either a Result
// or a typed *Error; they never panic across the boundary.
type Invoker interface {
	// Provider returns the provider identifier (claude, codex, ...).
	Provider() string

	// Timeout returns the effective per-invocation timeout.
	Timeout() time.Duration

	// Invoke sends one prompt and waits for the complete response.
	Invoke(ctx context.Context, req Request) (*Result, error)
}

// Agent pairs a configured panel member with its invoker.
type Agent struct {
	Config  config.AgentConfig
	Invoker Invoker
}

// Name returns the agent's display name.
func (a *Agent) Name() string {
	return a.Config.DisplayName()
}

// resolveTimeout picks the effective timeout: the agent-level override
// wins, then the session-level override, then the provider default
// (longer when exploration is enabled).
func resolveTimeout(cfg config.AgentConfig, sessionTimeout time.Duration, standard, exploration time.Duration) time.Duration {
	if cfg.Timeout > 0 {
		return time.Duration(cfg.Timeout) * time.Second
	}
	if sessionTimeout > 0 {
		return sessionTimeout
	}
	if cfg.Exploration {
		return exploration
	}
	return standard
}
