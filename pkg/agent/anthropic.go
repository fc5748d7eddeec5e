package agent

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"focusgroup/internal/config"
)

const (
	defaultClaudeModel     = "claude-3-5-sonnet-20241022"
	defaultAPIMaxTokens    = 4096
	anthropicAPIKeyEnvName = "ANTHROPIC_API_KEY"
)

// ClaudeAPI invokes Claude through the Anthropic Messages API instead
// of the CLI. API mode reports real token usage.
type ClaudeAPI struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewClaudeAPI creates an Anthropic API invoker for the given agent config.
func NewClaudeAPI(cfg config.AgentConfig, sessionTimeout time.Duration, logger zerolog.Logger) *ClaudeAPI {
	model := cfg.Model
	if model == "" {
		model = defaultClaudeModel
	}
	return &ClaudeAPI{
		client:  anthropic.NewClient(option.WithAPIKey(os.Getenv(anthropicAPIKeyEnvName))),
		model:   model,
		timeout: resolveTimeout(cfg, sessionTimeout, DefaultTimeout, DefaultExplorationTimeout),
		logger:  logger,
	}
}

// Provider returns the provider identifier
func (c *ClaudeAPI) Provider() string { return "claude" }

// Timeout returns the effective per-invocation timeout
func (c *ClaudeAPI) Timeout() time.Duration { return c.timeout }

// Invoke sends one prompt to the Anthropic Messages API.
func (c *ClaudeAPI) Invoke(ctx context.Context, req Request) (*Result, error) {
	if os.Getenv(anthropicAPIKeyEnvName) == "" {
		return nil, unavailableError("claude", anthropicAPIKeyEnvName+" is not set", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: defaultAPIMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	start := time.Now()
	message, err := c.client.Messages.New(ctx, params)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, timeoutError("claude", c.timeout)
		}
		return nil, runtimeError("claude", err.Error(), err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return &Result{
		Text:     text,
		Duration: elapsed,
		Usage: &TokenUsage{
			InputTokens:  int(message.Usage.InputTokens),
			OutputTokens: int(message.Usage.OutputTokens),
		},
	}, nil
}
