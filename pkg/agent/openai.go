package agent

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"focusgroup/internal/config"
)

const (
	defaultOpenAIModel  = "gpt-4o"
	openaiAPIKeyEnvName = "OPENAI_API_KEY"
)

// OpenAIAPI invokes OpenAI chat models through the HTTP API.
type OpenAIAPI struct {
	client  openai.Client
	model   string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewOpenAIAPI creates an OpenAI API invoker for the given agent config.
func NewOpenAIAPI(cfg config.AgentConfig, sessionTimeout time.Duration, logger zerolog.Logger) *OpenAIAPI {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIAPI{
		client:  openai.NewClient(option.WithAPIKey(os.Getenv(openaiAPIKeyEnvName))),
		model:   model,
		timeout: resolveTimeout(cfg, sessionTimeout, DefaultTimeout, DefaultExplorationTimeout),
		logger:  logger,
	}
}

// Provider returns the provider identifier
func (o *OpenAIAPI) Provider() string { return "openai" }

// Timeout returns the effective per-invocation timeout
func (o *OpenAIAPI) Timeout() time.Duration { return o.timeout }

// Invoke sends one prompt to the OpenAI chat completions API.
func (o *OpenAIAPI) Invoke(ctx context.Context, req Request) (*Result, error) {
	if os.Getenv(openaiAPIKeyEnvName) == "" {
		return nil, unavailableError("openai", openaiAPIKeyEnvName+" is not set", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: messages,
	}

	start := time.Now()
	completion, err := o.client.Chat.Completions.New(ctx, params)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, timeoutError("openai", o.timeout)
		}
		return nil, runtimeError("openai", err.Error(), err)
	}

	if len(completion.Choices) == 0 {
		return nil, runtimeError("openai", "empty completion response", nil)
	}

	return &Result{
		Text:     completion.Choices[0].Message.Content,
		Duration: elapsed,
		Usage: &TokenUsage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}, nil
}
