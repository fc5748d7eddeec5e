package agent

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"focusgroup/internal/config"
)

// ProviderSpec defines how to drive an arbitrary CLI tool as an agent
// provider. Specs are loaded from providers.toml so users can add
// providers without writing Go.
type ProviderSpec struct {
	Name               string   `mapstructure:"name"`
	Command            string   `mapstructure:"command"`
	PromptFlag         string   `mapstructure:"prompt_flag"`
	ModelFlag          string   `mapstructure:"model_flag"`
	ExtraFlags         []string `mapstructure:"extra_flags"`
	PositionalPrompt   bool     `mapstructure:"positional_prompt"`
	Timeout            int      `mapstructure:"timeout"`             // seconds
	ExplorationTimeout int      `mapstructure:"exploration_timeout"` // seconds
	Description        string   `mapstructure:"description"`
}

// withDefaults fills unset spec values.
func (s ProviderSpec) withDefaults() ProviderSpec {
	if s.Command == "" {
		s.Command = s.Name
	}
	if s.PromptFlag == "" && !s.PositionalPrompt {
		s.PromptFlag = "-p"
	}
	if s.Timeout <= 0 {
		s.Timeout = int(DefaultTimeout / time.Second)
	}
	if s.ExplorationTimeout <= 0 {
		s.ExplorationTimeout = int(DefaultExplorationTimeout / time.Second)
	}
	return s
}

// GenericCLI drives any CLI tool described by a ProviderSpec.
type GenericCLI struct {
	runner cliRunner
	spec   ProviderSpec
	model  string
}

// NewGenericCLI creates an invoker from a user-defined provider spec.
func NewGenericCLI(spec ProviderSpec, cfg config.AgentConfig, sessionTimeout time.Duration, logger zerolog.Logger) *GenericCLI {
	spec = spec.withDefaults()
	standard := time.Duration(spec.Timeout) * time.Second
	exploration := time.Duration(spec.ExplorationTimeout) * time.Second

	return &GenericCLI{
		runner: cliRunner{
			provider: spec.Name,
			command:  spec.Command,
			timeout:  resolveTimeout(cfg, sessionTimeout, standard, exploration),
			logger:   logger,
		},
		spec:  spec,
		model: cfg.Model,
	}
}

// Provider returns the provider identifier
func (g *GenericCLI) Provider() string { return g.spec.Name }

// Timeout returns the effective per-invocation timeout
func (g *GenericCLI) Timeout() time.Duration { return g.runner.timeout }

// Invoke sends one prompt through the configured CLI.
func (g *GenericCLI) Invoke(ctx context.Context, req Request) (*Result, error) {
	prompt := combinePrompt(req.SystemPrompt, req.Prompt)

	args := append([]string{}, g.spec.ExtraFlags...)
	if g.spec.PositionalPrompt {
		args = append(args, prompt)
	} else {
		args = append(args, g.spec.PromptFlag, prompt)
	}
	if g.model != "" && g.spec.ModelFlag != "" {
		args = append(args, g.spec.ModelFlag, g.model)
	}

	text, elapsed, err := g.runner.run(ctx, args)
	if err != nil {
		return nil, err
	}
	return &Result{Text: text, Duration: elapsed}, nil
}
