package agent

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusgroup/internal/config"
)

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry()

	infos := r.List()
	require.Len(t, infos, 3)
	assert.Equal(t, "claude", infos[0].Name)
	assert.Equal(t, "codex", infos[1].Name)
	assert.Equal(t, "openai", infos[2].Name)

	claude, ok := r.Info("claude")
	require.True(t, ok)
	assert.True(t, claude.SupportsCLI)
	assert.True(t, claude.SupportsAPI)

	codex, ok := r.Info("codex")
	require.True(t, ok)
	assert.True(t, codex.SupportsCLI)
	assert.False(t, codex.SupportsAPI)

	openai, ok := r.Info("openai")
	require.True(t, ok)
	assert.False(t, openai.SupportsCLI)
	assert.True(t, openai.SupportsAPI)
}

func TestCreateAgentDefaultsToCLI(t *testing.T) {
	r := NewRegistry()

	a, err := r.CreateAgent(config.AgentConfig{Provider: "claude"}, Options{})
	require.NoError(t, err)
	assert.IsType(t, &ClaudeCLI{}, a.Invoker)
	assert.Equal(t, "claude", a.Invoker.Provider())

	// API-only providers fall back to API mode.
	a, err = r.CreateAgent(config.AgentConfig{Provider: "openai"}, Options{})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIAPI{}, a.Invoker)
}

func TestCreateAgentExplicitModes(t *testing.T) {
	r := NewRegistry()

	a, err := r.CreateAgent(config.AgentConfig{Provider: "claude", Mode: config.AgentModeAPI}, Options{})
	require.NoError(t, err)
	assert.IsType(t, &ClaudeAPI{}, a.Invoker)

	_, err = r.CreateAgent(config.AgentConfig{Provider: "codex", Mode: config.AgentModeAPI}, Options{})
	assert.ErrorContains(t, err, "does not support API mode")

	_, err = r.CreateAgent(config.AgentConfig{Provider: "openai", Mode: config.AgentModeCLI}, Options{})
	assert.ErrorContains(t, err, "does not support CLI mode")

	_, err = r.CreateAgent(config.AgentConfig{Provider: "goose"}, Options{})
	assert.ErrorContains(t, err, "unknown agent provider: goose")
}

func TestCreateAgentsReportsIndex(t *testing.T) {
	r := NewRegistry()

	agents, err := r.CreateAgents([]config.AgentConfig{
		{Provider: "claude", Name: "alpha"},
		{Provider: "codex", Name: "beta"},
	}, Options{})
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "alpha", agents[0].Name())
	assert.Equal(t, "beta", agents[1].Name())

	_, err = r.CreateAgents([]config.AgentConfig{
		{Provider: "claude"},
		{Provider: "missing"},
	}, Options{})
	assert.ErrorContains(t, err, "agent 1: unknown agent provider")
}

func TestRegisterSpec(t *testing.T) {
	r := NewRegistry()

	err := r.RegisterSpec(ProviderSpec{Name: "mycli", Command: "mycli-bin", Description: "local tool"})
	require.NoError(t, err)

	info, ok := r.Info("mycli")
	require.True(t, ok)
	assert.True(t, info.SupportsCLI)
	assert.False(t, info.SupportsAPI)
	assert.Equal(t, "local tool", info.Description)

	a, err := r.CreateAgent(config.AgentConfig{Provider: "mycli"}, Options{})
	require.NoError(t, err)
	assert.IsType(t, &GenericCLI{}, a.Invoker)

	assert.ErrorContains(t, r.RegisterSpec(ProviderSpec{Name: "claude"}), "already registered")
	assert.ErrorContains(t, r.RegisterSpec(ProviderSpec{}), "requires a name")
}

func TestRegisterCustomProviders(t *testing.T) {
	r := NewRegistry()

	err := r.RegisterCustomProviders(map[string]map[string]any{
		"gemini": {
			"command":     "gemini",
			"prompt_flag": "--prompt",
			"model_flag":  "--model",
			"description": "Gemini CLI",
			"timeout":     int64(60),
			"extra_flags": []any{"--no-color", "--quiet"},
		},
	})
	require.NoError(t, err)

	a, err := r.CreateAgent(config.AgentConfig{Provider: "gemini", Model: "flash"}, Options{})
	require.NoError(t, err)

	generic := a.Invoker.(*GenericCLI)
	assert.Equal(t, "gemini", generic.Provider())
	assert.Equal(t, 60*time.Second, generic.Timeout())
	assert.Equal(t, "--prompt", generic.spec.PromptFlag)
	assert.Equal(t, []string{"--no-color", "--quiet"}, generic.spec.ExtraFlags)
}

func TestResolveTimeout(t *testing.T) {
	standard := 120 * time.Second
	exploration := 300 * time.Second

	// Agent-level override wins.
	got := resolveTimeout(config.AgentConfig{Timeout: 45}, 90*time.Second, standard, exploration)
	assert.Equal(t, 45*time.Second, got)

	// Session-level next.
	got = resolveTimeout(config.AgentConfig{}, 90*time.Second, standard, exploration)
	assert.Equal(t, 90*time.Second, got)

	// Exploration bumps the provider default.
	got = resolveTimeout(config.AgentConfig{Exploration: true}, 0, standard, exploration)
	assert.Equal(t, exploration, got)

	got = resolveTimeout(config.AgentConfig{}, 0, standard, exploration)
	assert.Equal(t, standard, got)
}

func TestProviderSpecDefaults(t *testing.T) {
	spec := ProviderSpec{Name: "mycli"}.withDefaults()
	assert.Equal(t, "mycli", spec.Command)
	assert.Equal(t, "-p", spec.PromptFlag)
	assert.Equal(t, int(DefaultTimeout/time.Second), spec.Timeout)
	assert.Equal(t, int(DefaultExplorationTimeout/time.Second), spec.ExplorationTimeout)

	positional := ProviderSpec{Name: "mycli", PositionalPrompt: true}.withDefaults()
	assert.Empty(t, positional.PromptFlag)
}

var testLogger = zerolog.Nop()
