package agent

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"focusgroup/internal/config"
)

// Options carry session-level settings into invoker construction.
type Options struct {
	SessionTimeout time.Duration
	Logger         zerolog.Logger
}

// ProviderInfo describes a registered provider.
type ProviderInfo struct {
	Name        string
	Description string
	SupportsCLI bool
	SupportsAPI bool
}

type registration struct {
	info       ProviderInfo
	cliFactory func(cfg config.AgentConfig, opts Options) Invoker
	apiFactory func(cfg config.AgentConfig, opts Options) Invoker
}

// Registry maps provider identifiers to invoker factories. Providers
// are resolved once at session construction, never per round.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]registration
}

// NewRegistry creates a registry with the built-in providers.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[string]registration)}

	r.providers["claude"] = registration{
		info: ProviderInfo{
			Name:        "claude",
			Description: "Anthropic Claude (CLI and API)",
			SupportsCLI: true,
			SupportsAPI: true,
		},
		cliFactory: func(cfg config.AgentConfig, opts Options) Invoker {
			return NewClaudeCLI(cfg, opts.SessionTimeout, opts.Logger)
		},
		apiFactory: func(cfg config.AgentConfig, opts Options) Invoker {
			return NewClaudeAPI(cfg, opts.SessionTimeout, opts.Logger)
		},
	}
	r.providers["codex"] = registration{
		info: ProviderInfo{
			Name:        "codex",
			Description: "OpenAI Codex CLI agent (CLI only)",
			SupportsCLI: true,
		},
		cliFactory: func(cfg config.AgentConfig, opts Options) Invoker {
			return NewCodexCLI(cfg, opts.SessionTimeout, opts.Logger)
		},
	}
	r.providers["openai"] = registration{
		info: ProviderInfo{
			Name:        "openai",
			Description: "OpenAI GPT models (API only)",
			SupportsAPI: true,
		},
		apiFactory: func(cfg config.AgentConfig, opts Options) Invoker {
			return NewOpenAIAPI(cfg, opts.SessionTimeout, opts.Logger)
		},
	}

	return r
}

// RegisterSpec adds a user-defined CLI provider. It fails on
// collisions with an existing provider name.
func (r *Registry) RegisterSpec(spec ProviderSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("provider spec requires a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[spec.Name]; exists {
		return fmt.Errorf("provider already registered: %s", spec.Name)
	}

	r.providers[spec.Name] = registration{
		info: ProviderInfo{
			Name:        spec.Name,
			Description: spec.Description,
			SupportsCLI: true,
		},
		cliFactory: func(cfg config.AgentConfig, opts Options) Invoker {
			return NewGenericCLI(spec, cfg, opts.SessionTimeout, opts.Logger)
		},
	}
	return nil
}

// RegisterCustomProviders loads every spec from a providers.toml map.
func (r *Registry) RegisterCustomProviders(raw map[string]map[string]any) error {
	for name, settings := range raw {
		spec := specFromMap(name, settings)
		if err := r.RegisterSpec(spec); err != nil {
			return err
		}
	}
	return nil
}

// Info looks up a provider's descriptor.
func (r *Registry) Info(name string) (ProviderInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.providers[name]
	return reg.info, ok
}

// List returns all registered providers, sorted by name.
func (r *Registry) List() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.providers))
	for _, reg := range r.providers {
		infos = append(infos, reg.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// CreateAgent builds an agent from its configuration. Unknown
// providers and unsupported modes are configuration errors.
func (r *Registry) CreateAgent(cfg config.AgentConfig, opts Options) (*Agent, error) {
	r.mu.RLock()
	reg, ok := r.providers[cfg.Provider]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown agent provider: %s", cfg.Provider)
	}

	mode := cfg.Mode
	if mode == "" {
		// Prefer CLI mode, matching the provider's primary surface.
		if reg.cliFactory != nil {
			mode = config.AgentModeCLI
		} else {
			mode = config.AgentModeAPI
		}
	}

	var invoker Invoker
	switch mode {
	case config.AgentModeCLI:
		if reg.cliFactory == nil {
			return nil, fmt.Errorf("provider %s does not support CLI mode", cfg.Provider)
		}
		invoker = reg.cliFactory(cfg, opts)
	case config.AgentModeAPI:
		if reg.apiFactory == nil {
			return nil, fmt.Errorf("provider %s does not support API mode", cfg.Provider)
		}
		invoker = reg.apiFactory(cfg, opts)
	default:
		return nil, fmt.Errorf("invalid agent mode: %s", mode)
	}

	return &Agent{Config: cfg, Invoker: invoker}, nil
}

// CreateAgents builds the full panel in configured order.
func (r *Registry) CreateAgents(cfgs []config.AgentConfig, opts Options) ([]*Agent, error) {
	agents := make([]*Agent, 0, len(cfgs))
	for i, cfg := range cfgs {
		agent, err := r.CreateAgent(cfg, opts)
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
		agents = append(agents, agent)
	}
	return agents, nil
}

// specFromMap converts a providers.toml table into a ProviderSpec.
func specFromMap(name string, settings map[string]any) ProviderSpec {
	spec := ProviderSpec{Name: name}
	if v, ok := settings["command"].(string); ok {
		spec.Command = v
	}
	if v, ok := settings["prompt_flag"].(string); ok {
		spec.PromptFlag = v
	}
	if v, ok := settings["model_flag"].(string); ok {
		spec.ModelFlag = v
	}
	if v, ok := settings["positional_prompt"].(bool); ok {
		spec.PositionalPrompt = v
	}
	if v, ok := settings["description"].(string); ok {
		spec.Description = v
	}
	if v, ok := settings["timeout"].(int64); ok {
		spec.Timeout = int(v)
	}
	if v, ok := settings["exploration_timeout"].(int64); ok {
		spec.ExplorationTimeout = int(v)
	}
	if flags, ok := settings["extra_flags"].([]any); ok {
		for _, f := range flags {
			if s, ok := f.(string); ok {
				spec.ExtraFlags = append(spec.ExtraFlags, s)
			}
		}
	}
	return spec
}
