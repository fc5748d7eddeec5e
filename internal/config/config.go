package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// SessionMode selects how questions are presented to the agent panel.
type SessionMode string

const (
	ModeSingle     SessionMode = "single"     // one question, all agents respond once
	ModeDiscussion SessionMode = "discussion" // agents see prior rounds' responses
	ModeStructured SessionMode = "structured" // fixed explore/critique/suggest/synthesize phases
)

// AgentMode selects how an agent is invoked.
type AgentMode string

const (
	AgentModeCLI AgentMode = "cli" // spawn the provider's CLI binary
	AgentModeAPI AgentMode = "api" // call the provider's HTTP API
)

// Config is the complete configuration for a focusgroup session.
type Config struct {
	Session   SessionConfig   `json:"session" mapstructure:"session"`
	Tool      ToolConfig      `json:"tool" mapstructure:"tool"`
	Agents    []AgentConfig   `json:"agents" mapstructure:"agents"`
	Questions QuestionsConfig `json:"questions" mapstructure:"questions"`
	Output    OutputConfig    `json:"output" mapstructure:"output"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`

	// Data directory for session logs and the providers file
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// SessionConfig controls session behavior.
type SessionConfig struct {
	Name           string          `json:"name" mapstructure:"name"`
	Mode           SessionMode     `json:"mode" mapstructure:"mode"`
	Moderator      bool            `json:"moderator" mapstructure:"moderator"`
	ModeratorAgent *AgentConfig    `json:"moderator_agent,omitempty" mapstructure:"moderator_agent"`
	ParallelAgents bool            `json:"parallel_agents" mapstructure:"parallel_agents"`
	Exploration    bool            `json:"exploration" mapstructure:"exploration"`
	AgentTimeout   int             `json:"agent_timeout" mapstructure:"agent_timeout"` // seconds, 0 = provider default
	SchemaPreset   string          `json:"schema_preset" mapstructure:"schema_preset"`
	FeedbackSchema *FeedbackSchema `json:"feedback_schema,omitempty" mapstructure:"feedback_schema"`
	Tags           []string        `json:"tags,omitempty" mapstructure:"tags"`
}

// AgentConfig configures a single agent in the panel.
type AgentConfig struct {
	Provider     string    `json:"provider" mapstructure:"provider"`
	Mode         AgentMode `json:"mode" mapstructure:"mode"`
	Model        string    `json:"model" mapstructure:"model"`
	Name         string    `json:"name" mapstructure:"name"`
	SystemPrompt string    `json:"system_prompt" mapstructure:"system_prompt"`
	Exploration  bool      `json:"exploration" mapstructure:"exploration"`
	Timeout      int       `json:"timeout" mapstructure:"timeout"` // seconds, 0 = default
}

// DisplayName returns the agent's display name, derived from the
// provider and model when no explicit name is configured.
func (a AgentConfig) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	if a.Model != "" {
		return fmt.Sprintf("%s:%s", a.Provider, a.Model)
	}
	return a.Provider
}

// ToolTypeCLI wraps an executable command whose help output becomes
// agent context. It is the only tool type supported.
const ToolTypeCLI = "cli"

// ToolConfig describes the tool under evaluation.
type ToolConfig struct {
	Type          string   `json:"type" mapstructure:"type"` // cli
	Command       string   `json:"command" mapstructure:"command"`
	HelpArgs      []string `json:"help_args" mapstructure:"help_args"`
	WorkingDir    string   `json:"working_dir" mapstructure:"working_dir"`
	PathAdditions []string `json:"path_additions" mapstructure:"path_additions"`
}

// QuestionsConfig holds the ordered round questions.
type QuestionsConfig struct {
	Rounds []string `json:"rounds" mapstructure:"rounds"`
}

// OutputConfig controls how a finished session is rendered.
type OutputConfig struct {
	Format    string `json:"format" mapstructure:"format"` // json, markdown, text
	Directory string `json:"directory" mapstructure:"directory"`
	SaveLog   bool   `json:"save_log" mapstructure:"save_log"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns a config with defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			Mode:           ModeSingle,
			ParallelAgents: true,
		},
		Tool: ToolConfig{
			Type:     ToolTypeCLI,
			HelpArgs: []string{"--help"},
		},
		Output: OutputConfig{
			Format:  "text",
			SaveLog: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
	}
}

// EnsureAgentNames fills in missing display names and de-duplicates
// collisions by appending an index, so every agent name is unique
// within the session.
func (c *Config) EnsureAgentNames() {
	seen := make(map[string]int, len(c.Agents))
	for i := range c.Agents {
		name := c.Agents[i].DisplayName()
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s-%d", name, n+1)
		}
		if _, ok := seen[name]; !ok {
			seen[name] = 1
		}
		c.Agents[i].Name = name
	}
}

// Schema resolves the session's feedback schema: an inline schema wins
// over a preset name. Returns nil when neither is configured.
func (c *Config) Schema() (*FeedbackSchema, error) {
	if c.Session.FeedbackSchema != nil {
		return c.Session.FeedbackSchema, nil
	}
	if c.Session.SchemaPreset != "" {
		schema := SchemaPreset(c.Session.SchemaPreset)
		if schema == nil {
			return nil, fmt.Errorf("unknown schema preset: %s", c.Session.SchemaPreset)
		}
		return schema, nil
	}
	return nil, nil
}

// DefaultDataDir returns ~/.local/share/focusgroup, honoring
// XDG_DATA_HOME and the FOCUSGROUP_DATA_DIR override.
func DefaultDataDir() string {
	if dir := os.Getenv("FOCUSGROUP_DATA_DIR"); dir != "" {
		return dir
	}
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "focusgroup")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "focusgroup")
	}
	return filepath.Join(home, ".local", "share", "focusgroup")
}

// DefaultConfigDir returns ~/.config/focusgroup.
func DefaultConfigDir() string {
	if cfgHome := os.Getenv("XDG_CONFIG_HOME"); cfgHome != "" {
		return filepath.Join(cfgHome, "focusgroup")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "focusgroup")
	}
	return filepath.Join(home, ".config", "focusgroup")
}
