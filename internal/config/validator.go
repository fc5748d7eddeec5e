package config

import (
	"fmt"
	"strings"
)

// ValidationError marks a configuration-level problem. Sessions with a
// validation error are rejected before anything runs.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

// Validator validates session configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the complete session configuration. It returns a
// *ValidationError aggregating every problem found, or nil.
func (v *Validator) Validate(cfg *Config) error {
	var problems []string

	if strings.TrimSpace(cfg.Tool.Command) == "" {
		problems = append(problems, "tool command cannot be empty")
	}
	switch cfg.Tool.Type {
	case "", ToolTypeCLI:
	default:
		problems = append(problems, fmt.Sprintf("invalid tool type: %q (only %q is supported)", cfg.Tool.Type, ToolTypeCLI))
	}

	if len(cfg.Agents) == 0 {
		problems = append(problems, "at least one agent must be configured")
	}
	for i, agent := range cfg.Agents {
		if strings.TrimSpace(agent.Provider) == "" {
			problems = append(problems, fmt.Sprintf("agent %d: provider is required", i))
		}
		if agent.Timeout < 0 {
			problems = append(problems, fmt.Sprintf("agent %d: timeout must be non-negative", i))
		}
		switch agent.Mode {
		case "", AgentModeCLI, AgentModeAPI:
		default:
			problems = append(problems, fmt.Sprintf("agent %d: invalid mode %q", i, agent.Mode))
		}
	}

	if len(cfg.Questions.Rounds) == 0 {
		problems = append(problems, "at least one question round is required")
	}
	for i, question := range cfg.Questions.Rounds {
		if strings.TrimSpace(question) == "" {
			problems = append(problems, fmt.Sprintf("question %d is empty", i))
		}
	}

	switch cfg.Session.Mode {
	case ModeSingle, ModeDiscussion, ModeStructured:
	default:
		problems = append(problems, fmt.Sprintf("invalid session mode: %q", cfg.Session.Mode))
	}

	if cfg.Session.AgentTimeout < 0 {
		problems = append(problems, "agent_timeout must be non-negative")
	}

	switch cfg.Output.Format {
	case "", "json", "markdown", "text":
	default:
		problems = append(problems, fmt.Sprintf("invalid output format: %q", cfg.Output.Format))
	}

	if schema, err := cfg.Schema(); err != nil {
		problems = append(problems, err.Error())
	} else if schema != nil {
		if err := schema.Validate(); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
