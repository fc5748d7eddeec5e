package session

import (
	"fmt"
	"strings"

	"focusgroup/internal/config"
	"focusgroup/pkg/agent"
)

// DefaultModeratorPrompt is the system prompt given to the moderator
// agent when the configuration does not supply one.
const DefaultModeratorPrompt = `You are a moderator synthesizing feedback from multiple AI agents evaluating a CLI tool.

Your role is to:
1. Identify common themes and patterns across all agent responses
2. Highlight unique or particularly valuable insights from individual agents
3. Note any disagreements, tensions, or different perspectives between agents
4. Provide a clear, actionable summary organized by priority

Structure your synthesis as follows:

## Key Themes
[Common patterns and shared observations]

## Notable Insights
[Unique or particularly valuable points from specific agents]

## Areas of Disagreement
[Where agents had different perspectives, and what can be learned from each]

## Priority Recommendations
[Top 3-5 actionable items, ordered by importance]

## Overall Assessment
[Brief summary of the tool's current state and path forward]

Be concise but comprehensive. Focus on what's most useful for improving the tool.
Attribute specific insights to agents when relevant.`

// NewModerator builds the moderator agent. Without an explicit
// moderator config it defaults to a Claude agent with the standard
// synthesis prompt.
func NewModerator(registry *agent.Registry, cfg *config.Config, opts agent.Options) (*agent.Agent, error) {
	agentCfg := config.AgentConfig{
		Provider:     "claude",
		Name:         "Moderator",
		SystemPrompt: DefaultModeratorPrompt,
	}
	if cfg.Session.ModeratorAgent != nil {
		agentCfg = *cfg.Session.ModeratorAgent
		if agentCfg.Name == "" {
			agentCfg.Name = "Moderator"
		}
		if agentCfg.SystemPrompt == "" {
			agentCfg.SystemPrompt = DefaultModeratorPrompt
		}
	}

	moderator, err := registry.CreateAgent(agentCfg, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create moderator: %w", err)
	}
	return moderator, nil
}

// buildSynthesisPrompt renders the whole transcript for the moderator,
// grouped by agent so each perspective reads as one block.
func buildSynthesisPrompt(transcript *Transcript, toolName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Feedback Synthesis Request: %s\n\n", toolName)
	b.WriteString("## Agent Responses\n\n")

	var order []string
	grouped := make(map[string][]Turn)
	for _, turn := range transcript.Turns() {
		if _, seen := grouped[turn.AgentName]; !seen {
			order = append(order, turn.AgentName)
		}
		grouped[turn.AgentName] = append(grouped[turn.AgentName], turn)
	}

	for _, name := range order {
		fmt.Fprintf(&b, "### %s\n", name)
		for _, turn := range grouped[name] {
			fmt.Fprintf(&b, "[%s] %s\n", turn.TurnType, turn.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	b.WriteString("Please synthesize the above feedback following your moderation guidelines.\n")
	b.WriteString("Focus on actionable insights and clear priorities.")
	return b.String()
}
