// Package costs gives rough, pre-flight cost estimates for a session.
// The figures are ballpark planning numbers, not billing data: actual
// cost depends on response lengths and provider pricing.
package costs

import (
	"fmt"
	"strings"

	"focusgroup/internal/config"
)

// Per-query cost estimates in USD, assuming typical help-text context
// and a medium-length response.
var providerCostPerQuery = map[string]float64{
	"claude": 0.015,
	"codex":  0.010,
	"openai": 0.010,
}

const (
	// defaultCostPerQuery covers unknown providers, conservatively.
	defaultCostPerQuery = 0.015

	// explorationMultiplier reflects the longer sessions and larger
	// responses of agents that run the tool themselves.
	explorationMultiplier = 3.0

	// Thresholds against the estimated total.
	WarnThreshold    = 0.10
	ConfirmThreshold = 0.25
)

// Estimate breaks down the expected cost of a session.
type Estimate struct {
	BaseCost        float64
	ExplorationCost float64
	SynthesisCost   float64
	TotalCost       float64
	AgentCount      int
	IsExploration   bool
	HasSynthesis    bool
	Warnings        []string
}

// ShouldWarn reports whether the estimate deserves a cost note.
func (e Estimate) ShouldWarn() bool { return e.TotalCost >= WarnThreshold }

// ShouldConfirm reports whether the user should confirm before running.
func (e Estimate) ShouldConfirm() bool { return e.TotalCost >= ConfirmThreshold }

// FormatShort renders a one-line summary for inline display.
func (e Estimate) FormatShort() string {
	plural := ""
	if e.AgentCount != 1 {
		plural = "s"
	}
	parts := []string{fmt.Sprintf("%d agent%s", e.AgentCount, plural)}
	if e.IsExploration {
		parts = append(parts, "exploration")
	}
	if e.HasSynthesis {
		parts = append(parts, "synthesis")
	}
	return fmt.Sprintf("%s (est. ~$%.2f)", strings.Join(parts, " + "), e.TotalCost)
}

// FormatDetailed renders a multi-line breakdown.
func (e Estimate) FormatDetailed() string {
	var b strings.Builder
	b.WriteString("Cost Estimate:\n")
	fmt.Fprintf(&b, "  Agents (%d): $%.3f\n", e.AgentCount, e.BaseCost)
	if e.IsExploration {
		fmt.Fprintf(&b, "  Exploration mode: +$%.3f\n", e.ExplorationCost)
	}
	if e.HasSynthesis {
		fmt.Fprintf(&b, "  Synthesis: +$%.3f\n", e.SynthesisCost)
	}
	b.WriteString("  -----------------\n")
	fmt.Fprintf(&b, "  Total: ~$%.2f", e.TotalCost)

	if len(e.Warnings) > 0 {
		b.WriteString("\n")
		for _, w := range e.Warnings {
			fmt.Fprintf(&b, "\n  Note: %s", w)
		}
	}
	return b.String()
}

// ProviderCost returns the per-query estimate for a provider.
func ProviderCost(provider string) float64 {
	if cost, ok := providerCostPerQuery[strings.ToLower(provider)]; ok {
		return cost
	}
	return defaultCostPerQuery
}

// EstimateFromConfig estimates the full session's cost from its
// configuration: every agent answers every round, exploration scales
// that up, and synthesis adds one moderator query whose context grows
// with panel size.
func EstimateFromConfig(cfg *config.Config) Estimate {
	agentCount := len(cfg.Agents)
	rounds := len(cfg.Questions.Rounds)
	switch cfg.Session.Mode {
	case config.ModeStructured:
		// Structured mode always runs its four phases.
		rounds = 4
	case config.ModeSingle:
		// Single mode runs one round on the first question.
		rounds = 1
	}

	var base float64
	exploration := cfg.Session.Exploration
	for _, ag := range cfg.Agents {
		base += ProviderCost(ag.Provider)
		if ag.Exploration {
			exploration = true
		}
	}
	base *= float64(rounds)

	var explorationCost float64
	if exploration {
		explorationCost = base * (explorationMultiplier - 1)
	}

	var synthesisCost float64
	if cfg.Session.Moderator {
		modProvider := "claude"
		if cfg.Session.ModeratorAgent != nil {
			modProvider = cfg.Session.ModeratorAgent.Provider
		}
		synthesisCost = ProviderCost(modProvider) + float64(agentCount)*0.002
	}

	est := Estimate{
		BaseCost:        base,
		ExplorationCost: explorationCost,
		SynthesisCost:   synthesisCost,
		TotalCost:       base + explorationCost + synthesisCost,
		AgentCount:      agentCount,
		IsExploration:   exploration,
		HasSynthesis:    cfg.Session.Moderator,
	}

	if agentCount > 5 {
		est.Warnings = append(est.Warnings, fmt.Sprintf("Large panel (%d agents) increases cost", agentCount))
	}
	if exploration && agentCount > 3 {
		est.Warnings = append(est.Warnings, "Exploration mode with many agents can be costly")
	}
	if rounds > 1 {
		est.Warnings = append(est.Warnings, fmt.Sprintf("Multiple rounds (%d) multiply agent costs", rounds))
	}
	return est
}
