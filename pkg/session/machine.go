package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"focusgroup/internal/config"
	"focusgroup/pkg/agent"
	"focusgroup/pkg/feedback"
)

// State tracks where a session is in its lifecycle. Failed is only
// reachable from NotStarted, when the configuration is rejected;
// agent failures mid-session degrade rounds but never fail the
// session itself.
type State int

const (
	StateNotStarted State = iota
	StateInRound
	StateSynthesizing
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInRound:
		return "in_round"
	case StateSynthesizing:
		return "synthesizing"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Phase names the four structured-mode phases, run in order.
type Phase struct {
	Name         string
	Instructions string
}

// structuredPhases guide agents through a complete evaluation. A
// structured session always runs all four, over the first configured
// question.
var structuredPhases = []Phase{
	{
		Name: "explore",
		Instructions: `## Phase: Exploration

Focus on understanding and first impressions:
- What is your initial understanding of this tool?
- How does it fit into typical agent workflows?
- What capabilities does it offer?
- What use cases seem most appropriate?

Share your initial impressions and understanding.`,
	},
	{
		Name: "critique",
		Instructions: `## Phase: Critique

Focus on issues, concerns, and problems:
- What issues or pain points do you see?
- What might be confusing or unclear?
- What could cause errors or frustration?
- What's missing or incomplete?

Be constructively critical - identify real problems.`,
	},
	{
		Name: "suggest",
		Instructions: `## Phase: Suggestions

Focus on recommendations and improvements:
- What specific changes would improve this tool?
- How could the issues identified be addressed?
- What new features would add value?
- How could the documentation be better?

Provide actionable recommendations.`,
	},
	{
		Name: "synthesize",
		Instructions: `## Phase: Synthesis

Provide your final summary:
- What are the key takeaways from this evaluation?
- What should be prioritized for improvement?
- What's the overall assessment of the tool?
- Any final thoughts or recommendations?

Synthesize the discussion into actionable conclusions.`,
	},
}

// Runner drives one session from configuration to a completed record.
type Runner struct {
	cfg         *config.Config
	agents      []*agent.Agent
	moderator   *agent.Agent
	dispatcher  *Dispatcher
	transcript  *Transcript
	record      *SessionRecord
	toolContext string
	toolName    string
	logger      zerolog.Logger

	state State

	// OnRound, when set, is called after each round completes; the
	// CLI uses it to stream progress.
	OnRound func(round *QuestionRound)
}

// RunnerOptions carry everything a Runner needs beyond configuration.
type RunnerOptions struct {
	Agents      []*agent.Agent
	Moderator   *agent.Agent
	ToolContext string
	ToolName    string
	Logger      zerolog.Logger
}

// NewRunner validates the configuration and prepares a session. A
// rejected configuration is the one path into the Failed state.
func NewRunner(cfg *config.Config, opts RunnerOptions) (*Runner, error) {
	r := &Runner{
		cfg:         cfg,
		agents:      opts.Agents,
		moderator:   opts.Moderator,
		transcript:  &Transcript{},
		toolContext: opts.ToolContext,
		toolName:    opts.ToolName,
		logger:      opts.Logger.With().Str("run_id", uuid.NewString()).Logger(),
		state:       StateNotStarted,
	}

	validator := config.Validator{}
	if err := validator.Validate(cfg); err != nil {
		r.state = StateFailed
		return nil, err
	}
	if len(opts.Agents) == 0 {
		r.state = StateFailed
		return nil, fmt.Errorf("session requires at least one agent")
	}
	// Transcript turns are keyed by display name; duplicates would
	// conflate two agents' contributions.
	names := make(map[string]struct{}, len(opts.Agents))
	for _, ag := range opts.Agents {
		if _, dup := names[ag.Name()]; dup {
			r.state = StateFailed
			return nil, fmt.Errorf("duplicate agent name %q", ag.Name())
		}
		names[ag.Name()] = struct{}{}
	}

	schema, err := cfg.Schema()
	if err != nil {
		r.state = StateFailed
		return nil, err
	}
	extractor, err := feedback.NewExtractor(schema)
	if err != nil {
		r.state = StateFailed
		return nil, err
	}

	r.dispatcher = NewDispatcher(opts.Agents, cfg.Session.ParallelAgents, extractor, opts.Logger)
	r.record = NewSessionRecord(cfg.Session.Name, cfg.Tool.Command, string(cfg.Session.Mode), len(opts.Agents))
	return r, nil
}

// State returns the current lifecycle state.
func (r *Runner) State() State { return r.state }

// Record returns the session record accumulated so far.
func (r *Runner) Record() *SessionRecord { return r.record }

// Run executes every round for the configured mode, then moderator
// synthesis if enabled. The returned record is complete even when
// individual agents failed.
func (r *Runner) Run(ctx context.Context) (*SessionRecord, error) {
	if r.state != StateNotStarted {
		return nil, fmt.Errorf("session already started (state %s)", r.state)
	}

	r.logger.Info().
		Str("session_id", r.record.ID).
		Str("mode", r.record.Mode).
		Int("agents", len(r.agents)).
		Msg("session starting")

	switch r.cfg.Session.Mode {
	case config.ModeStructured:
		r.runStructured(ctx)
	case config.ModeDiscussion:
		r.runDiscussion(ctx)
	default:
		r.runSingle(ctx)
	}

	if r.moderator != nil {
		r.state = StateSynthesizing
		r.runSynthesis(ctx)
	}

	r.record.MarkComplete()
	r.state = StateComplete

	r.logger.Info().
		Str("session_id", r.record.ID).
		Int("rounds", len(r.record.Rounds)).
		Msg("session complete")
	return r.record, nil
}

// runSingle asks exactly one round on the first configured question;
// agents never see each other's answers.
func (r *Runner) runSingle(ctx context.Context) {
	question := r.cfg.Questions.Rounds[0]
	if len(r.cfg.Questions.Rounds) > 1 {
		r.logger.Warn().
			Int("ignored", len(r.cfg.Questions.Rounds)-1).
			Msg("single mode uses only the first question")
	}

	responses := r.dispatchRound(ctx, 1, RoundInput{
		Prompt:  r.withSchemaInstructions(question),
		Context: r.toolContext,
	})
	r.recordRound(1, question, responses)

	// Single-mode responses still feed moderator synthesis.
	r.appendTurns(responses, "response")
}

// runDiscussion carries the full transcript forward, so each round
// builds on everything said before it.
func (r *Runner) runDiscussion(ctx context.Context) {
	for i, question := range r.cfg.Questions.Rounds {
		responses := r.dispatchRound(ctx, i+1, RoundInput{
			Prompt:     r.withSchemaInstructions(question),
			Context:    r.toolContext,
			Transcript: r.transcript,
		})
		r.recordRound(i+1, question, responses)
		r.appendTurns(responses, "response")
	}
}

// runStructured runs the four phases over the first configured
// question; additional questions are ignored.
func (r *Runner) runStructured(ctx context.Context) {
	question := r.cfg.Questions.Rounds[0]
	if len(r.cfg.Questions.Rounds) > 1 {
		r.logger.Warn().
			Int("ignored", len(r.cfg.Questions.Rounds)-1).
			Msg("structured mode uses only the first question")
	}

	for i, phase := range structuredPhases {
		prompt := fmt.Sprintf("%s\n\n---\n\nOriginal question: %s", phase.Instructions, question)
		responses := r.dispatchRound(ctx, i+1, RoundInput{
			Prompt:     r.withSchemaInstructions(prompt),
			Context:    r.toolContext,
			Transcript: r.transcript,
			Phase:      phase.Name,
		})
		r.recordRound(i+1, question, responses)
		r.appendTurns(responses, phase.Name)
	}
}

func (r *Runner) dispatchRound(ctx context.Context, round int, in RoundInput) []AgentResponse {
	r.state = StateInRound
	r.logger.Info().Int("round", round).Msg("round starting")
	return r.dispatcher.Dispatch(ctx, in)
}

func (r *Runner) recordRound(round int, question string, responses []AgentResponse) {
	q := QuestionRound{
		RoundNumber: round,
		Question:    question,
		Responses:   responses,
	}
	r.record.Rounds = append(r.record.Rounds, q)

	if r.OnRound != nil {
		r.OnRound(&r.record.Rounds[len(r.record.Rounds)-1])
	}
}

// appendTurns adds successful responses to the transcript; failed
// slots contribute nothing to later context.
func (r *Runner) appendTurns(responses []AgentResponse, turnType string) {
	for _, resp := range responses {
		if !resp.Failed() {
			r.transcript.Add(resp.AgentName, resp.Response, turnType)
		}
	}
}

// withSchemaInstructions appends the JSON response instructions when a
// feedback schema is configured.
func (r *Runner) withSchemaInstructions(prompt string) string {
	schema, err := r.cfg.Schema()
	if err != nil || schema == nil {
		return prompt
	}
	return prompt + "\n\n" + schema.PromptInstructions()
}

// runSynthesis asks the moderator for a final synthesis. Synthesis
// failure leaves FinalSynthesis empty with the error recorded on the
// session; the session still completes.
func (r *Runner) runSynthesis(ctx context.Context) {
	if r.transcript.Len() == 0 {
		r.logger.Warn().Msg("no responses to synthesize")
		return
	}

	prompt := buildSynthesisPrompt(r.transcript, r.toolName)
	result, err := r.moderator.Invoker.Invoke(ctx, agent.Request{
		Prompt:       prompt,
		SystemPrompt: r.moderator.Config.SystemPrompt,
	})
	if err != nil {
		r.record.SynthesisError = err.Error()
		r.logger.Error().Err(err).Msg("moderator synthesis failed")
		return
	}

	r.record.FinalSynthesis = result.Text
	if n := len(r.record.Rounds); n > 0 {
		r.record.Rounds[n-1].ModeratorSynthesis = result.Text
	}
}
