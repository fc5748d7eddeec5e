package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"focusgroup/pkg/agent"
	"focusgroup/pkg/feedback"
)

const (
	// Rate-limited invocations are retried with exponential backoff
	// before the failure is recorded.
	maxRateLimitRetries  = 2
	rateLimitBackoffBase = 2 * time.Second
)

// RoundInput describes one dispatch: the fully built question or
// phase prompt, the tool context, and the transcript visible to the
// panel.
type RoundInput struct {
	Prompt     string
	Context    string
	Transcript *Transcript
	Phase      string
}

// Dispatcher fans a round out to the agent panel. Failures never
// abort a round: each agent's slot is filled with either its answer
// or a recorded error.
type Dispatcher struct {
	agents    []*agent.Agent
	parallel  bool
	extractor *feedback.Extractor
	logger    zerolog.Logger

	// sleep is swapped out in tests so backoff does not wall-clock.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDispatcher creates a dispatcher over a fixed agent panel.
func NewDispatcher(agents []*agent.Agent, parallel bool, extractor *feedback.Extractor, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		agents:    agents,
		parallel:  parallel,
		extractor: extractor,
		logger:    logger,
		sleep:     sleepContext,
	}
}

// Dispatch runs one round across the panel. The result slice always
// has one entry per agent, in configured panel order.
func (d *Dispatcher) Dispatch(ctx context.Context, in RoundInput) []AgentResponse {
	if d.parallel {
		return d.dispatchParallel(ctx, in)
	}
	return d.dispatchSequential(ctx, in)
}

// dispatchParallel queries all agents concurrently. Every agent sees
// the full transcript as it stood when the round began, its own prior
// turns included. Results land in pre-sized slots indexed by panel
// position, so output order matches panel order regardless of
// completion order.
func (d *Dispatcher) dispatchParallel(ctx context.Context, in RoundInput) []AgentResponse {
	responses := make([]AgentResponse, len(d.agents))

	var wg sync.WaitGroup
	for i, ag := range d.agents {
		prompt := buildAgentPrompt(in.Prompt, in.Context, in.Transcript, "")

		wg.Add(1)
		go func(slot int, ag *agent.Agent, prompt string) {
			defer wg.Done()
			responses[slot] = d.invokeOne(ctx, ag, prompt, in.Phase)
		}(i, ag, prompt)
	}
	wg.Wait()

	return responses
}

// dispatchSequential queries agents one at a time. Each agent sees
// the answers already given earlier in the same round, but never its
// own previous turns.
func (d *Dispatcher) dispatchSequential(ctx context.Context, in RoundInput) []AgentResponse {
	responses := make([]AgentResponse, 0, len(d.agents))

	visible := &Transcript{}
	if in.Transcript != nil {
		visible.turns = in.Transcript.Turns()
	}

	for _, ag := range d.agents {
		prompt := buildAgentPrompt(in.Prompt, in.Context, visible, ag.Name())
		resp := d.invokeOne(ctx, ag, prompt, in.Phase)
		responses = append(responses, resp)

		if !resp.Failed() {
			visible.Add(resp.AgentName, resp.Response, "response")
		}
	}

	return responses
}

// invokeOne queries a single agent, retrying rate-limited failures
// with exponential backoff. The returned response always carries the
// agent identity; on failure it carries the error taxonomy instead of
// text.
func (d *Dispatcher) invokeOne(ctx context.Context, ag *agent.Agent, prompt, phase string) AgentResponse {
	resp := AgentResponse{
		AgentName: ag.Name(),
		Provider:  ag.Config.Provider,
		Model:     ag.Config.Model,
		Prompt:    prompt,
		Timestamp: time.Now(),
		Phase:     phase,
	}

	req := agent.Request{
		Prompt:       prompt,
		SystemPrompt: ag.Config.SystemPrompt,
	}

	var result *agent.Result
	var err error
	for attempt := 0; ; attempt++ {
		result, err = ag.Invoker.Invoke(ctx, req)
		if err == nil {
			break
		}

		var agentErr *agent.Error
		if !errors.As(err, &agentErr) || !agentErr.RateLimited || attempt >= maxRateLimitRetries {
			break
		}

		wait := agentErr.RetryAfter
		if wait <= 0 {
			wait = rateLimitBackoffBase << attempt
		}
		d.logger.Warn().
			Str("agent", ag.Name()).
			Dur("wait", wait).
			Int("attempt", attempt+1).
			Msg("rate limited, retrying")

		if sleepErr := d.sleep(ctx, wait); sleepErr != nil {
			break
		}
	}

	if err != nil {
		var agentErr *agent.Error
		if errors.As(err, &agentErr) {
			resp.ErrorKind = string(agentErr.Kind)
		} else {
			resp.ErrorKind = string(agent.ErrRuntime)
		}
		resp.Error = err.Error()

		d.logger.Error().
			Str("agent", ag.Name()).
			Str("kind", resp.ErrorKind).
			Msg("agent invocation failed")
		return resp
	}

	resp.Response = result.Text
	resp.DurationMS = result.Duration.Milliseconds()
	if result.Usage != nil {
		resp.TokensUsed = result.Usage.Total()
	}
	if d.extractor != nil {
		// Extraction failure is soft: raw text is kept as-is.
		resp.StructuredData = d.extractor.Extract(result.Text)
	}

	d.logger.Debug().
		Str("agent", ag.Name()).
		Int64("duration_ms", resp.DurationMS).
		Bool("structured", resp.StructuredData != nil).
		Msg("agent responded")
	return resp
}

// buildAgentPrompt assembles the final prompt an agent receives:
// tool context plus transcript first, then the question.
func buildAgentPrompt(prompt, toolContext string, transcript *Transcript, excludeAgent string) string {
	fullContext := toolContext
	if transcript != nil && transcript.Len() > 0 {
		history := transcript.Render(excludeAgent)
		if history != "" {
			if fullContext != "" {
				fullContext = fullContext + "\n\n" + history
			} else {
				fullContext = history
			}
		}
	}

	if fullContext == "" {
		return prompt
	}
	return fmt.Sprintf("Context about the tool being evaluated:\n\n%s\n\n---\n\n%s", fullContext, prompt)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
