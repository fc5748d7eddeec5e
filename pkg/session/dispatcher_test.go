package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusgroup/internal/config"
	"focusgroup/pkg/agent"
)

// fakeInvoker scripts agent behavior for tests.
type fakeInvoker struct {
	provider string
	delay    time.Duration
	respond  func(req agent.Request) (*agent.Result, error)

	mu    sync.Mutex
	calls []agent.Request
}

func (f *fakeInvoker) Provider() string       { return f.provider }
func (f *fakeInvoker) Timeout() time.Duration { return time.Minute }

func (f *fakeInvoker) recorded() []agent.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]agent.Request, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeInvoker) Invoke(ctx context.Context, req agent.Request) (*agent.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.respond(req)
}

func textResponder(text string) func(agent.Request) (*agent.Result, error) {
	return func(agent.Request) (*agent.Result, error) {
		return &agent.Result{Text: text, Duration: 5 * time.Millisecond}, nil
	}
}

func newFakeAgent(name, provider string, inv agent.Invoker) *agent.Agent {
	return &agent.Agent{
		Config:  config.AgentConfig{Provider: provider, Name: name},
		Invoker: inv,
	}
}

func TestDispatchParallelPreservesPanelOrder(t *testing.T) {
	// The slowest agent is first; its slot must still come first.
	agents := []*agent.Agent{
		newFakeAgent("slow", "claude", &fakeInvoker{provider: "claude", delay: 30 * time.Millisecond, respond: textResponder("slow answer")}),
		newFakeAgent("fast", "codex", &fakeInvoker{provider: "codex", respond: textResponder("fast answer")}),
		newFakeAgent("mid", "claude", &fakeInvoker{provider: "claude", delay: 10 * time.Millisecond, respond: textResponder("mid answer")}),
	}

	d := NewDispatcher(agents, true, nil, zerolog.Nop())
	responses := d.Dispatch(context.Background(), RoundInput{Prompt: "rate this tool"})

	require.Len(t, responses, 3)
	assert.Equal(t, "slow", responses[0].AgentName)
	assert.Equal(t, "fast", responses[1].AgentName)
	assert.Equal(t, "mid", responses[2].AgentName)
	assert.Equal(t, "slow answer", responses[0].Response)
}

func TestDispatchFailureDoesNotAbortRound(t *testing.T) {
	failing := &fakeInvoker{provider: "codex", respond: func(agent.Request) (*agent.Result, error) {
		return nil, &agent.Error{Kind: agent.ErrTimeout, Provider: "codex", Message: "timed out after 120s"}
	}}
	agents := []*agent.Agent{
		newFakeAgent("a", "claude", &fakeInvoker{provider: "claude", respond: textResponder("ok")}),
		newFakeAgent("b", "codex", failing),
		newFakeAgent("c", "claude", &fakeInvoker{provider: "claude", respond: textResponder("also ok")}),
	}

	d := NewDispatcher(agents, true, nil, zerolog.Nop())
	responses := d.Dispatch(context.Background(), RoundInput{Prompt: "q"})

	require.Len(t, responses, 3)
	assert.False(t, responses[0].Failed())
	assert.True(t, responses[1].Failed())
	assert.Equal(t, string(agent.ErrTimeout), responses[1].ErrorKind)
	assert.Empty(t, responses[1].Response)
	assert.False(t, responses[2].Failed())
}

func TestDispatchRetriesRateLimit(t *testing.T) {
	attempts := 0
	flaky := &fakeInvoker{provider: "claude", respond: func(agent.Request) (*agent.Result, error) {
		attempts++
		if attempts < 3 {
			return nil, &agent.Error{
				Kind:        agent.ErrRuntime,
				Provider:    "claude",
				Message:     "rate limit exceeded",
				RateLimited: true,
				RetryAfter:  time.Second,
			}
		}
		return &agent.Result{Text: "finally"}, nil
	}}

	d := NewDispatcher([]*agent.Agent{newFakeAgent("a", "claude", flaky)}, true, nil, zerolog.Nop())
	var slept []time.Duration
	d.sleep = func(ctx context.Context, dur time.Duration) error {
		slept = append(slept, dur)
		return nil
	}

	responses := d.Dispatch(context.Background(), RoundInput{Prompt: "q"})
	require.Len(t, responses, 1)
	assert.False(t, responses[0].Failed())
	assert.Equal(t, "finally", responses[0].Response)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, slept)
	assert.Equal(t, 3, attempts)
}

func TestDispatchRateLimitRetriesExhausted(t *testing.T) {
	flaky := &fakeInvoker{provider: "claude", respond: func(agent.Request) (*agent.Result, error) {
		return nil, &agent.Error{
			Kind:        agent.ErrRuntime,
			Provider:    "claude",
			Message:     "too many requests",
			RateLimited: true,
		}
	}}

	d := NewDispatcher([]*agent.Agent{newFakeAgent("a", "claude", flaky)}, true, nil, zerolog.Nop())
	d.sleep = func(ctx context.Context, dur time.Duration) error { return nil }

	responses := d.Dispatch(context.Background(), RoundInput{Prompt: "q"})
	require.Len(t, responses, 1)
	assert.True(t, responses[0].Failed())
	assert.Equal(t, string(agent.ErrRuntime), responses[0].ErrorKind)
	assert.Equal(t, 3, len(flaky.recorded()))
}

func TestDispatchSequentialSameRoundVisibility(t *testing.T) {
	first := &fakeInvoker{provider: "claude", respond: textResponder("the config file is confusing")}
	second := &fakeInvoker{provider: "codex", respond: textResponder("agreed")}
	agents := []*agent.Agent{
		newFakeAgent("alpha", "claude", first),
		newFakeAgent("beta", "codex", second),
	}

	d := NewDispatcher(agents, false, nil, zerolog.Nop())
	responses := d.Dispatch(context.Background(), RoundInput{Prompt: "what do you think?"})

	require.Len(t, responses, 2)
	firstCalls := first.recorded()
	require.Len(t, firstCalls, 1)
	assert.NotContains(t, firstCalls[0].Prompt, "Previous Responses")

	secondCalls := second.recorded()
	require.Len(t, secondCalls, 1)
	assert.Contains(t, secondCalls[0].Prompt, "### alpha")
	assert.Contains(t, secondCalls[0].Prompt, "the config file is confusing")
}

func TestDispatchSequentialSkipsFailedTurns(t *testing.T) {
	failing := &fakeInvoker{provider: "claude", respond: func(agent.Request) (*agent.Result, error) {
		return nil, &agent.Error{Kind: agent.ErrUnavailable, Provider: "claude", Message: "not installed"}
	}}
	second := &fakeInvoker{provider: "codex", respond: textResponder("fine")}
	agents := []*agent.Agent{
		newFakeAgent("alpha", "claude", failing),
		newFakeAgent("beta", "codex", second),
	}

	d := NewDispatcher(agents, false, nil, zerolog.Nop())
	d.Dispatch(context.Background(), RoundInput{Prompt: "q"})

	calls := second.recorded()
	require.Len(t, calls, 1)
	assert.NotContains(t, calls[0].Prompt, "### alpha")
}

func TestDispatchSequentialExcludesOwnTurnsFromContext(t *testing.T) {
	transcript := &Transcript{}
	transcript.Add("alpha", "my earlier take", "response")
	transcript.Add("beta", "different view", "response")

	alpha := &fakeInvoker{provider: "claude", respond: textResponder("x")}
	d := NewDispatcher([]*agent.Agent{newFakeAgent("alpha", "claude", alpha)}, false, nil, zerolog.Nop())
	d.Dispatch(context.Background(), RoundInput{Prompt: "q", Transcript: transcript})

	calls := alpha.recorded()
	require.Len(t, calls, 1)
	assert.NotContains(t, calls[0].Prompt, "my earlier take")
	assert.Contains(t, calls[0].Prompt, "different view")
}

func TestDispatchParallelKeepsOwnTurnsInContext(t *testing.T) {
	transcript := &Transcript{}
	transcript.Add("alpha", "my earlier take", "response")
	transcript.Add("beta", "different view", "response")

	alpha := &fakeInvoker{provider: "claude", respond: textResponder("x")}
	d := NewDispatcher([]*agent.Agent{newFakeAgent("alpha", "claude", alpha)}, true, nil, zerolog.Nop())
	d.Dispatch(context.Background(), RoundInput{Prompt: "q", Transcript: transcript})

	calls := alpha.recorded()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "my earlier take")
	assert.Contains(t, calls[0].Prompt, "different view")
}

func TestBuildAgentPromptContextLayout(t *testing.T) {
	transcript := &Transcript{}
	transcript.Add("alpha", "earlier words", "response")

	prompt := buildAgentPrompt("the question", "tool help text", transcript, "")
	assert.True(t, strings.HasPrefix(prompt, "Context about the tool being evaluated:\n\ntool help text"))
	assert.Contains(t, prompt, "## Previous Responses")
	assert.True(t, strings.HasSuffix(prompt, "---\n\nthe question"))

	// No context at all passes the prompt through unchanged.
	assert.Equal(t, "bare", buildAgentPrompt("bare", "", nil, ""))
}

func TestDispatchExtractsStructuredData(t *testing.T) {
	inv := &fakeInvoker{provider: "claude", respond: textResponder(`{"rating": 4, "reasoning": "works well"}`)}
	badInv := &fakeInvoker{provider: "codex", respond: textResponder("no json here")}

	extractor := newRatingExtractor(t)
	agents := []*agent.Agent{
		newFakeAgent("a", "claude", inv),
		newFakeAgent("b", "codex", badInv),
	}

	d := NewDispatcher(agents, true, extractor, zerolog.Nop())
	responses := d.Dispatch(context.Background(), RoundInput{Prompt: "rate it"})

	require.Len(t, responses, 2)
	require.NotNil(t, responses[0].StructuredData)
	assert.Equal(t, float64(4), responses[0].StructuredData["rating"])

	// Extraction failure keeps the raw text and records no error.
	assert.Nil(t, responses[1].StructuredData)
	assert.Equal(t, "no json here", responses[1].Response)
	assert.False(t, responses[1].Failed())
}

func TestDispatchLargePanelSlotCount(t *testing.T) {
	var agents []*agent.Agent
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("agent-%d", i)
		agents = append(agents, newFakeAgent(name, "claude",
			&fakeInvoker{provider: "claude", respond: textResponder(name + " says hi")}))
	}

	d := NewDispatcher(agents, true, nil, zerolog.Nop())
	responses := d.Dispatch(context.Background(), RoundInput{Prompt: "q"})

	require.Len(t, responses, 8)
	for i, resp := range responses {
		assert.Equal(t, fmt.Sprintf("agent-%d", i), resp.AgentName)
	}
}
