package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionRecord(t *testing.T) {
	rec := NewSessionRecord("nightly review", "mytool", "discussion", 3)

	assert.Len(t, rec.ID, sessionIDLength)
	assert.Equal(t, "mytool", rec.Tool)
	assert.Equal(t, "discussion", rec.Mode)
	assert.Equal(t, 3, rec.AgentCount)
	assert.False(t, rec.IsComplete())

	other := NewSessionRecord("", "mytool", "single", 1)
	assert.NotEqual(t, rec.ID, other.ID)
}

func TestDisplayID(t *testing.T) {
	rec := NewSessionRecord("", "mytool", "single", 1)
	rec.CreatedAt = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	rec.ID = "a1b2c3d4"

	assert.Equal(t, "20250314-a1b2c3d4", rec.DisplayID())
}

func TestRecordJSONRoundTrip(t *testing.T) {
	rec := NewSessionRecord("review", "mytool", "structured", 2)
	rec.Tags = []string{"v2", "cli"}
	rec.Rounds = []QuestionRound{
		{
			RoundNumber: 1,
			Question:    "how is it?",
			Responses: []AgentResponse{
				{
					AgentName:      "alpha",
					Provider:       "claude",
					Model:          "sonnet",
					Prompt:         "how is it?",
					Response:       "fine",
					Timestamp:      time.Now().UTC(),
					DurationMS:     1200,
					TokensUsed:     340,
					StructuredData: map[string]any{"rating": float64(4)},
					Phase:          "explore",
				},
				{
					AgentName: "beta",
					Provider:  "codex",
					Prompt:    "how is it?",
					Timestamp: time.Now().UTC(),
					ErrorKind: "agent_timeout",
					Error:     "codex timed out after 2m0s",
				},
			},
		},
	}
	rec.FinalSynthesis = "overall positive"
	rec.MarkComplete()

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var back SessionRecord
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, rec.ID, back.ID)
	assert.Equal(t, rec.Tags, back.Tags)
	require.Len(t, back.Rounds, 1)
	require.Len(t, back.Rounds[0].Responses, 2)
	assert.Equal(t, float64(4), back.Rounds[0].Responses[0].StructuredData["rating"])
	assert.True(t, back.Rounds[0].Responses[1].Failed())
	assert.True(t, back.IsComplete())
}

func TestSummarize(t *testing.T) {
	rec := NewSessionRecord("", "mytool", "single", 2)
	rec.Rounds = []QuestionRound{
		{
			RoundNumber: 1,
			Responses: []AgentResponse{
				{AgentName: "alpha", Provider: "claude", DurationMS: 1000, TokensUsed: 100},
				{AgentName: "beta", Provider: "codex", DurationMS: 2000},
			},
		},
		{
			RoundNumber: 2,
			Responses: []AgentResponse{
				{AgentName: "alpha", Provider: "claude", DurationMS: 500, TokensUsed: 50},
				{AgentName: "beta", Provider: "codex", ErrorKind: "agent_runtime_failure"},
			},
		},
	}
	completed := rec.CreatedAt.Add(45 * time.Second)
	rec.CompletedAt = &completed

	sum := rec.Summarize()
	assert.Equal(t, 4, sum.TotalResponses)
	assert.Equal(t, 1, sum.FailedResponses)
	assert.Equal(t, 2, sum.UniqueProviders)
	assert.Equal(t, 150, sum.TotalTokens)
	assert.Equal(t, int64(3500), sum.TotalDurationMS)
	assert.InDelta(t, 45.0, sum.WallTimeSeconds, 0.01)
}

func TestTranscriptRender(t *testing.T) {
	tr := &Transcript{}
	assert.Equal(t, "", tr.Render(""))

	tr.Add("alpha", "first thought", "response")
	tr.Add("beta", "second thought", "response")

	full := tr.Render("")
	assert.Contains(t, full, "## Previous Responses")
	assert.Contains(t, full, "### alpha\nfirst thought")
	assert.Contains(t, full, "### beta\nsecond thought")

	filtered := tr.Render("alpha")
	assert.NotContains(t, filtered, "first thought")
	assert.Contains(t, filtered, "second thought")
}

func TestTranscriptTurnsIsCopy(t *testing.T) {
	tr := &Transcript{}
	tr.Add("alpha", "a", "response")

	turns := tr.Turns()
	turns[0].Content = "mutated"
	assert.Equal(t, "a", tr.Turns()[0].Content)
}
