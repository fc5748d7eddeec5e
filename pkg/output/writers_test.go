package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusgroup/pkg/session"
)

func sampleRecord() *session.SessionRecord {
	rec := session.NewSessionRecord("API Review", "mytool", "discussion", 2)
	rec.CreatedAt = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rec.ID = "abc12345"
	rec.Rounds = []session.QuestionRound{
		{
			RoundNumber: 1,
			Question:    "What do you think of the CLI surface?",
			Responses: []session.AgentResponse{
				{
					AgentName:      "alpha",
					Provider:       "claude",
					Model:          "sonnet",
					Response:       "The flags are consistent.\nGood defaults.",
					Timestamp:      time.Date(2025, 6, 1, 10, 0, 5, 0, time.UTC),
					DurationMS:     2100,
					TokensUsed:     450,
					StructuredData: map[string]any{"rating": float64(4)},
				},
				{
					AgentName: "beta",
					Provider:  "codex",
					Timestamp: time.Date(2025, 6, 1, 10, 0, 6, 0, time.UTC),
					ErrorKind: "agent_timeout",
					Error:     "codex timed out after 2m0s",
				},
			},
			ModeratorSynthesis: "One agent responded; flags look fine.",
		},
	}
	rec.FinalSynthesis = "Overall the tool is in good shape."
	completed := rec.CreatedAt.Add(90 * time.Second)
	rec.CompletedAt = &completed
	return rec
}

func TestJSONWriterExportShape(t *testing.T) {
	out, err := NewJSONWriter().Format(sampleRecord())
	require.NoError(t, err)

	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &data))

	assert.Equal(t, "20250601-abc12345", data["id"])
	assert.Equal(t, "API Review", data["name"])
	assert.Equal(t, true, data["is_complete"])
	assert.Equal(t, float64(1), data["round_count"])
	assert.Equal(t, float64(2), data["agent_count"])
	assert.Equal(t, "Overall the tool is in good shape.", data["final_synthesis"])

	rounds := data["rounds"].([]any)
	require.Len(t, rounds, 1)
	round := rounds[0].(map[string]any)
	assert.Equal(t, float64(1), round["round_number"])
	responses := round["responses"].([]any)
	require.Len(t, responses, 2)

	first := responses[0].(map[string]any)
	assert.Equal(t, "alpha", first["agent_name"])
	assert.Equal(t, float64(450), first["tokens_used"])
	assert.Equal(t, float64(4), first["structured_data"].(map[string]any)["rating"])

	second := responses[1].(map[string]any)
	assert.Equal(t, "agent_timeout", second["error_kind"])

	summary := data["summary"].(map[string]any)
	assert.Equal(t, float64(2), summary["total_responses"])
	assert.Equal(t, float64(1), summary["failed_responses"])
	assert.Equal(t, float64(450), summary["total_tokens"])
	assert.Equal(t, float64(2100), summary["total_duration_ms"])
	assert.InDelta(t, 90.0, summary["wall_time_seconds"].(float64), 0.01)
	assert.ElementsMatch(t, []any{"claude", "codex"}, summary["unique_providers"].([]any))
}

func TestJSONWriterCompactAndMetadataToggle(t *testing.T) {
	w := &JSONWriter{Pretty: false, IncludeMetadata: false}
	out, err := w.Format(sampleRecord())
	require.NoError(t, err)

	assert.NotContains(t, out, "\n")
	assert.NotContains(t, out, "tokens_used")
	assert.Contains(t, out, `"agent_name":"alpha"`)
}

func TestJSONWriterWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, NewJSONWriter().Write(sampleRecord(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "mytool", parsed["tool"])
}

func TestMarkdownWriterReport(t *testing.T) {
	out := NewMarkdownWriter().Format(sampleRecord())

	assert.Contains(t, out, "# API Review")
	assert.Contains(t, out, "**Session ID:** `20250601-abc12345`")
	assert.Contains(t, out, "**Mode:** discussion")
	assert.Contains(t, out, "- **Status:** Complete")
	assert.Contains(t, out, "## Round 1")
	assert.Contains(t, out, "**Question:** What do you think of the CLI surface?")
	assert.Contains(t, out, "**alpha** (sonnet) *[2100ms, 450 tokens]*")
	assert.Contains(t, out, "> The flags are consistent.\n> Good defaults.")
	assert.Contains(t, out, "> _(agent_timeout: codex timed out after 2m0s)_")
	assert.Contains(t, out, "### Round Synthesis")
	assert.Contains(t, out, "# Final Synthesis")
}

func TestMarkdownWriterUntitledSession(t *testing.T) {
	rec := sampleRecord()
	rec.Name = ""

	out := NewMarkdownWriter().Format(rec)
	assert.Contains(t, out, "# Focusgroup Session: mytool")
}

func TestTextWriterLayout(t *testing.T) {
	out := NewTextWriter().Format(sampleRecord())

	assert.Contains(t, out, "API Review")
	assert.Contains(t, out, "Session: 20250601-abc12345")
	assert.Contains(t, out, "Mode: discussion | Agents: 2 | Status: Complete")
	assert.Contains(t, out, "ROUND 1: What do you think of the CLI surface?")
	assert.Contains(t, out, "[alpha]")
	assert.Contains(t, out, "(failed: codex timed out after 2m0s)")
	assert.Contains(t, out, "[Moderator Synthesis]")
	assert.Contains(t, out, "FINAL SYNTHESIS")
}
