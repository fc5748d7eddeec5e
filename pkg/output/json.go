// Package output renders completed session records for consumption:
// JSON for machines, Markdown for reports, plain text for terminals.
package output

import (
	"encoding/json"
	"fmt"
	"os"

	"focusgroup/pkg/session"
)

// JSONWriter produces the machine-readable export view of a session.
// The export differs from the raw record: it uses the display id,
// adds round_count/is_complete, and appends a summary block.
type JSONWriter struct {
	Pretty          bool
	IncludeMetadata bool
}

// NewJSONWriter returns a writer with the standard export settings.
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{Pretty: true, IncludeMetadata: true}
}

type jsonExport struct {
	ID             string         `json:"id"`
	Name           string         `json:"name,omitempty"`
	Tool           string         `json:"tool"`
	Mode           string         `json:"mode"`
	CreatedAt      string         `json:"created_at"`
	CompletedAt    string         `json:"completed_at,omitempty"`
	IsComplete     bool           `json:"is_complete"`
	AgentCount     int            `json:"agent_count"`
	RoundCount     int            `json:"round_count"`
	Rounds         []jsonRound    `json:"rounds"`
	FinalSynthesis string         `json:"final_synthesis,omitempty"`
	SynthesisError string         `json:"synthesis_error,omitempty"`
	Summary        map[string]any `json:"summary"`
}

type jsonRound struct {
	RoundNumber        int            `json:"round_number"`
	Question           string         `json:"question"`
	Responses          []jsonResponse `json:"responses"`
	ModeratorSynthesis string         `json:"moderator_synthesis,omitempty"`
}

type jsonResponse struct {
	AgentName      string         `json:"agent_name"`
	Provider       string         `json:"provider"`
	Response       string         `json:"response"`
	Model          string         `json:"model,omitempty"`
	Timestamp      string         `json:"timestamp,omitempty"`
	DurationMS     int64          `json:"duration_ms,omitempty"`
	TokensUsed     int            `json:"tokens_used,omitempty"`
	StructuredData map[string]any `json:"structured_data,omitempty"`
	ErrorKind      string         `json:"error_kind,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// Format renders the export view as a JSON string.
func (w *JSONWriter) Format(rec *session.SessionRecord) (string, error) {
	export := jsonExport{
		ID:             rec.DisplayID(),
		Name:           rec.Name,
		Tool:           rec.Tool,
		Mode:           rec.Mode,
		CreatedAt:      rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		IsComplete:     rec.IsComplete(),
		AgentCount:     rec.AgentCount,
		RoundCount:     len(rec.Rounds),
		Rounds:         make([]jsonRound, 0, len(rec.Rounds)),
		FinalSynthesis: rec.FinalSynthesis,
		SynthesisError: rec.SynthesisError,
	}
	if rec.CompletedAt != nil {
		export.CompletedAt = rec.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	for _, round := range rec.Rounds {
		jr := jsonRound{
			RoundNumber:        round.RoundNumber,
			Question:           round.Question,
			Responses:          make([]jsonResponse, 0, len(round.Responses)),
			ModeratorSynthesis: round.ModeratorSynthesis,
		}
		for _, resp := range round.Responses {
			out := jsonResponse{
				AgentName:      resp.AgentName,
				Provider:       resp.Provider,
				Response:       resp.Response,
				StructuredData: resp.StructuredData,
				ErrorKind:      resp.ErrorKind,
				Error:          resp.Error,
			}
			if w.IncludeMetadata {
				out.Model = resp.Model
				out.Timestamp = resp.Timestamp.Format("2006-01-02T15:04:05Z07:00")
				out.DurationMS = resp.DurationMS
				out.TokensUsed = resp.TokensUsed
			}
			jr.Responses = append(jr.Responses, out)
		}
		export.Rounds = append(export.Rounds, jr)
	}

	export.Summary = summaryMap(rec)

	var data []byte
	var err error
	if w.Pretty {
		data, err = json.MarshalIndent(export, "", "  ")
	} else {
		data, err = json.Marshal(export)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	return string(data), nil
}

// Write renders the session and writes it to a file.
func (w *JSONWriter) Write(rec *session.SessionRecord, path string) error {
	content, err := w.Format(rec)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// summaryMap builds the summary block, omitting zero-valued totals.
func summaryMap(rec *session.SessionRecord) map[string]any {
	sum := rec.Summarize()

	providers := make([]string, 0)
	seen := make(map[string]struct{})
	for _, round := range rec.Rounds {
		for _, resp := range round.Responses {
			if _, ok := seen[resp.Provider]; !ok {
				seen[resp.Provider] = struct{}{}
				providers = append(providers, resp.Provider)
			}
		}
	}

	out := map[string]any{
		"total_responses":  sum.TotalResponses,
		"unique_providers": providers,
	}
	if sum.FailedResponses > 0 {
		out["failed_responses"] = sum.FailedResponses
	}
	if sum.TotalTokens > 0 {
		out["total_tokens"] = sum.TotalTokens
	}
	if sum.TotalDurationMS > 0 {
		out["total_duration_ms"] = sum.TotalDurationMS
		if rec.CompletedAt != nil {
			out["wall_time_seconds"] = sum.WallTimeSeconds
		}
	}
	return out
}
