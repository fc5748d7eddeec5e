// Package session orchestrates multi-agent feedback sessions: it
// dispatches question rounds to the agent panel, accumulates the
// conversation transcript, runs moderator synthesis, and records
// everything into a persistent session record.
package session

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const sessionIDLength = 8

// AgentResponse is the stored form of one agent's answer within a
// round. Failed invocations are recorded here too, with ErrorKind set
// and Response empty.
type AgentResponse struct {
	AgentName      string         `json:"agent_name"`
	Provider       string         `json:"provider"`
	Model          string         `json:"model,omitempty"`
	Prompt         string         `json:"prompt"`
	Response       string         `json:"response"`
	Timestamp      time.Time      `json:"timestamp"`
	DurationMS     int64          `json:"duration_ms,omitempty"`
	TokensUsed     int            `json:"tokens_used,omitempty"`
	StructuredData map[string]any `json:"structured_data,omitempty"`
	Phase          string         `json:"phase,omitempty"`
	ErrorKind      string         `json:"error_kind,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// Failed reports whether this response records an agent failure.
func (r *AgentResponse) Failed() bool { return r.ErrorKind != "" }

// QuestionRound groups the responses to one question.
type QuestionRound struct {
	RoundNumber        int             `json:"round_number"`
	Question           string          `json:"question"`
	Responses          []AgentResponse `json:"responses"`
	ModeratorSynthesis string          `json:"moderator_synthesis,omitempty"`
}

// SessionRecord is the persistent log of a complete session.
type SessionRecord struct {
	ID             string          `json:"id"`
	Name           string          `json:"name,omitempty"`
	Tool           string          `json:"tool"`
	Mode           string          `json:"mode"`
	AgentCount     int             `json:"agent_count"`
	CreatedAt      time.Time       `json:"created_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	Rounds         []QuestionRound `json:"rounds"`
	FinalSynthesis string          `json:"final_synthesis,omitempty"`
	SynthesisError string          `json:"synthesis_error,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
}

// NewSessionRecord creates a record with a fresh short id.
func NewSessionRecord(name, tool, mode string, agentCount int) *SessionRecord {
	return &SessionRecord{
		ID:         gonanoid.MustGenerate("0123456789abcdefghijklmnopqrstuvwxyz", sessionIDLength),
		Name:       name,
		Tool:       tool,
		Mode:       mode,
		AgentCount: agentCount,
		CreatedAt:  time.Now(),
	}
}

// DisplayID combines the creation date with the short id, giving ids
// that sort chronologically in listings.
func (s *SessionRecord) DisplayID() string {
	return fmt.Sprintf("%s-%s", s.CreatedAt.Format("20060102"), s.ID)
}

// IsComplete reports whether the session ran to completion.
func (s *SessionRecord) IsComplete() bool { return s.CompletedAt != nil }

// MarkComplete stamps the completion time.
func (s *SessionRecord) MarkComplete() {
	now := time.Now()
	s.CompletedAt = &now
}

// Summary aggregates response counts and costs across all rounds.
type Summary struct {
	TotalResponses  int     `json:"total_responses"`
	FailedResponses int     `json:"failed_responses"`
	UniqueProviders int     `json:"unique_providers"`
	TotalTokens     int     `json:"total_tokens"`
	TotalDurationMS int64   `json:"total_duration_ms"`
	WallTimeSeconds float64 `json:"wall_time_seconds"`
}

// Summarize walks every recorded response and totals it up.
func (s *SessionRecord) Summarize() Summary {
	var sum Summary
	providers := make(map[string]struct{})

	for _, round := range s.Rounds {
		for _, resp := range round.Responses {
			sum.TotalResponses++
			if resp.Failed() {
				sum.FailedResponses++
			}
			providers[resp.Provider] = struct{}{}
			sum.TotalTokens += resp.TokensUsed
			sum.TotalDurationMS += resp.DurationMS
		}
	}
	sum.UniqueProviders = len(providers)

	if s.CompletedAt != nil {
		sum.WallTimeSeconds = s.CompletedAt.Sub(s.CreatedAt).Seconds()
	}
	return sum
}
