package session

import (
	"strings"
	"time"
)

// Turn is one contribution to the running conversation.
type Turn struct {
	AgentName string
	Content   string
	TurnType  string // response, or a phase name in structured mode
	Timestamp time.Time
}

// Transcript accumulates turns across rounds so later rounds can see
// what earlier ones said. Single mode appends turns too, but only the
// moderator ever reads them there.
type Transcript struct {
	turns []Turn
}

// Add appends a turn.
func (t *Transcript) Add(agentName, content, turnType string) {
	t.turns = append(t.turns, Turn{
		AgentName: agentName,
		Content:   content,
		TurnType:  turnType,
		Timestamp: time.Now(),
	})
}

// Len returns the number of recorded turns.
func (t *Transcript) Len() int { return len(t.turns) }

// Turns returns a copy of the recorded turns.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Render formats the transcript as prompt context. When excludeAgent
// is non-empty that agent's own turns are omitted, so sequential
// dispatch does not echo an agent's words back at it.
func (t *Transcript) Render(excludeAgent string) string {
	if len(t.turns) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Previous Responses\n\n")
	for _, turn := range t.turns {
		if excludeAgent != "" && turn.AgentName == excludeAgent {
			continue
		}
		b.WriteString("### ")
		b.WriteString(turn.AgentName)
		b.WriteString("\n")
		b.WriteString(turn.Content)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
