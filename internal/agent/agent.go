package agent

import (
	"context"
	"encoding/json"
)

type EventType string

const (
	EventAgentStarted    EventType = "agent_started"
	EventToolUsed        EventType = "tool_used"
	EventThinking        EventType = "thinking"
	EventStep            EventType = "step"
	EventTextChunk       EventType = "text_chunk"
	EventFinalAnswer     EventType = "final_answer"
	EventAgentStart      EventType = "agent_start"
	EventAgentComplete   EventType = "agent_complete"
	EventSessionStart    EventType = "session_start"
	EventSessionComplete EventType = "session_complete"
	EventError           EventType = "error"
	EventDone            EventType = "done"
)

// Event is one record on the wire. Only the fields relevant to Type are set.
type Event struct {
	Type        EventType `json:"type"`
	Content     string    `json:"content,omitempty"`
	Tool        string    `json:"tool,omitempty"`
	Input       string    `json:"input,omitempty"`
	Agent       string    `json:"agent,omitempty"`
	AgentType   string    `json:"agent_type,omitempty"`
	AgentName   string    `json:"agent_name,omitempty"`
	AvatarColor string    `json:"avatar_color,omitempty"`
	Position    *int      `json:"position,omitempty"`
	Total       int       `json:"total,omitempty"`
	Agents      []Meta    `json:"agents,omitempty"`
	TotalAgents int       `json:"total_agents,omitempty"`
	SessionID   string    `json:"session_id,omitempty"`
}

// MarshalJSON keeps the payload keys of a kind present even when empty:
// "content" on text kinds, "tool" and "input" on tool_used.
func (e Event) MarshalJSON() ([]byte, error) {
	type wire Event
	switch e.Type {
	case EventToolUsed:
		return json.Marshal(struct {
			wire
			Tool  string `json:"tool"`
			Input string `json:"input"`
		}{wire(e), e.Tool, e.Input})
	case EventThinking, EventStep, EventTextChunk, EventFinalAnswer, EventError:
		return json.Marshal(struct {
			wire
			Content string `json:"content"`
		}{wire(e), e.Content})
	}
	return json.Marshal(wire(e))
}

// WithAgent tags an event with the agent type that produced it.
func (e Event) WithAgent(agentType string) Event {
	e.Agent = agentType
	return e
}

func AgentStarted(m Meta) Event {
	return Event{Type: EventAgentStarted, AgentType: m.Type, AgentName: m.Name}
}

func ToolUsed(tool, input string) Event {
	return Event{Type: EventToolUsed, Tool: tool, Input: input}
}

func Thinking(content string) Event {
	return Event{Type: EventThinking, Content: content}
}

func Step(content string) Event {
	return Event{Type: EventStep, Content: content}
}

func TextChunk(agentType, content string) Event {
	return Event{Type: EventTextChunk, Agent: agentType, Content: content}
}

func FinalAnswer(agentType, content string) Event {
	return Event{Type: EventFinalAnswer, Agent: agentType, Content: content}
}

func AgentStart(m Meta, position, total int) Event {
	return Event{
		Type:        EventAgentStart,
		Agent:       m.Type,
		AgentName:   m.Name,
		AvatarColor: m.AvatarColor,
		Position:    &position,
		Total:       total,
	}
}

func AgentComplete(m Meta, position, total int) Event {
	return Event{
		Type:      EventAgentComplete,
		Agent:     m.Type,
		AgentName: m.Name,
		Position:  &position,
		Total:     total,
	}
}

func SessionStart(sessionID string, participants []Meta) Event {
	return Event{Type: EventSessionStart, SessionID: sessionID, Agents: participants, TotalAgents: len(participants)}
}

func SessionComplete(total int) Event {
	return Event{Type: EventSessionComplete, TotalAgents: total}
}

func ErrorEvent(msg string) Event {
	return Event{Type: EventError, Content: msg}
}

func Done() Event {
	return Event{Type: EventDone}
}

// StepFunc receives intermediate runtime values (tool actions, thoughts,
// observations, finish records). See Classify.
type StepFunc func(step any)

// TokenFunc receives raw streamed output tokens.
type TokenFunc func(token string)

// Agent is one capability set bound to a model: it runs a task to completion
// and returns the final text.
type Agent interface {
	Run(ctx context.Context, task string, onStep StepFunc, onToken TokenFunc) (string, error)
}
