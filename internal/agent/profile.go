package agent

import (
	"fmt"
	"strings"
)

// Meta is the display metadata for an agent type. It only enriches event
// payloads and listings; control flow never depends on it.
type Meta struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AvatarColor string `json:"avatar_color"`
}

// AgentProfile defines one capability set: its persona, the tools it may call
// and an optional iteration cap for the reasoning loop.
type AgentProfile struct {
	Meta
	Role          string
	Goal          string
	Backstory     string
	Tools         []string
	MaxIterations int
}

func (p *AgentProfile) SystemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s.\n\n", p.Role)
	fmt.Fprintf(&b, "Goal: %s\n\n", p.Goal)
	b.WriteString(p.Backstory)
	if len(p.Tools) > 0 {
		b.WriteString("\n\nUse your tools when the request needs real data or a real action; never pretend an action was taken.")
	}
	return b.String()
}

// UnknownAgentTypeError reports an agent type that is not in the catalog.
type UnknownAgentTypeError struct {
	Type  string
	Valid []string
}

func (e *UnknownAgentTypeError) Error() string {
	return fmt.Sprintf("unknown agent_type '%s'. Valid: [%s]", e.Type, strings.Join(e.Valid, ", "))
}
