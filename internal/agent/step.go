package agent

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Size caps on adapter output, counted in runes.
const (
	MaxToolInputLen = 300
	MaxThinkingLen  = 400
	MaxStepLen      = 300
)

// ToolAction is reported when the agent decides to call a tool.
type ToolAction struct {
	Tool      string
	ToolInput string
}

// AgentFinish carries the agent's structured return values; the final text
// lives under "output".
type AgentFinish struct {
	ReturnValues map[string]any
}

// Thought is free text the model produced while reasoning.
type Thought struct {
	Text string
}

// Observation is a tool result that is fed back to the model.
type Observation struct {
	Tool   string
	Output string
}

func (o Observation) String() string {
	return o.Tool + ": " + o.Output
}

// Classify maps a runtime step value onto a wire event. Unrecognised or
// malformed values yield ok=false; it never panics.
func Classify(step any) (ev Event, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("agent: dropping unclassifiable step", "type", fmt.Sprintf("%T", step), "panic", r)
			ev, ok = Event{}, false
		}
	}()

	switch s := step.(type) {
	case nil:
		return Event{}, false
	case ToolAction:
		return classifyTool(s)
	case *ToolAction:
		return classifyTool(*s)
	case AgentFinish:
		return classifyFinish(s)
	case *AgentFinish:
		return classifyFinish(*s)
	case Thought:
		return thinking(s.Text)
	case *Thought:
		return thinking(s.Text)
	case string:
		return genericStep(s)
	case fmt.Stringer:
		return genericStep(s.String())
	}
	return Event{}, false
}

func classifyTool(s ToolAction) (Event, bool) {
	if s.Tool == "" {
		return Event{}, false
	}
	return ToolUsed(s.Tool, Truncate(s.ToolInput, MaxToolInputLen)), true
}

func classifyFinish(s AgentFinish) (Event, bool) {
	out, ok := s.ReturnValues["output"]
	if !ok {
		return thinking(fmt.Sprint(s.ReturnValues))
	}
	return thinking(fmt.Sprint(out))
}

func thinking(text string) (Event, bool) {
	if strings.TrimSpace(text) == "" {
		return Event{}, false
	}
	return Thinking(Truncate(text, MaxThinkingLen)), true
}

func genericStep(text string) (Event, bool) {
	text = Truncate(text, MaxStepLen)
	if strings.TrimSpace(text) == "" {
		return Event{}, false
	}
	return Step(text), true
}

// Truncate returns at most n runes of s, never splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
