package orchestrator

import (
	"fmt"
	"strings"

	"engram/internal/agent"
)

// MaxPriorOutputLen caps, in runes, how much of each earlier turn's result is
// embedded in a later turn's task. Tail content past the cap is lost; this
// bounds prompt size and is accepted.
const MaxPriorOutputLen = 2000

// roleFocus is the one-sentence angle each agent type brings to a
// collaboration.
var roleFocus = map[string]string{
	"orchestrator":        "Coordinate the team's findings into one strategic direction with clear priorities.",
	"sales":               "Focus on revenue impact, pipeline implications and go-to-market actions.",
	"customer_service":    "Focus on customer experience, retention risk and support readiness.",
	"technical":           "Focus on technical feasibility, infrastructure, engineering effort and risks.",
	"market_intelligence": "Focus on market size, competitors, trends and external signals.",
	"meeting":             "Focus on turning the discussion into decisions, owners, deadlines and follow-up meetings.",
	"hr_ops":              "Focus on hiring, team capacity, operations and compliance needs.",
	"deep_research":       "Focus on evidence: gather data, cite sources and flag uncertainties.",
}

const defaultRoleFocus = "Contribute your specialist perspective on the goal."

// PriorOutput is a completed turn's result as seen by later turns.
type PriorOutput struct {
	AgentType string
	Name      string
	Text      string
}

// CollabTaskInput holds everything a collaboration task description is built
// from.
type CollabTaskInput struct {
	AgentType      string
	Goal           string
	Position       int
	Total          int
	CompanyContext string
	Prior          []PriorOutput
}

// BuildCollaborationTask renders the task for one turn of a collaboration.
// It is a pure function of its input.
func BuildCollaborationTask(in CollabTaskInput) string {
	focus, ok := roleFocus[in.AgentType]
	if !ok {
		focus = defaultRoleFocus
	}

	var b strings.Builder
	writeContext(&b, in.CompanyContext)
	fmt.Fprintf(&b, "COLLABORATION GOAL: %s\n\n", in.Goal)
	fmt.Fprintf(&b, "You are agent %d of %d in this collaboration session.\n", in.Position+1, in.Total)
	fmt.Fprintf(&b, "YOUR ROLE FOCUS: %s\n\n", focus)

	switch {
	case in.Position == 0:
		b.WriteString("You are the first agent. Set the foundation: lay out the key facts, " +
			"constraints and open questions from your perspective. End with a short handoff " +
			"note telling the next agents what to build on.")
		return b.String()
	case in.Position == in.Total-1:
		writePrior(&b, in.Prior)
		b.WriteString("You are the final agent. Do not add new analysis. Synthesize ALL prior " +
			"outputs above into:\n1. Summary\n2. Key Decisions\n3. Action Plan (owner, deadline, priority)")
	default:
		writePrior(&b, in.Prior)
		b.WriteString("Build directly on the prior outputs above. Do not repeat what was already " +
			"said; add only your unique perspective, and end with a short handoff note.")
	}
	return b.String()
}

func writePrior(b *strings.Builder, prior []PriorOutput) {
	b.WriteString("=== PRIOR AGENT OUTPUTS ===\n")
	for _, p := range prior {
		fmt.Fprintf(b, "\n--- %s ---\n%s\n", p.Name, agent.Truncate(p.Text, MaxPriorOutputLen))
	}
	b.WriteString("=== END PRIOR OUTPUTS ===\n\n")
}
