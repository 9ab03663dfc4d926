package orchestrator

import (
	"strings"
	"testing"
	"unicode/utf8"

	"engram/internal/agent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTaskCoversCatalog(t *testing.T) {
	for _, typ := range agent.DefaultCatalog().Types() {
		task, err := BuildTask(typ, "status?", "")
		require.NoError(t, err, typ)
		assert.Contains(t, task, `"status?"`, typ)
		assert.Contains(t, task, "Expected output:", typ)

		_, ok := roleFocus[typ]
		assert.True(t, ok, "missing role focus for %s", typ)
	}

	_, err := BuildTask("wizard", "x", "")
	assert.Error(t, err)
}

func TestBuildTaskPrependsContext(t *testing.T) {
	task, err := BuildTask("sales", "x", "=== YOUR STARTUP CONTEXT ===\nCompany: Acme\n=== USE THIS CONTEXT IN EVERY RESPONSE ===\n")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(task, "=== YOUR STARTUP CONTEXT ==="))
	assert.Contains(t, task, "RESPONSE ===\n\nYou are the Engram Sales")
}

func TestBuildCollaborationTaskPositions(t *testing.T) {
	prior := []PriorOutput{
		{AgentType: "sales", Name: "Sales Agent", Text: "pipeline strong"},
		{AgentType: "technical", Name: "Technical Agent", Text: "infra ready"},
	}

	first := BuildCollaborationTask(CollabTaskInput{AgentType: "sales", Goal: "grow", Position: 0, Total: 3, CompanyContext: "Company: Acme"})
	assert.True(t, strings.HasPrefix(first, "Company: Acme\n\n"))
	assert.Contains(t, first, "COLLABORATION GOAL: grow")
	assert.Contains(t, first, roleFocus["sales"])
	assert.Contains(t, first, "Set the foundation")
	assert.NotContains(t, first, "PRIOR AGENT OUTPUTS")

	middle := BuildCollaborationTask(CollabTaskInput{AgentType: "technical", Goal: "grow", Position: 1, Total: 3, Prior: prior[:1]})
	assert.Contains(t, middle, "--- Sales Agent ---\npipeline strong")
	assert.Contains(t, middle, "Build directly on the prior outputs")
	assert.NotContains(t, middle, "infra ready")

	last := BuildCollaborationTask(CollabTaskInput{AgentType: "orchestrator", Goal: "grow", Position: 2, Total: 3, Prior: prior})
	assert.Less(t, strings.Index(last, "pipeline strong"), strings.Index(last, "infra ready"))
	assert.Contains(t, last, "Synthesize ALL prior outputs")
	assert.Contains(t, last, "Summary\n2. Key Decisions\n3. Action Plan")
}

func TestBuildCollaborationTaskSingleParticipantIsFoundation(t *testing.T) {
	task := BuildCollaborationTask(CollabTaskInput{AgentType: "meeting", Goal: "g", Position: 0, Total: 1})
	assert.Contains(t, task, "Set the foundation")
	assert.NotContains(t, task, "Synthesize")
}

func TestBuildCollaborationTaskIsDeterministic(t *testing.T) {
	in := CollabTaskInput{AgentType: "hr_ops", Goal: "g", Position: 1, Total: 3, Prior: []PriorOutput{{Name: "A", Text: "a"}}}
	assert.Equal(t, BuildCollaborationTask(in), BuildCollaborationTask(in))
}

func TestPriorOutputTruncation(t *testing.T) {
	long := strings.Repeat("ü", MaxPriorOutputLen+500)
	task := BuildCollaborationTask(CollabTaskInput{
		AgentType: "orchestrator", Goal: "g", Position: 1, Total: 2,
		Prior: []PriorOutput{{Name: "Deep Research", Text: long}},
	})

	require.True(t, utf8.ValidString(task))
	start := strings.Index(task, "--- Deep Research ---\n") + len("--- Deep Research ---\n")
	embedded := task[start:strings.Index(task, "\n=== END PRIOR OUTPUTS")]
	assert.Equal(t, MaxPriorOutputLen, utf8.RuneCountInString(embedded))
}
