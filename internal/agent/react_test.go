package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/openai/openai-go/v3/responses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedTurn struct {
	tokens []string
	output string
	err    error
}

// scriptedProvider replays canned model responses in order.
type scriptedProvider struct {
	mu        sync.Mutex
	turns     []scriptedTurn
	calls     int
	toolCount []int
	inputs    [][]responses.ResponseInputItemUnionParam
}

func (p *scriptedProvider) ChatStream(_ context.Context, input []responses.ResponseInputItemUnionParam, tools []responses.ToolUnionParam, onToken func(string)) (*responses.Response, error) {
	p.mu.Lock()
	turn := p.turns[p.calls]
	p.calls++
	p.toolCount = append(p.toolCount, len(tools))
	p.inputs = append(p.inputs, input)
	p.mu.Unlock()

	if turn.err != nil {
		return nil, turn.err
	}
	for _, tok := range turn.tokens {
		onToken(tok)
	}
	var resp responses.Response
	if err := json.Unmarshal([]byte(`{"id":"resp_1","model":"test","output":`+turn.output+`}`), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type echoTool struct {
	name string
	mu   sync.Mutex
	seen []string
	err  error
}

func (e *echoTool) Name() string        { return e.name }
func (e *echoTool) Description() string { return "echo" }
func (e *echoTool) InputSchema() any    { return map[string]any{"type": "object"} }
func (e *echoTool) Execute(_ context.Context, input string) (string, error) {
	e.mu.Lock()
	e.seen = append(e.seen, input)
	e.mu.Unlock()
	if e.err != nil {
		return "", e.err
	}
	return "echo " + input, nil
}

const messageOutput = `[{"type":"message","id":"msg_1","role":"assistant","status":"completed","content":[{"type":"output_text","text":"done","annotations":[]}]}]`

func testProfile(tools ...string) *AgentProfile {
	return &AgentProfile{
		Meta:  Meta{Type: "tester", Name: "Tester", AvatarColor: "#000000"},
		Role:  "Test Agent",
		Goal:  "test",
		Tools: tools,
	}
}

func TestReactAgentToolLoop(t *testing.T) {
	tool := &echoTool{name: "echo"}
	reg := NewRegistry()
	reg.Register(tool)

	provider := &scriptedProvider{turns: []scriptedTurn{
		{output: `[
			{"type":"reasoning","id":"rs_1","summary":[{"type":"summary_text","text":"need data"}]},
			{"type":"function_call","id":"fc_1","call_id":"call_1","name":"echo","arguments":"{\"q\":1}","status":"completed"},
			{"type":"function_call","id":"fc_2","call_id":"call_2","name":"ghost","arguments":"{}","status":"completed"}
		]`},
		{tokens: []string{"fin", "al"}, output: messageOutput},
	}}

	a := NewReactAgent(provider, testProfile("echo"), reg, 0)

	var steps []any
	var tokens []string
	out, err := a.Run(context.Background(), "do it", func(s any) { steps = append(steps, s) }, func(tok string) { tokens = append(tokens, tok) })
	require.NoError(t, err)

	assert.Equal(t, "final", out)
	assert.Equal(t, []string{"fin", "al"}, tokens)
	assert.Equal(t, []string{`{"q":1}`}, tool.seen)
	assert.Equal(t, []any{
		Thought{Text: "need data"},
		ToolAction{Tool: "echo", ToolInput: `{"q":1}`},
		ToolAction{Tool: "ghost", ToolInput: "{}"},
		Observation{Tool: "echo", Output: `echo {"q":1}`},
		Observation{Tool: "ghost", Output: "error: unknown tool"},
		AgentFinish{ReturnValues: map[string]any{"output": "final"}},
	}, steps)

	require.Equal(t, 2, provider.calls)
	assert.Equal(t, []int{1, 1}, provider.toolCount)
	// system prompt, task, 3 echoed output items and 2 tool results
	assert.Len(t, provider.inputs[1], 7)
}

func TestReactAgentToolErrorGoesBackToModel(t *testing.T) {
	tool := &echoTool{name: "echo", err: errors.New("rate limited")}
	reg := NewRegistry()
	reg.Register(tool)

	provider := &scriptedProvider{turns: []scriptedTurn{
		{output: `[{"type":"function_call","id":"fc_1","call_id":"call_1","name":"echo","arguments":"{}","status":"completed"}]`},
		{output: messageOutput},
	}}

	var steps []any
	out, err := NewReactAgent(provider, testProfile("echo"), reg, 3).
		Run(context.Background(), "task", func(s any) { steps = append(steps, s) }, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Contains(t, steps, Observation{Tool: "echo", Output: "error: rate limited"})
}

type nilMapTool struct{}

func (nilMapTool) Name() string        { return "crm_update" }
func (nilMapTool) Description() string { return "writes to a nil map" }
func (nilMapTool) InputSchema() any    { return map[string]any{"type": "object"} }
func (nilMapTool) Execute(context.Context, string) (string, error) {
	var fields map[string]string
	fields["stage"] = "won"
	return "", nil
}

func TestReactAgentToolPanicGoesBackToModel(t *testing.T) {
	reg := NewRegistry()
	reg.Register(nilMapTool{})
	reg.Register(&echoTool{name: "echo"})

	provider := &scriptedProvider{turns: []scriptedTurn{
		{output: `[
			{"type":"function_call","id":"fc_1","call_id":"call_1","name":"crm_update","arguments":"{}","status":"completed"},
			{"type":"function_call","id":"fc_2","call_id":"call_2","name":"echo","arguments":"{}","status":"completed"}
		]`},
		{output: messageOutput},
	}}

	var steps []any
	out, err := NewReactAgent(provider, testProfile("crm_update", "echo"), reg, 3).
		Run(context.Background(), "task", func(s any) { steps = append(steps, s) }, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	require.Equal(t, 2, provider.calls)

	var observations []Observation
	for _, s := range steps {
		if o, ok := s.(Observation); ok {
			observations = append(observations, o)
		}
	}
	require.Len(t, observations, 2)
	assert.Equal(t, "crm_update", observations[0].Tool)
	assert.Contains(t, observations[0].Output, "error: tool crm_update panicked: assignment to entry in nil map")
	assert.Equal(t, Observation{Tool: "echo", Output: "echo {}"}, observations[1])
}

func TestReactAgentLastIterationHasNoTools(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&echoTool{name: "echo"})

	call := `[{"type":"function_call","id":"fc_1","call_id":"call_1","name":"echo","arguments":"{}","status":"completed"}]`
	provider := &scriptedProvider{turns: []scriptedTurn{
		{output: call},
		{tokens: []string{"ok"}, output: messageOutput},
	}}

	out, err := NewReactAgent(provider, testProfile("echo"), reg, 2).Run(context.Background(), "task", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, []int{1, 0}, provider.toolCount)
}

func TestReactAgentProviderError(t *testing.T) {
	provider := &scriptedProvider{turns: []scriptedTurn{{err: errors.New("upstream 500")}}}
	reg := NewRegistry()
	reg.Register(&echoTool{name: "echo"})

	_, err := NewReactAgent(provider, testProfile("echo"), reg, 0).Run(context.Background(), "task", nil, nil)
	require.EqualError(t, err, "upstream 500")
}

func TestReactAgentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &scriptedProvider{}
	_, err := NewReactAgent(provider, testProfile(), NewRegistry(), 0).Run(ctx, "task", nil, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, provider.calls)
}

func TestSimpleAgent(t *testing.T) {
	provider := &scriptedProvider{turns: []scriptedTurn{{tokens: []string{"a", "b"}, output: messageOutput}}}

	var steps []any
	out, err := NewSimpleAgent(provider, testProfile()).Run(context.Background(), "task", func(s any) { steps = append(steps, s) }, nil)
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
	assert.Equal(t, []any{AgentFinish{ReturnValues: map[string]any{"output": "ab"}}}, steps)
	assert.Equal(t, []int{0}, provider.toolCount)
}

func TestSimpleAgentFallsBackToOutputText(t *testing.T) {
	provider := &scriptedProvider{turns: []scriptedTurn{{output: messageOutput}}}

	out, err := NewSimpleAgent(provider, testProfile()).Run(context.Background(), "task", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", out)
}

func TestFactoryBuild(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&echoTool{name: "web_search"})
	cat := DefaultCatalog()

	f := NewFactory(&scriptedProvider{}, reg, cat, func(agentType string) int {
		if agentType == "sales" {
			return 4
		}
		return 0
	})

	a, err := f.Build("sales")
	require.NoError(t, err)
	ra, ok := a.(*ReactAgent)
	require.True(t, ok)
	assert.Equal(t, 4, ra.maxIterations)
	assert.Len(t, ra.tools, 1)

	a, err = f.Build("deep_research")
	require.NoError(t, err)
	assert.Equal(t, 15, a.(*ReactAgent).maxIterations)

	empty := NewFactory(&scriptedProvider{}, NewRegistry(), cat, nil)
	a, err = empty.Build("meeting")
	require.NoError(t, err)
	assert.IsType(t, &SimpleAgent{}, a)

	_, err = f.Build("wizard")
	var unknown *UnknownAgentTypeError
	assert.ErrorAs(t, err, &unknown)
}
