package agent

import (
	"context"

	"engram/internal/llm"

	"github.com/openai/openai-go/v3/responses"
)

// SimpleAgent answers with a single streamed model call and no tools.
type SimpleAgent struct {
	provider llm.Provider
	profile  *AgentProfile
}

func NewSimpleAgent(provider llm.Provider, profile *AgentProfile) *SimpleAgent {
	return &SimpleAgent{provider: provider, profile: profile}
}

func (a *SimpleAgent) Run(ctx context.Context, task string, onStep StepFunc, onToken TokenFunc) (string, error) {
	input := []responses.ResponseInputItemUnionParam{
		responses.ResponseInputItemParamOfMessage(a.profile.SystemPrompt(), "developer"),
		responses.ResponseInputItemParamOfMessage(task, "user"),
	}

	var out []byte
	resp, err := a.provider.ChatStream(ContextWithAgentType(ctx, a.profile.Type), input, nil, func(token string) {
		out = append(out, token...)
		if onToken != nil {
			onToken(token)
		}
	})
	if err != nil {
		return "", err
	}

	text := string(out)
	if text == "" {
		text = resp.OutputText()
	}
	emitStep(onStep, AgentFinish{ReturnValues: map[string]any{"output": text}})
	return text, nil
}
