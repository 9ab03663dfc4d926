package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"engram/internal/llm"
	"engram/internal/trace"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const DefaultMaxIterations = 10

// ReactAgent implements a ReAct (Reason + Act) loop over the scoped tool
// registry. Every iteration is one streamed model call; when the model asks
// for tools they run in parallel and their results feed the next call. The
// loop ends when the model answers without tool calls.
type ReactAgent struct {
	provider      llm.Provider
	profile       *AgentProfile
	registry      *Registry
	tools         []responses.ToolUnionParam
	maxIterations int
}

func NewReactAgent(provider llm.Provider, profile *AgentProfile, registry *Registry, maxIterations int) *ReactAgent {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	a := &ReactAgent{
		provider:      provider,
		profile:       profile,
		registry:      registry,
		maxIterations: maxIterations,
	}
	for _, t := range registry.All() {
		schema, _ := t.InputSchema().(map[string]any)
		a.tools = append(a.tools, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name(),
				Description: openai.String(t.Description()),
				Parameters:  schema,
				Strict:      openai.Bool(true),
			},
		})
	}
	return a
}

func (a *ReactAgent) Run(ctx context.Context, task string, onStep StepFunc, onToken TokenFunc) (string, error) {
	ctx = ContextWithAgentType(ctx, a.profile.Type)
	ctx, span := trace.Tracer().Start(ctx, "agent.react.run",
		oteltrace.WithAttributes(
			attribute.String("engram.agent.type", a.profile.Type),
			attribute.String("engram.session.id", SessionIDFromContext(ctx)),
			attribute.Int("engram.agent.tools", len(a.tools)),
		),
	)
	defer span.End()

	input := []responses.ResponseInputItemUnionParam{
		responses.ResponseInputItemParamOfMessage(a.profile.SystemPrompt(), "developer"),
		responses.ResponseInputItemParamOfMessage(task, "user"),
	}

	out, err := a.loop(ctx, input, onStep, onToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	emitStep(onStep, AgentFinish{ReturnValues: map[string]any{"output": out}})
	return out, nil
}

func (a *ReactAgent) loop(ctx context.Context, input []responses.ResponseInputItemUnionParam, onStep StepFunc, onToken TokenFunc) (string, error) {
	for iteration := 0; iteration < a.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		// The final iteration is offered no tools so the model has to answer.
		tools := a.tools
		if iteration == a.maxIterations-1 {
			tools = nil
		}

		var text strings.Builder
		resp, err := a.call(ctx, iteration, input, tools, func(token string) {
			text.WriteString(token)
			if onToken != nil {
				onToken(token)
			}
		})
		if err != nil {
			return "", err
		}

		input = append(input, llm.OutputToInput(resp.Output)...)

		var calls []responses.ResponseFunctionToolCall
		for _, item := range resp.Output {
			switch item.Type {
			case "function_call":
				calls = append(calls, item.AsFunctionCall())
			case "reasoning":
				for _, s := range item.AsReasoning().Summary {
					emitStep(onStep, Thought{Text: s.Text})
				}
			}
		}

		if len(calls) == 0 {
			if text.Len() == 0 {
				return resp.OutputText(), nil
			}
			return text.String(), nil
		}

		input = append(input, a.act(ctx, calls, onStep)...)
	}
	return "", errors.New("agent stopped without a final answer")
}

func (a *ReactAgent) call(ctx context.Context, iteration int, input []responses.ResponseInputItemUnionParam, tools []responses.ToolUnionParam, onToken func(string)) (*responses.Response, error) {
	ctx, span := trace.Tracer().Start(ctx, "llm.react",
		oteltrace.WithAttributes(attribute.Int("llm.iteration", iteration)),
	)
	defer span.End()

	resp, err := a.provider.ChatStream(ctx, input, tools, onToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("llm.model", string(resp.Model)),
		attribute.Int64("llm.input_tokens", resp.Usage.InputTokens),
		attribute.Int64("llm.output_tokens", resp.Usage.OutputTokens),
	)
	return resp, nil
}

// act runs tool calls in parallel and returns their outputs as input items,
// in call order. Tool failures are reported back to the model, not the
// caller.
func (a *ReactAgent) act(ctx context.Context, calls []responses.ResponseFunctionToolCall, onStep StepFunc) []responses.ResponseInputItemUnionParam {
	for _, fc := range calls {
		emitStep(onStep, ToolAction{Tool: fc.Name, ToolInput: fc.Arguments})
	}

	outputs := make([]string, len(calls))
	var wg sync.WaitGroup
	for i, fc := range calls {
		wg.Add(1)
		go func(i int, fc responses.ResponseFunctionToolCall) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("tool panicked", "agent", a.profile.Type, "name", fc.Name, "panic", r)
					outputs[i] = fmt.Sprintf("error: tool %s panicked: %v", fc.Name, r)
				}
			}()
			tool, ok := a.registry.Get(fc.Name)
			if !ok {
				slog.Warn("unknown tool call", "agent", a.profile.Type, "name", fc.Name)
				outputs[i] = "error: unknown tool"
				return
			}
			result, err := withTrace(tool).Execute(ctx, fc.Arguments)
			if err != nil {
				outputs[i] = "error: " + err.Error()
				return
			}
			outputs[i] = result
		}(i, fc)
	}
	wg.Wait()

	results := make([]responses.ResponseInputItemUnionParam, len(calls))
	for i, fc := range calls {
		emitStep(onStep, Observation{Tool: fc.Name, Output: outputs[i]})
		results[i] = responses.ResponseInputItemParamOfFunctionCallOutput(fc.CallID, outputs[i])
	}
	return results
}

func emitStep(onStep StepFunc, step any) {
	if onStep != nil {
		onStep(step)
	}
}
