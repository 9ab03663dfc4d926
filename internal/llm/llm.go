package llm

import (
	"context"
	"log/slog"

	"github.com/openai/openai-go/v3/responses"
)

// Provider runs one streaming model call. onToken receives each output text
// delta as it arrives; the completed response is returned at the end.
type Provider interface {
	ChatStream(ctx context.Context, input []responses.ResponseInputItemUnionParam, tools []responses.ToolUnionParam, onToken func(string)) (*responses.Response, error)
}

// OutputToInput converts a completed response's output items back into input
// items so the next call in a multi-step loop sees the model's own output.
func OutputToInput(output []responses.ResponseOutputItemUnion) []responses.ResponseInputItemUnionParam {
	var items []responses.ResponseInputItemUnionParam
	for _, item := range output {
		switch item.Type {
		case "message":
			v := item.AsMessage().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfOutputMessage: &v})
		case "function_call":
			v := item.AsFunctionCall().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfFunctionCall: &v})
		case "reasoning":
			v := item.AsReasoning().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfReasoning: &v})
		default:
			slog.Debug("llm: skipping output item", "type", item.Type)
		}
	}
	return items
}
