package agent

import (
	"context"
	"log/slog"
	"time"

	"engram/internal/trace"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type tracedTool struct {
	Tool
}

func withTrace(t Tool) Tool {
	return &tracedTool{Tool: t}
}

func (t *tracedTool) Execute(ctx context.Context, input string) (string, error) {
	ctx, span := trace.Tracer().Start(ctx, "tool."+t.Name(),
		oteltrace.WithAttributes(
			attribute.String("gen_ai.tool.name", t.Name()),
			attribute.String("gen_ai.tool.input", Truncate(input, MaxToolInputLen)),
			attribute.String("engram.agent.type", AgentTypeFromContext(ctx)),
			attribute.String("engram.session.id", SessionIDFromContext(ctx)),
		),
	)
	defer span.End()

	start := time.Now()
	result, err := t.Tool.Execute(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("tool execution failed",
			"tool", t.Name(),
			"agent", AgentTypeFromContext(ctx),
			"session_id", SessionIDFromContext(ctx),
			"error", err,
		)
		return result, err
	}

	span.SetAttributes(attribute.Int("gen_ai.tool.output_length", len(result)))
	slog.Debug("tool executed", "tool", t.Name(), "duration", time.Since(start), "output_len", len(result))
	return result, nil
}
