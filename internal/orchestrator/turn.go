package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"engram/internal/agent"
	"engram/internal/stream"
	"engram/internal/trace"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type TurnState int

const (
	TurnPending TurnState = iota
	TurnRunning
	TurnComplete
	TurnFailed
)

func (s TurnState) String() string {
	switch s {
	case TurnPending:
		return "pending"
	case TurnRunning:
		return "running"
	case TurnComplete:
		return "complete"
	case TurnFailed:
		return "failed"
	}
	return fmt.Sprintf("TurnState(%d)", int(s))
}

// Turn is one agent's participation in a session.
type Turn struct {
	AgentType string
	Meta      agent.Meta
	Position  int
	Total     int
	Task      string
	Result    string
	State     TurnState
	Err       error
}

// RunTurn drives ag to completion on turn.Task, forwarding every classified
// step and every streamed token to ch. On failure it pushes exactly one error
// event and returns the error; it never retries. A panic inside the agent is
// reported the same way.
func RunTurn(ctx context.Context, turn *Turn, ag agent.Agent, ch *stream.Channel) (result string, err error) {
	if turn.State != TurnPending {
		return "", fmt.Errorf("orchestrator: turn %d is %s, not pending", turn.Position, turn.State)
	}
	turn.State = TurnRunning

	ctx = agent.ContextWithAgentType(ctx, turn.AgentType)
	ctx, span := trace.Tracer().Start(ctx, "orchestrator.turn",
		oteltrace.WithAttributes(
			attribute.String("engram.agent.type", turn.AgentType),
			attribute.Int("engram.turn.position", turn.Position),
			attribute.Int("engram.turn.total", turn.Total),
		),
	)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent %s panicked: %v", turn.AgentType, r)
			result = ""
		}
		if err != nil {
			turn.State, turn.Err = TurnFailed, err
			ch.Push(agent.ErrorEvent(err.Error()).WithAgent(turn.AgentType))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Warn("orchestrator: turn failed",
				"session_id", agent.SessionIDFromContext(ctx),
				"agent", turn.AgentType,
				"position", turn.Position,
				"error", err,
			)
		} else {
			turn.State, turn.Result = TurnComplete, result
			slog.Info("orchestrator: turn complete",
				"session_id", agent.SessionIDFromContext(ctx),
				"agent", turn.AgentType,
				"position", turn.Position,
				"duration", time.Since(start),
				"result_len", len(result),
			)
		}
		span.End()
	}()

	agentType := turn.AgentType
	onStep := func(step any) {
		if ev, ok := agent.Classify(step); ok {
			ch.Push(ev.WithAgent(agentType))
		}
	}
	onToken := func(token string) {
		if token != "" {
			ch.Push(agent.TextChunk(agentType, token))
		}
	}

	return ag.Run(ctx, turn.Task, onStep, onToken)
}
