package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"engram/internal/agent"
	"engram/internal/orchestrator"
	"engram/internal/stream"
)

// Publish streams one session to out. The opening event is written before
// the session starts; the session then runs on its own goroutine while this
// one drains the channel, writing a heartbeat whenever nothing arrives within
// heartbeat. The stream always ends with a done event unless the writer or
// ctx fails first.
func Publish(ctx context.Context, out *SSEWriter, sess *orchestrator.Session, heartbeat time.Duration) error {
	if err := out.Send(sess.Opening()); err != nil {
		return err
	}

	ch := stream.New()
	go func() {
		if err := sess.Run(ctx, ch); err != nil {
			slog.Debug("gateway: session ended with error", "session_id", sess.ID, "error", err)
		}
	}()

	events := 0
	for {
		ev, err := ch.Pop(ctx, heartbeat)
		switch {
		case err == nil:
			events++
			if err := out.Send(ev); err != nil {
				return err
			}
		case errors.Is(err, stream.ErrTimeout):
			if err := out.Heartbeat(); err != nil {
				return err
			}
		case errors.Is(err, stream.ErrClosed):
			slog.Debug("gateway: stream finished", "session_id", sess.ID, "events", events)
			return out.Send(agent.Done())
		default:
			slog.Info("gateway: client went away", "session_id", sess.ID, "error", err)
			return err
		}
	}
}
