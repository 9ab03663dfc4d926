package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"engram/internal/agent"
)

// SSEWriter writes events in the text/event-stream framing: one
// "data: <json>" record per event and ": heartbeat" comments when idle.
type SSEWriter struct {
	w     io.Writer
	flush func() error
}

// NewSSEWriter prepares an HTTP response for streaming.
func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	rc := http.NewResponseController(w)
	return &SSEWriter{w: w, flush: rc.Flush}
}

// NewStreamWriter writes the same framing to a plain writer.
func NewStreamWriter(w io.Writer) *SSEWriter {
	return &SSEWriter{w: w, flush: func() error { return nil }}
}

func (s *SSEWriter) Send(ev agent.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", ev.Type, err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		return err
	}
	return s.flush()
}

func (s *SSEWriter) Heartbeat() error {
	if _, err := io.WriteString(s.w, ": heartbeat\n\n"); err != nil {
		return err
	}
	return s.flush()
}
