// Package channels connects chat platforms to single-agent sessions.
package channels

import (
	"context"
	"net/http"

	"engram/internal/orchestrator"
)

// Channel is an inbound chat integration. RegisterRoutes mounts its webhook
// on the gateway; Start runs until ctx ends and drains in-flight work.
type Channel interface {
	Name() string
	RegisterRoutes(mux *http.ServeMux)
	Start(ctx context.Context) error
}

// SessionFactory creates validated single-agent sessions.
type SessionFactory interface {
	NewSingle(agentType, message string) (*orchestrator.Session, error)
}
