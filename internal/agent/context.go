package agent

import "context"

type contextKey int

const (
	sessionIDKey contextKey = iota
	agentTypeKey
)

func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithAgentType records which agent type is executing; tools use it
// for logging and span attributes only.
func ContextWithAgentType(ctx context.Context, agentType string) context.Context {
	return context.WithValue(ctx, agentTypeKey, agentType)
}

func AgentTypeFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(agentTypeKey).(string); ok {
		return v
	}
	return ""
}
