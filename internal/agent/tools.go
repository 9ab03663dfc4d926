package agent

import (
	"context"
	"sort"
)

// Tool is an opaque capability an agent can invoke. Execute receives the raw
// JSON arguments produced by the model.
type Tool interface {
	Name() string
	Description() string
	InputSchema() any
	Execute(ctx context.Context, input string) (string, error)
}

// Registry holds tools by name. It is built once at startup and only read
// afterwards, so concurrent sessions may share it.
type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(tools ...Tool) {
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns the tools sorted by name.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (r *Registry) Len() int { return len(r.tools) }

// Scope returns a new registry restricted to the named tools. Names that are
// not registered are skipped.
func (r *Registry) Scope(names []string) *Registry {
	scoped := NewRegistry()
	for _, name := range names {
		if t, ok := r.tools[name]; ok {
			scoped.tools[name] = t
		}
	}
	return scoped
}
