package agent

import (
	"engram/internal/llm"
)

// Factory builds agents from catalog profiles, each scoped to the tools its
// profile lists.
type Factory struct {
	provider      llm.Provider
	registry      *Registry
	catalog       *Catalog
	maxIterations func(agentType string) int
}

// NewFactory returns a factory. maxIterations may be nil; it overrides the
// profile's own cap when it returns a positive value.
func NewFactory(provider llm.Provider, registry *Registry, catalog *Catalog, maxIterations func(string) int) *Factory {
	return &Factory{
		provider:      provider,
		registry:      registry,
		catalog:       catalog,
		maxIterations: maxIterations,
	}
}

func (f *Factory) Catalog() *Catalog { return f.catalog }

// Build returns a ReactAgent when the profile has tools available, and a
// SimpleAgent otherwise.
func (f *Factory) Build(agentType string) (Agent, error) {
	profile, ok := f.catalog.Profile(agentType)
	if !ok {
		return nil, &UnknownAgentTypeError{Type: agentType, Valid: f.catalog.Types()}
	}

	scoped := f.registry.Scope(profile.Tools)
	if scoped.Len() == 0 {
		return NewSimpleAgent(f.provider, profile), nil
	}

	limit := profile.MaxIterations
	if f.maxIterations != nil {
		if n := f.maxIterations(agentType); n > 0 {
			limit = n
		}
	}
	return NewReactAgent(f.provider, profile, scoped, limit), nil
}
