package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, []string{
		"orchestrator", "sales", "customer_service", "technical",
		"market_intelligence", "meeting", "hr_ops", "deep_research",
	}, c.Types())

	for _, typ := range c.Types() {
		p, ok := c.Profile(typ)
		require.True(t, ok, typ)
		assert.NotEmpty(t, p.Name, typ)
		assert.Regexp(t, `^#[0-9A-F]{6}$`, p.AvatarColor, typ)
		assert.Contains(t, p.SystemPrompt(), p.Role, typ)
		assert.Contains(t, p.Tools, "web_search", typ)
	}

	p, _ := c.Profile("deep_research")
	assert.Equal(t, 15, p.MaxIterations)
}

func TestCatalogValidate(t *testing.T) {
	c := DefaultCatalog()

	require.NoError(t, c.Validate("sales", "technical"))
	require.NoError(t, c.Validate())

	err := c.Validate("sales", "wizard", "ghost")
	var unknown *UnknownAgentTypeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "wizard", unknown.Type)
	assert.Contains(t, err.Error(), "unknown agent_type 'wizard'")
	assert.Contains(t, err.Error(), "deep_research")
}

func TestCatalogMeta(t *testing.T) {
	c := DefaultCatalog()

	m, ok := c.Meta("sales")
	require.True(t, ok)
	assert.Equal(t, Meta{
		Type:        "sales",
		Name:        "Sales Agent",
		Description: "Pipeline management, CRM, deal tracking",
		AvatarColor: "#06B6D4",
	}, m)

	_, ok = c.Meta("nope")
	assert.False(t, ok)
}

func TestRegistryScope(t *testing.T) {
	r := NewRegistry()
	r.Register(&echoTool{name: "b"}, &echoTool{name: "a"}, &echoTool{name: "c"})

	scoped := r.Scope([]string{"c", "a", "missing"})
	require.Equal(t, 2, scoped.Len())
	names := []string{}
	for _, tool := range scoped.All() {
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{"a", "c"}, names)

	_, ok := scoped.Get("b")
	assert.False(t, ok)
}
