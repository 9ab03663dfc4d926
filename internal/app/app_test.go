package app

import (
	"context"
	"testing"

	"engram/internal/config"
	"engram/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.DB.Path = db.MemoryPath
	return cfg
}

func TestNewWiresStack(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig())
	require.NoError(t, err)
	defer a.Close(ctx)

	assert.Len(t, a.Catalog.Types(), 8)

	sess, err := a.Orchestrator.NewCollaboration("goal", []string{"sales", "deep_research"})
	require.NoError(t, err)
	assert.Len(t, sess.Turns, 2)

	p, err := a.Company.Save(ctx, map[string]string{"company_name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", p["company_name"])
}

func TestChannelsFromConfig(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Channels = map[string]*config.ChannelConfig{
		"tg":       {Enabled: true, Type: "telegram", Settings: map[string]string{"bot_token": "x"}},
		"disabled": {Enabled: false, Type: "telegram"},
		"irc":      {Enabled: true, Type: "irc"},
	}

	a, err := New(ctx, cfg)
	require.NoError(t, err)
	defer a.Close(ctx)

	chs := a.Channels()
	require.Len(t, chs, 1)
	assert.Equal(t, "telegram", chs[0].Name())
}
