package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("MODEL_NAME", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, ":8001", cfg.Gateway.Addr)
	assert.Equal(t, time.Second, cfg.Gateway.HeartbeatInterval.Duration)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM().Model)
	assert.Equal(t, "sk-env", cfg.LLM().APIKey)
	assert.Equal(t, "#general", cfg.Services.Slack.DefaultChannel)
}

func TestLoadDecodesFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("MODEL_NAME", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
default_llm = "local"

[llm.local]
model = "llama3"
base_url = "http://localhost:11434/v1"
api_key = "file-key"

[gateway]
addr = ":9999"
heartbeat_interval = "250ms"

[agents.deep_research]
max_iterations = 7

[services.trello]
api_key = "k"
token = "t"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "llama3", cfg.LLM().Model)
	assert.Equal(t, "file-key", cfg.LLM().APIKey)
	assert.Equal(t, ":9999", cfg.Gateway.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Gateway.HeartbeatInterval.Duration)
	assert.Equal(t, 7, cfg.MaxIterations("deep_research"))
	assert.Equal(t, 0, cfg.MaxIterations("sales"))
	assert.Equal(t, "k", cfg.Services.Trello.APIKey)
}

func TestLoadRejectsUnknownDefaultLLM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`default_llm = "missing"`), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, `default LLM "missing"`)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[gateway]\nheartbeat_interval = \"soon\"\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrips(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Gateway.HeartbeatInterval = Duration{2 * time.Second}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, loaded.Gateway.HeartbeatInterval.Duration)
	assert.Equal(t, cfg.Gateway.AllowedOrigins, loaded.Gateway.AllowedOrigins)
	assert.Equal(t, "gpt-4o-mini", loaded.LLM().Model)

	assert.Error(t, Save(path, cfg), "existing file is not overwritten")
}
