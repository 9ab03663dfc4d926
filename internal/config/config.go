package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DefaultLLM string                    `toml:"default_llm"`
	LLMs       map[string]*LLMConfig     `toml:"llm"`
	Gateway    GatewayConfig             `toml:"gateway"`
	Channels   map[string]*ChannelConfig `toml:"channel"`
	DB         DBConfig                  `toml:"db"`
	Trace      TraceConfig               `toml:"trace"`
	Services   ServicesConfig            `toml:"services"`
	Agents     map[string]*AgentConfig   `toml:"agents"`
}

type LLMConfig struct {
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

type GatewayConfig struct {
	Addr              string   `toml:"addr"`
	HeartbeatInterval Duration `toml:"heartbeat_interval"`
	AllowedOrigins    []string `toml:"allowed_origins"`
}

type ChannelConfig struct {
	Enabled  bool              `toml:"enabled"`
	Type     string            `toml:"type"`
	Settings map[string]string `toml:"settings"`
}

type DBConfig struct {
	Path string `toml:"path"`
}

type TraceConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	URLPath  string `toml:"url_path"`
	APIKey   string `toml:"api_key"`
}

// AgentConfig overrides per-agent-type defaults from the built-in catalog.
type AgentConfig struct {
	MaxIterations int `toml:"max_iterations"`
}

type ServicesConfig struct {
	Brave  BraveConfig  `toml:"brave"`
	Slack  SlackConfig  `toml:"slack"`
	Gmail  GmailConfig  `toml:"gmail"`
	Notion NotionConfig `toml:"notion"`
	Trello TrelloConfig `toml:"trello"`
	Twilio TwilioConfig `toml:"twilio"`
}

type BraveConfig struct {
	APIKey string `toml:"api_key"`
}

type SlackConfig struct {
	BotToken       string `toml:"bot_token"`
	DefaultChannel string `toml:"default_channel"`
}

type GmailConfig struct {
	AccessToken string `toml:"access_token"`
	Sender      string `toml:"sender"`
}

type NotionConfig struct {
	Token         string `toml:"token"`
	DefaultParent string `toml:"default_parent"`
}

type TrelloConfig struct {
	APIKey string `toml:"api_key"`
	Token  string `toml:"token"`
}

type TwilioConfig struct {
	AccountSID   string `toml:"account_sid"`
	AuthToken    string `toml:"auth_token"`
	WhatsAppFrom string `toml:"whatsapp_from"`
	WhatsAppTo   string `toml:"whatsapp_to"`
	PhoneFrom    string `toml:"phone_from"`
	PhoneTo      string `toml:"phone_to"`
}

// Duration is a time.Duration that decodes from TOML strings like "1s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load reads the config file at path. An empty path resolves to $ENGRAM_CONFIG
// or the user config dir; a missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = Path()
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.Gateway.HeartbeatInterval.Duration <= 0 {
		return nil, fmt.Errorf("gateway.heartbeat_interval must be positive")
	}
	if _, ok := cfg.LLMs[cfg.DefaultLLM]; !ok {
		return nil, fmt.Errorf("default LLM %q not found in config", cfg.DefaultLLM)
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		DefaultLLM: "openai",
		LLMs: map[string]*LLMConfig{
			"openai": {
				Model: "gpt-4o-mini",
			},
		},
		Gateway: GatewayConfig{
			Addr:              ":8001",
			HeartbeatInterval: Duration{time.Second},
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost:8001",
				"http://localhost:5173",
			},
		},
		DB: DBConfig{
			Path: defaultDBPath(),
		},
		Services: ServicesConfig{
			Slack:  SlackConfig{DefaultChannel: "#general"},
			Twilio: TwilioConfig{WhatsAppFrom: "whatsapp:+14155238886"},
		},
	}
}

// LLM returns the default LLM settings.
func (c *Config) LLM() *LLMConfig {
	return c.LLMs[c.DefaultLLM]
}

// MaxIterations returns the configured iteration cap for an agent type, or 0.
func (c *Config) MaxIterations(agentType string) int {
	if ac, ok := c.Agents[agentType]; ok && ac != nil {
		return ac.MaxIterations
	}
	return 0
}

// applyEnv fills secrets that are commonly provided through the environment
// rather than the config file.
func applyEnv(cfg *Config) {
	if llm, ok := cfg.LLMs[cfg.DefaultLLM]; ok && llm.APIKey == "" {
		llm.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		if llm, ok := cfg.LLMs[cfg.DefaultLLM]; ok {
			llm.Model = v
		}
	}
	for _, kv := range []struct {
		dst *string
		env string
	}{
		{&cfg.Services.Brave.APIKey, "BRAVE_API_KEY"},
		{&cfg.Services.Slack.BotToken, "SLACK_BOT_TOKEN"},
		{&cfg.Services.Gmail.AccessToken, "GMAIL_ACCESS_TOKEN"},
		{&cfg.Services.Notion.Token, "NOTION_TOKEN"},
		{&cfg.Services.Notion.DefaultParent, "NOTION_DEFAULT_PARENT"},
		{&cfg.Services.Trello.APIKey, "TRELLO_API_KEY"},
		{&cfg.Services.Trello.Token, "TRELLO_TOKEN"},
		{&cfg.Services.Twilio.AccountSID, "TWILIO_ACCOUNT_SID"},
		{&cfg.Services.Twilio.AuthToken, "TWILIO_AUTH_TOKEN"},
	} {
		if *kv.dst == "" {
			*kv.dst = os.Getenv(kv.env)
		}
	}
}

// Save writes cfg as TOML to path, creating parent directories. It refuses to
// overwrite an existing file.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("encoding config: %w", err)
	}
	return f.Close()
}

// Path returns the config file location used when none is given.
func Path() string {
	if p := os.Getenv("ENGRAM_CONFIG"); p != "" {
		return p
	}
	dir, _ := os.UserConfigDir()
	return filepath.Join(dir, "engram", "config.toml")
}

func defaultDBPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, ".local", "share", "engram", "engram.db")
}
