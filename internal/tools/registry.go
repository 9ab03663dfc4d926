package tools

import (
	"engram/internal/agent"
	"engram/internal/config"
)

// NewRegistry builds the process-wide tool registry. Tools whose service has
// no credentials are still registered; they answer with a not-configured
// result.
func NewRegistry(cfg config.ServicesConfig) *agent.Registry {
	reg := agent.NewRegistry()
	reg.Register(NewWeb(cfg.Brave.APIKey).Tools()...)
	reg.Register(NewSlack(cfg.Slack).Tools()...)
	reg.Register(NewGmail(cfg.Gmail).Tools()...)
	reg.Register(NewNotion(cfg.Notion).Tools()...)
	reg.Register(NewTrello(cfg.Trello).Tools()...)
	reg.Register(NewTwilio(cfg.Twilio).Tools()...)
	return reg
}
