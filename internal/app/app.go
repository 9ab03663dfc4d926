// Package app wires configuration into a ready orchestrator and its
// supporting stores. Commands build one App per process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"engram/internal/agent"
	"engram/internal/channels"
	"engram/internal/company"
	"engram/internal/config"
	"engram/internal/db"
	"engram/internal/llm"
	"engram/internal/orchestrator"
	"engram/internal/tools"
	"engram/internal/trace"
)

type App struct {
	Config       *config.Config
	DB           *db.DB
	Company      *company.Store
	Catalog      *agent.Catalog
	Orchestrator *orchestrator.Orchestrator

	shutdownTrace func(context.Context) error
}

// New opens the database, installs tracing and builds the agent stack.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	shutdown, err := trace.Init(ctx, cfg.Trace)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	database, err := db.Open(cfg.DB.Path)
	if err != nil {
		shutdown(ctx)
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		shutdown(ctx)
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	llmCfg := cfg.LLM()
	provider := llm.NewOpenAI(llmCfg.BaseURL, llmCfg.APIKey, llmCfg.Model)
	if llmCfg.APIKey == "" {
		slog.Warn("no API key for default LLM; agent runs will fail", "llm", cfg.DefaultLLM)
	}

	registry := tools.NewRegistry(cfg.Services)
	catalog := agent.DefaultCatalog()
	factory := agent.NewFactory(provider, registry, catalog, cfg.MaxIterations)
	store := company.NewStore(database)

	slog.Info("agent stack ready",
		"model", provider.Model(),
		"tools", registry.Len(),
		"agents", len(catalog.Types()),
		"db", cfg.DB.Path,
	)

	return &App{
		Config:        cfg,
		DB:            database,
		Company:       store,
		Catalog:       catalog,
		Orchestrator:  orchestrator.New(factory, catalog, store),
		shutdownTrace: shutdown,
	}, nil
}

// Channels builds the enabled chat channels.
func (a *App) Channels() []channels.Channel {
	var chs []channels.Channel
	for name, ch := range a.Config.Channels {
		if ch == nil || !ch.Enabled {
			continue
		}
		switch ch.Type {
		case "telegram":
			chs = append(chs, channels.NewTelegram(ch.Settings["bot_token"], ch.Settings["webhook_url"], a.Orchestrator, a.Catalog))
			slog.Info("channel registered", "name", name, "type", ch.Type)
		default:
			slog.Warn("unknown channel type", "name", name, "type", ch.Type)
		}
	}
	return chs
}

// Close flushes traces and closes the database.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.shutdownTrace(ctx), a.DB.Close())
}
