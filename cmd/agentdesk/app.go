package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rahul/agentdesk/internal/agent"
	"github.com/rahul/agentdesk/internal/governance"
	"github.com/rahul/agentdesk/internal/llm"
	"github.com/rahul/agentdesk/internal/observability"
	"github.com/rahul/agentdesk/internal/store"
	"github.com/rahul/agentdesk/internal/tools"
	"github.com/rahul/agentdesk/pkg/config"
	"github.com/rs/zerolog/log"
)

// scrapeLimit caps page text passed into research prompts.
const scrapeLimit = 8000

type app struct {
	cfg      *config.Config
	logger   *observability.Logger
	provider string
	backend  llm.Completer
	history  *store.HistoryStore
	desk     *agent.Desk
}

// newApp wires the desk from cfg. Events go to events; the LLM transcript file
// comes from the logging config.
func newApp(cfg *config.Config, events io.Writer) (*app, error) {
	logger := observability.NewLogger(events, cfg.Logging.LLMLogPath)

	pName, pCfg := cfg.GetDefaultProvider()
	var backend llm.Completer
	if pName != "" {
		c, err := newCompleter(pCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", pName, err)
		}
		backend = c
		log.Info().Str("provider", pName).Str("model", pCfg.Model).Str("driver", pCfg.Driver).Msg("completion backend configured")
	} else {
		log.Warn().Msg("no completion backend configured, using fallback responses")
	}

	prompts, err := agent.NewPromptManager(cfg.App.PromptsDir)
	if err != nil {
		return nil, err
	}

	history, err := store.NewHistoryStore(cfg.Memory.Path, cfg.App.HistoryLimit)
	if err != nil {
		return nil, err
	}

	research := agent.NewResearchAgent(backend, prompts, logger)
	web, err := newWebContext(cfg.Tools, logger)
	if err != nil {
		history.Close()
		return nil, err
	}
	if web != nil {
		research.Web = web
	}

	desk := &agent.Desk{
		Coordinator: agent.NewCoordinator(logger,
			research,
			agent.NewAnalysisAgent(),
			agent.NewWritingAgent(backend, prompts, logger),
		),
		Simple: agent.NewSimpleAgent(backend, prompts, logger),
		Store:  history,
		Logger: logger,
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		provider: pName,
		backend:  backend,
		history:  history,
		desk:     desk,
	}, nil
}

func (a *app) Close() error {
	return a.history.Close()
}

// newCompleter builds the driver named by p.Driver wrapped in linear-backoff
// retries.
func newCompleter(p config.ProviderConfig, logger *observability.Logger) (llm.Completer, error) {
	defaults := llm.Options{
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		Model:       p.Model,
	}
	timeout := time.Duration(p.TimeoutSeconds) * time.Second

	var next llm.Completer
	switch p.Driver {
	case "openai":
		c := llm.NewOpenAI(p.APIKey, p.BaseURL, timeout, defaults)
		c.OnUsage = logger.LogCost
		next = c
	case "langchain", "":
		c, err := llm.NewLangChainOpenAI(p.APIKey, p.Model, p.BaseURL, timeout, defaults)
		if err != nil {
			return nil, err
		}
		c.OnUsage = logger.LogCost
		next = c
	default:
		return nil, fmt.Errorf("unknown driver %q", p.Driver)
	}

	// max_retries counts attempts; an explicit zero still makes one call.
	attempts := max(p.MaxRetries, 1)
	return llm.NewRetrying(next, attempts, time.Duration(p.BackoffMS)*time.Millisecond), nil
}

// newWebContext returns nil when no web tool is enabled.
func newWebContext(cfg config.ToolsConfig, logger *observability.Logger) (*tools.WebContext, error) {
	registry := tools.NewRegistry()

	if cfg.WebSearch {
		search, err := tools.NewSearchTool(5)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize search tool")
		} else {
			registry.Register(search)
		}
	}
	if cfg.Scrape {
		registry.Register(tools.NewScraperTool(scrapeLimit))
	}
	if len(registry.Tools) == 0 {
		return nil, nil
	}

	policy, err := newToolPolicy(cfg)
	if err != nil {
		return nil, err
	}

	log.Info().Strs("tools", registry.Names()).Msg("web tools enabled")
	return &tools.WebContext{
		Registry: registry,
		Policy:   policy,
		Logger:   logger,
	}, nil
}

// newToolPolicy adds the configured deny rules to the public-hosts policy.
func newToolPolicy(cfg config.ToolsConfig) (*governance.DefaultPolicyEngine, error) {
	policy := governance.NewToolPolicy()
	for _, name := range cfg.Deny {
		policy.DenyTool(name)
	}
	for _, r := range cfg.DenyPatterns {
		if err := policy.DenyArgumentsFor(r.Tool, r.Pattern); err != nil {
			return nil, fmt.Errorf("tools.deny_patterns %q: %w", r.Pattern, err)
		}
	}
	return policy, nil
}
