package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig                 `json:"app" mapstructure:"app"`
	Server    ServerConfig              `json:"server" mapstructure:"server"`
	Gateways  map[string]GatewayConfig  `json:"gateways" mapstructure:"gateways"`
	Providers map[string]ProviderConfig `json:"providers" mapstructure:"providers"`
	Memory    MemoryConfig              `json:"memory" mapstructure:"memory"`
	Tools     ToolsConfig               `json:"tools" mapstructure:"tools"`
	Logging   LoggingConfig             `json:"logging" mapstructure:"logging"`
}

type AppConfig struct {
	Name         string `json:"name" mapstructure:"name"`
	PromptsDir   string `json:"prompts_dir" mapstructure:"prompts_dir"`
	HistoryLimit int    `json:"history_limit" mapstructure:"history_limit"`
}

type ServerConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

type GatewayConfig struct {
	Token   string `json:"token" mapstructure:"token"`
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
}

type ProviderConfig struct {
	APIKey         string  `json:"api_key" mapstructure:"api_key"`
	Model          string  `json:"model" mapstructure:"model"`
	BaseURL        string  `json:"base_url,omitempty" mapstructure:"base_url"`
	Driver         string  `json:"driver,omitempty" mapstructure:"driver"` // langchain or openai
	Enabled        bool    `json:"enabled" mapstructure:"enabled"`
	MaxTokens      int     `json:"max_tokens" mapstructure:"max_tokens"`
	Temperature    float64 `json:"temperature" mapstructure:"temperature"`
	TimeoutSeconds int     `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxRetries     int     `json:"max_retries" mapstructure:"max_retries"`
	BackoffMS      int     `json:"backoff_ms" mapstructure:"backoff_ms"`
}

type MemoryConfig struct {
	Type string `json:"type" mapstructure:"type"`
	Path string `json:"path" mapstructure:"path"`
}

type ToolsConfig struct {
	WebSearch bool `json:"web_search" mapstructure:"web_search"`
	Scrape    bool `json:"scrape" mapstructure:"scrape"`
	// Deny lists tools that may never run even when enabled.
	Deny         []string          `json:"deny" mapstructure:"deny"`
	DenyPatterns []DenyPatternRule `json:"deny_patterns" mapstructure:"deny_patterns"`
}

// DenyPatternRule rejects tool calls whose JSON arguments match Pattern. An
// empty Tool applies the rule to every tool.
type DenyPatternRule struct {
	Tool    string `json:"tool" mapstructure:"tool"`
	Pattern string `json:"pattern" mapstructure:"pattern"`
}

type LoggingConfig struct {
	Level      string `json:"level" mapstructure:"level"`
	LLMLogPath string `json:"llm_log_path" mapstructure:"llm_log_path"`
}

const envPrefix = "AGENTDESK"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "agentdesk")
	v.SetDefault("app.prompts_dir", "")
	v.SetDefault("app.history_limit", 50)
	v.SetDefault("server.addr", ":8501")
	v.SetDefault("memory.type", "sqlite")
	v.SetDefault("memory.path", "agentdesk.db")
	v.SetDefault("tools.web_search", false)
	v.SetDefault("tools.scrape", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.llm_log_path", filepath.Join("logs", "llm.jsonl"))
	v.SetDefault("gateways.telegram.enabled", false)
	v.SetDefault("gateways.discord.enabled", false)

	// The hosted OpenAI-compatible endpoint is declared up front so that setting
	// E2E_API_KEY alone is enough to enable it.
	v.SetDefault("providers.e2e.driver", "openai")
	v.SetDefault("providers.e2e.base_url", "https://api.e2enetworks.com/v1")
	v.SetDefault("providers.e2e.model", "gpt-3.5-turbo")
	v.SetDefault("providers.e2e.enabled", true)
	setProviderDefaults(v, "e2e")
}

var providerDefaults = map[string]any{
	"driver":          "langchain",
	"max_tokens":      500,
	"temperature":     0.7,
	"timeout_seconds": 30,
	"max_retries":     3,
	"backoff_ms":      1000,
}

// setProviderDefaults registers defaults for every provider key not already
// set, so explicit zeros in the file are kept.
func setProviderDefaults(v *viper.Viper, name string) {
	for key, val := range providerDefaults {
		k := "providers." + name + "." + key
		if !v.IsSet(k) {
			v.SetDefault(k, val)
		}
	}
}

// LoadConfig reads the config file at path (JSON or YAML) and merges environment
// overrides. A missing file is not an error: defaults and the environment are used.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials for the hosted endpoint keep their historical names.
	_ = v.BindEnv("providers.e2e.api_key", envPrefix+"_PROVIDERS_E2E_API_KEY", "E2E_API_KEY")
	_ = v.BindEnv("providers.e2e.base_url", envPrefix+"_PROVIDERS_E2E_BASE_URL", "E2E_BASE_URL")
	_ = v.BindEnv("gateways.telegram.token", envPrefix+"_GATEWAYS_TELEGRAM_TOKEN", "TELEGRAM_TOKEN")
	_ = v.BindEnv("gateways.discord.token", envPrefix+"_GATEWAYS_DISCORD_TOKEN", "DISCORD_TOKEN")

	if path != "" {
		v.SetConfigFile(path)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
			v.SetConfigType("json")
		}
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	for name := range v.GetStringMap("providers") {
		setProviderDefaults(v, name)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// GetDefaultProvider returns the first enabled provider, by name, that carries a
// credential. An empty name means the completion backend is not configured.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := c.Providers[name]
		if p.Enabled && p.APIKey != "" {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	return c.gateway("telegram")
}

// GetDiscordConfig returns discord config if enabled
func (c *Config) GetDiscordConfig() (GatewayConfig, bool) {
	return c.gateway("discord")
}

func (c *Config) gateway(name string) (GatewayConfig, bool) {
	gw, ok := c.Gateways[name]
	if ok && gw.Enabled && gw.Token != "" {
		return gw, true
	}
	return GatewayConfig{}, false
}
