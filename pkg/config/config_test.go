package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, "agentdesk", cfg.App.Name)
	assert.Equal(t, ":8501", cfg.Server.Addr)
	assert.Equal(t, 50, cfg.App.HistoryLimit)

	e2e, ok := cfg.Providers["e2e"]
	require.True(t, ok)
	assert.Equal(t, "openai", e2e.Driver)
	assert.Equal(t, 3, e2e.MaxRetries)

	// No credential anywhere: fallback mode, not an error.
	name, _ := cfg.GetDefaultProvider()
	assert.Empty(t, name)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"app": {"name": "desk-test", "history_limit": 5},
		"providers": {
			"openrouter": {"api_key": "file-key", "model": "some/model", "enabled": true}
		},
		"gateways": {"telegram": {"token": "tg", "enabled": true}}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	t.Setenv("E2E_API_KEY", "env-key")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "desk-test", cfg.App.Name)
	assert.Equal(t, 5, cfg.App.HistoryLimit)

	or := cfg.Providers["openrouter"]
	assert.Equal(t, "langchain", or.Driver)
	assert.Equal(t, 500, or.MaxTokens)
	assert.Equal(t, 30, or.TimeoutSeconds)

	// Providers are picked in name order: e2e sorts first.
	name, p := cfg.GetDefaultProvider()
	assert.Equal(t, "e2e", name)
	assert.Equal(t, "env-key", p.APIKey)

	tg, ok := cfg.GetTelegramConfig()
	assert.True(t, ok)
	assert.Equal(t, "tg", tg.Token)

	_, ok = cfg.GetDiscordConfig()
	assert.False(t, ok)
}

func TestLoadConfig_ExplicitZerosKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
providers:
  local:
    api_key: k
    enabled: true
    temperature: 0
    max_retries: 0
  e2e:
    temperature: 0
tools:
  scrape: true
  deny: [search]
  deny_patterns:
    - tool: scraper
      pattern: "example\\.org"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	local := cfg.Providers["local"]
	assert.Equal(t, 0.0, local.Temperature)
	assert.Equal(t, 0, local.MaxRetries)
	assert.Equal(t, 500, local.MaxTokens)
	assert.Equal(t, "langchain", local.Driver)

	e2e := cfg.Providers["e2e"]
	assert.Equal(t, 0.0, e2e.Temperature)
	assert.Equal(t, "openai", e2e.Driver)
	assert.Equal(t, 3, e2e.MaxRetries)

	assert.Equal(t, []string{"search"}, cfg.Tools.Deny)
	require.Len(t, cfg.Tools.DenyPatterns, 1)
	assert.Equal(t, DenyPatternRule{Tool: "scraper", Pattern: `example\.org`}, cfg.Tools.DenyPatterns[0])
}

func TestGetDefaultProvider_SkipsDisabledAndKeyless(t *testing.T) {
	cfg := &Config{Providers: map[string]ProviderConfig{
		"a": {APIKey: "k", Enabled: false},
		"b": {Enabled: true},
		"c": {APIKey: "k", Enabled: true},
	}}
	name, _ := cfg.GetDefaultProvider()
	assert.Equal(t, "c", name)
}
