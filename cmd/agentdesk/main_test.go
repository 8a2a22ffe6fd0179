package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rahul/agentdesk/internal/agent"
	"github.com/rahul/agentdesk/internal/governance"
	"github.com/rahul/agentdesk/internal/llm"
	"github.com/rahul/agentdesk/internal/observability"
	"github.com/rahul/agentdesk/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	t.Setenv("E2E_API_KEY", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := fmt.Sprintf(`{
		"memory": {"path": %q},
		"logging": {"level": "error", "llm_log_path": %q}
	}`, filepath.Join(dir, "desk.db"), filepath.Join(dir, "llm.jsonl"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), out.String())
	return out.String()
}

func TestAskJSON_Offline(t *testing.T) {
	cfg := writeConfig(t)

	out := run(t, "--config", cfg, "ask", "--json", "What is machine learning and calculate 10 + 5?")

	var outcome agent.Outcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.Equal(t, agent.ModeMulti, outcome.Mode)
	assert.Contains(t, outcome.Answer, "📚 **Research Findings:**")
	assert.Contains(t, outcome.Answer, "🧮 10 + 5 = 15")
}

func TestAskSingleAndHistory(t *testing.T) {
	cfg := writeConfig(t)

	out := run(t, "--config", cfg, "ask", "--mode", "single", "What", "is", "5 + 3?")
	assert.Contains(t, out, "The answer is: 🧮 5 + 3 = 8")

	out = run(t, "--config", cfg, "history", "--limit", "5")
	assert.Contains(t, out, "single")
	assert.Contains(t, out, "What is 5 + 3?")

	out = run(t, "--config", cfg, "history", "clear")
	assert.Contains(t, out, "History cleared.")

	out = run(t, "--config", cfg, "history")
	assert.Contains(t, out, "No history.")
}

func TestHistoryMessages(t *testing.T) {
	path := writeConfig(t)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	a, err := newApp(cfg, io.Discard)
	require.NoError(t, err)
	_, err = a.desk.Think(context.Background(), "chat-42", "hello")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	out := run(t, "--config", path, "history", "messages", "chat-42")
	assert.Contains(t, out, "human  hello")
	assert.Contains(t, out, "ai     ")

	out = run(t, "--config", path, "history", "messages", "someone-else")
	assert.Contains(t, out, "No messages.")
}

func TestNewWebContext(t *testing.T) {
	logger := observability.NopLogger()

	web, err := newWebContext(config.ToolsConfig{}, logger)
	require.NoError(t, err)
	assert.Nil(t, web)

	cfg := config.ToolsConfig{
		Scrape:       true,
		Deny:         []string{"scraper"},
		DenyPatterns: []config.DenyPatternRule{{Tool: "search", Pattern: `(?i)password`}},
	}
	web, err = newWebContext(cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, web)

	res, err := web.Policy.Evaluate(context.Background(), governance.Request{Tool: "scraper", Arguments: `{"url":"http://93.184.216.34/"}`})
	require.NoError(t, err)
	assert.False(t, res.Allowed())

	res, _ = web.Policy.Evaluate(context.Background(), governance.Request{Tool: "search", Arguments: `{"query":"admin password"}`})
	assert.False(t, res.Allowed())

	cfg.DenyPatterns = []config.DenyPatternRule{{Pattern: `(`}}
	_, err = newWebContext(cfg, logger)
	assert.ErrorContains(t, err, "tools.deny_patterns")
}

func TestProbe_Unconfigured(t *testing.T) {
	cfg := writeConfig(t)
	out := run(t, "--config", cfg, "probe")
	assert.Contains(t, out, "provider: none")
	assert.Contains(t, out, "status:   unconfigured")
}

func TestNewCompleter(t *testing.T) {
	logger := observability.NopLogger()

	c, err := newCompleter(config.ProviderConfig{APIKey: "k", Model: "m", Driver: "openai", BaseURL: "http://127.0.0.1:1/v1", MaxRetries: 2, BackoffMS: 1}, logger)
	require.NoError(t, err)
	r, ok := c.(*llm.Retrying)
	require.True(t, ok)
	assert.Equal(t, 2, r.MaxAttempts)
	assert.IsType(t, &llm.OpenAI{}, r.Next)

	c, err = newCompleter(config.ProviderConfig{APIKey: "k", Model: "m", Driver: "langchain"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &llm.LangChain{}, c.(*llm.Retrying).Next)

	c, err = newCompleter(config.ProviderConfig{APIKey: "k", Model: "m", Driver: "openai", MaxRetries: 0}, logger)
	require.NoError(t, err)
	assert.Equal(t, 1, c.(*llm.Retrying).MaxAttempts)

	_, err = newCompleter(config.ProviderConfig{Driver: "carrier-pigeon"}, logger)
	assert.Error(t, err)
}
