package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptManager_Defaults(t *testing.T) {
	pm, err := NewPromptManager("")
	require.NoError(t, err)

	p := pm.Prompts()
	require.Len(t, p.Research.Topics, 7)
	assert.Equal(t, "python programming", p.Research.Topics[0].Topic)
	assert.Equal(t, "🔍 Search Results: ", p.Research.FallbackPrefix)
	for _, style := range []string{StyleInformative, StyleSummary, StyleTechnical, StyleCreative} {
		assert.NotEmpty(t, pm.Style(style).Fallback, style)
	}
	assert.Equal(t, pm.Style(StyleInformative), pm.Style("limerick"))
}

func TestPromptManager_OverrideKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	override := `
research:
  fallback_prefix: "Lookup: "
  topics:
    - topic: go
      summary: Go is a statically typed language.
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, PromptFile), []byte(override), 0644))

	pm, err := NewPromptManager(dir)
	require.NoError(t, err)

	a := NewResearchAgent(nil, pm, nil)
	assert.Equal(t, "Lookup: Go is a statically typed language.", a.Fallback("learn go"))
	// Untouched sections come from the embedded file.
	assert.NotEmpty(t, pm.Prompts().Writing.Styles[StyleCreative].Prompt)
	assert.NotEmpty(t, pm.Prompts().Research.System)
}

func TestPromptManager_MissingDirFileIsFine(t *testing.T) {
	pm, err := NewPromptManager(t.TempDir())
	require.NoError(t, err)
	assert.Len(t, pm.Prompts().Research.Topics, 7)
}

func TestPromptManager_BadOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PromptFile), []byte("research: [unclosed"), 0644))
	_, err := NewPromptManager(dir)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	out, err := Render("Topic: {{.Query}}{{if .Context}} ({{.Context}}){{end}}", promptData{Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Topic: x", out)

	_, err = Render("{{.Query", promptData{})
	assert.Error(t, err)
}
