package agent

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// PromptFile is the override file looked up in the prompts directory.
const PromptFile = "prompts.yaml"

// Topic is one entry of the static research table.
type Topic struct {
	Topic   string `yaml:"topic"`
	Summary string `yaml:"summary"`
}

type StylePrompt struct {
	Prompt   string `yaml:"prompt"`
	Fallback string `yaml:"fallback"`
}

type Prompts struct {
	Research struct {
		System          string  `yaml:"system"`
		Prompt          string  `yaml:"prompt"`
		FallbackPrefix  string  `yaml:"fallback_prefix"`
		FallbackDefault string  `yaml:"fallback_default"`
		Topics          []Topic `yaml:"topics"`
	} `yaml:"research"`
	Writing struct {
		System string                 `yaml:"system"`
		Styles map[string]StylePrompt `yaml:"styles"`
	} `yaml:"writing"`
	Chat struct {
		System string `yaml:"system"`
	} `yaml:"chat"`
}

// PromptManager serves prompt templates and fallback text. The embedded defaults
// can be overridden with a prompts.yaml in Directory; sections the override
// leaves out keep their defaults.
type PromptManager struct {
	Directory string
	prompts   Prompts
}

func NewPromptManager(dir string) (*PromptManager, error) {
	pm := &PromptManager{Directory: dir}
	if err := yaml.Unmarshal(defaultPrompts, &pm.prompts); err != nil {
		return nil, fmt.Errorf("failed to parse embedded prompts: %w", err)
	}
	if dir == "" {
		return pm, nil
	}

	path := filepath.Join(dir, PromptFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return pm, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}
	// Decoding over the defaults keeps every field the override leaves out.
	if err := yaml.Unmarshal(data, &pm.prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", path, err)
	}
	return pm, nil
}

// MustDefaultPrompts returns a manager backed by the embedded prompts only.
func MustDefaultPrompts() *PromptManager {
	pm, err := NewPromptManager("")
	if err != nil {
		panic(err)
	}
	return pm
}

func (pm *PromptManager) Prompts() Prompts {
	return pm.prompts
}

// Style returns the writing templates for style, defaulting to informative.
func (pm *PromptManager) Style(style string) StylePrompt {
	if sp, ok := pm.prompts.Writing.Styles[style]; ok {
		return sp
	}
	return pm.prompts.Writing.Styles[StyleInformative]
}

// Render executes tmpl against data.
func Render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

type promptData struct {
	Query   string
	Context string
}
