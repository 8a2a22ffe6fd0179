package observability

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypePlan      EventType = "plan"
	EventTypeStep      EventType = "step"
	EventTypeLLM       EventType = "llm"
	EventTypeFallback  EventType = "fallback"
	EventTypeToolCall  EventType = "tool_call"
	EventTypePolicy    EventType = "policy_check"
	EventTypeCost      EventType = "cost"
	EventTypeResult    EventType = "result"
	EventTypeMessage   EventType = "message"
	EventTypeHeartbeat EventType = "heartbeat"
	EventTypeError     EventType = "error"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	ChatID    string    `json:"chat_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger emits structured events. LLM exchanges are additionally appended to a
// JSONL file that is rotated once it grows past maxSize.
type Logger struct {
	zl         zerolog.Logger
	llmLogPath string
	maxSize    int64
	fileMu     sync.Mutex
}

// NewLogger writes events as JSON lines to w. An empty llmLogPath disables the
// LLM transcript file.
func NewLogger(w io.Writer, llmLogPath string) *Logger {
	return &Logger{
		zl:         zerolog.New(w).With().Timestamp().Logger(),
		llmLogPath: llmLogPath,
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// NopLogger discards everything.
func NopLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// SetupGlobal configures zerolog's global logger for process-level messages.
func SetupGlobal(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var w io.Writer = os.Stderr
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// Log emits evt. A nil Logger is a no-op.
func (l *Logger) Log(evt Event) {
	if l == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	e := l.zl.Info().Str("type", string(evt.Type))
	if evt.RunID != "" {
		e = e.Str("run_id", evt.RunID)
	}
	if evt.ChatID != "" {
		e = e.Str("chat_id", evt.ChatID)
	}
	e.Interface("data", evt.Data).Send()

	if evt.Type == EventTypeLLM && l.llmLogPath != "" {
		data, err := json.Marshal(evt)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal llm event")
			return
		}
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Error().Err(err).Msg("failed to create log directory")
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Error().Err(err).Msg("failed to open llm log file")
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Error().Err(err).Msg("failed to write llm log file")
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogPlan(runID, query string, steps any) {
	l.Log(Event{
		Type:  EventTypePlan,
		RunID: runID,
		Data: map[string]any{
			"query": query,
			"steps": steps,
		},
	})
}

func (l *Logger) LogStep(runID string, step int, agent, task string) {
	l.Log(Event{
		Type:  EventTypeStep,
		RunID: runID,
		Data: map[string]any{
			"step":  step,
			"agent": agent,
			"task":  task,
		},
	})
}

func (l *Logger) LogLLM(runID, agent, prompt, response string) {
	l.Log(Event{
		Type:  EventTypeLLM,
		RunID: runID,
		Data: map[string]string{
			"agent":    agent,
			"prompt":   prompt,
			"response": response,
		},
	})
}

func (l *Logger) LogFallback(runID, agent string, cause error) {
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	l.Log(Event{
		Type:  EventTypeFallback,
		RunID: runID,
		Data: map[string]string{
			"agent":  agent,
			"reason": reason,
		},
	})
}

func (l *Logger) LogError(runID, component string, err error) {
	l.Log(Event{
		Type:  EventTypeError,
		RunID: runID,
		Data: map[string]string{
			"component": component,
			"error":     err.Error(),
		},
	})
}

func (l *Logger) LogToolCall(runID, tool, args string) {
	l.Log(Event{
		Type:  EventTypeToolCall,
		RunID: runID,
		Data: map[string]string{
			"tool": tool,
			"args": args,
		},
	})
}

func (l *Logger) LogPolicy(runID, tool, effect, reason string) {
	l.Log(Event{
		Type:  EventTypePolicy,
		RunID: runID,
		Data: map[string]string{
			"tool":   tool,
			"effect": effect,
			"reason": reason,
		},
	})
}

func (l *Logger) LogCost(model string, promptTokens, completionTokens int) {
	l.Log(Event{
		Type: EventTypeCost,
		Data: map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
			"model":             model,
		},
	})
}

func (l *Logger) LogResult(runID string, agents []string, duration time.Duration) {
	l.Log(Event{
		Type:  EventTypeResult,
		RunID: runID,
		Data: map[string]any{
			"agents":      agents,
			"duration_ms": duration.Milliseconds(),
		},
	})
}

func (l *Logger) LogMessage(chatID, gateway, text string) {
	l.Log(Event{
		Type:   EventTypeMessage,
		ChatID: chatID,
		Data: map[string]string{
			"gateway": gateway,
			"text":    text,
		},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}
