package gateway

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rahul/agentdesk/internal/agent"
	"github.com/rahul/agentdesk/internal/observability"
	"github.com/rs/zerolog/log"
)

// Messenger defines the interface for chat gateways (Telegram, Discord, etc.)
type Messenger interface {
	Name() string
	// Start listens for messages until ctx is cancelled.
	Start(ctx context.Context) error
	// Send sends a message to a specific chat
	Send(chatID string, text string) error
}

const thinkingFailed = "I'm having trouble thinking right now..."

// answer asks brain for a reply and never fails; errors become a short apology.
func answer(ctx context.Context, brain agent.Brain, logger *observability.Logger, gateway, chatID, text string) string {
	logger.LogMessage(chatID, gateway, text)

	response, err := brain.Think(ctx, chatID, text)
	if err != nil {
		log.Error().Err(err).Str("gateway", gateway).Str("chat_id", chatID).Msg("failed to answer message")
		return thinkingFailed
	}
	return response
}

// splitMessage cuts text into chunks of at most limit bytes, preferring line
// breaks and never splitting a rune.
func splitMessage(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				// limit is narrower than the first rune; emit it whole.
				_, cut = utf8.DecodeRuneInString(text)
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
