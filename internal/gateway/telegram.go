package gateway

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rahul/agentdesk/internal/agent"
	"github.com/rahul/agentdesk/internal/observability"
	"github.com/rs/zerolog/log"
)

const telegramMessageLimit = 4096

type TelegramGateway struct {
	Bot    *tgbotapi.BotAPI
	Brain  agent.Brain
	Logger *observability.Logger
}

func NewTelegramGateway(token string, brain agent.Brain, logger *observability.Logger) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}

	log.Info().Str("account", bot.Self.UserName).Msg("telegram authorized")

	return &TelegramGateway{
		Bot:    bot,
		Brain:  brain,
		Logger: logger,
	}, nil
}

func (tg *TelegramGateway) Name() string { return "telegram" }

func (tg *TelegramGateway) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)
	defer tg.Bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}

			chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
			response := answer(ctx, tg.Brain, tg.Logger, tg.Name(), chatID, update.Message.Text)

			if err := tg.Send(chatID, response); err != nil {
				log.Error().Err(err).Str("chat_id", chatID).Msg("telegram send failed")
			}
		}
	}
}

func (tg *TelegramGateway) Send(chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}

	for _, chunk := range splitMessage(text, telegramMessageLimit) {
		msg := tgbotapi.NewMessage(id, chunk)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := tg.Bot.Send(msg); err != nil {
			// Agent output is free text and may not be valid Markdown.
			msg.ParseMode = ""
			if _, err := tg.Bot.Send(msg); err != nil {
				return err
			}
		}
	}
	return nil
}
