package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rahul/agentdesk/internal/agent"
	"github.com/rahul/agentdesk/internal/observability"
	"github.com/rs/zerolog/log"
)

const discordMessageLimit = 2000

type DiscordGateway struct {
	token   string
	session *discordgo.Session
	Brain   agent.Brain
	Logger  *observability.Logger
}

func NewDiscordGateway(token string, brain agent.Brain, logger *observability.Logger) (*DiscordGateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	return &DiscordGateway{
		token:   token,
		session: session,
		Brain:   brain,
		Logger:  logger,
	}, nil
}

func (d *DiscordGateway) Name() string { return "discord" }

func (d *DiscordGateway) Start(ctx context.Context) error {
	remove := d.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}

		// Only respond in DMs or when mentioned
		if m.GuildID != "" && !isMentioned(s.State.User.ID, m.Mentions) {
			return
		}

		text := stripMention(m.Content, s.State.User.ID)
		if text == "" {
			return
		}
		response := answer(ctx, d.Brain, d.Logger, d.Name(), m.ChannelID, text)
		if err := d.Send(m.ChannelID, response); err != nil {
			log.Error().Err(err).Str("channel_id", m.ChannelID).Msg("discord send failed")
		}
	})
	defer remove()

	if err := d.session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	log.Info().Str("account", d.session.State.User.Username).Msg("discord connected")

	<-ctx.Done()
	return d.session.Close()
}

func (d *DiscordGateway) Send(chatID string, text string) error {
	for _, chunk := range splitMessage(text, discordMessageLimit) {
		if _, err := d.session.ChannelMessageSend(chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func isMentioned(botID string, mentions []*discordgo.User) bool {
	for _, mention := range mentions {
		if mention.ID == botID {
			return true
		}
	}
	return false
}

func stripMention(content, botID string) string {
	content = strings.ReplaceAll(content, "<@"+botID+">", "")
	content = strings.ReplaceAll(content, "<@!"+botID+">", "")
	return strings.TrimSpace(content)
}
