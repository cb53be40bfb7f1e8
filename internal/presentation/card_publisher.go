package presentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/steam-stalker/internal/domain"
	"github.com/sglre6355/steam-stalker/internal/usecase"
)

// DiscordCardPublisher posts and edits status messages in Discord channels.
type DiscordCardPublisher struct {
	session *discordgo.Session
	logger  *slog.Logger
}

// NewDiscordCardPublisher wires a Discord session to the publishing interface expected by the use case layer.
func NewDiscordCardPublisher(session *discordgo.Session, logger *slog.Logger) *DiscordCardPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscordCardPublisher{session: session, logger: logger.With("component", "card_publisher")}
}

// ResolveChannel checks the channel exists, preferring the gateway state cache.
func (p *DiscordCardPublisher) ResolveChannel(ctx context.Context, channelID string) error {
	if p.session == nil {
		return fmt.Errorf("discord session is not initialised")
	}
	if channelID == "" {
		return usecase.ErrChannelNotFound
	}

	if p.session.State != nil {
		if _, err := p.session.State.Channel(channelID); err == nil {
			return nil
		}
	}

	if _, err := p.session.Channel(channelID, discordgo.WithContext(ctx)); err != nil {
		return classifyRESTError(err, discordgo.ErrCodeUnknownChannel, usecase.ErrChannelNotFound)
	}
	return nil
}

// SendCards posts a new message carrying cards and returns its id.
func (p *DiscordCardPublisher) SendCards(ctx context.Context, channelID string, cards []domain.Card) (string, error) {
	if p.session == nil {
		return "", fmt.Errorf("discord session is not initialised")
	}

	payload := &discordgo.MessageSend{Embeds: p.embeds(channelID, cards)}
	message, err := p.session.ChannelMessageSendComplex(channelID, payload, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to send status message: %w",
			classifyRESTError(err, discordgo.ErrCodeUnknownChannel, usecase.ErrChannelNotFound))
	}
	return message.ID, nil
}

// EditCards fetches messageID and replaces its embeds with cards.
func (p *DiscordCardPublisher) EditCards(ctx context.Context, channelID, messageID string, cards []domain.Card) error {
	if p.session == nil {
		return fmt.Errorf("discord session is not initialised")
	}

	if _, err := p.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return classifyRESTError(err, discordgo.ErrCodeUnknownMessage, usecase.ErrMessageNotFound)
	}

	edit := discordgo.NewMessageEdit(channelID, messageID).SetEmbeds(p.embeds(channelID, cards))
	if _, err := p.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to edit status message: %w",
			classifyRESTError(err, discordgo.ErrCodeUnknownMessage, usecase.ErrMessageNotFound))
	}
	return nil
}

func (p *DiscordCardPublisher) embeds(channelID string, cards []domain.Card) []*discordgo.MessageEmbed {
	embeds, dropped := CardEmbeds(cards)
	if dropped > 0 {
		p.logger.Warn("too many cards for one message, dropping the rest",
			slog.String("channel", channelID),
			slog.Int("dropped", dropped),
		)
	}
	return embeds
}

// classifyRESTError maps Discord "unknown X" responses onto sentinel.
func classifyRESTError(err error, unknownCode int, sentinel error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return err
	}
	if restErr.Message != nil && restErr.Message.Code == unknownCode {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}
