package presentation

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/steam-stalker/internal/domain"
)

// MaxEmbedsPerMessage is Discord's limit on embeds in a single message.
const MaxEmbedsPerMessage = 10

// CardEmbed renders one card as a Discord embed.
func CardEmbed(card domain.Card) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("👤  %s", card.Title),
		Color: card.Color,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Profile",
				Value:  fmt.Sprintf("[Link](%s)", card.ProfileURL),
				Inline: false,
			},
			{
				Name:   "Currently Playing",
				Value:  card.Activity,
				Inline: false,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Last update — %s", card.UpdatedAt.Format("15:04")),
		},
		Timestamp: card.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if card.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: card.ThumbnailURL}
	}
	if card.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: card.ImageURL}
	}
	return embed
}

// CardEmbeds renders cards in order, keeping at most MaxEmbedsPerMessage.
// The second value reports how many cards were dropped.
func CardEmbeds(cards []domain.Card) ([]*discordgo.MessageEmbed, int) {
	dropped := 0
	if len(cards) > MaxEmbedsPerMessage {
		dropped = len(cards) - MaxEmbedsPerMessage
		cards = cards[:MaxEmbedsPerMessage]
	}

	embeds := make([]*discordgo.MessageEmbed, 0, len(cards))
	for _, card := range cards {
		embeds = append(embeds, CardEmbed(card))
	}
	return embeds, dropped
}
