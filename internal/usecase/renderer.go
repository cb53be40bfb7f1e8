package usecase

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sglre6355/steam-stalker/internal/domain"
)

const (
	profileURLFormat = "https://steamcommunity.com/profiles/%s"
	gameHeaderFormat = "https://steamcdn-a.akamaihd.net/steam/apps/%s/header.jpg"
	maxColor         = 0xFFFFFF
)

// ColorSource picks the decorative color of a card.
type ColorSource func() int

// RandomColor returns a uniformly distributed 24-bit RGB color.
func RandomColor() int {
	return rand.IntN(maxColor + 1)
}

// ProfileURL is the public community page of a Steam profile.
func ProfileURL(profileID string) string {
	return fmt.Sprintf(profileURLFormat, profileID)
}

// Render converts presence records into display cards, one per record, in order.
func Render(records []domain.PresenceRecord, now time.Time, color ColorSource) []domain.Card {
	if len(records) == 0 {
		return nil
	}
	if color == nil {
		color = RandomColor
	}

	cards := make([]domain.Card, 0, len(records))
	for _, record := range records {
		card := domain.Card{
			Title:        record.DisplayName,
			ThumbnailURL: record.AvatarURL,
			ProfileURL:   ProfileURL(record.ProfileID),
			Activity:     record.Activity,
			Color:        color(),
			UpdatedAt:    now,
		}
		if record.GameID != "" {
			card.ImageURL = fmt.Sprintf(gameHeaderFormat, record.GameID)
		}
		cards = append(cards, card)
	}

	return cards
}
