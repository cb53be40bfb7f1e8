package usecase

import (
	"context"
	"errors"

	"github.com/sglre6355/steam-stalker/internal/domain"
)

var (
	// ErrGuildNotTracked is returned when an operation targets a guild with no stored state.
	ErrGuildNotTracked = errors.New("guild is not tracking any profile")
	// ErrAlreadyTracked is returned when a profile is tracked twice in the same guild.
	ErrAlreadyTracked = errors.New("profile is already being tracked")
	// ErrNotTracked is returned when untracking a profile the guild does not track.
	ErrNotTracked = errors.New("profile is not being tracked")
	// ErrIntervalOutOfRange is returned for polling intervals outside the accepted bounds.
	ErrIntervalOutOfRange = errors.New("update interval out of range")
	// ErrChannelNotFound is returned by publishers when the output channel cannot be resolved.
	ErrChannelNotFound = errors.New("output channel not found")
	// ErrMessageNotFound is returned by publishers when the stored status message no longer exists.
	ErrMessageNotFound = errors.New("status message not found")
)

// GuildStateStore persists the complete guild mapping.
type GuildStateStore interface {
	Load(ctx context.Context) (map[string]domain.GuildState, error)
	Save(ctx context.Context, guilds map[string]domain.GuildState) error
}

// PresenceFetcher retrieves the current presence of a single profile.
type PresenceFetcher interface {
	FetchPresence(ctx context.Context, profileID string) (domain.PresenceRecord, error)
}

// CardPublisher posts rendered cards to the chat platform.
type CardPublisher interface {
	// ResolveChannel returns ErrChannelNotFound if channelID cannot be posted to.
	ResolveChannel(ctx context.Context, channelID string) error
	// SendCards posts a new message and returns its id.
	SendCards(ctx context.Context, channelID string, cards []domain.Card) (string, error)
	// EditCards replaces the cards of an existing message. Returns ErrMessageNotFound
	// when the message was deleted.
	EditCards(ctx context.Context, channelID, messageID string, cards []domain.Card) error
}

// StatusSetter changes the bot's presence label.
type StatusSetter interface {
	SetStatus(ctx context.Context, label string) error
}
