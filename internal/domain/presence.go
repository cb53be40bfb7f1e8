package domain

import "time"

// PresenceRecord is a normalised snapshot of a Steam profile at fetch time.
type PresenceRecord struct {
	ProfileID   string
	DisplayName string
	AvatarURL   string
	Activity    string
	// GameID is the Steam app id of the current game, empty when not in game.
	GameID string
}

// Card is a display card rendered from a PresenceRecord.
type Card struct {
	Title        string
	ThumbnailURL string
	ImageURL     string
	ProfileURL   string
	Activity     string
	Color        int
	UpdatedAt    time.Time
}
