package domain

import "slices"

// GuildState is the tracking configuration of a single Discord guild.
type GuildState struct {
	GuildID       string
	ChannelID     string
	ProfileIDs    []string
	LastMessageID string
}

// Tracks reports whether profileID is part of the guild's tracked profiles.
func (g GuildState) Tracks(profileID string) bool {
	return slices.Contains(g.ProfileIDs, profileID)
}

// Clone returns a copy that shares no memory with g.
func (g GuildState) Clone() GuildState {
	g.ProfileIDs = slices.Clone(g.ProfileIDs)
	return g
}
