package presentation

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DiscordStatusSetter shows a "Watching <label>" activity on the bot user.
type DiscordStatusSetter struct {
	session *discordgo.Session
}

// NewDiscordStatusSetter returns a setter bound to session.
func NewDiscordStatusSetter(session *discordgo.Session) *DiscordStatusSetter {
	return &DiscordStatusSetter{session: session}
}

// SetStatus replaces the bot presence with label.
func (s *DiscordStatusSetter) SetStatus(ctx context.Context, label string) error {
	if s.session == nil {
		return fmt.Errorf("discord session is not initialised")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name: label,
				Type: discordgo.ActivityTypeWatching,
			},
		},
		Status: string(discordgo.StatusOnline),
	})
}

// GuildCount is the number of guilds in the gateway state cache.
func (s *DiscordStatusSetter) GuildCount() int {
	if s.session == nil || s.session.State == nil {
		return 0
	}
	s.session.State.RLock()
	defer s.session.State.RUnlock()
	return len(s.session.State.Guilds)
}
