package presentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sglre6355/steam-stalker/internal/usecase"
)

const (
	commandStalk     = "stalk"
	commandStopStalk = "stopstalk"
	commandUpdate    = "update"

	optionSteamID = "steamid"
	optionSeconds = "seconds"

	commandTimeout = 60 * time.Second
)

var manageChannels int64 = discordgo.PermissionManageChannels

// TrackingCommands is the application side of the slash commands.
type TrackingCommands interface {
	Track(ctx context.Context, guildID, channelID, profileID string) error
	Untrack(ctx context.Context, guildID, profileID string) error
	SetInterval(guildID string, seconds int) (time.Duration, error)
}

// StalkerBot wires Discord events to application use cases.
type StalkerBot struct {
	session  *discordgo.Session
	commands TrackingCommands
	logger   *slog.Logger
	onReady  func()
}

// StalkerBotOption configures a StalkerBot.
type StalkerBotOption func(*StalkerBot)

// WithReadyHook registers fn to run once the gateway reports ready.
func WithReadyHook(fn func()) StalkerBotOption {
	return func(b *StalkerBot) {
		b.onReady = fn
	}
}

// WithBotLogger sets the logger of the bot.
func WithBotLogger(logger *slog.Logger) StalkerBotOption {
	return func(b *StalkerBot) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewStalkerBot constructs a bot instance with all supporting services wired up.
func NewStalkerBot(session *discordgo.Session, commands TrackingCommands, opts ...StalkerBotOption) (*StalkerBot, error) {
	if session == nil {
		return nil, fmt.Errorf("discord session cannot be nil")
	}
	if commands == nil {
		return nil, fmt.Errorf("tracking commands cannot be nil")
	}

	bot := &StalkerBot{
		session:  session,
		commands: commands,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(bot)
	}
	bot.logger = bot.logger.With("component", "bot")

	session.AddHandler(bot.handleReady)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuilds

	return bot, nil
}

// Start establishes the connection to Discord.
func (b *StalkerBot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	b.logger.Info("steam stalker is running")
	return nil
}

// Stop closes the Discord session.
func (b *StalkerBot) Stop() {
	if b.session != nil {
		if err := b.session.Close(); err != nil {
			b.logger.Error("error closing Discord session", slog.Any("error", err))
		}
	}
}

func (b *StalkerBot) handleReady(s *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("logged in", slog.String("user", event.User.String()), slog.Int("guilds", len(event.Guilds)))
	if b.onReady != nil {
		b.onReady()
	}
}

// Commands returns the slash command definitions.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     commandStalk,
			Description:              "Add Steam ID (type 64) to track",
			DefaultMemberPermissions: &manageChannels,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optionSteamID,
					Description: "Steam ID 64 of user",
					Required:    true,
				},
			},
		},
		{
			Name:                     commandStopStalk,
			Description:              "Remove Steam ID (type 64) from tracking",
			DefaultMemberPermissions: &manageChannels,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        optionSteamID,
					Description: "Steam ID 64 of user",
					Required:    true,
				},
			},
		},
		{
			Name:                     commandUpdate,
			Description:              "Set update frequency for Steam status",
			DefaultMemberPermissions: &manageChannels,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        optionSeconds,
					Description: "Update interval in seconds",
					Required:    true,
				},
			},
		},
	}
}

// RegisterCommands overwrites the global slash commands of the application.
func (b *StalkerBot) RegisterCommands() error {
	b.logger.Info("registering slash commands")
	if _, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, "", Commands()); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	b.logger.Info("slash commands registered")
	return nil
}

func (b *StalkerBot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	if i.GuildID == "" {
		b.respond(s, i, "❌ | These commands can only be used inside a server")
		return
	}
	if !canManageChannels(i.Member) {
		b.respond(s, i, "❌ | You do not have permission to use these commands (Manage Channels)")
		return
	}

	data := i.ApplicationCommandData()
	options := optionMap(data.Options)

	switch data.Name {
	case commandStalk:
		b.handleStalk(s, i, options)
	case commandStopStalk:
		b.handleStopStalk(s, i, options)
	case commandUpdate:
		b.handleUpdate(s, i, options)
	}
}

func (b *StalkerBot) handleStalk(s *discordgo.Session, i *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	option, ok := options[optionSteamID]
	if !ok || option.StringValue() == "" {
		b.respond(s, i, "⚠️ | A Steam ID is required")
		return
	}
	steamID := option.StringValue()

	// The immediate update can exceed the interaction deadline, so answer later.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		b.logger.Error("error deferring interaction", slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var content string
	err := b.commands.Track(ctx, i.GuildID, i.ChannelID, steamID)
	switch {
	case err == nil:
		content = fmt.Sprintf("✅ | Added Steam ID %s to tracked profiles", steamID)
	case errors.Is(err, usecase.ErrAlreadyTracked):
		content = fmt.Sprintf("⚠️ | Steam ID %s is already being tracked", steamID)
	default:
		b.logger.Error("failed to track profile", slog.String("guild", i.GuildID), slog.String("profile", steamID), slog.Any("error", err))
		content = fmt.Sprintf("❌ | Could not save Steam ID %s, please try again later", steamID)
	}

	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		b.logger.Error("error sending followup", slog.Any("error", err))
	}
}

func (b *StalkerBot) handleStopStalk(s *discordgo.Session, i *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	option, ok := options[optionSteamID]
	if !ok || option.StringValue() == "" {
		b.respond(s, i, "⚠️ | A Steam ID is required")
		return
	}
	steamID := option.StringValue()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	err := b.commands.Untrack(ctx, i.GuildID, steamID)
	switch {
	case err == nil:
		b.respond(s, i, fmt.Sprintf("🗑️ | Removed Steam ID %s from tracked profiles", steamID))
	case errors.Is(err, usecase.ErrNotTracked):
		b.respond(s, i, fmt.Sprintf("⚠️ | Steam ID %s is not being tracked", steamID))
	default:
		b.logger.Error("failed to untrack profile", slog.String("guild", i.GuildID), slog.String("profile", steamID), slog.Any("error", err))
		b.respond(s, i, fmt.Sprintf("❌ | Could not save the removal of Steam ID %s, please try again later", steamID))
	}
}

func (b *StalkerBot) handleUpdate(s *discordgo.Session, i *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	option, ok := options[optionSeconds]
	if !ok {
		b.respond(s, i, "⚠️ | The update interval is required")
		return
	}
	seconds := int(option.IntValue())

	interval, err := b.commands.SetInterval(i.GuildID, seconds)
	switch {
	case err == nil:
		b.respond(s, i, fmt.Sprintf("✅ | Update interval set to %d seconds", int(interval.Seconds())))
	case errors.Is(err, usecase.ErrIntervalOutOfRange):
		b.respond(s, i, fmt.Sprintf("⚠️ | The update interval must be between %d and %d seconds.",
			usecase.MinIntervalSeconds, usecase.MaxIntervalSeconds))
	default:
		b.logger.Error("failed to change update interval", slog.String("guild", i.GuildID), slog.Any("error", err))
		b.respond(s, i, "❌ | Could not change the update interval")
	}
}

func (b *StalkerBot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		b.logger.Error("error responding to interaction", slog.Any("error", err))
	}
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	result := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, option := range options {
		result[option.Name] = option
	}
	return result
}

func canManageChannels(member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	return member.Permissions&discordgo.PermissionManageChannels != 0 ||
		member.Permissions&discordgo.PermissionAdministrator != 0
}
