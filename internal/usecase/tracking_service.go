package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// MinIntervalSeconds is the lower bound accepted by SetInterval.
	MinIntervalSeconds = int(MinInterval / time.Second)
	// MaxIntervalSeconds is the upper bound accepted by SetInterval.
	MaxIntervalSeconds = int(MaxInterval / time.Second)
)

var intervalRule = fmt.Sprintf("min=%d,max=%d", MinIntervalSeconds, MaxIntervalSeconds)

// Updater runs a single update cycle for a guild.
type Updater interface {
	RunUpdate(ctx context.Context, guildID string) error
}

// GuildScheduler is the subset of PollScheduler the tracking commands need.
type GuildScheduler interface {
	Ensure(guildID string) error
	Schedule(guildID string, interval time.Duration) error
}

// TrackingService implements the track, untrack and set-interval commands.
type TrackingService struct {
	registry  *GuildRegistry
	updater   Updater
	scheduler GuildScheduler
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewTrackingService wires the command use cases.
func NewTrackingService(
	registry *GuildRegistry,
	updater Updater,
	scheduler GuildScheduler,
	logger *slog.Logger,
) *TrackingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrackingService{
		registry:  registry,
		updater:   updater,
		scheduler: scheduler,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger.With("component", "tracking"),
	}
}

// Track adds profileID to the guild, persists it and runs one immediate update.
// channelID becomes the guild's output channel when the guild is new.
// Failures of the immediate update are logged, not returned.
func (s *TrackingService) Track(ctx context.Context, guildID, channelID, profileID string) error {
	profileID = strings.TrimSpace(profileID)
	if err := s.validate.Var(profileID, "required"); err != nil {
		return fmt.Errorf("profile id is required: %w", err)
	}

	if err := s.registry.Track(ctx, guildID, channelID, profileID); err != nil {
		if errors.Is(err, ErrAlreadyTracked) {
			s.logger.Debug("profile already tracked", slog.String("guild", guildID), slog.String("profile", profileID))
		}
		return err
	}
	s.logger.Info("profile tracked", slog.String("guild", guildID), slog.String("profile", profileID))

	if err := s.scheduler.Ensure(guildID); err != nil {
		s.logger.Error("failed to schedule guild", slog.String("guild", guildID), slog.Any("error", err))
	}
	if err := s.updater.RunUpdate(ctx, guildID); err != nil {
		s.logger.Warn("immediate update failed", slog.String("guild", guildID), slog.Any("error", err))
	}

	return nil
}

// Untrack removes profileID from the guild and persists the change.
func (s *TrackingService) Untrack(ctx context.Context, guildID, profileID string) error {
	profileID = strings.TrimSpace(profileID)
	if err := s.registry.Untrack(ctx, guildID, profileID); err != nil {
		return err
	}
	s.logger.Info("profile untracked", slog.String("guild", guildID), slog.String("profile", profileID))
	return nil
}

// SetInterval replaces the guild's polling job. Out-of-range values return
// ErrIntervalOutOfRange and leave the current job running.
func (s *TrackingService) SetInterval(guildID string, seconds int) (time.Duration, error) {
	if err := s.validate.Var(seconds, intervalRule); err != nil {
		return 0, fmt.Errorf("%w: %d seconds not within [%d, %d]", ErrIntervalOutOfRange, seconds, MinIntervalSeconds, MaxIntervalSeconds)
	}

	interval := time.Duration(seconds) * time.Second
	if err := s.scheduler.Schedule(guildID, interval); err != nil {
		return 0, err
	}
	s.logger.Info("update interval changed", slog.String("guild", guildID), slog.Duration("interval", interval))
	return interval, nil
}
