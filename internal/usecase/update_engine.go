package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sglre6355/steam-stalker/internal/domain"
)

// UpdateEngine refreshes the status message of a guild.
type UpdateEngine struct {
	registry  *GuildRegistry
	fetcher   PresenceFetcher
	publisher CardPublisher

	nowFn       func() time.Time
	color       ColorSource
	concurrency int
	logger      *slog.Logger

	cycles sync.Map // guild id -> *sync.Mutex
}

// UpdateEngineOption configures optional behaviour of the engine.
type UpdateEngineOption func(*UpdateEngine)

// WithEngineClock overrides the clock used for card timestamps (useful for testing).
func WithEngineClock(nowFn func() time.Time) UpdateEngineOption {
	return func(e *UpdateEngine) {
		if nowFn != nil {
			e.nowFn = nowFn
		}
	}
}

// WithColorSource overrides the decorative card color.
func WithColorSource(color ColorSource) UpdateEngineOption {
	return func(e *UpdateEngine) {
		if color != nil {
			e.color = color
		}
	}
}

// WithFetchConcurrency bounds the number of presence requests in flight per cycle.
func WithFetchConcurrency(n int) UpdateEngineOption {
	return func(e *UpdateEngine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithEngineLogger sets the logger used for skipped profiles and aborted cycles.
func WithEngineLogger(logger *slog.Logger) UpdateEngineOption {
	return func(e *UpdateEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewUpdateEngine wires the engine to its collaborators.
func NewUpdateEngine(
	registry *GuildRegistry,
	fetcher PresenceFetcher,
	publisher CardPublisher,
	opts ...UpdateEngineOption,
) *UpdateEngine {
	engine := &UpdateEngine{
		registry:    registry,
		fetcher:     fetcher,
		publisher:   publisher,
		nowFn:       time.Now,
		color:       RandomColor,
		concurrency: 4,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(engine)
	}
	engine.logger = engine.logger.With("component", "update_engine")

	return engine
}

// RunUpdate performs one cycle for guildID: fetch presence of every tracked
// profile, render the cards and edit the stored message or send a new one.
// Cycles of the same guild never overlap.
func (e *UpdateEngine) RunUpdate(ctx context.Context, guildID string) error {
	lock := e.cycleLock(guildID)
	lock.Lock()
	defer lock.Unlock()

	guild, ok := e.registry.Get(guildID)
	if !ok {
		return ErrGuildNotTracked
	}
	logger := e.logger.With(slog.String("guild", guildID), slog.String("channel", guild.ChannelID))

	if err := e.publisher.ResolveChannel(ctx, guild.ChannelID); err != nil {
		logger.Error("cannot resolve output channel, skipping cycle", slog.Any("error", err))
		return fmt.Errorf("failed to resolve channel %s: %w", guild.ChannelID, err)
	}

	records := e.fetchAll(ctx, logger, guild.ProfileIDs)
	cards := Render(records, e.nowFn(), e.color)
	if len(cards) == 0 {
		logger.Info("no presence to publish")
		return nil
	}

	if guild.LastMessageID != "" {
		err := e.publisher.EditCards(ctx, guild.ChannelID, guild.LastMessageID, cards)
		if err == nil {
			logger.Debug("status message edited", slog.String("message", guild.LastMessageID), slog.Int("cards", len(cards)))
			return nil
		}
		if !errors.Is(err, ErrMessageNotFound) {
			logger.Error("failed to edit status message", slog.String("message", guild.LastMessageID), slog.Any("error", err))
			return fmt.Errorf("failed to edit message %s: %w", guild.LastMessageID, err)
		}
		logger.Warn("status message was deleted, sending a new one", slog.String("message", guild.LastMessageID))
	}

	messageID, err := e.publisher.SendCards(ctx, guild.ChannelID, cards)
	if err != nil {
		logger.Error("failed to send status message", slog.Any("error", err))
		return fmt.Errorf("failed to send status message: %w", err)
	}
	logger.Info("status message sent", slog.String("message", messageID), slog.Int("cards", len(cards)))

	return e.registry.SetLastMessage(ctx, guildID, messageID)
}

// fetchAll returns the successful records in the order of profileIDs.
func (e *UpdateEngine) fetchAll(ctx context.Context, logger *slog.Logger, profileIDs []string) []domain.PresenceRecord {
	results := make([]*domain.PresenceRecord, len(profileIDs))

	var group errgroup.Group
	group.SetLimit(e.concurrency)
	for i, profileID := range profileIDs {
		group.Go(func() error {
			record, err := e.fetcher.FetchPresence(ctx, profileID)
			if err != nil {
				logger.Warn("skipping profile for this cycle", slog.String("profile", profileID), slog.Any("error", err))
				return nil
			}
			results[i] = &record
			return nil
		})
	}
	_ = group.Wait()

	records := make([]domain.PresenceRecord, 0, len(results))
	for _, record := range results {
		if record != nil {
			records = append(records, *record)
		}
	}
	return records
}

func (e *UpdateEngine) cycleLock(guildID string) *sync.Mutex {
	lock, _ := e.cycles.LoadOrStore(guildID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
