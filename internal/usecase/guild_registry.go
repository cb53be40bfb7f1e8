package usecase

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/sglre6355/steam-stalker/internal/domain"
)

// GuildRegistry owns the in-memory guild mapping and writes it through to the store.
// Every mutation holds the lock across the read, the change and the save, so the
// durable copy never lags behind a completed command.
type GuildRegistry struct {
	mu     sync.RWMutex
	guilds map[string]domain.GuildState
	store  GuildStateStore
}

// NewGuildRegistry creates an empty registry persisting through store.
func NewGuildRegistry(store GuildStateStore) *GuildRegistry {
	return &GuildRegistry{
		guilds: make(map[string]domain.GuildState),
		store:  store,
	}
}

// LoadExisting replaces the in-memory mapping with the stored one.
func (r *GuildRegistry) LoadExisting(ctx context.Context) error {
	if r.store == nil {
		return fmt.Errorf("guild registry missing state store dependency")
	}

	guilds, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load guild state: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.guilds = make(map[string]domain.GuildState, len(guilds))
	for id, guild := range guilds {
		guild.GuildID = id
		r.guilds[id] = guild.Clone()
	}

	return nil
}

// Get returns a copy of the guild state.
func (r *GuildRegistry) Get(guildID string) (domain.GuildState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	guild, ok := r.guilds[guildID]
	if !ok {
		return domain.GuildState{}, false
	}
	return guild.Clone(), true
}

// GuildIDs lists every known guild in ascending order.
func (r *GuildRegistry) GuildIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.guilds))
	for id := range r.guilds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TrackedCount is the number of tracked profiles summed over all guilds.
func (r *GuildRegistry) TrackedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, guild := range r.guilds {
		total += len(guild.ProfileIDs)
	}
	return total
}

// Track appends profileID to the guild, creating the guild with channelID as its
// output channel if it is unknown. Returns ErrAlreadyTracked without mutating
// anything when the profile is already present.
func (r *GuildRegistry) Track(ctx context.Context, guildID, channelID, profileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	guild, ok := r.guilds[guildID]
	if !ok {
		guild = domain.GuildState{GuildID: guildID, ChannelID: channelID}
	}
	if guild.Tracks(profileID) {
		return ErrAlreadyTracked
	}

	guild.ProfileIDs = append(slices.Clone(guild.ProfileIDs), profileID)
	r.guilds[guildID] = guild

	return r.saveLocked(ctx)
}

// Untrack removes profileID from the guild. Returns ErrNotTracked when absent.
func (r *GuildRegistry) Untrack(ctx context.Context, guildID, profileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	guild, ok := r.guilds[guildID]
	if !ok || !guild.Tracks(profileID) {
		return ErrNotTracked
	}

	guild.ProfileIDs = slices.DeleteFunc(slices.Clone(guild.ProfileIDs), func(id string) bool {
		return id == profileID
	})
	r.guilds[guildID] = guild

	return r.saveLocked(ctx)
}

// SetLastMessage records the id of the guild's status message.
func (r *GuildRegistry) SetLastMessage(ctx context.Context, guildID, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	guild, ok := r.guilds[guildID]
	if !ok {
		return ErrGuildNotTracked
	}
	guild.LastMessageID = messageID
	r.guilds[guildID] = guild

	return r.saveLocked(ctx)
}

// saveLocked writes the full mapping. The in-memory state stays authoritative on failure.
func (r *GuildRegistry) saveLocked(ctx context.Context) error {
	if r.store == nil {
		return fmt.Errorf("guild registry missing state store dependency")
	}

	snapshot := make(map[string]domain.GuildState, len(r.guilds))
	for id, guild := range r.guilds {
		snapshot[id] = guild.Clone()
	}

	if err := r.store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to persist guild state: %w", err)
	}
	return nil
}
