package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sglre6355/steam-stalker/internal/domain"
)

// GuildStateStore persists guild state using GORM.
type GuildStateStore struct {
	db *gorm.DB
}

// NewGuildStateStore initialises a GuildStateStore backed by db.
func NewGuildStateStore(db *gorm.DB) *GuildStateStore {
	return &GuildStateStore{db: db}
}

// AutoMigrate ensures the guild_states table exists with the expected schema.
func (s *GuildStateStore) AutoMigrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("guild state store not initialised")
	}

	return s.db.WithContext(ctx).AutoMigrate(&guildStateRecord{})
}

// Load returns every persisted guild keyed by guild id.
func (s *GuildStateStore) Load(ctx context.Context) (map[string]domain.GuildState, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("guild state store not initialised")
	}

	var records []guildStateRecord
	if err := s.db.WithContext(ctx).Order("guild_id").Find(&records).Error; err != nil {
		return nil, err
	}

	guilds := make(map[string]domain.GuildState, len(records))
	for _, record := range records {
		guilds[record.GuildID] = record.toDomain()
	}
	return guilds, nil
}

// Save replaces the stored mapping with guilds in a single transaction.
func (s *GuildStateStore) Save(ctx context.Context, guilds map[string]domain.GuildState) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("guild state store not initialised")
	}

	records := make([]guildStateRecord, 0, len(guilds))
	ids := make([]string, 0, len(guilds))
	for id, guild := range guilds {
		guild.GuildID = id
		records = append(records, fromDomain(guild))
		ids = append(ids, id)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if len(ids) > 0 {
			stale = stale.Where("guild_id NOT IN ?", ids)
		}
		if err := stale.Delete(&guildStateRecord{}).Error; err != nil {
			return fmt.Errorf("delete stale guilds: %w", err)
		}
		if len(records) == 0 {
			return nil
		}

		upsert := clause.OnConflict{
			Columns:   []clause.Column{{Name: "guild_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"channel_id", "profile_ids", "last_message_id", "updated_at"}),
		}
		if err := tx.Clauses(upsert).Create(&records).Error; err != nil {
			return fmt.Errorf("upsert guilds: %w", err)
		}
		return nil
	})
}

type guildStateRecord struct {
	GuildID       string    `gorm:"column:guild_id;primaryKey;size:128"`
	ChannelID     string    `gorm:"column:channel_id;size:128;not null"`
	ProfileIDs    []string  `gorm:"column:profile_ids;type:text;serializer:json"`
	LastMessageID string    `gorm:"column:last_message_id;size:128"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (guildStateRecord) TableName() string {
	return "guild_states"
}

func (r guildStateRecord) toDomain() domain.GuildState {
	profiles := r.ProfileIDs
	if profiles == nil {
		profiles = []string{}
	}
	return domain.GuildState{
		GuildID:       r.GuildID,
		ChannelID:     r.ChannelID,
		ProfileIDs:    profiles,
		LastMessageID: r.LastMessageID,
	}
}

func fromDomain(guild domain.GuildState) guildStateRecord {
	return guildStateRecord{
		GuildID:       guild.GuildID,
		ChannelID:     guild.ChannelID,
		ProfileIDs:    guild.Clone().ProfileIDs,
		LastMessageID: guild.LastMessageID,
	}
}
