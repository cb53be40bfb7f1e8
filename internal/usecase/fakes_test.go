package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sglre6355/steam-stalker/internal/domain"
)

type memoryStore struct {
	mu      sync.Mutex
	guilds  map[string]domain.GuildState
	saves   int
	saveErr error
	loadErr error
}

func newMemoryStore(guilds ...domain.GuildState) *memoryStore {
	store := &memoryStore{guilds: make(map[string]domain.GuildState)}
	for _, guild := range guilds {
		store.guilds[guild.GuildID] = guild
	}
	return store
}

func (m *memoryStore) Load(context.Context) (map[string]domain.GuildState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make(map[string]domain.GuildState, len(m.guilds))
	for id, guild := range m.guilds {
		out[id] = guild.Clone()
	}
	return out, nil
}

func (m *memoryStore) Save(_ context.Context, guilds map[string]domain.GuildState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.guilds = make(map[string]domain.GuildState, len(guilds))
	for id, guild := range guilds {
		m.guilds[id] = guild.Clone()
	}
	return nil
}

func (m *memoryStore) saved(guildID string) (domain.GuildState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	guild, ok := m.guilds[guildID]
	return guild, ok
}

func (m *memoryStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type fakeFetcher struct {
	mu      sync.Mutex
	failing map[string]bool
	calls   int
}

func newFakeFetcher(failing ...string) *fakeFetcher {
	f := &fakeFetcher{failing: make(map[string]bool)}
	for _, id := range failing {
		f.failing[id] = true
	}
	return f
}

func (f *fakeFetcher) FetchPresence(_ context.Context, profileID string) (domain.PresenceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failing[profileID] {
		return domain.PresenceRecord{}, fmt.Errorf("fetch %s: %w", profileID, errors.New("boom"))
	}
	return domain.PresenceRecord{
		ProfileID:   profileID,
		DisplayName: "player-" + profileID,
		AvatarURL:   "https://avatars.example/" + profileID + ".jpg",
		Activity:    "Not playing anything",
	}, nil
}

type publishedEdit struct {
	channelID string
	messageID string
	cards     []domain.Card
}

type fakePublisher struct {
	mu sync.Mutex

	missingChannels map[string]bool
	messages        map[string]bool
	sends           [][]domain.Card
	edits           []publishedEdit
	nextID          int
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		missingChannels: make(map[string]bool),
		messages:        make(map[string]bool),
	}
}

func (p *fakePublisher) ResolveChannel(_ context.Context, channelID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.missingChannels[channelID] {
		return ErrChannelNotFound
	}
	return nil
}

func (p *fakePublisher) SendCards(_ context.Context, _ string, cards []domain.Card) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := fmt.Sprintf("msg-%d", p.nextID)
	p.messages[id] = true
	p.sends = append(p.sends, cards)
	return id, nil
}

func (p *fakePublisher) EditCards(_ context.Context, channelID, messageID string, cards []domain.Card) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.messages[messageID] {
		return ErrMessageNotFound
	}
	p.edits = append(p.edits, publishedEdit{channelID: channelID, messageID: messageID, cards: cards})
	return nil
}

func (p *fakePublisher) deleteMessage(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.messages, id)
}

func (p *fakePublisher) counts() (sends, edits int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sends), len(p.edits)
}

type fakeScheduler struct {
	mu        sync.Mutex
	intervals map[string]time.Duration
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{intervals: make(map[string]time.Duration)}
}

func (s *fakeScheduler) Ensure(guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.intervals[guildID]; !ok {
		s.intervals[guildID] = DefaultInterval
	}
	return nil
}

func (s *fakeScheduler) Schedule(guildID string, interval time.Duration) error {
	if err := ValidateInterval(interval); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intervals[guildID] = interval
	return nil
}

func (s *fakeScheduler) interval(guildID string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	interval, ok := s.intervals[guildID]
	return interval, ok
}

func fixedClock() time.Time {
	return time.Date(2024, time.March, 9, 14, 30, 0, 0, time.UTC)
}

func fixedColor() int {
	return 0x008080
}
