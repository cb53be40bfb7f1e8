package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/sglre6355/steam-stalker/internal/domain"
)

func newTestStore(t *testing.T) *JSONStore {
	t.Helper()
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "tracked_users.json"))
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	return store
}

func TestLoadMissingFile(t *testing.T) {
	store := newTestStore(t)

	guilds, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if guilds == nil || len(guilds) != 0 {
		t.Errorf("guilds = %v, want an empty map", guilds)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	store := newTestStore(t)
	if err := os.WriteFile(store.Path(), []byte(`{"g1": {"users": [`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := store.Load(context.Background())
	var corrupt *CorruptStateError
	if !errors.As(err, &corrupt) {
		t.Fatalf("error = %v, want *CorruptStateError", err)
	}
	if corrupt.Path != store.Path() {
		t.Errorf("Path = %q, want %q", corrupt.Path, store.Path())
	}
}

func TestLoadExistingFormat(t *testing.T) {
	store := newTestStore(t)
	content := `{
  "123": {"users": ["76561197960287930"], "channelId": "456", "messageId": "789"},
  "321": {"users": [], "channelId": "654"}
}`
	if err := os.WriteFile(store.Path(), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	guilds, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	first := guilds["123"]
	if first.GuildID != "123" || first.ChannelID != "456" || first.LastMessageID != "789" {
		t.Errorf("guild 123 = %+v", first)
	}
	if !slices.Equal(first.ProfileIDs, []string{"76561197960287930"}) {
		t.Errorf("profiles = %v", first.ProfileIDs)
	}
	second := guilds["321"]
	if second.LastMessageID != "" || len(second.ProfileIDs) != 0 {
		t.Errorf("guild 321 = %+v", second)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := map[string]domain.GuildState{
		"g1": {GuildID: "g1", ChannelID: "c1", ProfileIDs: []string{"b", "a"}, LastMessageID: "m1"},
		"g2": {GuildID: "g2", ChannelID: "c2"},
	}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d guilds, want %d", len(got), len(want))
	}
	for id, guild := range want {
		loaded := got[id]
		if loaded.ChannelID != guild.ChannelID || loaded.LastMessageID != guild.LastMessageID {
			t.Errorf("guild %s = %+v, want %+v", id, loaded, guild)
		}
		if !slices.Equal(loaded.ProfileIDs, guild.ProfileIDs) {
			t.Errorf("guild %s profiles = %v, want %v", id, loaded.ProfileIDs, guild.ProfileIDs)
		}
	}
}

func TestSaveLeavesNoTemporaryFiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, channel := range []string{"c1", "c2"} {
		guilds := map[string]domain.GuildState{"g1": {GuildID: "g1", ChannelID: channel}}
		if err := store.Save(ctx, guilds); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "tracked_users.json" {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		t.Errorf("directory holds %v, want only the state file", names)
	}

	guilds, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if guilds["g1"].ChannelID != "c2" {
		t.Errorf("ChannelID = %q, want the latest save", guilds["g1"].ChannelID)
	}
}

func TestNewJSONStoreRequiresPath(t *testing.T) {
	if _, err := NewJSONStore(""); err == nil {
		t.Fatal("expected an error for an empty path")
	}
}
