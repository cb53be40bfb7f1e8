// Package filestore persists guild state as a single JSON document.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sglre6355/steam-stalker/internal/domain"
)

// CorruptStateError reports a state file that exists but cannot be decoded.
type CorruptStateError struct {
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("state file %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error {
	return e.Err
}

// guildRecord is the on-disk shape of a guild entry.
type guildRecord struct {
	Users     []string `json:"users"`
	ChannelID string   `json:"channelId"`
	MessageID string   `json:"messageId,omitempty"`
}

// JSONStore reads and writes the whole guild mapping to one file.
type JSONStore struct {
	path string
}

// NewJSONStore returns a store backed by path.
func NewJSONStore(path string) (*JSONStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state file path cannot be empty")
	}
	return &JSONStore{path: path}, nil
}

// Path is the location of the state file.
func (s *JSONStore) Path() string {
	return s.path
}

// Load returns the stored mapping, or an empty one when the file does not exist.
func (s *JSONStore) Load(ctx context.Context) (map[string]domain.GuildState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]domain.GuildState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var records map[string]guildRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &CorruptStateError{Path: s.path, Err: err}
	}

	guilds := make(map[string]domain.GuildState, len(records))
	for id, record := range records {
		guilds[id] = domain.GuildState{
			GuildID:       id,
			ChannelID:     record.ChannelID,
			ProfileIDs:    record.Users,
			LastMessageID: record.MessageID,
		}
	}
	return guilds, nil
}

// Save overwrites the file with guilds. The previous content survives a failed write.
func (s *JSONStore) Save(ctx context.Context, guilds map[string]domain.GuildState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	records := make(map[string]guildRecord, len(guilds))
	for id, guild := range guilds {
		users := guild.ProfileIDs
		if users == nil {
			users = []string{}
		}
		records[id] = guildRecord{
			Users:     users,
			ChannelID: guild.ChannelID,
			MessageID: guild.LastMessageID,
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	return writeFileAtomic(s.path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary state file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temporary state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temporary state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temporary state file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temporary state file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	tmpName = ""
	return nil
}
