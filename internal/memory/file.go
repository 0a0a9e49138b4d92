package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wangyuhao/assistant/internal/model/chat"
)

// FileStore keeps one JSON file per session under a root directory. A save
// is a whole-file overwrite, so the last writer wins; concurrent processes
// on the same session name are an accepted limitation.
type FileStore struct {
	root string
}

// NewFileStore prepares the storage root, creating it if needed.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("memory: storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("memory: create storage root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Load reads the transcript for the session. A missing file means a fresh
// session; an unreadable or malformed file is reported as ErrCorruptSession.
func (s *FileStore) Load(_ context.Context, session string) ([]chat.Message, error) {
	data, err := os.ReadFile(s.path(session))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}

	var transcript []chat.Message
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	return transcript, nil
}

// Save overwrites the session file with the full transcript.
func (s *FileStore) Save(_ context.Context, session string, transcript []chat.Message) error {
	if transcript == nil {
		transcript = []chat.Message{}
	}
	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fmt.Errorf("memory: encode transcript: %w", err)
	}
	if err := os.WriteFile(s.path(session), data, 0o644); err != nil {
		return fmt.Errorf("memory: write session %q: %w", session, err)
	}
	return nil
}

// List returns the saved session names, derived from file names.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("memory: read storage root: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return names, nil
}

func (s *FileStore) path(session string) string {
	return filepath.Join(s.root, SanitizeSession(session)+".json")
}

var _ Store = (*FileStore)(nil)
