package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wangyuhao/assistant/internal/model/chat"
)

// Mode selects how conversation history is kept across turns and runs.
type Mode string

const (
	// ModeNo keeps no history at all: each turn reaches the model alone.
	ModeNo Mode = "no"
	// ModeShort keeps history in memory for the lifetime of the process.
	ModeShort Mode = "short"
	// ModeLong persists history per session and restores it on startup.
	ModeLong Mode = "long"
)

// ParseMode validates a mode selector coming from the CLI.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeNo:
		return ModeNo, nil
	case ModeShort:
		return ModeShort, nil
	case ModeLong:
		return ModeLong, nil
	default:
		return "", fmt.Errorf("unknown memory mode %q (want no, short or long)", s)
	}
}

// Persistent reports whether the mode writes to stable storage.
func (m Mode) Persistent() bool {
	return m == ModeLong
}

// ErrCorruptSession marks a persisted transcript that could not be read back.
// Callers are expected to fall back to an empty transcript.
var ErrCorruptSession = errors.New("memory: corrupt session data")

// IsCorrupt reports whether err marks a recoverable load failure.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorruptSession)
}

// Store persists transcripts keyed by session name.
type Store interface {
	// Load returns the persisted transcript, or an empty one for unknown
	// sessions. Unreadable data yields ErrCorruptSession.
	Load(ctx context.Context, session string) ([]chat.Message, error)
	// Save overwrites the persisted transcript for the session.
	Save(ctx context.Context, session string, transcript []chat.Message) error
	// List returns the known session names.
	List(ctx context.Context) ([]string, error)
}

// NullStore serves the no/short modes: nothing is ever persisted.
type NullStore struct{}

func (NullStore) Load(context.Context, string) ([]chat.Message, error) { return nil, nil }

func (NullStore) Save(context.Context, string, []chat.Message) error { return nil }

func (NullStore) List(context.Context) ([]string, error) { return nil, nil }

// SanitizeSession reduces a session name to a filesystem-safe identifier.
// Everything but letters, digits, hyphen and underscore is dropped; an
// empty result falls back to "default".
func SanitizeSession(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "default"
	}
	return b.String()
}
