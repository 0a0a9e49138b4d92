package conversation

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/wangyuhao/assistant/internal/memory"
	"github.com/wangyuhao/assistant/internal/model/chat"
	"github.com/wangyuhao/assistant/internal/service/ai"
)

// Gateway abstracts the model backend consumed by the loop.
type Gateway interface {
	Stream(ctx context.Context, system string, history []chat.Message, query string) (*schema.StreamReader[*schema.Message], error)
}

// Sink receives reply fragments in arrival order for incremental rendering.
type Sink func(fragment string)

// Service drives one conversation: it owns the transcript, forwards turns
// to the gateway and decides what gets committed to memory. It is not safe
// for concurrent use; each session runs on a single goroutine.
type Service struct {
	gateway    Gateway
	store      memory.Store
	mode       memory.Mode
	session    string
	system     string
	transcript []chat.Message
}

// New builds a loop for the given session. The session name is sanitized
// the same way the stores key their data.
func New(gateway Gateway, store memory.Store, mode memory.Mode, session string) *Service {
	return &Service{
		gateway: gateway,
		store:   store,
		mode:    mode,
		session: memory.SanitizeSession(session),
	}
}

// Session returns the active session name.
func (s *Service) Session() string { return s.session }

// Mode returns the configured memory mode.
func (s *Service) Mode() memory.Mode { return s.mode }

// Transcript returns a copy of the current transcript.
func (s *Service) Transcript() []chat.Message {
	return chat.CloneTranscript(s.transcript)
}

// SetContextDocument installs an injected document as the session's system
// prompt. It does not enter the transcript and is never persisted.
func (s *Service) SetContextDocument(document string) {
	s.system = ai.BuildSystemPrompt(document)
}

// Restore loads persisted history for long-mode sessions and reports how
// many messages came back. A corrupt session falls back to an empty
// transcript; the error is returned so the caller can warn, but the loop
// stays usable.
func (s *Service) Restore(ctx context.Context) (int, error) {
	if !s.mode.Persistent() {
		return 0, nil
	}

	transcript, err := s.store.Load(ctx, s.session)
	if err != nil {
		s.transcript = nil
		return 0, err
	}
	s.transcript = transcript
	return len(transcript), nil
}

// HandleTurn runs one full turn: the user input joins the transcript, the
// gateway reply streams through sink fragment by fragment, and on success
// the assistant turn is committed (and persisted in long mode). On failure
// nothing is appended or persisted beyond the user turn, so failed replies
// never re-enter model context.
func (s *Service) HandleTurn(ctx context.Context, input string, sink Sink) (string, error) {
	s.transcript = append(s.transcript, chat.User(input))

	stream, err := s.gateway.Stream(ctx, s.system, s.historyForModel(), input)
	if err != nil {
		return "", ai.Classify(err)
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", ai.Classify(recvErr)
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}

		reply.WriteString(chunk.Content)
		if sink != nil {
			sink(chunk.Content)
		}
	}

	full := reply.String()
	s.transcript = append(s.transcript, chat.Assistant(full))

	if s.mode.Persistent() {
		if err := s.store.Save(ctx, s.session, s.transcript); err != nil {
			log.Printf("[conversation] failed to persist session %q: %v", s.session, err)
		}
	}
	return full, nil
}

// historyForModel returns the context sent ahead of the current query. Mode
// no isolates every turn; the other modes send the whole transcript. The
// latest user turn is excluded because it travels as the query itself.
func (s *Service) historyForModel() []chat.Message {
	if s.mode == memory.ModeNo {
		return nil
	}
	if len(s.transcript) == 0 {
		return nil
	}
	return s.transcript[:len(s.transcript)-1]
}

// SwitchSession saves the current session (long mode), then loads the
// requested one. It returns the restored message count. A corrupt target
// degrades to an empty transcript with the error reported as a warning.
func (s *Service) SwitchSession(ctx context.Context, name string) (int, error) {
	if s.mode.Persistent() && len(s.transcript) > 0 {
		if err := s.store.Save(ctx, s.session, s.transcript); err != nil {
			log.Printf("[conversation] failed to persist session %q before switch: %v", s.session, err)
		}
	}

	s.session = memory.SanitizeSession(name)
	s.transcript = nil
	return s.Restore(ctx)
}

// Shutdown performs the final save for long-mode sessions.
func (s *Service) Shutdown(ctx context.Context) error {
	if !s.mode.Persistent() {
		return nil
	}
	return s.store.Save(ctx, s.session, s.transcript)
}

// exitCommands are accepted case-insensitively; the single-letter aliases
// mirror the historical CLI.
var exitCommands = map[string]struct{}{
	"quit": {}, "exit": {}, "bye": {}, "goodbye": {}, "q": {}, "e": {},
}

// IsExitCommand reports whether the input should end the conversation.
func IsExitCommand(input string) bool {
	_, ok := exitCommands[strings.ToLower(strings.TrimSpace(input))]
	return ok
}
