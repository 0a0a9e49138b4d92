package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/wangyuhao/assistant/internal/memory"
	"github.com/wangyuhao/assistant/internal/service/ai"
	"github.com/wangyuhao/assistant/internal/service/conversation"
	"github.com/wangyuhao/assistant/pkg/utils"
)

// Handler streams assistant replies over Server-Sent Events. Web turns
// always run with long-memory semantics: every committed turn is persisted.
type Handler struct {
	gateway conversation.Gateway
	store   memory.Store
}

// New creates a stream handler.
func New(gateway conversation.Gateway, store memory.Store) *Handler {
	return &Handler{gateway: gateway, store: store}
}

// StreamResponse represents a streaming response chunk.
type StreamResponse struct {
	Event    string `json:"event"`
	Content  string `json:"content,omitempty"`
	Session  string `json:"session,omitempty"`
	Finished bool   `json:"finished,omitempty"`
	Error    string `json:"error,omitempty"`
}

// HandleStreamRequest runs one conversation turn for the session and
// streams the reply: start → delta* → message → end, or an error event.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, session, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	svc := conversation.New(h.gateway, h.store, memory.ModeLong, session)
	if _, err := svc.Restore(ctx); err != nil {
		if !memory.IsCorrupt(err) {
			h.sendError(w, flusher, fmt.Sprintf("failed to load session: %v", err))
			return err
		}
		log.Printf("[stream] corrupt session %q, starting fresh: %v", svc.Session(), err)
	}

	h.send(w, flusher, StreamResponse{Event: "start", Session: svc.Session()})

	full, err := svc.HandleTurn(ctx, userMessage, func(fragment string) {
		h.send(w, flusher, StreamResponse{
			Event:   "delta",
			Session: svc.Session(),
			Content: fragment,
		})
	})
	if err != nil {
		h.sendError(w, flusher, failureText(err))
		return err
	}

	h.send(w, flusher, StreamResponse{
		Event:   "message",
		Session: svc.Session(),
		Content: full,
	})
	h.send(w, flusher, StreamResponse{
		Event:    "end",
		Session:  svc.Session(),
		Finished: true,
	})

	log.Printf("[stream] completed turn for session=%s, reply=%d bytes", svc.Session(), len(full))
	return nil
}

func failureText(err error) string {
	if errors.Is(err, ai.ErrNetwork) {
		return fmt.Sprintf("网络错误，无法连接到模型服务：%v", err)
	}
	return fmt.Sprintf("发生未知错误：%v", err)
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

func (h *Handler) sendError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.send(w, flusher, StreamResponse{Event: "error", Error: errorMsg})
}
