package session

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wangyuhao/assistant/internal/memory"
	"github.com/wangyuhao/assistant/internal/model/chat"
	"github.com/wangyuhao/assistant/pkg/utils"
)

// Handler 会话管理的 HTTP 处理器。
type Handler struct {
	store memory.Store
}

// New 创建会话处理器。
func New(store memory.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册会话相关的路由。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.handleListSessions)
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{session}/messages", h.handleTranscript)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.List(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if names == nil {
		names = []string{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string][]string{"sessions": names})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := payload.Name
	if name == "" {
		name = uuid.NewString()
	}
	name = memory.SanitizeSession(name)

	if err := h.store.Save(r.Context(), name, []chat.Message{}); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]string{"name": name})
}

// handleTranscript 返回会话的完整历史。损坏的会话按空历史处理。
func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	name := memory.SanitizeSession(chi.URLParam(r, "session"))

	transcript, err := h.store.Load(r.Context(), name)
	if err != nil {
		if !memory.IsCorrupt(err) {
			utils.RespondError(w, http.StatusInternalServerError, "failed to load session")
			return
		}
		log.Printf("[session] corrupt session %q, serving empty transcript: %v", name, err)
		transcript = nil
	}
	if transcript == nil {
		transcript = []chat.Message{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session":  name,
		"messages": transcript,
	})
}
