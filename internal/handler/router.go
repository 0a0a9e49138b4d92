package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wangyuhao/assistant/internal/handler/session"
	"github.com/wangyuhao/assistant/internal/handler/stream"
	"github.com/wangyuhao/assistant/internal/memory"
	"github.com/wangyuhao/assistant/internal/service/conversation"
	"github.com/wangyuhao/assistant/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(store memory.Store, gateway conversation.Gateway) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	sessionHandler := session.New(store)
	streamHandler := stream.New(gateway, store)

	r.Route("/api", func(api chi.Router) {
		sessionHandler.RegisterRoutes(api)

		api.Get("/stream/{session}", func(w http.ResponseWriter, r *http.Request) {
			name := chi.URLParam(r, "session")
			userMessage := r.URL.Query().Get("message")

			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, name, userMessage); err != nil {
				// Headers are already sent at this point; the error event
				// has been delivered in-stream.
				log.Printf("[stream] error handling request: %v", err)
			}
		})
	})

	return r
}

// corsMiddleware 放开跨域限制，便于本地 Web 前端调试。
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
