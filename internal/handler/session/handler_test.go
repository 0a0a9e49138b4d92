package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/wangyuhao/assistant/internal/memory"
	"github.com/wangyuhao/assistant/internal/model/chat"
)

func setupRouter(t *testing.T) (*chi.Mux, *memory.FileStore, string) {
	t.Helper()
	root := t.TempDir()
	store, err := memory.NewFileStore(root)
	if err != nil {
		t.Fatalf("NewFileStore err: %v", err)
	}

	r := chi.NewRouter()
	New(store).RegisterRoutes(r)
	return r, store, root
}

func TestListSessionsEmpty(t *testing.T) {
	r, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var payload struct {
		Sessions []string `json:"sessions"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(payload.Sessions) != 0 {
		t.Fatalf("expected no sessions, got %v", payload.Sessions)
	}
}

func TestCreateNamedSession(t *testing.T) {
	r, store, _ := setupRouter(t)

	body, _ := json.Marshal(map[string]string{"name": "my work!"})
	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if payload.Name != "mywork" {
		t.Fatalf("expected sanitized name, got %q", payload.Name)
	}

	names, err := store.List(context.Background())
	if err != nil || len(names) != 1 {
		t.Fatalf("session not created: %v, %v", names, err)
	}
}

func TestCreateSessionGeneratesName(t *testing.T) {
	r, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if payload.Name == "" || payload.Name == "default" {
		t.Fatalf("expected generated name, got %q", payload.Name)
	}
}

func TestTranscriptRoundTrip(t *testing.T) {
	r, store, _ := setupRouter(t)

	seed := []chat.Message{chat.User("hello"), chat.Assistant("Hi there!")}
	if err := store.Save(context.Background(), "work", seed); err != nil {
		t.Fatalf("seed err: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions/work/messages", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var payload struct {
		Session  string         `json:"session"`
		Messages []chat.Message `json:"messages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if payload.Session != "work" || len(payload.Messages) != 2 {
		t.Fatalf("unexpected transcript payload: %+v", payload)
	}
	if payload.Messages[1].Content != "Hi there!" {
		t.Fatalf("unexpected assistant content: %q", payload.Messages[1].Content)
	}
}

func TestTranscriptUnknownSessionIsEmpty(t *testing.T) {
	r, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/sessions/missing/messages", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(payload.Messages) != 0 {
		t.Fatalf("expected empty transcript, got %+v", payload.Messages)
	}
}

func TestTranscriptCorruptSessionDegrades(t *testing.T) {
	r, _, root := setupRouter(t)

	if err := os.WriteFile(filepath.Join(root, "broken.json"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("fixture err: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions/broken/messages", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("corrupt session should degrade to empty, got %d", resp.Code)
	}
}
