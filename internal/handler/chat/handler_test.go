package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/aura/backend/internal/model/chat"
	"github.com/zhouzirui/aura/backend/internal/service/conversation"
)

type echoProvider struct{}

func (echoProvider) StreamCompletion(_ context.Context, _ []chat.Turn, input, _ string) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage("echo: "+input, nil)}), nil
}

type recordingClips struct {
	forgotten []string
}

func (r *recordingClips) Forget(sessionID string) { r.forgotten = append(r.forgotten, sessionID) }

func setupRouter() (*chi.Mux, *conversation.Manager, *recordingClips) {
	sessions := conversation.NewManager(echoProvider{})
	clips := &recordingClips{}
	handler := New(sessions, clips)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, sessions, clips
}

func TestCreateSessionSeedsGreeting(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var view SessionView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.ID == "" || len(view.Messages) != 1 || view.Messages[0].Text != conversation.GreetingText {
		t.Fatalf("unexpected session view: %+v", view)
	}
}

func TestGetSessionReturnsLog(t *testing.T) {
	r, sessions, _ := setupRouter()
	session, _ := sessions.Create(context.Background())
	if _, err := session.Submit(context.Background(), "hi", nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+session.ID(), nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var view SessionView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.Messages) != 3 || view.Messages[2].Text != "echo: hi" || view.InFlight {
		t.Fatalf("unexpected log: %+v", view)
	}
}

func TestGetUnknownSession(t *testing.T) {
	r, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/sessions/missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestEndSessionForgetsClips(t *testing.T) {
	r, sessions, clips := setupRouter()
	session, _ := sessions.Create(context.Background())

	req := httptest.NewRequest(http.MethodDelete, "/sessions/"+session.ID(), nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if len(clips.forgotten) != 1 || clips.forgotten[0] != session.ID() {
		t.Fatalf("expected clips to be forgotten, got %v", clips.forgotten)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/sessions/"+session.ID(), nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", resp.Code)
	}
}
