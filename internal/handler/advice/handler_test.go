package advice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/aura/backend/internal/service/advisory"
	"github.com/zhouzirui/aura/backend/internal/service/journal"
)

type echoCompleter struct{}

func (echoCompleter) CompleteOnce(_ context.Context, prompt string) string {
	if strings.Contains(prompt, "therapy") {
		return "You showed courage."
	}
	return "quote for: " + prompt[:20]
}

func setupRouter() (*chi.Mux, *journal.Service) {
	entries := journal.NewService()
	r := chi.NewRouter()
	New(advisory.NewService(echoCompleter{}, entries)).RegisterRoutes(r)
	return r, entries
}

func TestOccasionQuote(t *testing.T) {
	r, _ := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/advice/occasion?date=2026-12-25", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["date"] != "2026-12-25" || body["quote"] == "" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestOccasionQuoteRejectsBadDate(t *testing.T) {
	r, _ := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/advice/occasion?date=25/12", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestTherapyInsightIsStored(t *testing.T) {
	r, entries := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/advice/therapy", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if entries.TherapyAnalysis() != "You showed courage." {
		t.Fatalf("analysis not stored: %q", entries.TherapyAnalysis())
	}
}

func TestDailyThought(t *testing.T) {
	r, _ := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/advice/thought", nil))

	var thought advisory.Thought
	if err := json.NewDecoder(resp.Body).Decode(&thought); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if thought.Text == "" || thought.Date == "" {
		t.Fatalf("unexpected thought: %+v", thought)
	}
}
