package diary

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	diarymodel "github.com/zhouzirui/aura/backend/internal/model/diary"
	"github.com/zhouzirui/aura/backend/internal/service/journal"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(journal.NewService()).RegisterRoutes(r)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestDiaryCrud(t *testing.T) {
	r := setupRouter()

	resp := do(r, http.MethodPost, "/diary/", `{"content":"Today was calm."}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created diarymodel.Entry
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp = do(r, http.MethodPut, "/diary/"+created.ID, `{"content":"Today was calm, mostly."}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = do(r, http.MethodGet, "/diary/", "")
	var entries []diarymodel.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].Content != "Today was calm, mostly." {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	if resp = do(r, http.MethodDelete, "/diary/"+created.ID, ""); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp = do(r, http.MethodDelete, "/diary/"+created.ID, ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestDiaryRejectsEmptyContent(t *testing.T) {
	resp := do(setupRouter(), http.MethodPost, "/diary/", `{"content":"  "}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestReminders(t *testing.T) {
	r := setupRouter()

	if resp := do(r, http.MethodPut, "/reminders/not-a-date", `{"text":"x"}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	resp := do(r, http.MethodPut, "/reminders/2026-10-10", `{"text":"World Mental Health Day walk"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = do(r, http.MethodGet, "/reminders", "")
	var reminders []diarymodel.Reminder
	if err := json.NewDecoder(resp.Body).Decode(&reminders); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(reminders) != 1 || reminders[0].Date != "2026-10-10" {
		t.Fatalf("unexpected reminders: %+v", reminders)
	}

	if resp = do(r, http.MethodPut, "/reminders/2026-10-10", `{"text":""}`); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}
