package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/aura/backend/internal/model/chat"
	speechmodel "github.com/zhouzirui/aura/backend/internal/model/speech"
	"github.com/zhouzirui/aura/backend/internal/service/conversation"
	speechsvc "github.com/zhouzirui/aura/backend/internal/service/speech"
)

type fakeSynthesizer struct {
	last *speechmodel.TTSRequest
	err  error
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &speechmodel.TTSResponse{AudioData: []byte("audio:" + req.Text), Format: "mp3", RequestID: "req-1", Emotion: req.Emotion}, nil
}

type replyProvider struct {
	chunks []string
}

func (p replyProvider) StreamCompletion(context.Context, []chat.Turn, string, string) (*schema.StreamReader[*schema.Message], error) {
	msgs := make([]*schema.Message, 0, len(p.chunks))
	for _, c := range p.chunks {
		msgs = append(msgs, schema.AssistantMessage(c, nil))
	}
	return schema.StreamReaderFromArray(msgs), nil
}

func setupRouter(player *speechsvc.Player, chunks ...string) (*chi.Mux, *conversation.Manager) {
	var opts []conversation.Option
	if player != nil {
		opts = append(opts, conversation.WithSpeaker(player))
	}
	sessions := conversation.NewManager(replyProvider{chunks: chunks}, opts...)

	r := chi.NewRouter()
	New(player, sessions).RegisterRoutes(r)
	return r, sessions
}

func TestLatestSpeechUnavailableWithoutPlayer(t *testing.T) {
	r, _ := setupRouter(nil)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/sessions/any/speech/latest", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestLatestSpeechServesClip(t *testing.T) {
	player := speechsvc.NewPlayerWithSynthesizer(&fakeSynthesizer{}, "voice", 0)
	r, _ := setupRouter(player)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/sessions/s1/speech/latest", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any clip, got %d", resp.Code)
	}

	if err := player.Speak(context.Background(), "s1", "hello there"); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/sessions/s1/speech/latest", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Header().Get("Content-Type") != "audio/mpeg" || resp.Body.String() != "audio:hello there" {
		t.Fatalf("unexpected clip response: %q %q", resp.Header().Get("Content-Type"), resp.Body.String())
	}
}

func TestSynthesizeEndpoint(t *testing.T) {
	synth := &fakeSynthesizer{}
	player := speechsvc.NewPlayerWithSynthesizer(synth, "default-voice", 0)
	r, _ := setupRouter(player)

	req := httptest.NewRequest(http.MethodPost, "/speech/synthesize", strings.NewReader(`{"text":"breathe in"}`))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if synth.last.Voice != "default-voice" {
		t.Fatalf("expected default voice, got %q", synth.last.Voice)
	}
	if resp.Header().Get("X-Request-Id") != "req-1" {
		t.Fatalf("missing request id header")
	}
}

func TestSynthesizeValidation(t *testing.T) {
	player := speechsvc.NewPlayerWithSynthesizer(&fakeSynthesizer{}, "voice", 0)
	r, _ := setupRouter(player)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/speech/synthesize", strings.NewReader(`{"text":"  "}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSynthesizeUpstreamFailure(t *testing.T) {
	player := speechsvc.NewPlayerWithSynthesizer(&fakeSynthesizer{err: errors.New("upstream down")}, "voice", 0)
	r, _ := setupRouter(player)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/speech/synthesize", strings.NewReader(`{"text":"hi"}`)))
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}

func TestSpeechHealth(t *testing.T) {
	r, _ := setupRouter(nil)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/speech/health", nil))

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["enabled"] != false {
		t.Fatalf("expected speech disabled, got %v", body)
	}
}
