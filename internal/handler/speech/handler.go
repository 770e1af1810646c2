package speech

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/aura/backend/internal/model/speech"
	"github.com/zhouzirui/aura/backend/internal/service/conversation"
	speechsvc "github.com/zhouzirui/aura/backend/internal/service/speech"
	"github.com/zhouzirui/aura/backend/pkg/utils"
)

// Handler 语音服务的HTTP处理器，player 为 nil 表示语音未启用。
type Handler struct {
	player   *speechsvc.Player
	sessions *conversation.Manager
}

// New 创建语音处理器
func New(player *speechsvc.Player, sessions *conversation.Manager) *Handler {
	return &Handler{
		player:   player,
		sessions: sessions,
	}
}

// RegisterRoutes 注册语音相关的路由，包括会话的实时 websocket。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/speech/latest", h.handleLatest)
	r.Get("/sessions/{sessionID}/ws", NewWebSocketHandler(h.sessions, h.player).handleWebSocket)

	r.Route("/speech", func(speechRouter chi.Router) {
		speechRouter.Post("/synthesize", h.handleSynthesize)
		speechRouter.Get("/health", h.handleHealth)
	})
}

// handleLatest 返回会话最近一段回复语音
func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	if h.player == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "speech is not configured")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	clip, ok := h.player.Latest(sessionID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "no speech for session")
		return
	}
	writeAudio(w, clip)
}

// handleSynthesize 合成任意文本
func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	if h.player == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "speech is not configured")
		return
	}

	var payload struct {
		Text   string  `json:"text"`
		Voice  string  `json:"voice"`
		Speed  float32 `json:"speed"`
		Format string  `json:"format"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	clip, err := h.player.Synthesize(r.Context(), &speech.TTSRequest{
		Text:   payload.Text,
		Voice:  payload.Voice,
		Speed:  payload.Speed,
		Format: payload.Format,
	})
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeAudio(w, clip)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"enabled": h.player != nil,
	})
}

func writeAudio(w http.ResponseWriter, clip *speech.TTSResponse) {
	w.Header().Set("Content-Type", clip.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(clip.AudioData)))
	if clip.RequestID != "" {
		w.Header().Set("X-Request-Id", clip.RequestID)
	}
	if clip.Emotion != "" {
		w.Header().Set("X-Speech-Emotion", clip.Emotion)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(clip.AudioData)
}
