package chat

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/aura/backend/internal/model/chat"
	"github.com/zhouzirui/aura/backend/internal/service/conversation"
	"github.com/zhouzirui/aura/backend/pkg/utils"
)

// ClipStore 保存会话的回复语音，会话结束时一并清理。
type ClipStore interface {
	Forget(sessionID string)
}

// Handler 会话生命周期的HTTP处理器
type Handler struct {
	sessions *conversation.Manager
	clips    ClipStore
}

// New 创建会话处理器，clips 可以为 nil。
func New(sessions *conversation.Manager, clips ClipStore) *Handler {
	return &Handler{
		sessions: sessions,
		clips:    clips,
	}
}

// SessionView 会话快照
type SessionView struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	InFlight  bool           `json:"inFlight"`
	Messages  []chat.Message `json:"messages"`
}

// ViewOf 生成会话快照。
func ViewOf(session *conversation.Session) SessionView {
	return SessionView{
		ID:        session.ID(),
		CreatedAt: session.CreatedAt(),
		InFlight:  session.InFlight(),
		Messages:  session.Messages(),
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions", h.handleListSessions)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Delete("/sessions/{sessionID}", h.handleEndSession)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Create(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, ViewOf(session))
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.List(r.Context())
	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, ViewOf(session))
	}
	utils.RespondJSON(w, http.StatusOK, views)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, ViewOf(session))
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.sessions.End(r.Context(), sessionID); err != nil {
		respondSessionError(w, err)
		return
	}
	if h.clips != nil {
		h.clips.Forget(sessionID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, conversation.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}
