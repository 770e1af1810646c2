package stream

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/aura/backend/internal/model/chat"
	"github.com/zhouzirui/aura/backend/internal/service/conversation"
	"github.com/zhouzirui/aura/backend/pkg/utils"
)

// Handler streams one exchange of a session via Server-Sent Events.
type Handler struct {
	sessions *conversation.Manager
}

// New creates a new stream handler
func New(sessions *conversation.Manager) *Handler {
	return &Handler{sessions: sessions}
}

// StartEvent 表示 exchange 已被接受
type StartEvent struct {
	SessionID string       `json:"sessionId"`
	User      chat.Message `json:"user"`
	Reply     chat.Message `json:"reply"`
}

// DeltaEvent 携带一个 chunk 以及占位回复的当前快照
type DeltaEvent struct {
	SessionID string       `json:"sessionId"`
	Chunk     string       `json:"chunk"`
	Reply     chat.Message `json:"reply"`
}

// MessageEvent 携带最终回复
type MessageEvent struct {
	SessionID string       `json:"sessionId"`
	Reply     chat.Message `json:"reply"`
	Failed    bool         `json:"failed"`
}

// RegisterRoutes 注册流式提交路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions/{sessionID}/messages", h.handleSubmit)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := &sseWriter{w: w, flusher: flusher, sessionID: sessionID}

	// exchange 不随客户端断开而取消，日志里保留完整回复
	exchange, err := session.Submit(context.WithoutCancel(r.Context()), payload.Text, out.update)
	switch {
	case errors.Is(err, conversation.ErrEmptyInput):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, conversation.ErrExchangeInFlight):
		utils.RespondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	placeholder := exchange.Reply
	placeholder.Text = ""
	placeholder.Pending = true
	out.start(exchange.User, placeholder)

	out.send("message", MessageEvent{SessionID: sessionID, Reply: exchange.Reply, Failed: exchange.Failed})
	out.send("end", map[string]any{"sessionId": sessionID, "finished": true})

	log.Printf("[stream] completed exchange for session=%s failed=%v", sessionID, exchange.Failed)
}

// sseWriter 在第一次更新时才写出响应头，被拒绝的提交仍可返回普通 JSON 错误。
type sseWriter struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	sessionID string
	started   bool
	gone      bool
}

func (s *sseWriter) start(user, reply chat.Message) {
	if s.started {
		return
	}
	s.started = true
	utils.SetupSSEHeaders(s.w)
	s.w.WriteHeader(http.StatusOK)
	s.send("start", StartEvent{SessionID: s.sessionID, User: user, Reply: reply})
}

func (s *sseWriter) update(u conversation.Update) {
	if !s.started {
		placeholder := u.Reply
		placeholder.Text = ""
		s.start(u.User, placeholder)
	}
	s.send("delta", DeltaEvent{SessionID: s.sessionID, Chunk: u.Chunk, Reply: u.Reply})
}

func (s *sseWriter) send(event string, data any) {
	if s.gone {
		return
	}
	if err := utils.SendSSEEvent(s.w, s.flusher, event, data); err != nil {
		log.Printf("[stream] session=%s client went away: %v", s.sessionID, err)
		s.gone = true
	}
}
