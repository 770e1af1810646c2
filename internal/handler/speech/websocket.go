package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/aura/backend/internal/model/speech"
	"github.com/zhouzirui/aura/backend/internal/service/capture"
	"github.com/zhouzirui/aura/backend/internal/service/conversation"
	speechsvc "github.com/zhouzirui/aura/backend/internal/service/speech"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// WebSocketHandler 会话的实时语音通道：客户端上报识别结果，服务端推送回复与语音。
type WebSocketHandler struct {
	sessions *conversation.Manager
	player   *speechsvc.Player
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器，player 可以为 nil。
func NewWebSocketHandler(sessions *conversation.Manager, player *speechsvc.Player) *WebSocketHandler {
	return &WebSocketHandler{
		sessions: sessions,
		player:   player,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ListenMessage 开始或停止收集识别结果
type ListenMessage struct {
	Active bool `json:"active"`
}

// SubmitMessage 提交输入，Text 为空时提交已收集的识别文本
type SubmitMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// BufferState 当前输入缓冲
type BufferState struct {
	Listening bool   `json:"listening"`
	Text      string `json:"text"`
}

// AudioReady 通知客户端有新的回复语音
type AudioReady struct {
	URL        string    `json:"url"`
	Format     string    `json:"format"`
	Emotion    string    `json:"emotion,omitempty"`
	DurationMS int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

type connection struct {
	conn      *websocket.Conn
	sessionID string
	mu        sync.Mutex
}

func (c *connection) send(msgType string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	msg := outgoingMessage{
		Type:      msgType,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] session=%s failed to send %s: %v", c.sessionID, msgType, err)
	}
}

func (c *connection) sendError(message string) {
	c.send("error", map[string]string{"message": message})
}

func (c *connection) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	conn := &connection{conn: ws, sessionID: sessionID}
	buffer := capture.NewBuffer()

	if h.player != nil {
		stop := h.player.Watch(sessionID, func(clip *speech.TTSResponse) {
			conn.send("audio", AudioReady{
				URL:        fmt.Sprintf("/api/sessions/%s/speech/latest", sessionID),
				Format:     clip.Format,
				Emotion:    clip.Emotion,
				DurationMS: clip.Duration,
				CreatedAt:  clip.CreatedAt,
			})
		})
		defer stop()
	}

	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})
	go h.pingLoop(ctx, conn)

	var exchanges sync.WaitGroup
	defer exchanges.Wait()

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(readTimeout))

		switch msg.Type {
		case "listen":
			var payload ListenMessage
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				conn.sendError("invalid listen payload")
				continue
			}
			if payload.Active {
				buffer.Start()
			} else {
				buffer.Stop()
			}
			conn.send("buffer", BufferState{Listening: buffer.Listening(), Text: buffer.Text()})

		case "transcript":
			var fragment capture.Fragment
			if err := json.Unmarshal(msg.Data, &fragment); err != nil {
				conn.sendError("invalid transcript payload")
				continue
			}
			if buffer.Deliver(fragment) {
				conn.send("buffer", BufferState{Listening: buffer.Listening(), Text: buffer.Text()})
			}

		case "submit":
			var payload SubmitMessage
			if len(msg.Data) > 0 {
				if err := json.Unmarshal(msg.Data, &payload); err != nil {
					conn.sendError("invalid submit payload")
					continue
				}
			}
			// 输入为空时使用缓冲的识别文本，只有 exchange 被接受后才清空缓冲
			input := payload.Text
			fromBuffer := strings.TrimSpace(input) == ""
			if fromBuffer {
				input = buffer.Text()
			}

			pending, err := session.Begin(input)
			switch {
			case errors.Is(err, conversation.ErrExchangeInFlight):
				conn.send("busy", map[string]string{"message": err.Error()})
				continue
			case err != nil:
				conn.sendError(err.Error())
				continue
			}
			if fromBuffer {
				buffer.Take()
				conn.send("buffer", BufferState{Listening: buffer.Listening(), Text: buffer.Text()})
			}

			exchanges.Add(1)
			go func() {
				defer exchanges.Done()
				h.runExchange(ctx, conn, pending)
			}()

		default:
			conn.sendError("unknown message type: " + msg.Type)
		}
	}
}

func (h *WebSocketHandler) runExchange(ctx context.Context, conn *connection, pending *conversation.Pending) {
	conn.send("user", pending.User())
	exchange := pending.Run(ctx, func(u conversation.Update) {
		conn.send("delta", map[string]any{"chunk": u.Chunk, "reply": u.Reply})
	})
	conn.send("message", map[string]any{"reply": exchange.Reply, "failed": exchange.Failed})
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *connection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}
