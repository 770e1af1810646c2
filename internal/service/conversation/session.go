package conversation

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/zhouzirui/aura/backend/internal/model/chat"
)

const (
	// GreetingText seeds every new conversation log.
	GreetingText = "Hello! I'm Aura, your AI companion. How are you feeling today?"
	// FallbackText replaces the reply whenever the provider fails.
	FallbackText = "I'm having trouble connecting right now. Please try again later."
)

var (
	ErrEmptyInput       = errors.New("input is empty")
	ErrExchangeInFlight = errors.New("an exchange is already in flight")
)

// Provider streams a completion for one exchange.
type Provider interface {
	StreamCompletion(ctx context.Context, history []chat.Turn, input, systemContext string) (*schema.StreamReader[*schema.Message], error)
}

// Speaker voices a finished reply. Failures are only logged.
type Speaker interface {
	Speak(ctx context.Context, sessionID, text string) error
}

// ContextSource produces the system instruction for an input.
type ContextSource interface {
	SystemContext(ctx context.Context, input string) string
}

// Update is delivered after each applied chunk.
type Update struct {
	Chunk string
	User  chat.Message
	Reply chat.Message
}

// UpdateFunc receives partial reply state while an exchange streams.
type UpdateFunc func(Update)

// Exchange is the outcome of one accepted Submit.
type Exchange struct {
	User   chat.Message `json:"user"`
	Reply  chat.Message `json:"reply"`
	Failed bool         `json:"failed"`
}

// Option customises a Session.
type Option func(*Session)

// WithExchangeTimeout bounds each exchange. Zero disables the bound.
func WithExchangeTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithSpeaker voices every successful reply.
func WithSpeaker(speaker Speaker) Option {
	return func(s *Session) {
		s.speaker = speaker
	}
}

// WithContextSource sets where system instructions come from.
func WithContextSource(source ContextSource) Option {
	return func(s *Session) {
		s.contexts = source
	}
}

// Session 持有单个会话的消息日志，并保证同一时刻只有一个 exchange 在进行。
type Session struct {
	id        string
	createdAt time.Time

	provider Provider
	speaker  Speaker
	contexts ContextSource
	timeout  time.Duration

	mu       sync.RWMutex
	messages []chat.Message
	inFlight atomic.Bool
}

// NewSession creates a session whose log starts with the greeting.
func NewSession(id string, provider Provider, opts ...Option) *Session {
	s := &Session{
		id:        id,
		createdAt: time.Now().UTC(),
		provider:  provider,
		messages:  make([]chat.Message, 0, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.messages = append(s.messages, newMessage(chat.SenderAssistant, GreetingText))
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// InFlight reports whether an exchange is running.
func (s *Session) InFlight() bool { return s.inFlight.Load() }

// Messages returns a copy of the conversation log.
func (s *Session) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

// Submit 处理一次用户输入：追加用户消息与占位回复，流式填充回复，失败时替换为兜底文案。
// 空输入返回 ErrEmptyInput，已有 exchange 进行中返回 ErrExchangeInFlight，两种情况下日志都不变。
func (s *Session) Submit(ctx context.Context, input string, onUpdate UpdateFunc) (Exchange, error) {
	pending, err := s.Begin(input)
	if err != nil {
		return Exchange{}, err
	}
	return pending.Run(ctx, onUpdate), nil
}

// Pending is an accepted exchange that holds the in-flight slot until Run returns.
type Pending struct {
	session  *Session
	input    string
	history  []chat.Turn
	user     chat.Message
	replyIdx int
}

// Begin accepts input and appends the user message and the pending placeholder
// without contacting the provider. The caller must call Run exactly once.
func (s *Session) Begin(input string) (*Pending, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrExchangeInFlight
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]chat.Turn, 0, len(s.messages))
	for _, msg := range s.messages {
		history = append(history, chat.TurnOf(msg))
	}
	user := newMessage(chat.SenderUser, input)
	placeholder := newMessage(chat.SenderAssistant, "")
	placeholder.Pending = true
	s.messages = append(s.messages, user, placeholder)

	return &Pending{
		session:  s,
		input:    input,
		history:  history,
		user:     user,
		replyIdx: len(s.messages) - 1,
	}, nil
}

// User returns the appended user message.
func (p *Pending) User() chat.Message { return p.user }

// Run streams the reply into the placeholder and releases the in-flight slot.
func (p *Pending) Run(ctx context.Context, onUpdate UpdateFunc) Exchange {
	s := p.session
	defer func() {
		s.mu.Lock()
		s.messages[p.replyIdx].Pending = false
		s.mu.Unlock()
		s.inFlight.Store(false)
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	systemContext := ""
	if s.contexts != nil {
		systemContext = s.contexts.SystemContext(ctx, p.input)
	}

	if err := s.stream(ctx, p.history, p.input, systemContext, p.user, p.replyIdx, onUpdate); err != nil {
		log.Printf("[conversation] session %s exchange failed: %v", s.id, err)
		reply := s.setReply(p.replyIdx, FallbackText)
		return Exchange{User: p.user, Reply: reply, Failed: true}
	}

	reply := s.reply(p.replyIdx)
	if s.speaker != nil && strings.TrimSpace(reply.Text) != "" {
		go s.speak(context.WithoutCancel(ctx), reply.Text)
	}

	return Exchange{User: p.user, Reply: reply}
}

func (s *Session) stream(ctx context.Context, history []chat.Turn, input, systemContext string, user chat.Message, replyIdx int, onUpdate UpdateFunc) error {
	if s.provider == nil {
		return errors.New("no completion provider configured")
	}

	stream, err := s.provider.StreamCompletion(ctx, history, input, systemContext)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		text := ""
		if chunk != nil {
			text = chunk.Content
		}

		s.mu.Lock()
		s.messages[replyIdx].Text += text
		snapshot := s.messages[replyIdx]
		s.mu.Unlock()

		if onUpdate != nil {
			onUpdate(Update{Chunk: text, User: user, Reply: snapshot})
		}
	}
}

func (s *Session) speak(ctx context.Context, text string) {
	if err := s.speaker.Speak(ctx, s.id, text); err != nil {
		log.Printf("[conversation] session %s speak failed: %v", s.id, err)
	}
}

func (s *Session) setReply(idx int, text string) chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[idx].Text = text
	msg := s.messages[idx]
	msg.Pending = false
	return msg
}

func (s *Session) reply(idx int) chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg := s.messages[idx]
	msg.Pending = false
	return msg
}

func newMessage(sender chat.Sender, text string) chat.Message {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return chat.Message{
		ID:        id.String(),
		Text:      text,
		Sender:    sender,
		CreatedAt: time.Now().UTC(),
	}
}
