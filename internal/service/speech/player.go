package speech

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/zhouzirui/aura/backend/internal/analysis/mood"
	speechmodel "github.com/zhouzirui/aura/backend/internal/model/speech"
)

// endedRetention 会话结束标记的最短保留时间，需长于一次合成的耗时。
const endedRetention = 10 * time.Minute

// Synthesizer turns text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error)
}

// ClipListener is notified when a session gets a new reply clip.
type ClipListener func(clip *speechmodel.TTSResponse)

// Player 为每个会话合成回复语音，并保留最近一段供客户端拉取。
type Player struct {
	synth   Synthesizer
	voice   string
	timeout time.Duration

	mu        sync.RWMutex
	latest    map[string]*speechmodel.TTSResponse
	listeners map[string]map[int]ClipListener
	nextID    int
	// ended 记录已结束的会话，迟到的合成结果不再保存
	ended map[string]time.Time
}

// NewPlayer 使用火山引擎 TTS 创建播放器。
func NewPlayer(cfg *speechmodel.SpeechConfig) *Player {
	return NewPlayerWithSynthesizer(NewTTSClient(cfg), cfg.TTSVoice, time.Duration(cfg.Timeout)*time.Second)
}

// NewPlayerWithSynthesizer wires an arbitrary synthesizer. A zero timeout disables the bound.
func NewPlayerWithSynthesizer(synth Synthesizer, voice string, timeout time.Duration) *Player {
	return &Player{
		synth:     synth,
		voice:     voice,
		timeout:   timeout,
		latest:    make(map[string]*speechmodel.TTSResponse),
		listeners: make(map[string]map[int]ClipListener),
		ended:     make(map[string]time.Time),
	}
}

// Speak synthesizes text with an emotion matching its tone and stores it as the session's latest clip.
func (p *Player) Speak(ctx context.Context, sessionID, text string) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req := &speechmodel.TTSRequest{
		SessionID: sessionID,
		Text:      text,
		Voice:     p.voice,
	}
	if label, scale, ok := EmotionParameters(p.voice, mood.Detect(text)); ok {
		req.Emotion = label
		req.EmotionScale = scale
	}

	clip, err := p.synth.Synthesize(ctx, req)
	if err != nil {
		return err
	}
	clip.SessionID = sessionID

	p.mu.Lock()
	if _, gone := p.ended[sessionID]; gone {
		p.mu.Unlock()
		log.Printf("[speech] session %s ended before its clip was ready, dropping it", sessionID)
		return nil
	}
	p.latest[sessionID] = clip
	listeners := make([]ClipListener, 0, len(p.listeners[sessionID]))
	for _, fn := range p.listeners[sessionID] {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	log.Printf("[speech] session %s clip ready (%d bytes, emotion=%q)", sessionID, len(clip.AudioData), clip.Emotion)
	for _, fn := range listeners {
		fn(clip)
	}
	return nil
}

// Latest returns the most recent clip of a session.
func (p *Player) Latest(sessionID string) (*speechmodel.TTSResponse, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	clip, ok := p.latest[sessionID]
	return clip, ok
}

// Watch registers fn for new clips of sessionID until the returned cancel is called.
func (p *Player) Watch(sessionID string, fn ClipListener) (cancel func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	if p.listeners[sessionID] == nil {
		p.listeners[sessionID] = make(map[int]ClipListener)
	}
	p.listeners[sessionID][id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners[sessionID], id)
		if len(p.listeners[sessionID]) == 0 {
			delete(p.listeners, sessionID)
		}
		p.mu.Unlock()
	}
}

// Forget drops the stored clip of an ended session and ignores clips that finish later.
func (p *Player) Forget(sessionID string) {
	now := time.Now()
	retention := max(endedRetention, 2*p.timeout)

	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.latest, sessionID)
	for id, at := range p.ended {
		if now.Sub(at) > retention {
			delete(p.ended, id)
		}
	}
	p.ended[sessionID] = now
}

// Synthesize runs a one-off synthesis without touching the stored clips.
func (p *Player) Synthesize(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if req.Voice == "" {
		req.Voice = p.voice
	}
	return p.synth.Synthesize(ctx, req)
}
