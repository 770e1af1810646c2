package capture

import (
	"strings"
	"sync"
)

// Fragment is one recognition result reported by the client.
type Fragment struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

// Buffer 累积一次语音输入期间的最终识别结果。临时结果会被忽略。
type Buffer struct {
	mu        sync.Mutex
	listening bool
	builder   strings.Builder
}

// NewBuffer returns an idle, empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Start begins accepting fragments.
func (b *Buffer) Start() {
	b.mu.Lock()
	b.listening = true
	b.mu.Unlock()
}

// Stop ends listening. Accumulated text is kept.
func (b *Buffer) Stop() {
	b.mu.Lock()
	b.listening = false
	b.mu.Unlock()
}

// Listening reports whether fragments are currently accepted.
func (b *Buffer) Listening() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listening
}

// Deliver appends a finalized fragment while listening and reports whether it was kept.
func (b *Buffer) Deliver(fragment Fragment) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.listening || !fragment.IsFinal {
		return false
	}
	trimmed := strings.TrimSpace(fragment.Text)
	if trimmed == "" {
		return false
	}
	b.builder.WriteString(trimmed)
	b.builder.WriteString(" ")
	return true
}

// Text returns the accumulated input.
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builder.String()
}

// Take returns the accumulated input and clears the buffer.
func (b *Buffer) Take() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	text := b.builder.String()
	b.builder.Reset()
	return text
}
