package speech

import (
	"context"
	"errors"
	"testing"

	speechmodel "github.com/zhouzirui/aura/backend/internal/model/speech"
)

type stubSynthesizer struct {
	last *speechmodel.TTSRequest
	err  error
}

func (s *stubSynthesizer) Synthesize(_ context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &speechmodel.TTSResponse{AudioData: []byte(req.Text), Format: "mp3", Emotion: req.Emotion}, nil
}

func TestPlayerStoresLatestClip(t *testing.T) {
	synth := &stubSynthesizer{}
	player := NewPlayerWithSynthesizer(synth, "en_female_skye_emo_v2_mars_bigtts", 0)

	if _, ok := player.Latest("s1"); ok {
		t.Fatal("expected no clip before Speak")
	}

	if err := player.Speak(context.Background(), "s1", "first"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if err := player.Speak(context.Background(), "s1", "second"); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	clip, ok := player.Latest("s1")
	if !ok || string(clip.AudioData) != "second" || clip.SessionID != "s1" {
		t.Fatalf("unexpected latest clip: %+v", clip)
	}

	player.Forget("s1")
	if _, ok := player.Latest("s1"); ok {
		t.Fatal("clip should be dropped after Forget")
	}
}

func TestPlayerMatchesEmotionToReply(t *testing.T) {
	synth := &stubSynthesizer{}
	player := NewPlayerWithSynthesizer(synth, "en_female_skye_emo_v2_mars_bigtts", 0)

	if err := player.Speak(context.Background(), "s1", "It's okay to feel sad sometimes."); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if synth.last.Emotion != "comfort" || synth.last.EmotionScale <= 0 {
		t.Fatalf("expected comfort emotion, got %q %v", synth.last.Emotion, synth.last.EmotionScale)
	}

	if err := player.Speak(context.Background(), "s1", "Here is a tip."); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if synth.last.Emotion != "" {
		t.Fatalf("neutral reply should not carry emotion, got %q", synth.last.Emotion)
	}
}

func TestPlayerNotifiesWatchers(t *testing.T) {
	player := NewPlayerWithSynthesizer(&stubSynthesizer{}, "voice", 0)

	var got []string
	cancel := player.Watch("s1", func(clip *speechmodel.TTSResponse) {
		got = append(got, string(clip.AudioData))
	})
	_ = player.Speak(context.Background(), "s1", "one")
	_ = player.Speak(context.Background(), "s2", "other session")
	cancel()
	_ = player.Speak(context.Background(), "s1", "two")

	if len(got) != 1 || got[0] != "one" {
		t.Fatalf("watcher got %v, want [one]", got)
	}
}

func TestPlayerPropagatesSynthesisError(t *testing.T) {
	player := NewPlayerWithSynthesizer(&stubSynthesizer{err: errors.New("boom")}, "voice", 0)

	if err := player.Speak(context.Background(), "s1", "hello"); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := player.Latest("s1"); ok {
		t.Fatal("failed synthesis must not store a clip")
	}
}

type blockingSynthesizer struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingSynthesizer) Synthesize(_ context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	close(b.started)
	<-b.release
	return &speechmodel.TTSResponse{AudioData: []byte(req.Text), Format: "mp3"}, nil
}

func TestPlayerDropsClipOfEndedSession(t *testing.T) {
	synth := &blockingSynthesizer{started: make(chan struct{}), release: make(chan struct{})}
	player := NewPlayerWithSynthesizer(synth, "voice", 0)

	notified := make(chan struct{}, 1)
	cancel := player.Watch("s1", func(*speechmodel.TTSResponse) { notified <- struct{}{} })
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- player.Speak(context.Background(), "s1", "late reply") }()

	<-synth.started
	player.Forget("s1")
	close(synth.release)

	if err := <-done; err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if _, ok := player.Latest("s1"); ok {
		t.Fatal("ended session must not keep a clip")
	}
	select {
	case <-notified:
		t.Fatal("watchers of an ended session must not be notified")
	default:
	}
}
