package advisory

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zhouzirui/aura/backend/internal/model/diary"
)

const (
	thoughtPrompt  = "Give me a short, inspiring 'thought of the day' for someone focusing on their mental wellness. Make it concise and positive."
	occasionPrompt = "Is %s a special occasion or holiday (e.g., New Year, Christmas, World Mental Health Day)? " +
		"If so, provide a short, uplifting quote related to it. If not, provide a general positive quote for the day. Keep it to one sentence."
	therapyPrompt = "A user has recorded an audio snippet from a therapy session. Without the transcript, provide a general, supportive, " +
		"and encouraging analysis. Focus on themes of self-reflection, progress, and the courage it takes to attend therapy. Keep it brief and positive."
)

// Completer runs a single-shot prompt. It never fails; errors map to a fixed text.
type Completer interface {
	CompleteOnce(ctx context.Context, prompt string) string
}

// AnalysisSink stores the latest therapy analysis so the companion can use it.
type AnalysisSink interface {
	SetTherapyAnalysis(analysis string)
}

// Thought is the cached thought of the day.
type Thought struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

// Service 提供日历与疗程页面使用的一次性 AI 建议。
type Service struct {
	completer Completer
	sink      AnalysisSink
	now       func() time.Time

	mu      sync.Mutex
	thought Thought
}

// NewService creates an advisory service. sink may be nil.
func NewService(completer Completer, sink AnalysisSink) *Service {
	return &Service{
		completer: completer,
		sink:      sink,
		now:       time.Now,
	}
}

// DailyThought returns the thought for today, asking the model at most once per day.
func (s *Service) DailyThought(ctx context.Context) Thought {
	today := diary.Day(s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.thought.Date == today && s.thought.Text != "" {
		return s.thought
	}

	s.thought = Thought{Date: today, Text: s.completer.CompleteOnce(ctx, thoughtPrompt)}
	log.Printf("[advisory] refreshed thought of the day for %s", today)
	return s.thought
}

// OccasionQuote returns a one-sentence quote for the given day.
func (s *Service) OccasionQuote(ctx context.Context, date time.Time) string {
	return s.completer.CompleteOnce(ctx, fmt.Sprintf(occasionPrompt, date.Format("January 2")))
}

// TherapyInsight produces a supportive analysis of a recorded session and stores it.
func (s *Service) TherapyInsight(ctx context.Context) string {
	analysis := s.completer.CompleteOnce(ctx, therapyPrompt)
	if s.sink != nil {
		s.sink.SetTherapyAnalysis(analysis)
	}
	return analysis
}
