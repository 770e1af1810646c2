package journal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/aura/backend/internal/model/diary"
)

var (
	ErrEmptyContent  = errors.New("diary content is required")
	ErrEntryNotFound = errors.New("diary entry not found")
)

// Service keeps diary entries and the latest therapy analysis in memory.
type Service struct {
	mu        sync.RWMutex
	entries   []diary.Entry // newest first
	analysis  string
	reminders map[string]string // day -> text
	now       func() time.Time
}

// NewService creates an empty journal.
func NewService() *Service {
	return &Service{
		entries:   make([]diary.Entry, 0, 16),
		reminders: make(map[string]string),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new entry at the top of the journal.
func (s *Service) Create(_ context.Context, content string) (diary.Entry, error) {
	if strings.TrimSpace(content) == "" {
		return diary.Entry{}, ErrEmptyContent
	}

	now := s.now()
	entry := diary.Entry{
		ID:        uuid.NewString(),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.entries = append([]diary.Entry{entry}, s.entries...)
	s.mu.Unlock()

	return entry, nil
}

// Update replaces the content of an entry, keeping its position.
func (s *Service) Update(_ context.Context, id, content string) (diary.Entry, error) {
	if strings.TrimSpace(content) == "" {
		return diary.Entry{}, ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Content = content
			s.entries[i].UpdatedAt = s.now()
			return s.entries[i], nil
		}
	}
	return diary.Entry{}, ErrEntryNotFound
}

// Delete removes an entry.
func (s *Service) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return ErrEntryNotFound
}

// List returns every entry, newest first.
func (s *Service) List(_ context.Context) []diary.Entry {
	return s.Recent(0)
}

// Recent returns up to limit entries, newest first. A non-positive limit returns all.
func (s *Service) Recent(limit int) []diary.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	copied := make([]diary.Entry, n)
	copy(copied, s.entries[:n])
	return copied
}

// SetTherapyAnalysis records the most recent therapy-session analysis.
func (s *Service) SetTherapyAnalysis(analysis string) {
	s.mu.Lock()
	s.analysis = strings.TrimSpace(analysis)
	s.mu.Unlock()
}

// TherapyAnalysis returns the most recent therapy-session analysis.
func (s *Service) TherapyAnalysis() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analysis
}
