package journal

import (
	"sort"
	"strings"
	"time"

	"github.com/zhouzirui/aura/backend/internal/model/diary"
)

// SaveReminder pins text to the day of date, replacing any existing reminder.
// Blank text removes the reminder; the second result reports whether one is stored.
func (s *Service) SaveReminder(date time.Time, text string) (diary.Reminder, bool) {
	day := diary.Day(date)
	trimmed := strings.TrimSpace(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reminders == nil {
		s.reminders = make(map[string]string)
	}
	if trimmed == "" {
		delete(s.reminders, day)
		return diary.Reminder{Date: day}, false
	}
	s.reminders[day] = trimmed
	return diary.Reminder{Date: day, Text: trimmed}, true
}

// Reminder returns the reminder for the day of date.
func (s *Service) Reminder(date time.Time) (diary.Reminder, bool) {
	day := diary.Day(date)

	s.mu.RLock()
	defer s.mu.RUnlock()

	text, ok := s.reminders[day]
	if !ok {
		return diary.Reminder{}, false
	}
	return diary.Reminder{Date: day, Text: text}, true
}

// Reminders lists every reminder in calendar order.
func (s *Service) Reminders() []diary.Reminder {
	s.mu.RLock()
	items := make([]diary.Reminder, 0, len(s.reminders))
	for day, text := range s.reminders {
		items = append(items, diary.Reminder{Date: day, Text: text})
	}
	s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].Date < items[j].Date })
	return items
}
