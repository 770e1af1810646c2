package diary

import "time"

// DateLayout is the calendar-day format used by reminders and occasion quotes.
const DateLayout = "2006-01-02"

// Reminder is a note pinned to one calendar day.
type Reminder struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

// Day normalises t to its calendar-day key.
func Day(t time.Time) string {
	return t.Format(DateLayout)
}
