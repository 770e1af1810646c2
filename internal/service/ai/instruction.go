package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zhouzirui/aura/backend/internal/analysis/mood"
	"github.com/zhouzirui/aura/backend/internal/model/diary"
	"github.com/zhouzirui/aura/backend/internal/model/helpline"
)

const sharedEntryLimit = 5

// CompanionTemplate describes the persona the model is asked to play.
type CompanionTemplate struct {
	Name         string
	SystemPrompt string
	Guidelines   []string
}

// DefaultCompanion is the wellness companion used for every session.
var DefaultCompanion = CompanionTemplate{
	Name: "Aura",
	SystemPrompt: "You are a friendly and empathetic AI mental wellness companion for young people. " +
		"Your goal is to provide supportive, helpful, and safe conversations.",
	Guidelines: []string{
		"You are not a licensed therapist, so do not provide medical advice.",
		"Offer encouragement, coping strategies, and a listening ear instead.",
		"Be aware of common festivals or holidays that might be occurring.",
		"Keep responses concise and easy to understand.",
	},
}

// JournalReader exposes what the user chose to share from their journal.
type JournalReader interface {
	Recent(limit int) []diary.Entry
	TherapyAnalysis() string
}

// ContextBuilder assembles the system instruction for one exchange.
type ContextBuilder struct {
	template     CompanionTemplate
	journal      JournalReader
	helplines    helpline.Store
	shareJournal bool
	now          func() time.Time
}

// NewContextBuilder creates a builder. journal and helplines may be nil.
func NewContextBuilder(journal JournalReader, helplines helpline.Store, shareJournal bool) *ContextBuilder {
	return &ContextBuilder{
		template:     DefaultCompanion,
		journal:      journal,
		helplines:    helplines,
		shareJournal: shareJournal,
		now:          time.Now,
	}
}

// SystemContext builds the instruction for a reply to input.
func (b *ContextBuilder) SystemContext(_ context.Context, input string) string {
	var builder strings.Builder

	builder.WriteString(b.template.SystemPrompt)
	builder.WriteString(fmt.Sprintf(" Your name is %s. Today is %s.", b.template.Name, b.now().Format("Monday, January 2, 2006")))
	if len(b.template.Guidelines) > 0 {
		builder.WriteString("\n\nGuidelines:\n- ")
		builder.WriteString(strings.Join(b.template.Guidelines, "\n- "))
	}

	if b.shareJournal && b.journal != nil {
		if entries := b.journal.Recent(sharedEntryLimit); len(entries) > 0 {
			builder.WriteString("\n\nThe user has shared their diary with you. Here are their recent entries:\n")
			builder.WriteString(formatEntries(entries))
		}
		if analysis := strings.TrimSpace(b.journal.TherapyAnalysis()); analysis != "" {
			builder.WriteString("\n\nThe user has shared an analysis from a therapy session recording:\n")
			builder.WriteString(analysis)
		}
	}

	decision := mood.Detect(input)
	if decision.Crisis() {
		builder.WriteString("\n\nThe user may be in crisis. Respond with warmth, take them seriously, and gently encourage them to reach out to one of these helplines right now:")
		builder.WriteString(b.formatHelplines())
		return builder.String()
	}

	if hint := toneHint(decision.Label); hint != "" {
		builder.WriteString("\n\n")
		builder.WriteString(hint)
	}

	return builder.String()
}

func (b *ContextBuilder) formatHelplines() string {
	items := helpline.Seed()
	if b.helplines != nil {
		items = b.helplines.List()
	}

	var builder strings.Builder
	for _, item := range items {
		builder.WriteString(fmt.Sprintf("\n- %s: %s", item.Name, item.Contact))
	}
	return builder.String()
}

func formatEntries(entries []diary.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, fmt.Sprintf("[%s] %s", entry.CreatedAt.Format("2006-01-02"), strings.TrimSpace(entry.Content)))
	}
	return strings.Join(lines, "\n")
}

func toneHint(label mood.Label) string {
	switch label {
	case mood.Anxious:
		return "The user sounds anxious. Be calm and grounding; a simple breathing or grounding exercise may help."
	case mood.Sad:
		return "The user sounds low. Respond gently and with empathy before offering any suggestions."
	case mood.Lonely:
		return "The user sounds lonely. Make them feel heard and suggest small ways to connect with others."
	case mood.Angry:
		return "The user sounds frustrated. Stay steady, acknowledge the feeling, and help them cool down."
	case mood.Hopeful:
		return "The user sounds hopeful. Recognise their progress and encourage the next small step."
	case mood.Happy:
		return "The user sounds happy. Share their joy and keep the tone light."
	default:
		return ""
	}
}
