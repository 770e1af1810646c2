package ai

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/aura/backend/internal/config"
	"github.com/zhouzirui/aura/backend/internal/model/chat"
	"github.com/zhouzirui/aura/backend/internal/model/diary"
	"github.com/zhouzirui/aura/backend/internal/model/helpline"
)

type fakeChatModel struct {
	lastInput []*schema.Message
	chunks    []string
	reply     string
	err       error
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	msgs := make([]*schema.Message, 0, len(f.chunks))
	for _, c := range f.chunks {
		msgs = append(msgs, schema.AssistantMessage(c, nil))
	}
	return schema.StreamReaderFromArray(msgs), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func drain(t *testing.T, stream *schema.StreamReader[*schema.Message]) string {
	t.Helper()
	defer stream.Close()

	var builder strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return builder.String()
		}
		require.NoError(t, err)
		builder.WriteString(chunk.Content)
	}
}

func TestDegradedProviderStreamsFixedText(t *testing.T) {
	provider, err := NewProvider(context.Background(), config.AIConfig{})
	require.NoError(t, err)
	require.False(t, provider.Configured())

	stream, err := provider.StreamCompletion(context.Background(), nil, "hello", "system")
	require.NoError(t, err)
	require.Equal(t, NotConfiguredText, drain(t, stream))
}

func TestDegradedProviderCompleteOnce(t *testing.T) {
	provider, err := NewProvider(context.Background(), config.AIConfig{})
	require.NoError(t, err)

	require.Equal(t, NotConfiguredText, provider.CompleteOnce(context.Background(), "quote please"))
	require.Equal(t, NotConfiguredText, provider.CompleteOnce(context.Background(), "another"))
}

func TestStreamCompletionFramesHistory(t *testing.T) {
	fake := &fakeChatModel{chunks: []string{"I hear ", "you."}}
	provider, err := NewProviderWithModel(context.Background(), fake)
	require.NoError(t, err)

	history := []chat.Turn{
		{Role: chat.RoleModel, Text: "Hello!"},
		{Role: chat.RoleUser, Text: "hi"},
	}
	stream, err := provider.StreamCompletion(context.Background(), history, "I feel anxious", "be kind")
	require.NoError(t, err)
	require.Equal(t, "I hear you.", drain(t, stream))

	require.Len(t, fake.lastInput, 4)
	require.Equal(t, schema.System, fake.lastInput[0].Role)
	require.Equal(t, "be kind", fake.lastInput[0].Content)
	require.Equal(t, schema.Assistant, fake.lastInput[1].Role)
	require.Equal(t, "Hello!", fake.lastInput[1].Content)
	require.Equal(t, schema.User, fake.lastInput[2].Role)
	require.Equal(t, schema.User, fake.lastInput[3].Role)
	require.Equal(t, "I feel anxious", fake.lastInput[3].Content)
}

func TestHistoryLimitKeepsRecentTurns(t *testing.T) {
	provider := &Provider{}
	WithHistoryLimit(2)(provider)

	msgs := provider.buildHistoryMessages([]chat.Turn{
		{Role: chat.RoleUser, Text: "one"},
		{Role: chat.RoleModel, Text: "two"},
		{Role: chat.RoleUser, Text: "three"},
	})
	require.Len(t, msgs, 2)
	require.Equal(t, "two", msgs[0].Content)
	require.Equal(t, "three", msgs[1].Content)
}

func TestCompleteOnceFallsBackOnError(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("quota exceeded")}
	provider, err := NewProviderWithModel(context.Background(), fake)
	require.NoError(t, err)

	require.Equal(t, CompletionFallbackText, provider.CompleteOnce(context.Background(), "prompt"))
}

func TestCompleteOnceReturnsReply(t *testing.T) {
	fake := &fakeChatModel{reply: "Be gentle with yourself today."}
	provider, err := NewProviderWithModel(context.Background(), fake)
	require.NoError(t, err)

	require.Equal(t, "Be gentle with yourself today.", provider.CompleteOnce(context.Background(), "prompt"))
	require.Len(t, fake.lastInput, 1)
	require.Equal(t, "prompt", fake.lastInput[0].Content)
}

type fakeJournal struct {
	entries  []diary.Entry
	analysis string
}

func (f fakeJournal) Recent(limit int) []diary.Entry {
	if len(f.entries) > limit {
		return f.entries[:limit]
	}
	return f.entries
}

func (f fakeJournal) TherapyAnalysis() string { return f.analysis }

func fixedBuilder(journal JournalReader, share bool) *ContextBuilder {
	builder := NewContextBuilder(journal, helpline.NewMemoryStore(helpline.Seed()), share)
	builder.now = func() time.Time { return time.Date(2026, time.October, 10, 9, 0, 0, 0, time.UTC) }
	return builder
}

func TestSystemContextIncludesDate(t *testing.T) {
	got := fixedBuilder(nil, false).SystemContext(context.Background(), "hello")
	require.Contains(t, got, "Saturday, October 10, 2026")
	require.Contains(t, got, "not a licensed therapist")
}

func TestSystemContextSharesJournalOnlyWhenEnabled(t *testing.T) {
	journal := fakeJournal{
		entries:  []diary.Entry{{Content: "Went for a walk", CreatedAt: time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC)}},
		analysis: "You showed courage.",
	}

	shared := fixedBuilder(journal, true).SystemContext(context.Background(), "hi")
	require.Contains(t, shared, "Went for a walk")
	require.Contains(t, shared, "You showed courage.")

	private := fixedBuilder(journal, false).SystemContext(context.Background(), "hi")
	require.NotContains(t, private, "Went for a walk")
	require.NotContains(t, private, "You showed courage.")
}

func TestSystemContextPointsToHelplinesInCrisis(t *testing.T) {
	got := fixedBuilder(nil, false).SystemContext(context.Background(), "I want to die")
	require.Contains(t, got, "988")
	require.Contains(t, got, "741741")
}

func TestSystemContextAddsToneHint(t *testing.T) {
	got := fixedBuilder(nil, false).SystemContext(context.Background(), "I feel anxious")
	require.Contains(t, got, "anxious")
}
