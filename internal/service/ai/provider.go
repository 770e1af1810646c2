package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/aura/backend/internal/config"
	"github.com/zhouzirui/aura/backend/internal/model/chat"
)

const (
	// NotConfiguredText is returned by every call while no credentials are configured.
	NotConfiguredText = "AI service is not configured. An API key is required to use this feature."
	// CompletionFallbackText is returned by CompleteOnce when the upstream call fails.
	CompletionFallbackText = "Sorry, I couldn't process that request right now."
)

// Provider exposes the Ark chat model through a streaming and a single-shot contract.
// A Provider without a chat model runs in degraded mode and never touches the network.
type Provider struct {
	chatModel    model.ChatModel
	chain        compose.Runnable[map[string]any, *schema.Message]
	historyLimit int
}

// Option customises a Provider.
type Option func(*Provider)

// WithHistoryLimit keeps only the most recent turns when framing history. Zero keeps everything.
func WithHistoryLimit(limit int) Option {
	return func(p *Provider) {
		if limit > 0 {
			p.historyLimit = limit
		}
	}
}

// NewProvider builds a provider from configuration, falling back to degraded mode
// when no credentials are present.
func NewProvider(ctx context.Context, cfg config.AIConfig, opts ...Option) (*Provider, error) {
	if !cfg.Enabled() {
		p := &Provider{}
		for _, opt := range opts {
			opt(p)
		}
		return p, nil
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return NewProviderWithModel(ctx, chatModel, opts...)
}

// NewProviderWithModel wires an existing chat model into the completion chain.
func NewProviderWithModel(ctx context.Context, chatModel model.ChatModel, opts ...Option) (*Provider, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile completion chain: %w", err)
	}

	p := &Provider{
		chatModel: chatModel,
		chain:     runnable,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Configured reports whether the provider talks to a real model.
func (p *Provider) Configured() bool {
	return p != nil && p.chain != nil
}

// StreamCompletion streams the reply to input given the prior history and system context.
// The returned reader must be closed by the caller.
func (p *Provider) StreamCompletion(ctx context.Context, history []chat.Turn, input, systemContext string) (*schema.StreamReader[*schema.Message], error) {
	if !p.Configured() {
		return schema.StreamReaderFromArray([]*schema.Message{
			schema.AssistantMessage(NotConfiguredText, nil),
		}), nil
	}

	stream, err := p.chain.Stream(ctx, map[string]any{
		"system":  systemContext,
		"history": p.buildHistoryMessages(history),
		"query":   input,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to stream completion: %w", err)
	}

	return stream, nil
}

// CompleteOnce runs a single-shot prompt. It never fails: upstream errors map to a fixed text.
func (p *Provider) CompleteOnce(ctx context.Context, prompt string) string {
	if !p.Configured() {
		return NotConfiguredText
	}

	response, err := p.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		log.Printf("[ai] single-shot completion failed: %v", err)
		return CompletionFallbackText
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		log.Printf("[ai] single-shot completion returned empty content")
		return CompletionFallbackText
	}

	return response.Content
}

func (p *Provider) buildHistoryMessages(turns []chat.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	startIdx := 0
	if p.historyLimit > 0 && len(turns) > p.historyLimit {
		startIdx = len(turns) - p.historyLimit
	}

	history := make([]*schema.Message, 0, len(turns)-startIdx)
	for _, turn := range turns[startIdx:] {
		switch turn.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(turn.Text))
		case chat.RoleModel:
			history = append(history, schema.AssistantMessage(turn.Text, nil))
		}
	}

	return history
}
