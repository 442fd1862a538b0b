// Package llm wraps the language model used to answer queries.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Completer produces an answer for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// DefaultModel is used when no chat model is configured.
const DefaultModel = "gpt-4o-mini"

const systemPrompt = "You are a helpful assistant."

// OpenAICompleter answers through an OpenAI-compatible chat completion API.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter creates a completer. baseURL may be empty.
func NewOpenAICompleter(baseURL, apiKey, model string) *OpenAICompleter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = DefaultModel
		slog.Warn("chat model not set, using default", "model", model)
	}
	return &OpenAICompleter{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAICompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	slog.Debug("requesting completion", "model", o.model, "prompt_len", len(prompt))
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if maxTokens > 0 {
		req.MaxCompletionTokens = maxTokens
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	slog.Debug("completion received", "finish_reason", resp.Choices[0].FinishReason)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
