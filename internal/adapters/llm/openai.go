// Package llm asks an OpenAI-compatible chat model for advice about the
// user's risk picture.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/zerodeadline/pkg/retry"
	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are ZeroDeadline, an assistant that helps people manage deadlines and stress."

// Asker sends one prompt and returns the model's text.
type Asker interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Config selects the endpoint and model.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAI implements Asker with the chat completions API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI returns a client for cfg. An empty API key returns
// ErrNotConfigured.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAI{client: openai.NewClientWithConfig(oc), model: cfg.Model}, nil
}

// Ask implements Asker. Client-side API errors other than rate limiting are
// marked permanent so they are not retried.
func (o *OpenAI) Ask(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		err = fmt.Errorf("chat completion: %w", err)
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 &&
			apiErr.HTTPStatusCode != http.StatusTooManyRequests {
			return "", retry.Permanent(err)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
