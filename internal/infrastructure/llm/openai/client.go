package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/finassist/qa-engine/internal/core/ports"
)

const systemPrompt = "You are a helpful assistant inside a personal-finance app. " +
	"Answer the user's question briefly and accurately. If the question is not " +
	"about personal finance or the app, say you can only help with those topics."

type Options struct {
	BaseURL        string
	Model          string
	RequestTimeout time.Duration
	RatePerMinute  int
}

// Client is the paid generative fallback. Calls are paced by a local rate
// limiter and bounded by the request timeout on top of the caller's context.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
}

func New(apiKey string, opts Options) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	model := opts.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	perMinute := opts.RatePerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

func (c *Client) Complete(ctx context.Context, prompt string) (*ports.Completion, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("completion rate limit: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, translateError("completion", err)
	}
	if len(resp.Choices) == 0 {
		return nil, emptyCompletionError("completion")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, emptyCompletionError("completion")
	}

	return &ports.Completion{
		Text:         text,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}
