// Package openai implements llm.Client on top of the OpenAI chat completion
// API. Any server that speaks that API (Ollama, LM Studio, vLLM) works by
// setting Config.BaseURL.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/sakif/code-review-assistant/internal/llm"
)

// compile-time check that *Client implements llm.Client
var _ llm.Client = (*Client)(nil)

// Client calls a chat completion endpoint once per Generate.
type Client struct {
	client *goopenai.Client
	config Config
	logger *slog.Logger
}

// New creates a Client. Model must be set; APIKey may be empty for local
// servers that ignore it.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Model == "" {
		return nil, errors.New("openai: model must not be empty")
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger.Info("initializing model client",
		slog.String("model", cfg.Model),
		slog.String("baseURL", clientCfg.BaseURL),
	)

	return &Client{
		client: goopenai.NewClientWithConfig(clientCfg),
		config: cfg,
		logger: logger,
	}, nil
}

// Generate sends prompt as the user message and returns the first choice.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if c.config.SystemPrompt != "" {
		req.Messages = append([]goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: c.config.SystemPrompt},
		}, req.Messages...)
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: response has no choices")
	}

	c.logger.Debug("model responded",
		slog.String("model", resp.Model),
		slog.String("finishReason", string(resp.Choices[0].FinishReason)),
		slog.Int("totalTokens", resp.Usage.TotalTokens),
	)

	return resp.Choices[0].Message.Content, nil
}
