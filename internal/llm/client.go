package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Config for the language-model client.
type Config struct {
	Endpoint         string        // full chat/completions URL
	APIKey           string        // sent as api-key header
	Model            string        // informational; the endpoint pins the deployment
	Temperature      float32       // 0 for deterministic runs
	Timeout          time.Duration // http client timeout
	MaxRefineTokens  int           // output cap for the refine call
	MaxExtractTokens int           // output cap for the extract call
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.MaxRefineTokens <= 0 {
		cfg.MaxRefineTokens = 4000
	}
	if cfg.MaxExtractTokens <= 0 {
		cfg.MaxExtractTokens = 8192
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// chat posts a chat/completions body and returns the first choice's content.
func (c *Client) chat(ctx context.Context, body map[string]any) (string, error) {
	headers := map[string]string{"api-key": c.cfg.APIKey}
	raw, _, err := SendJSON(ctx, c.http, c.cfg.Endpoint, body, headers, c.logger)
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}
