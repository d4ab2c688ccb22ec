package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jpsoriano/permit-extractor/internal/common"
)

// Config for the recognition client.
type Config struct {
	Endpoint string        // full analyze URL of the OCR capability
	APIKey   string
	Timeout  time.Duration // http client timeout; default 60s
}

// Client sends page images to the external OCR capability and returns the
// recognized plain text.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
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

// analyzeResponse is the wire shape of the recognition service: recognized
// lines per page, in document order.
type analyzeResponse struct {
	Pages []struct {
		Lines []struct {
			Content string `json:"content"`
		} `json:"lines"`
	} `json:"pages"`
}

// RecognizePage runs OCR on one page image and returns the concatenated line
// text. Failures are wrapped as ErrRecognitionFailure for the caller to
// degrade on.
func (c *Client) RecognizePage(ctx context.Context, imagePath string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	dataURL, _, err := ReadAsDataURL(imagePath)
	if err != nil {
		return "", fmt.Errorf("%w: read page %s: %v", common.ErrRecognitionFailure, imagePath, err)
	}

	body, err := json.Marshal(map[string]any{"base64Source": dataURL})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", common.ErrRecognitionFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", common.ErrRecognitionFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)

	c.logger.Info("ocr.request", "req_id", rid, "page", imagePath, "bytes", len(body))

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("ocr.send_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: %v", common.ErrRecognitionFailure, err)
	}
	defer func(b io.ReadCloser) {
		if err := b.Close(); err != nil {
			c.logger.Warn("ocr.response_body_close_error", "req_id", rid, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		c.logger.Error("ocr.status_error", "req_id", rid, "status", resp.StatusCode,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: status %d", common.ErrRecognitionFailure, resp.StatusCode)
	}

	var ar analyzeResponse
	if err := json.Unmarshal(raw, &ar); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", common.ErrRecognitionFailure, err)
	}

	var parts []string
	for _, page := range ar.Pages {
		for _, line := range page.Lines {
			if line.Content != "" {
				parts = append(parts, line.Content)
			}
		}
	}
	text := strings.Join(parts, " ")

	c.logger.Info("ocr.ok", "req_id", rid, "chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}

// RecognizePages runs OCR over every page sequentially, in document order. A
// failed page is logged, reported as a warning, and contributes no text; there
// is no retry in this pass.
func (c *Client) RecognizePages(ctx context.Context, pagePaths []string) (texts []string, warnings []string) {
	for _, p := range pagePaths {
		text, err := c.RecognizePage(ctx, p)
		if err != nil {
			c.logger.Warn("ocr.page_failed", "page", p, "error", err)
			warnings = append(warnings, err.Error())
			continue
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	return texts, warnings
}
