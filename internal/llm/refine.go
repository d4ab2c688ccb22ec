package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jpsoriano/permit-extractor/internal/common"
)

// RefineResult reports the cleaned text and whether the raw-text fallback was
// taken, so the degraded path stays observable instead of silently swallowed.
// Err carries the ErrRefinementFailure cause when the fallback was used.
type RefineResult struct {
	Text         string
	UsedFallback bool
	Err          error
}

// Refine asks the model to fix spacing and obvious OCR artifacts in the raw
// text, using the last processed page image as visual context. Any request
// failure falls back to the unmodified raw text; refinement is never fatal.
func (c *Client) Refine(ctx context.Context, rawText, imageDataURL string) RefineResult {
	rid := uuid.New().String()
	start := time.Now()

	userContent := []map[string]any{
		{"type": "text", "text": rawText},
	}
	if imageDataURL != "" {
		userContent = append(userContent, map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": imageDataURL},
		})
	}

	body := map[string]any{
		"messages": []map[string]any{
			{"role": "system", "content": refineSystemPrompt},
			{"role": "user", "content": userContent},
		},
		"max_tokens":  c.cfg.MaxRefineTokens,
		"temperature": c.cfg.Temperature,
	}

	c.logger.Info("llm.refine.start", "req_id", rid, "text_len", len(rawText), "has_image", imageDataURL != "")

	cleaned, err := c.chat(ctx, body)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", common.ErrRefinementFailure, err)
		c.logger.Warn("llm.refine.fallback",
			"req_id", rid, "error", wrapped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return RefineResult{Text: rawText, UsedFallback: true, Err: wrapped}
	}

	c.logger.Info("llm.refine.ok",
		"req_id", rid, "cleaned_len", len(cleaned),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return RefineResult{Text: cleaned}
}
