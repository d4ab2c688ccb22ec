package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jpsoriano/permit-extractor/internal/common"
)

var reInitialAttempt = regexp.MustCompile("(?s)<initial_attempt>\\s*```json(.*?)```\\s*</initial_attempt>")

// Extract sends the cleaned text for the whole document and parses the
// model's delimited JSON block into a raw field map. A nil map with an error
// means the document produced no structured data; callers record an empty
// record rather than aborting.
func (c *Client) Extract(ctx context.Context, cleanedText string) (map[string]any, error) {
	rid := uuid.New().String()
	start := time.Now()

	body := map[string]any{
		"messages": []map[string]any{
			{"role": "system", "content": buildExtractSystemPrompt()},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": extractUserInstruction},
				{"type": "text", "text": cleanedText},
			}},
		},
		"max_tokens":  c.cfg.MaxExtractTokens,
		"temperature": c.cfg.Temperature,
	}

	c.logger.Info("llm.extract.start", "req_id", rid, "text_len", len(cleanedText))

	content, err := c.chat(ctx, body)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("%w: request: %v", common.ErrExtractionParse, err)
	}

	m, err := ParseStructuredResponse(content)
	if err != nil {
		c.logger.Error("llm.extract.parse_failed",
			"req_id", rid, "error", err, "content", truncateStr(content, 2048),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	// schema check runs on the raw object, before cleanup, so a structurally
	// broken response is rejected instead of coerced into a valid-looking one
	if err := validateRecordJSON(m); err != nil {
		c.logger.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("%w: schema: %v", common.ErrExtractionParse, err)
	}
	m = SanitizeRecordJSON(m)

	c.logger.Info("llm.extract.ok", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
	return m, nil
}

// ParseStructuredResponse accepts a response that is already a bare JSON
// object, or a textual response carrying the <initial_attempt>-delimited
// ```json block. Anything else is an ErrExtractionParse.
func ParseStructuredResponse(content string) (map[string]any, error) {
	trimmed := strings.TrimSpace(content)

	if strings.HasPrefix(trimmed, "{") {
		var m map[string]any
		if err := json.Unmarshal([]byte(trimmed), &m); err == nil {
			return m, nil
		}
		// fall through: a brace-led narrative may still carry the block
	}

	match := reInitialAttempt.FindStringSubmatch(trimmed)
	if match == nil {
		return nil, fmt.Errorf("%w: no JSON found in <initial_attempt> tags", common.ErrExtractionParse)
	}
	blob := strings.TrimSpace(match[1])
	var m map[string]any
	if err := json.Unmarshal([]byte(blob), &m); err != nil {
		return nil, fmt.Errorf("%w: decode delimited block: %v", common.ErrExtractionParse, err)
	}
	return m, nil
}

func truncateStr(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
