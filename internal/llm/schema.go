package llm

import (
	"encoding/json"
	"strings"

	"github.com/jpsoriano/permit-extractor/constants"
	"github.com/jpsoriano/permit-extractor/internal/record"
)

// BuildPermitJSONSchema returns the JSON-Schema (draft 2020-12 subset) for the
// raw extraction object as a generic map. Every field of the fixed set is
// required and must be a scalar: a model response with a missing field or a
// nested object/array/bool value is rejected here, before any cleanup runs.
// Extra keys are tolerated; sanitization drops them afterwards.
func BuildPermitJSONSchema() map[string]any {
	props := make(map[string]any, len(record.RawKeys))
	for _, k := range record.RawKeys {
		props[k] = map[string]any{"type": []string{"string", "null"}}
	}
	// the model is told to emit an integer-ish page count; tolerate both
	props[record.KeyPageCount] = map[string]any{"type": []string{"string", "integer", "number", "null"}}

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   append([]string(nil), record.RawKeys...),
	}
}

// SanitizeRecordJSON normalizes a schema-valid extraction object:
//   - unknown keys are dropped
//   - string values are trimmed
//   - null/empty values become the "None" literal
//   - numeric values outside Page_Count are stringified
func SanitizeRecordJSON(m map[string]any) map[string]any {
	out := make(map[string]any, len(record.RawKeys))
	for _, k := range record.RawKeys {
		v, ok := m[k]
		if !ok || v == nil {
			out[k] = constants.None
			continue
		}
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				out[k] = constants.None
			} else {
				out[k] = s
			}
		case float64, int:
			if k == record.KeyPageCount {
				out[k] = v
			} else {
				b, _ := json.Marshal(v)
				out[k] = string(b)
			}
		default:
			out[k] = constants.None
		}
	}
	return out
}
