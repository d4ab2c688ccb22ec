package record

import (
	"strings"

	"github.com/jpsoriano/permit-extractor/constants"
)

func isPlaceholder(v any) bool {
	s, ok := v.(string)
	if !ok {
		return v == nil
	}
	return s == constants.Missing || s == constants.Unclear
}

// MergeRaw reconciles per-page raw extraction objects into one object. The
// first page seeds the result; later pages fill placeholders, and fields whose
// key contains "Name" accumulate distinct values joined with " / ". Page_Count
// is always overwritten with the true page count.
func MergeRaw(pages []map[string]any, pageCount int) map[string]any {
	if len(pages) == 0 {
		return nil
	}
	merged := make(map[string]any, len(pages[0]))
	for k, v := range pages[0] {
		merged[k] = v
	}
	merged[KeyPageCount] = pageCount

	for _, page := range pages[1:] {
		for key, value := range page {
			if key == KeyPageCount {
				continue
			}
			cur, exists := merged[key]
			if !exists || (isPlaceholder(cur) && !isPlaceholder(value)) {
				merged[key] = value
				continue
			}
			if cur != value && !isPlaceholder(value) {
				if strings.Contains(key, "Name") && !isPlaceholder(cur) {
					curS, okCur := cur.(string)
					valS, okVal := value.(string)
					if okCur && okVal {
						merged[key] = curS + " / " + valS
					}
				}
			}
		}
	}
	return merged
}
