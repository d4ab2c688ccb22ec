package fields

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jpsoriano/permit-extractor/constants"
	"github.com/jpsoriano/permit-extractor/internal/record"
)

var (
	reYear     = regexp.MustCompile(`(19|20)\d{2}`)
	reNameLike = regexp.MustCompile(`[A-Za-z]\s+[A-Za-z]`)
)

// dateLayouts are tried in order when canonicalizing a date string. Separators
// are normalized to "-" first.
var dateLayouts = []string{
	"02-Jan-2006",
	"2-Jan-2006",
	"2006-01-02",
	"02-01-2006",
	"01-02-2006",
	"2-1-2006",
	"1-2-2006",
}

// StandardizeDate canonicalizes a date string to dd-MMM-yyyy. Placeholder
// values pass through unchanged; anything unparseable becomes "[unclear]".
func StandardizeDate(s string) string {
	if s == "" || s == constants.Missing || s == constants.Unclear || s == constants.None {
		return s
	}
	norm := strings.TrimSpace(s)
	norm = strings.ReplaceAll(norm, "/", "-")
	norm = strings.ReplaceAll(norm, ".", "-")
	for _, layout := range dateLayouts {
		if dt, err := time.Parse(layout, norm); err == nil {
			return dt.Format("02-Jan-2006")
		}
	}
	return constants.Unclear
}

// ExtractYear finds the first plausible 4-digit year in s.
func ExtractYear(s string) (int, bool) {
	m := reYear.FindString(s)
	if m == "" {
		return 0, false
	}
	var y int
	if _, err := fmt.Sscanf(m, "%d", &y); err != nil {
		return 0, false
	}
	return y, true
}

// GuaranteeValidity computes the exported validity date, always of the form
// 31-Dec-<year>. The year comes from the model's raw validity string if one is
// present, else from the issue date, else from now. The result is never the
// "[unclear]" sentinel even though the extraction model may produce it.
func GuaranteeValidity(issueDate, validityRaw string, now time.Time) string {
	if y, ok := ExtractYear(validityRaw); ok {
		return fmt.Sprintf("31-Dec-%d", y)
	}
	if y, ok := ExtractYear(issueDate); ok {
		return fmt.Sprintf("31-Dec-%d", y)
	}
	return fmt.Sprintf("31-Dec-%d", now.Year())
}

// DeriveOfficials parses the semicolon-joined officials string into ordered
// (name, title) pairs. Each segment is tried against "Name (Title)" and then
// "Name - Title"; a segment matching neither becomes a pair with an empty
// title. When the string yields nothing, a best-effort line-adjacency scan of
// the cleaned text runs instead: a name-like line immediately followed by a
// line containing a role keyword is taken as a pair.
func DeriveOfficials(legacy, cleanedText string) []record.Official {
	var pairs []record.Official
	for _, part := range strings.Split(legacy, ";") {
		p := strings.TrimSpace(part)
		if p == "" || strings.EqualFold(p, constants.None) || strings.EqualFold(p, "null") {
			continue
		}
		open := strings.Index(p, "(")
		closing := strings.Index(p, ")")
		switch {
		case open >= 0 && closing > open:
			pairs = append(pairs, record.Official{
				Name:  strings.TrimSpace(p[:open]),
				Title: strings.TrimSpace(p[open+1 : closing]),
			})
		case strings.Contains(p, " - "):
			name, title, _ := strings.Cut(p, " - ")
			pairs = append(pairs, record.Official{
				Name:  strings.TrimSpace(name),
				Title: strings.TrimSpace(title),
			})
		default:
			pairs = append(pairs, record.Official{Name: p})
		}
	}
	if len(pairs) > 0 || cleanedText == "" {
		return pairs
	}
	return scanLinePairs(cleanedText)
}

func scanLinePairs(cleanedText string) []record.Official {
	var lines []string
	for _, ln := range strings.Split(cleanedText, "\n") {
		if t := strings.TrimSpace(ln); t != "" {
			lines = append(lines, t)
		}
	}
	var pairs []record.Official
	for i := 0; i+1 < len(lines); i++ {
		if reNameLike.MatchString(lines[i]) && hasRoleHint(lines[i+1]) {
			pairs = append(pairs, record.Official{Name: lines[i], Title: lines[i+1]})
		}
	}
	return pairs
}

func hasRoleHint(line string) bool {
	lower := strings.ToLower(line)
	for _, hint := range constants.RoleHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// TitlesForExport builds the semicolon-joined titles column from the parsed
// officials. When the legacy officials string is "None"/"null"/empty
// (case-insensitive) the result is forced to "None" regardless of any parsed
// content; this is a business rule, not a fallback.
func TitlesForExport(legacy string, officials []record.Official) string {
	t := strings.ToLower(strings.TrimSpace(legacy))
	if t == "" || t == "none" || t == "null" {
		return constants.None
	}
	var titles []string
	for _, o := range officials {
		if title := strings.TrimSpace(o.Title); title != "" {
			titles = append(titles, title)
		}
	}
	return strings.Join(titles, "; ")
}

// Apply post-processes a freshly extracted record in place: canonical dates,
// the validity guarantee, the derived officials list and titles column.
func Apply(rec *record.PermitRecord, cleanedText string, now time.Time) {
	rec.IssueDate = StandardizeDate(rec.IssueDate)
	rec.ValidityDate = GuaranteeValidity(rec.IssueDate, rec.ValidityRaw, now)
	rec.Officials = DeriveOfficials(rec.OfficialNames, cleanedText)
	rec.OfficialTitles = TitlesForExport(rec.OfficialNames, rec.Officials)
}
