package fields

import (
	"regexp"
	"testing"
	"time"

	"github.com/jpsoriano/permit-extractor/internal/record"
)

func TestStandardizeDate(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"15-Mar-2024", "15-Mar-2024"},
		{"5-Mar-2024", "05-Mar-2024"},
		{"2024-03-15", "15-Mar-2024"},
		{"15/03/2024", "15-Mar-2024"},
		{"15.03.2024", "15-Mar-2024"},
		{"[unclear]", "[unclear]"},
		{"missing", "missing"},
		{"None", "None"},
		{"", ""},
		{"sometime in spring", "[unclear]"},
		{"end of quarter", "[unclear]"},
	}
	for _, c := range cases {
		if got := StandardizeDate(c.in); got != c.want {
			t.Errorf("StandardizeDate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestExtractYear(t *testing.T) {
	if y, ok := ExtractYear("valid until December 2025"); !ok || y != 2025 {
		t.Errorf("got (%d, %v), want (2025, true)", y, ok)
	}
	if y, ok := ExtractYear("issued 03-Jan-1999"); !ok || y != 1999 {
		t.Errorf("got (%d, %v), want (1999, true)", y, ok)
	}
	if _, ok := ExtractYear("no year here 123"); ok {
		t.Error("expected no year in noise string")
	}
}

func TestGuaranteeValidityAlwaysDec31(t *testing.T) {
	now := time.Date(2026, time.August, 27, 0, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^31-Dec-\d{4}$`)

	cases := []struct {
		issue, validity, want string
	}{
		{"15-Mar-2024", "valid until 2025", "31-Dec-2025"},
		{"15-Mar-2024", "[unclear]", "31-Dec-2024"},
		{"[unclear]", "[unclear]", "31-Dec-2026"},
		{"None", "None", "31-Dec-2026"},
		{"", "", "31-Dec-2026"},
	}
	for _, c := range cases {
		got := GuaranteeValidity(c.issue, c.validity, now)
		if got != c.want {
			t.Errorf("GuaranteeValidity(%q, %q) = %q, want %q", c.issue, c.validity, got, c.want)
		}
		if !pattern.MatchString(got) {
			t.Errorf("validity %q does not match 31-Dec-YYYY", got)
		}
		if got == "[unclear]" {
			t.Error("validity must never be the [unclear] sentinel")
		}
	}
}

func TestDeriveOfficialsParenPattern(t *testing.T) {
	got := DeriveOfficials("Juan Dela Cruz (Municipal Treasurer); Maria Santos (Licensing Officer)", "")
	want := []record.Official{
		{Name: "Juan Dela Cruz", Title: "Municipal Treasurer"},
		{Name: "Maria Santos", Title: "Licensing Officer"},
	}
	assertOfficials(t, got, want)
}

func TestDeriveOfficialsDashPattern(t *testing.T) {
	got := DeriveOfficials("Juan Dela Cruz - Municipal Treasurer; Maria Santos - Licensing Officer", "")
	want := []record.Official{
		{Name: "Juan Dela Cruz", Title: "Municipal Treasurer"},
		{Name: "Maria Santos", Title: "Licensing Officer"},
	}
	assertOfficials(t, got, want)
}

func TestDeriveOfficialsBareName(t *testing.T) {
	got := DeriveOfficials("Juan Dela Cruz", "")
	want := []record.Official{{Name: "Juan Dela Cruz"}}
	assertOfficials(t, got, want)
}

func TestDeriveOfficialsSkipsPlaceholders(t *testing.T) {
	for _, legacy := range []string{"None", "null", "", " ; ; "} {
		if got := DeriveOfficials(legacy, ""); len(got) != 0 {
			t.Errorf("DeriveOfficials(%q) = %v, want empty", legacy, got)
		}
	}
}

func TestDeriveOfficialsLineAdjacencyFallback(t *testing.T) {
	cleaned := "PERMIT NO 123\nJuan Dela Cruz\nMunicipal Treasurer\nsome other line\n"
	got := DeriveOfficials("None", cleaned)
	want := []record.Official{{Name: "Juan Dela Cruz", Title: "Municipal Treasurer"}}
	assertOfficials(t, got, want)
}

func TestTitlesForExportForcedNone(t *testing.T) {
	officials := []record.Official{{Name: "Juan Dela Cruz", Title: "Treasurer"}}
	for _, legacy := range []string{"None", "none", "NULL", "null", "", "  "} {
		if got := TitlesForExport(legacy, officials); got != "None" {
			t.Errorf("TitlesForExport(%q) = %q, want None", legacy, got)
		}
	}
}

func TestTitlesForExportJoined(t *testing.T) {
	officials := []record.Official{
		{Name: "A B", Title: "Treasurer"},
		{Name: "C D", Title: ""},
		{Name: "E F", Title: "Licensing Officer"},
	}
	got := TitlesForExport("A B (Treasurer); C D; E F (Licensing Officer)", officials)
	if got != "Treasurer; Licensing Officer" {
		t.Errorf("got %q, want %q", got, "Treasurer; Licensing Officer")
	}
}

func TestApply(t *testing.T) {
	rec := record.Empty()
	rec.IssueDate = "2024-03-15"
	rec.ValidityRaw = "[unclear]"
	rec.OfficialNames = "Juan Dela Cruz (Treasurer)"
	now := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)

	Apply(rec, "", now)

	if rec.IssueDate != "15-Mar-2024" {
		t.Errorf("IssueDate = %q", rec.IssueDate)
	}
	if rec.ValidityDate != "31-Dec-2024" {
		t.Errorf("ValidityDate = %q", rec.ValidityDate)
	}
	if rec.OfficialTitles != "Treasurer" {
		t.Errorf("OfficialTitles = %q", rec.OfficialTitles)
	}
	if len(rec.Officials) != 1 || rec.Officials[0].Name != "Juan Dela Cruz" {
		t.Errorf("Officials = %v", rec.Officials)
	}
}

func assertOfficials(t *testing.T, got, want []record.Official) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d officials %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("official[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
