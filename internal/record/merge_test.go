package record

import "testing"

func TestMergeRawFillsPlaceholders(t *testing.T) {
	pages := []map[string]any{
		{KeyIssueDate: "[unclear]", KeyBusinessName: "ACME Sari-Sari Store"},
		{KeyIssueDate: "15-Mar-2024", KeyBusinessName: "ACME Sari-Sari Store"},
	}
	merged := MergeRaw(pages, 2)
	if merged[KeyIssueDate] != "15-Mar-2024" {
		t.Errorf("Issue_Date = %v, want 15-Mar-2024", merged[KeyIssueDate])
	}
	if merged[KeyBusinessName] != "ACME Sari-Sari Store" {
		t.Errorf("Business_Name = %v", merged[KeyBusinessName])
	}
	if merged[KeyPageCount] != 2 {
		t.Errorf("Page_Count = %v, want 2", merged[KeyPageCount])
	}
}

func TestMergeRawMissingPlaceholder(t *testing.T) {
	pages := []map[string]any{
		{KeyPermitNumber: "missing"},
		{KeyPermitNumber: "2024-00123"},
	}
	merged := MergeRaw(pages, 2)
	if merged[KeyPermitNumber] != "2024-00123" {
		t.Errorf("Permit_Number = %v, want 2024-00123", merged[KeyPermitNumber])
	}
}

func TestMergeRawConcatenatesDifferingNames(t *testing.T) {
	pages := []map[string]any{
		{KeyOwnerName: "A"},
		{KeyOwnerName: "B"},
	}
	merged := MergeRaw(pages, 2)
	if merged[KeyOwnerName] != "A / B" {
		t.Errorf("Business_Owner_Name = %v, want A / B", merged[KeyOwnerName])
	}
}

func TestMergeRawNonNameKeysKeepFirst(t *testing.T) {
	pages := []map[string]any{
		{KeyBusinessAddress: "Poblacion, Taal"},
		{KeyBusinessAddress: "Barangay Uno, Taal"},
	}
	merged := MergeRaw(pages, 2)
	if merged[KeyBusinessAddress] != "Poblacion, Taal" {
		t.Errorf("Business_Address = %v, want first value kept", merged[KeyBusinessAddress])
	}
}

func TestMergeRawPlaceholderNeverOverwrites(t *testing.T) {
	pages := []map[string]any{
		{KeyMayorName: "Hon. Maria Santos"},
		{KeyMayorName: "[unclear]"},
	}
	merged := MergeRaw(pages, 2)
	if merged[KeyMayorName] != "Hon. Maria Santos" {
		t.Errorf("Mayor_Name = %v", merged[KeyMayorName])
	}
}

func TestMergeRawPageCountOverwritten(t *testing.T) {
	pages := []map[string]any{
		{KeyPageCount: "1"},
		{KeyPageCount: "1"},
	}
	merged := MergeRaw(pages, 3)
	if merged[KeyPageCount] != 3 {
		t.Errorf("Page_Count = %v, want 3", merged[KeyPageCount])
	}
}

func TestMergeRawEmpty(t *testing.T) {
	if merged := MergeRaw(nil, 0); merged != nil {
		t.Errorf("expected nil, got %v", merged)
	}
}

func TestFromRawDefaults(t *testing.T) {
	rec := FromRaw(map[string]any{
		KeyBusinessName: "ACME Store",
		KeyPageCount:    float64(2),
		KeyOwnerName:    nil,
	})
	if rec.BusinessName != "ACME Store" {
		t.Errorf("BusinessName = %q", rec.BusinessName)
	}
	if rec.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", rec.PageCount)
	}
	if rec.OwnerName != "None" {
		t.Errorf("OwnerName = %q, want None", rec.OwnerName)
	}
	if rec.DocumentType != "Philippine Business Permit" {
		t.Errorf("DocumentType = %q", rec.DocumentType)
	}
}

func TestEmptyHasNoOmissions(t *testing.T) {
	rec := Empty()
	for name, v := range map[string]string{
		"BusinessName":   rec.BusinessName,
		"OwnerName":      rec.OwnerName,
		"MayorName":      rec.MayorName,
		"OfficialNames":  rec.OfficialNames,
		"OfficialTitles": rec.OfficialTitles,
		"PermitNumber":   rec.PermitNumber,
		"IssueDate":      rec.IssueDate,
		"ValidityDate":   rec.ValidityDate,
		"BusinessType":   rec.BusinessType,
	} {
		if v != "None" {
			t.Errorf("%s = %q, want None", name, v)
		}
	}
}
