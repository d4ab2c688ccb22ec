package record

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jpsoriano/permit-extractor/constants"
)

// Official is one (name, title) pair for a secondary government official.
type Official struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// PermitRecord is the reconciled structured result for one document. Every
// field is always present; absent data is the literal "None", never an empty
// omission. Ambiguous dates carry "[unclear]" until normalization.
type PermitRecord struct {
	DocumentType         string     `json:"document_type"`
	PageCount            int        `json:"page_count"`
	FileName             string     `json:"name_of_file"`
	BusinessName         string     `json:"business_name"`
	OwnerName            string     `json:"business_owner_name"`
	BusinessAddress      string     `json:"business_address"`
	MayorName            string     `json:"mayor_name"`
	Officials            []Official `json:"other_officials"`
	OfficialNames        string     `json:"other_official_names"`
	OfficialTitles       string     `json:"other_official_titles"`
	MunicipalityTemplate string     `json:"municipality_template"`
	MunicipalityCity     string     `json:"municipality_city"`
	PermitNumber         string     `json:"permit_number"`
	IssueDate            string     `json:"issue_date"`
	ValidityRaw          string     `json:"business_permit_validity"`
	ValidityDate         string     `json:"validity_date"`
	BusinessType         string     `json:"business_type"`
	RawText              string     `json:"raw_text"`
	CleanedText          string     `json:"cleaned_text"`
}

// Raw JSON keys emitted by the extraction model.
const (
	KeyMunicipalityTemplate = "Municipality_Template"
	KeyDocumentType         = "Document_Type"
	KeyPageCount            = "Page_Count"
	KeyMunicipalityCity     = "Municipality_City"
	KeyOwnerName            = "Business_Owner_Name"
	KeyMayorName            = "Mayor_Name"
	KeyBusinessName         = "Business_Name"
	KeyBusinessAddress      = "Business_Address"
	KeyOfficialNames        = "Other_Official_Names"
	KeyPermitNumber         = "Permit_Number"
	KeyIssueDate            = "Issue_Date"
	KeyValidity             = "Business_Permit_Validity"
	KeyBusinessType         = "Business_Type"
)

// RawKeys is the fixed field set of the extraction schema, in schema order.
var RawKeys = []string{
	KeyMunicipalityTemplate,
	KeyDocumentType,
	KeyPageCount,
	KeyMunicipalityCity,
	KeyOwnerName,
	KeyMayorName,
	KeyBusinessName,
	KeyBusinessAddress,
	KeyOfficialNames,
	KeyPermitNumber,
	KeyIssueDate,
	KeyValidity,
	KeyBusinessType,
}

// Empty returns a record with every field defaulted.
func Empty() *PermitRecord {
	return &PermitRecord{
		DocumentType:         constants.DefaultDocumentType,
		BusinessName:         constants.None,
		OwnerName:            constants.None,
		BusinessAddress:      constants.None,
		MayorName:            constants.None,
		OfficialNames:        constants.None,
		OfficialTitles:       constants.None,
		MunicipalityTemplate: constants.None,
		MunicipalityCity:     constants.None,
		PermitNumber:         constants.None,
		IssueDate:            constants.None,
		ValidityRaw:          constants.None,
		ValidityDate:         constants.None,
		BusinessType:         constants.None,
		RawText:              "",
		CleanedText:          "",
	}
}

// FromRaw builds a typed record from the model's raw JSON object, validating
// and defaulting every field immediately rather than accessing the map ad hoc
// later. A nil map yields Empty().
func FromRaw(m map[string]any) *PermitRecord {
	rec := Empty()
	if m == nil {
		return rec
	}
	rec.MunicipalityTemplate = stringField(m, KeyMunicipalityTemplate)
	rec.DocumentType = stringFieldDefault(m, KeyDocumentType, constants.DefaultDocumentType)
	rec.PageCount = intField(m, KeyPageCount)
	rec.MunicipalityCity = stringField(m, KeyMunicipalityCity)
	rec.OwnerName = stringField(m, KeyOwnerName)
	rec.MayorName = stringField(m, KeyMayorName)
	rec.BusinessName = stringField(m, KeyBusinessName)
	rec.BusinessAddress = stringField(m, KeyBusinessAddress)
	rec.OfficialNames = stringField(m, KeyOfficialNames)
	rec.PermitNumber = stringField(m, KeyPermitNumber)
	rec.IssueDate = stringField(m, KeyIssueDate)
	rec.ValidityRaw = stringField(m, KeyValidity)
	rec.BusinessType = stringField(m, KeyBusinessType)
	return rec
}

func stringField(m map[string]any, key string) string {
	return stringFieldDefault(m, key, constants.None)
}

func stringFieldDefault(m map[string]any, key, def string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def
		}
		return s
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func intField(m map[string]any, key string) int {
	v, ok := m[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return 0
}
