package constants

// Placeholder literals used in extracted records. A field is always present;
// absent data carries None, ambiguous dates carry Unclear.
const (
	None    = "None"
	Unclear = "[unclear]"
	Missing = "missing"
)

// DefaultDocumentType is what the extraction schema names these documents.
const DefaultDocumentType = "Philippine Business Permit"

// RoleHints are keywords that mark a line as an official's title when it
// directly follows a name-like line in cleaned permit text.
var RoleHints = []string{
	"officer", "treasurer", "licensing", "assessor", "clerk", "mayor",
	"head", "chief", "engineer", "inspector", "secretary", "administrator",
	"department", "director", "superintendent", "auditor", "witness", "atty", "engr",
}

// MunicipalityTemplates enumerates the known municipal/city permit templates.
var MunicipalityTemplates = []string{
	"Manila City", "Quezon City", "Makati City", "Cebu City", "Davao City",
	"Pasig City", "Taguig City", "Antipolo City", "Dasmariñas City", "Biñan City",
	"Imus City", "Cainta", "Las Piñas City", "Parañaque City", "Muntinlupa City",
	"Caloocan City", "Marikina City", "Pasay City", "Valenzuela City",
	"Malabon City", "Navotas City", "San Juan City", "Mandaluyong City",
	"Other Municipal Template", "Unknown Template",
}
