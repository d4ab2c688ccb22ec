package llm

import (
	"strings"

	"github.com/jpsoriano/permit-extractor/constants"
	"github.com/jpsoriano/permit-extractor/internal/record"
)

const refineSystemPrompt = `You are an expert OCR text cleaner specializing in Philippine business permits. Your task is to clean and format the raw OCR text to make it more readable and easier to parse for name extraction and differentiation.

Fix spacing and line breaks, correct obvious OCR errors, preserve structure, and do not add information. Output plain text only.`

const extractUserInstruction = "Extract and structure the information from the following Philippine business permit text. " +
	"Provide your response in JSON format wrapped within ```json and ``` inside <initial_attempt> tags."

// buildExtractSystemPrompt composes the fixed field-set instruction, including
// the template enumeration and the strict date policy: a date is extracted only
// when day, month, and year are all explicitly present, otherwise "[unclear]",
// never computed or inferred.
func buildExtractSystemPrompt() string {
	templates := strings.Join(constants.MunicipalityTemplates, "|")

	parts := []string{
		"You are an AI assistant specialized in extracting and differentiating names from Philippine business permits.",
		"Extract ONLY the specified fields, in strict JSON format, with no deviations.",
		"Missing fields must be explicitly labeled as \"None\". If data is visible but unclear, use \"[unclear]\".",
		"Multi-page documents must be combined into a single structured JSON object.",
		"No assumptions or inferences: only extract what is explicitly visible.",
		"Preserve exact spelling of Filipino names and business names, and include professional titles (Atty., Engr., Dr., etc.) with names when present.",
		"Business_Owner_Name is the individual owner OR the corporate entity; Mayor_Name is the municipal mayor; Business_Name is the registered establishment name.",
		"Other_Official_Names lists government officials with titles, semicolon-separated, e.g. \"Atty. Roberto Martinez (City Treasurer); Engr. Ana Reyes (Business Permit Officer)\".",
		"Identify Municipality_Template as one of: " + templates + ".",
		"",
		"Produce a single JSON object containing exactly the following fields: " + strings.Join(record.RawKeys, ", ") + ".",
		"",
		"DATE EXTRACTION RULES, strict compliance required, for Issue_Date and Business_Permit_Validity:",
		"ALL dates must be in dd-mmm-yyyy format (e.g., 15-Mar-2024, 01-Jan-2025).",
		"ONLY extract a date when the full day number, full month, and 4-digit year are all explicitly visible.",
		"If ANY component is missing, unclear, or requires inference, return \"[unclear]\".",
		"DO NOT calculate quarter end dates, infer missing day/month values, or convert \"end of quarter\" to specific dates.",
		"Examples: \"December 31, 2018\" -> \"31-Dec-2018\"; \"Q3 2018\" -> \"[unclear]\"; \"December 2018\" -> \"[unclear]\"; \"2018\" -> \"[unclear]\".",
		"When in doubt, use \"[unclear]\". Never guess or calculate dates.",
		"",
		"Make an initial attempt at the task and present it in <initial_attempt> tags, " +
			"with the JSON object wrapped in ```json and ```. Then present your final JSON answer in <answer> tags.",
	}
	return strings.Join(parts, "\n")
}
