package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jpsoriano/permit-extractor/internal/record"
)

const sheetName = "extracted"

// Columns is the fixed export schema, one row per document. Order is part of
// the contract and must not change.
var Columns = []string{
	"Document_Type",
	"Page_Count",
	"Name_of_file",
	"Business_Name_Establishment",
	"Business_Owner",
	"Business_Address",
	"Mayor_Name",
	"Other_Official_Names",
	"Other_Official_Titles",
	"Municipality_City_Template",
	"Permit_Number",
	"Issue_Date",
	"Validity_Date",
	"Nature_of_Business",
	"raw_text",
	"cleaned_text",
}

// Service writes extracted permit records to an xlsx workbook.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Row flattens one record into the fixed column order.
func Row(rec *record.PermitRecord) []string {
	template := rec.MunicipalityTemplate
	if template == "" || template == "None" {
		template = rec.MunicipalityCity
	}
	return []string{
		rec.DocumentType,
		strconv.Itoa(rec.PageCount),
		rec.FileName,
		rec.BusinessName,
		rec.OwnerName,
		rec.BusinessAddress,
		rec.MayorName,
		rec.OfficialNames,
		rec.OfficialTitles,
		template,
		rec.PermitNumber,
		rec.IssueDate,
		rec.ValidityDate,
		rec.BusinessType,
		rec.RawText,
		rec.CleanedText,
	}
}

// WriteWorkbook writes one row per record to path, creating parent
// directories as needed. Nil records are skipped, so callers can pass cache
// snapshots that still contain failed documents.
func (s *Service) WriteWorkbook(records []*record.PermitRecord, path string) error {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	written := 0
	for _, rec := range records {
		if rec == nil {
			continue
		}
		row := Row(rec)
		cell, err := excelize.CoordinatesToCellName(1, written+2)
		if err != nil {
			return fmt.Errorf("row coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", written+2, err)
		}
		written++
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	s.logger.Info("export.workbook.ok",
		"path", path,
		"rows", written,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// WriteSingle exports one document's record to its own workbook.
func (s *Service) WriteSingle(rec *record.PermitRecord, path string) error {
	return s.WriteWorkbook([]*record.PermitRecord{rec}, path)
}

// ReadWorkbook reads back the header and data rows from an exported workbook.
// Rows shorter than the column set are padded with empty strings so every
// returned row has exactly len(Columns) cells.
func ReadWorkbook(path string) (header []string, rows [][]string, err error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	all, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	header = padRow(all[0])
	for _, r := range all[1:] {
		rows = append(rows, padRow(r))
	}
	return header, rows, nil
}

func padRow(r []string) []string {
	out := make([]string, len(Columns))
	copy(out, r)
	return out
}
