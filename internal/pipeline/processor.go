package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jpsoriano/permit-extractor/internal/fields"
	"github.com/jpsoriano/permit-extractor/internal/llm"
	"github.com/jpsoriano/permit-extractor/internal/ocr"
	"github.com/jpsoriano/permit-extractor/internal/record"
)

// PageNormalizer prepares a document into ordered normalized page images.
type PageNormalizer interface {
	Prepare(ctx context.Context, path string) ([]string, error)
}

// Recognizer extracts the plain text of each page image, in document order,
// reporting failed pages as warnings rather than errors.
type Recognizer interface {
	RecognizePages(ctx context.Context, pagePaths []string) (texts []string, warnings []string)
}

// Refiner cleans raw OCR text, falling back to the input on failure.
type Refiner interface {
	Refine(ctx context.Context, rawText, imageDataURL string) llm.RefineResult
}

// Extractor turns cleaned text into the raw structured field map.
type Extractor interface {
	Extract(ctx context.Context, cleanedText string) (map[string]any, error)
}

// Processor runs one document through the full pipeline: normalize pages,
// recognize each page, refine, extract, normalize fields. Stages within a
// document are strictly sequential.
type Processor struct {
	Logger     *slog.Logger
	Pages      PageNormalizer
	OCR        Recognizer
	Refiner    Refiner
	Extractor  Extractor
	CleanedDir string

	// ExtractPerPage enables the legacy per-page extraction flow, where each
	// page is extracted independently and the records merged afterwards.
	ExtractPerPage bool

	// Now is stubbed in tests; defaults to time.Now.
	Now func() time.Time
}

func NewProcessor(logger *slog.Logger, pages PageNormalizer, rec Recognizer, ref Refiner, ext Extractor, cleanedDir string) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cleanedDir == "" {
		cleanedDir = "cleaned_text"
	}
	return &Processor{
		Logger:     logger,
		Pages:      pages,
		OCR:        rec,
		Refiner:    ref,
		Extractor:  ext,
		CleanedDir: cleanedDir,
		Now:        time.Now,
	}
}

// Process runs the pipeline for one document and returns its reconciled
// record. Only an unreadable source is fatal; every later stage degrades into
// a partial or empty record.
func (p *Processor) Process(ctx context.Context, path string) (*record.PermitRecord, error) {
	start := time.Now()
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	pagePaths, err := p.Pages.Prepare(ctx, path)
	if err != nil {
		p.Logger.Error("pipeline.prepare.failed", "path", path, "error", err)
		return nil, err
	}

	pageTexts, warnings := p.OCR.RecognizePages(ctx, pagePaths)
	if len(warnings) > 0 {
		p.Logger.Warn("pipeline.ocr.pages_degraded", "path", path, "failed_pages", len(warnings))
	}
	rawText := strings.Join(pageTexts, "\n")

	// Last processed page doubles as visual context for the refiner.
	var lastImageURL string
	if len(pagePaths) > 0 {
		if u, _, err := ocr.ReadAsDataURL(pagePaths[len(pagePaths)-1]); err == nil {
			lastImageURL = u
		}
	}

	ref := p.Refiner.Refine(ctx, rawText, lastImageURL)
	cleaned := ref.Text
	if ref.UsedFallback {
		p.Logger.Warn("pipeline.refine.degraded", "path", path, "error", ref.Err)
	}

	if err := p.writeCleanedText(base, cleaned); err != nil {
		p.Logger.Warn("pipeline.cleaned_text.write_failed", "path", path, "error", err)
	}

	var rec *record.PermitRecord
	if p.ExtractPerPage {
		rec = p.extractPerPage(ctx, path, pageTexts, len(pagePaths))
	} else {
		m, err := p.Extractor.Extract(ctx, cleaned)
		if err != nil {
			p.Logger.Warn("pipeline.extract.empty_record", "path", path, "error", err)
			rec = record.Empty()
		} else {
			rec = record.FromRaw(m)
		}
	}

	rec.FileName = filepath.Base(path)
	rec.PageCount = len(pagePaths)
	rec.RawText = rawText
	rec.CleanedText = cleaned
	fields.Apply(rec, cleaned, p.Now())

	p.Logger.Info("pipeline.document.ok",
		"path", path,
		"pages", len(pagePaths),
		"used_refine_fallback", ref.UsedFallback,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}

// extractPerPage extracts each page's text independently and reconciles the
// per-page records into one.
func (p *Processor) extractPerPage(ctx context.Context, path string, pageTexts []string, pageCount int) *record.PermitRecord {
	var raws []map[string]any
	for i, text := range pageTexts {
		m, err := p.Extractor.Extract(ctx, text)
		if err != nil {
			p.Logger.Warn("pipeline.extract.page_degraded", "path", path, "page", i+1, "error", err)
			continue
		}
		raws = append(raws, m)
	}
	merged := record.MergeRaw(raws, pageCount)
	if merged == nil {
		return record.Empty()
	}
	return record.FromRaw(merged)
}

func (p *Processor) writeCleanedText(base, cleaned string) error {
	if err := os.MkdirAll(p.CleanedDir, 0o755); err != nil {
		return fmt.Errorf("create cleaned-text dir: %w", err)
	}
	out := filepath.Join(p.CleanedDir, base+".txt")
	return os.WriteFile(out, []byte(cleaned), 0o644)
}
