package imaging

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jpsoriano/permit-extractor/constants"
	"github.com/jpsoriano/permit-extractor/internal/common"
)

type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // rasterization DPI for PDFs, default 300
	PagesDir string // where normalized page images land
	MaxDim   int    // longest page side in pixels; 0 = no cap
}

// Normalizer rasterizes documents into per-page images and applies the
// cleanup filter that maximizes OCR accuracy.
type Normalizer struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewNormalizer(cfg Config, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.PagesDir == "" {
		cfg.PagesDir = "output/pdf_images"
	}
	return &Normalizer{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Prepare turns a source document into an ordered sequence of normalized page
// images under PagesDir, named <basename>_page_<n>.png with n starting at 1.
// A source that cannot be opened or rasterized fails the whole document with
// ErrDocumentUnreadable.
func (n *Normalizer) Prepare(ctx context.Context, path string) ([]string, error) {
	start := time.Now()
	base := baseName(path)

	var raw []image.Image
	var err error
	switch constants.MapExtToFormat(filepath.Ext(path)) {
	case constants.PDF:
		raw, err = n.rasterizePDF(ctx, path)
	case constants.IMAGE:
		raw, err = n.loadImage(path)
	default:
		return nil, fmt.Errorf("%w: unsupported extension %q", common.ErrDocumentUnreadable, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrDocumentUnreadable, path, err)
	}

	if err := os.MkdirAll(n.cfg.PagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pages dir: %w", err)
	}

	pages := make([]string, 0, len(raw))
	for i, img := range raw {
		out := filepath.Join(n.cfg.PagesDir, fmt.Sprintf("%s_page_%d.png", base, i+1))
		norm := NormalizePage(img, n.cfg.MaxDim)
		if err := writePNG(out, norm); err != nil {
			return nil, fmt.Errorf("save page %d: %w", i+1, err)
		}
		pages = append(pages, out)
	}

	n.logger.Info("imaging.prepare.ok",
		"path", path,
		"pages", len(pages),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return pages, nil
}

func (n *Normalizer) rasterizePDF(ctx context.Context, path string) ([]image.Image, error) {
	tmpDir, err := os.MkdirTemp("", "pe-raster-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			n.logger.Warn("imaging.tmp_cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := n.runner.Run(ctx, n.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", n.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %v: %s", err, truncate(string(errb), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages")
	}

	imgs := make([]image.Image, 0, len(matches))
	for _, m := range matches {
		img, err := decodeFile(m)
		if err != nil {
			return nil, fmt.Errorf("decode rasterized page %s: %w", filepath.Base(m), err)
		}
		imgs = append(imgs, img)
	}
	return imgs, nil
}

func (n *Normalizer) loadImage(path string) ([]image.Image, error) {
	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return []image.Image{img}, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func baseName(path string) string {
	b := filepath.Base(path)
	return b[:len(b)-len(filepath.Ext(b))]
}
