package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/docs-ocr/constants"
)

// Engine recognizes text in a document and returns its lines in reading order.
type Engine interface {
	Recognize(ctx context.Context, content []byte, contentType string) ([]string, error)
}

// ErrUnsupportedContent is returned for content types the engine cannot read.
var ErrUnsupportedContent = errors.New("unsupported content type")

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "por"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir   string
	HeicConverter string // heif-convert | magick | sips

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	WorkDir string // temp files; empty uses os.TempDir()
}

// Extractor shells out to tesseract and poppler.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "por"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.HeicConverter == "" {
		cfg.HeicConverter = "magick"
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner; used by tests.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Load verifies the external binaries are usable. It is the expensive
// one-time step wrapped by Lazy.
func (e *Extractor) Load(ctx context.Context) error {
	if _, ok := e.runner.(execRunner); ok {
		for _, bin := range []string{e.cfg.Tesseract, e.cfg.Pdftotext, e.cfg.Pdftoppm} {
			if _, err := exec.LookPath(bin); err != nil {
				return fmt.Errorf("ocr binary %q: %w", bin, err)
			}
		}
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, "--version")
	if err != nil {
		return fmt.Errorf("tesseract --version: %w: %s", err, truncate(string(errb), 512))
	}
	version, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	e.logger.Info("ocr engine ready", "tesseract", version, "lang", e.cfg.TesseractLang)
	return nil
}

// Recognize writes content to a temp file and picks a strategy by content type.
func (e *Extractor) Recognize(ctx context.Context, content []byte, contentType string) ([]string, error) {
	start := time.Now()
	format := constants.MapContentTypeToFormat(contentType)
	if format == "" {
		e.logger.Error("unsupported ocr content type", "content_type", contentType)
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContent, contentType)
	}

	tmpDir, err := os.MkdirTemp(e.cfg.WorkDir, "ocr-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove ocr temp dir", "dir", tmpDir, "error", err)
		}
	}()

	path := filepath.Join(tmpDir, "input"+constants.ExtForContentType(contentType))
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return nil, err
	}

	var (
		text   string
		method string
		pages  = 1
	)
	switch format {
	case constants.PDF:
		text, pages, method, err = e.extractPDF(ctx, path)
	case constants.IMAGE:
		if constants.IsHEICContentType(contentType) {
			path, err = convertHEICtoPNG(ctx, e.runner, e.cfg.HeicConverter, path, tmpDir)
			if err != nil {
				e.logger.Error("heic conversion failed", "error", err)
				return nil, err
			}
		}
		method = "image-ocr"
		text, err = e.tesseractOCR(ctx, path)
	}
	if err != nil {
		return nil, err
	}

	lines := Lines(text)
	e.logger.Debug("ocr extraction done",
		"method", method,
		"pages", pages,
		"lines", len(lines),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return lines, nil
}
