package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// extractPDF prefers the embedded text layer and rasterizes only when it is empty.
func (e *Extractor) extractPDF(ctx context.Context, path string) (string, int, string, error) {
	text, pages, err := e.pdfToText(ctx, path)
	if err != nil {
		e.logger.Warn("pdftotext failed, falling back to ocr", "error", err)
	} else if strings.TrimSpace(text) != "" {
		return text, pages, "pdf-text", nil
	}

	text, pages, err = e.pdfToOCR(ctx, path)
	return text, pages, "pdf-ocr", err
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (string, int, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 512))
	}
	text := string(out)
	// A form-feed \f is used as page separator by default
	return text, 1 + strings.Count(strings.TrimRight(text, "\f"), "\f"), nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (string, int, error) {
	prefix := filepath.Join(filepath.Dir(path), "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, fmt.Errorf("pdftoppm produced no images")
	}

	var b strings.Builder
	for _, img := range matches {
		txt, err := e.tesseractOCR(ctx, img)
		if err != nil {
			return "", 0, err
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(txt)
	}
	return b.String(), len(matches), nil
}
