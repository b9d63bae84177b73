package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/docs-ocr/internal/entity"
	"github.com/joseph-ayodele/docs-ocr/internal/ocr"
)

type OCRStage struct {
	Engine ocr.Engine
	Logger *slog.Logger
}

func NewOCRStage(engine ocr.Engine, logger *slog.Logger) *OCRStage {
	return &OCRStage{Engine: engine, Logger: logger}
}

// Run recognizes the document and joins the lines with "\n".
func (s *OCRStage) Run(ctx context.Context, job *entity.Job, content []byte) (string, error) {
	start := time.Now()
	lines, err := s.Engine.Recognize(ctx, content, job.ContentType)
	if err != nil {
		return "", err
	}
	text := strings.Join(lines, "\n")
	jobLogger(ctx, s.Logger, job).Info("pipeline.ocr.ok",
		"lines", len(lines),
		"chars", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
