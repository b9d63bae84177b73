package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/joseph-ayodele/docs-ocr/constants"
	"github.com/joseph-ayodele/docs-ocr/internal/common"
	"github.com/joseph-ayodele/docs-ocr/internal/entity"
	"github.com/joseph-ayodele/docs-ocr/internal/llm"
	"github.com/joseph-ayodele/docs-ocr/internal/ocr"
)

const internalErrorPrefix = "Erro interno no worker durante o processamento: "

// Processor runs one document job: OCR, then LLM field extraction, then cleanup and scoring.
type Processor struct {
	Logger *slog.Logger
	OCR    *OCRStage
	Parse  *ParseStage
}

func NewProcessor(logger *slog.Logger, engine ocr.Engine, extractor llm.FieldExtractor) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger: logger,
		OCR:    NewOCRStage(engine, logger),
		Parse:  NewParseStage(extractor, logger),
	}
}

// jobLogger tags stage events with the job and the worker running it.
func jobLogger(ctx context.Context, base *slog.Logger, job *entity.Job) *slog.Logger {
	l := base.With("job_id", job.ID)
	if w := common.WorkerIDFromContext(ctx); w != "" {
		l = l.With("worker_id", w)
	}
	return l
}

// Process never returns without an outcome; panics become internal errors.
func (p *Processor) Process(ctx context.Context, job *entity.Job) (out entity.Outcome) {
	start := time.Now()
	log := jobLogger(ctx, p.Logger, job)
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline.panic", "panic", r, "stack", string(debug.Stack()))
			out = entity.Failed(constants.ErrCodeInternal, fmt.Sprintf("%s%v", internalErrorPrefix, r), nil)
		}
	}()

	content, err := base64.StdEncoding.DecodeString(job.Payload)
	if err != nil {
		log.Error("pipeline.decode.failed", "err", err)
		return entity.Failed(constants.ErrCodeInternal, internalErrorPrefix+err.Error(), nil)
	}

	// 1) OCR -> raw text; empty text is still handed to the LLM
	rawText, err := p.OCR.Run(ctx, job, content)
	if err != nil {
		log.Error("pipeline.ocr.failed", "err", err)
		return entity.Failed(constants.ErrCodeInternal, internalErrorPrefix+err.Error(), nil)
	}

	// 2) LLM -> cleaned, scored fields
	out = p.Parse.Run(ctx, job, rawText)
	log.Info("pipeline.done",
		"document_key", job.DocumentKey,
		"failed", out.Failure != nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out
}
