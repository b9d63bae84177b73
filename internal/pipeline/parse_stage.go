package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/docs-ocr/constants"
	"github.com/joseph-ayodele/docs-ocr/internal/entity"
	"github.com/joseph-ayodele/docs-ocr/internal/llm"
	"github.com/joseph-ayodele/docs-ocr/internal/normalize"
	"github.com/joseph-ayodele/docs-ocr/internal/scoring"
)

type ParseStage struct {
	Extractor llm.FieldExtractor
	Logger    *slog.Logger
}

func NewParseStage(fe llm.FieldExtractor, logger *slog.Logger) *ParseStage {
	return &ParseStage{Extractor: fe, Logger: logger}
}

// Run extracts fields from rawText and builds the job outcome.
func (s *ParseStage) Run(ctx context.Context, job *entity.Job, rawText string) entity.Outcome {
	log := jobLogger(ctx, s.Logger, job)
	ext, err := s.Extractor.ExtractFields(ctx, rawText)
	if err != nil {
		code := constants.ErrCodeLLM
		if llm.KindOf(err) == llm.KindSchema {
			code = constants.ErrCodeValidation
		}
		log.Warn("pipeline.parse.failed", "code", code, "kind", llm.KindOf(err), "err", err)
		return entity.Failed(code, err.Error(), &rawText)
	}

	raw := ext.Fields
	cleaned := Clean(raw)
	data := scoring.Score(cleaned, raw)
	checks := Checks(cleaned)

	log.Info("pipeline.parse.ok",
		"fields_extracted", data.FieldsExtracted,
		"needs_review", data.NeedsReview,
		"confidence", data.ConfidenceScore,
		"cpf", maskedPtr(cleaned.CPF, normalize.MaskCPF),
		"cnpj", maskedPtr(cleaned.CNPJ, normalize.MaskCNPJ),
	)
	return entity.Outcome{Result: &entity.Result{
		Success:    true,
		Data:       &data,
		RawOCRText: rawText,
		Checks:     checks,
	}}
}

// Clean strips bracket tags from every field and normalizes the birth date.
func Clean(raw entity.Fields) entity.Fields {
	var out entity.Fields
	for _, name := range constants.DocumentFields() {
		out.Set(name, normalize.StripTagsPtr(raw.Get(name)))
	}
	out.DataNascimento = normalize.NormalizeDatePtr(out.DataNascimento)
	return out
}

// Checks validates CPF/CNPJ check digits; nil when neither is present.
func Checks(f entity.Fields) *entity.DocumentChecks {
	var c entity.DocumentChecks
	if f.CPF != nil {
		ok := normalize.ValidCPF(*f.CPF)
		c.CPFValid = &ok
	}
	if f.CNPJ != nil {
		ok := normalize.ValidCNPJ(*f.CNPJ)
		c.CNPJValid = &ok
	}
	if c.CPFValid == nil && c.CNPJValid == nil {
		return nil
	}
	return &c
}

func maskedPtr(v *string, mask func(string) string) string {
	if v == nil {
		return ""
	}
	return mask(*v)
}
