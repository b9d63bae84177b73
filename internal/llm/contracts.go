package llm

import (
	"context"

	"github.com/joseph-ayodele/docs-ocr/internal/entity"
)

// Extraction is a successful LLM answer. Fields hold the values exactly as the
// model returned them, tags included; cleanup happens downstream.
type Extraction struct {
	Fields  entity.Fields
	Content []byte
}

// FieldExtractor is the interface the document pipeline depends on.
// Any non-nil error is an *ExtractError.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, rawText string) (Extraction, error)
}
