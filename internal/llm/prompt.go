package llm

import (
	_ "embed"
	"strings"

	"github.com/joseph-ayodele/docs-ocr/constants"
)

//go:embed prompt_template.md
var promptTemplate string

const (
	placeholderRawText  = "{{raw_text_input}}"
	placeholderSentinel = "{{sentinel_error}}"
)

// BuildPrompt embeds the OCR text into the extraction instructions.
// The whole instruction set travels as a single user message.
func BuildPrompt(rawText string) string {
	r := strings.NewReplacer(
		placeholderRawText, rawText,
		placeholderSentinel, constants.LLMSentinelError,
	)
	return r.Replace(promptTemplate)
}
