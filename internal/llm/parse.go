package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docs-ocr/constants"
	"github.com/joseph-ayodele/docs-ocr/internal/entity"
)

var responseSchema = MustCompileSchema(BuildResponseJSONSchema())

// ParseContent turns the model's message content into raw field values.
//
// The sentinel error may arrive as plain text, as a JSON string, or inside
// {"success": false, "error": "..."}; all three become KindBusiness.
func ParseContent(content string) (entity.Fields, error) {
	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		if strings.Contains(content, constants.LLMSentinelCode) {
			return entity.Fields{}, &ExtractError{Kind: KindBusiness, Message: content}
		}
		return entity.Fields{}, &ExtractError{
			Kind:    KindNonJSON,
			Message: fmt.Sprintf("Resposta da LLM não é um JSON válido: %s", content),
			Cause:   err,
		}
	}

	switch t := v.(type) {
	case map[string]any:
		return parseEnvelope(t)
	case string:
		if strings.Contains(t, constants.LLMSentinelCode) {
			return entity.Fields{}, &ExtractError{Kind: KindBusiness, Message: t}
		}
	}
	return entity.Fields{}, schemaError(errors.New("resposta não é um objeto JSON"))
}

func parseEnvelope(m map[string]any) (entity.Fields, error) {
	if ok, _ := m["success"].(bool); !ok {
		msg, _ := m["error"].(string)
		if strings.TrimSpace(msg) == "" {
			msg = "Erro desconhecido da LLM"
		}
		return entity.Fields{}, &ExtractError{Kind: KindBusiness, Message: msg}
	}

	sanitizeData(m)
	if err := ValidateValue(responseSchema, m); err != nil {
		return entity.Fields{}, schemaError(err)
	}

	var fields entity.Fields
	data, _ := m["data"].(map[string]any)
	for _, name := range constants.DocumentFields() {
		if s, ok := data[name].(string); ok {
			fields.Set(name, &s)
		}
	}
	return fields, nil
}

func schemaError(cause error) *ExtractError {
	return &ExtractError{
		Kind:    KindSchema,
		Message: fmt.Sprintf("Erro de validação do JSON da LLM: %v", cause),
		Cause:   cause,
	}
}
