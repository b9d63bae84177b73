package llm

import "github.com/joseph-ayodele/docs-ocr/constants"

// BuildResponseJSONSchema describes a successful extraction envelope:
// {"success": true, "data": {<field>: string|null, ...}}.
// Unknown keys are tolerated; known keys must be strings or null.
func BuildResponseJSONSchema() map[string]any {
	props := make(map[string]any, constants.FieldsTotal)
	for _, name := range constants.DocumentFields() {
		props[name] = nullableString()
	}

	return map[string]any{
		"type":     "object",
		"required": []string{"success"},
		"properties": map[string]any{
			"success": map[string]any{"type": "boolean"},
			"data": map[string]any{
				"type":       "object",
				"properties": props,
			},
		},
	}
}

func nullableString() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}
