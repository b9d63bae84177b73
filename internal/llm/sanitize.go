package llm

import (
	"slices"
	"strings"

	"github.com/joseph-ayodele/docs-ocr/constants"
)

// sanitizeData tidies the "data" object of a success envelope in place:
//   - removes keys that are not document fields
//   - trims surrounding whitespace of string values
//
// Type mismatches are left alone so schema validation still reports them.
// Returns the names of the dropped keys.
func sanitizeData(m map[string]any) []string {
	data, ok := m["data"].(map[string]any)
	if !ok {
		return nil
	}

	known := constants.DocumentFields()
	var dropped []string
	for k, v := range data {
		if !slices.Contains(known, k) {
			delete(data, k)
			dropped = append(dropped, k)
			continue
		}
		if s, ok := v.(string); ok {
			data[k] = strings.TrimSpace(s)
		}
	}
	slices.Sort(dropped)
	return dropped
}
