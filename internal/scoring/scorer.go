package scoring

import (
	"math"
	"slices"
	"strings"

	"github.com/joseph-ayodele/docs-ocr/constants"
	"github.com/joseph-ayodele/docs-ocr/internal/entity"
)

// placeholders are cleaned values that still do not count as extracted.
var placeholders = []string{
	strings.ToLower(constants.TagIllegible),
	strings.ToLower(constants.TagNotFound),
	strings.ToLower(constants.TagNotApplicable),
}

// reviewMarkers flag a raw value for manual review.
var reviewMarkers = []string{
	strings.ToLower(constants.TagReview),
	strings.ToLower(constants.TagIllegible),
}

// Score derives extraction metadata from the cleaned fields and the raw LLM values.
// Review flags come from raw, so it must be the pre-cleanup copy.
func Score(cleaned, raw entity.Fields) entity.ExtractedFields {
	out := entity.ExtractedFields{
		Fields:      cleaned,
		FieldsTotal: constants.FieldsTotal,
		NeedsReview: []string{},
	}

	for _, name := range constants.DocumentFields() {
		if isExtracted(cleaned.Get(name)) {
			out.FieldsExtracted++
		}
		if needsReview(raw.Get(name)) && !slices.Contains(out.NeedsReview, name) {
			out.NeedsReview = append(out.NeedsReview, name)
		}
	}

	out.ConfidenceScore = confidence(out.FieldsExtracted, len(out.NeedsReview), out.FieldsTotal)
	return out
}

func isExtracted(v *string) bool {
	if v == nil {
		return false
	}
	return !slices.Contains(placeholders, strings.ToLower(strings.TrimSpace(*v)))
}

func needsReview(v *string) bool {
	if v == nil {
		return false
	}
	lower := strings.ToLower(*v)
	for _, m := range reviewMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func confidence(extracted, review, total int) float64 {
	if total <= 0 {
		return 0
	}
	score := float64(extracted-review) / float64(total)
	if score < 0 {
		return 0
	}
	return math.RoundToEven(score*100) / 100
}
