package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docs-ocr/constants"
	"github.com/joseph-ayodele/docs-ocr/internal/entity"
)

func ptr(s string) *string { return &s }

func TestScore_AllFieldsClean(t *testing.T) {
	var f entity.Fields
	for _, name := range constants.DocumentFields() {
		f.Set(name, ptr("value"))
	}

	got := Score(f, f)
	require.Equal(t, 8, got.FieldsExtracted)
	require.Equal(t, 8, got.FieldsTotal)
	require.Empty(t, got.NeedsReview)
	require.Equal(t, 1.0, got.ConfidenceScore)
}

func TestScore_IllegibleNameCountsAsReviewNotExtracted(t *testing.T) {
	raw := entity.Fields{NomeCompleto: ptr("[ILEGÍVEL]"), CPF: ptr("123")}
	cleaned := entity.Fields{CPF: ptr("123")}

	got := Score(cleaned, raw)
	require.Equal(t, 1, got.FieldsExtracted)
	require.Equal(t, []string{constants.FieldNomeCompleto}, got.NeedsReview)
	require.Equal(t, 0.0, got.ConfidenceScore)
}

func TestScore_ReviewMarkerIsCaseInsensitive(t *testing.T) {
	raw := entity.Fields{
		NomeCompleto: ptr("Maria Oliveira"),
		CPF:          ptr("987.654.321-00 - [revisar]"),
		CNPJ:         ptr("98.765.432/0001-10 [Ilegível]"),
	}
	cleaned := entity.Fields{
		NomeCompleto: ptr("Maria Oliveira"),
		CPF:          ptr("987.654.321-00 -"),
		CNPJ:         ptr("98.765.432/0001-10"),
	}

	got := Score(cleaned, raw)
	require.Equal(t, 3, got.FieldsExtracted)
	require.Equal(t, []string{constants.FieldCPF, constants.FieldCNPJ}, got.NeedsReview)
	require.Equal(t, 0.12, got.ConfidenceScore)
}

func TestScore_HalfwayScoresRoundToEven(t *testing.T) {
	names := constants.DocumentFields()
	cases := []struct {
		clean int
		want  float64
	}{
		{1, 0.12},
		{3, 0.38},
		{5, 0.62},
		{7, 0.88},
	}
	for _, tc := range cases {
		var f entity.Fields
		for _, name := range names[:tc.clean] {
			f.Set(name, ptr("value"))
		}
		got := Score(f, f)
		require.Equal(t, tc.clean, got.FieldsExtracted)
		require.Equal(t, tc.want, got.ConfidenceScore, "%d/8", tc.clean)
	}
}

func TestScore_PlaceholderValuesAreNotExtracted(t *testing.T) {
	cleaned := entity.Fields{
		Empresa: ptr(" [Não Encontrado] "),
		CEP:     ptr("[NÃO APLICÁVEL]"),
		CPF:     ptr("[ilegível]"),
	}
	got := Score(cleaned, entity.Fields{})
	require.Equal(t, 0, got.FieldsExtracted)
	require.Equal(t, 0.0, got.ConfidenceScore)
}

func TestScore_NeverNegativeAndDeterministic(t *testing.T) {
	raw := entity.Fields{
		NomeCompleto: ptr("[REVISAR]"),
		Empresa:      ptr("[ILEGÍVEL]"),
		CEP:          ptr("x [REVISAR][ILEGÍVEL]"),
	}
	cleaned := entity.Fields{CEP: ptr("x")}

	a := Score(cleaned, raw)
	b := Score(cleaned, raw)
	require.Equal(t, a, b)
	require.Equal(t, 1, a.FieldsExtracted)
	require.Len(t, a.NeedsReview, 3)
	require.Equal(t, 0.0, a.ConfidenceScore)
}

func TestScore_EmptyInput(t *testing.T) {
	got := Score(entity.Fields{}, entity.Fields{})
	require.Equal(t, 0, got.FieldsExtracted)
	require.NotNil(t, got.NeedsReview)
	require.Empty(t, got.NeedsReview)
	require.Equal(t, 0.0, got.ConfidenceScore)
}
