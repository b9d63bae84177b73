package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docs-ocr/constants"
)

func TestParseContent_Success(t *testing.T) {
	content := `{"success": true, "data": {"nome_completo": "Maria Oliveira", "cpf": "987.654.321-00 - [REVISAR]", "empresa": "[ILEGÍVEL]", "cep": null, "extra": 42}}`

	fields, err := ParseContent(content)
	require.NoError(t, err)
	require.Equal(t, "Maria Oliveira", *fields.NomeCompleto)
	require.Equal(t, "987.654.321-00 - [REVISAR]", *fields.CPF)
	require.Equal(t, "[ILEGÍVEL]", *fields.Empresa)
	require.Nil(t, fields.CEP)
	require.Nil(t, fields.Complemento)
}

func TestParseContent_SuccessWithoutData(t *testing.T) {
	fields, err := ParseContent(`{"success": true}`)
	require.NoError(t, err)
	require.Nil(t, fields.NomeCompleto)
}

func TestParseContent_SentinelPlainText(t *testing.T) {
	_, err := ParseContent(constants.LLMSentinelError)
	require.Equal(t, KindBusiness, KindOf(err))
	require.Equal(t, constants.LLMSentinelError, err.Error())
}

func TestParseContent_SentinelAsJSONString(t *testing.T) {
	_, err := ParseContent(`"` + constants.LLMSentinelError + `"`)
	require.Equal(t, KindBusiness, KindOf(err))
	require.Equal(t, constants.LLMSentinelError, err.Error())
}

func TestParseContent_SentinelInsideFailureEnvelope(t *testing.T) {
	_, err := ParseContent(`{"success": false, "error": "` + constants.LLMSentinelError + `"}`)
	require.Equal(t, KindBusiness, KindOf(err))
	require.Equal(t, constants.LLMSentinelError, err.Error())
}

func TestParseContent_FailureWithoutMessage(t *testing.T) {
	_, err := ParseContent(`{"success": false}`)
	require.Equal(t, KindBusiness, KindOf(err))
	require.Equal(t, "Erro desconhecido da LLM", err.Error())
}

func TestParseContent_NonJSON(t *testing.T) {
	_, err := ParseContent("desculpe, não consegui")
	require.Equal(t, KindNonJSON, KindOf(err))
	require.Equal(t, "Resposta da LLM não é um JSON válido: desculpe, não consegui", err.Error())
}

func TestParseContent_WrongShape(t *testing.T) {
	tests := map[string]string{
		"number field":  `{"success": true, "data": {"cpf": 12345678909}}`,
		"data is array": `{"success": true, "data": ["a"]}`,
		"top level arr": `[1, 2]`,
		"other string":  `"ok"`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseContent(content)
			require.Equal(t, KindSchema, KindOf(err))
			require.True(t, strings.HasPrefix(err.Error(), "Erro de validação do JSON da LLM"))
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("Nome Completo: Ana")
	require.Contains(t, p, "(`Nome Completo: Ana`)")
	require.Contains(t, p, constants.LLMSentinelError)
	require.NotContains(t, p, "{{")
}

func TestParseContent_SanitizesData(t *testing.T) {
	fields, err := ParseContent(`{"success":true,"data":{"nome_completo":"  JOSE  ","rg":"12.345.678-9","cep":null}}`)
	require.NoError(t, err)
	require.Equal(t, "JOSE", *fields.NomeCompleto)
	require.Nil(t, fields.CEP)
}

func TestSanitizeData_ReportsDroppedKeys(t *testing.T) {
	m := map[string]any{"data": map[string]any{"zz": 1, "rg": "x", "cpf": " 1 "}}
	require.Equal(t, []string{"rg", "zz"}, sanitizeData(m))
	require.Equal(t, map[string]any{"cpf": "1"}, m["data"])
}
