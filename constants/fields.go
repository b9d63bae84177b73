package constants

// Extracted document fields, in output order.
const (
	FieldNomeCompleto    = "nome_completo"
	FieldDataNascimento  = "data_nascimento"
	FieldCPF             = "cpf"
	FieldEmpresa         = "empresa"
	FieldCNPJ            = "cnpj"
	FieldNomeComprovante = "nome_comprovante"
	FieldCEP             = "cep"
	FieldComplemento     = "complemento"
)

var documentFields = []string{
	FieldNomeCompleto,
	FieldDataNascimento,
	FieldCPF,
	FieldEmpresa,
	FieldCNPJ,
	FieldNomeComprovante,
	FieldCEP,
	FieldComplemento,
}

// FieldsTotal is the fixed number of extracted fields.
const FieldsTotal = 8

// DocumentFields returns a copy of the field names in output order.
func DocumentFields() []string {
	out := make([]string, len(documentFields))
	copy(out, documentFields)
	return out
}

// Placeholder tags the LLM writes instead of a value.
const (
	TagIllegible     = "[ILEGÍVEL]"
	TagNotFound      = "[NÃO ENCONTRADO]"
	TagNotApplicable = "[NÃO APLICÁVEL]"
	TagReview        = "[REVISAR]"
)

// LLMSentinelError is returned verbatim by the LLM when the OCR text has no "Key: Value" pairs.
const LLMSentinelError = "Erro 0001. Padrão execução. TESTE. Erro ao Ler imagem do formulário, envie novamente por favor."

// LLMSentinelCode is the substring used to recognise LLMSentinelError.
const LLMSentinelCode = "Erro 0001"
