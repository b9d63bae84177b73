package entity

import "github.com/joseph-ayodele/docs-ocr/constants"

// Fields are the eight values extracted from a document. Nil means absent.
type Fields struct {
	NomeCompleto    *string `json:"nome_completo"`
	DataNascimento  *string `json:"data_nascimento"`
	CPF             *string `json:"cpf"`
	Empresa         *string `json:"empresa"`
	CNPJ            *string `json:"cnpj"`
	NomeComprovante *string `json:"nome_comprovante"`
	CEP             *string `json:"cep"`
	Complemento     *string `json:"complemento"`
}

// Get returns the value stored under a field name, nil for unknown names.
func (f *Fields) Get(name string) *string {
	if p := f.slot(name); p != nil {
		return *p
	}
	return nil
}

// Set stores v under a field name; unknown names are ignored.
func (f *Fields) Set(name string, v *string) {
	if p := f.slot(name); p != nil {
		*p = v
	}
}

func (f *Fields) slot(name string) **string {
	switch name {
	case constants.FieldNomeCompleto:
		return &f.NomeCompleto
	case constants.FieldDataNascimento:
		return &f.DataNascimento
	case constants.FieldCPF:
		return &f.CPF
	case constants.FieldEmpresa:
		return &f.Empresa
	case constants.FieldCNPJ:
		return &f.CNPJ
	case constants.FieldNomeComprovante:
		return &f.NomeComprovante
	case constants.FieldCEP:
		return &f.CEP
	case constants.FieldComplemento:
		return &f.Complemento
	}
	return nil
}

// ExtractedFields is the cleaned field set plus derived scoring metadata.
type ExtractedFields struct {
	Fields
	ConfidenceScore float64  `json:"confidence_score"`
	FieldsExtracted int      `json:"fields_extracted"`
	FieldsTotal     int      `json:"fields_total"`
	NeedsReview     []string `json:"needs_review"`
}
