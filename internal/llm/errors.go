package llm

import (
	"errors"
	"fmt"
)

// Kind classifies why an extraction failed.
type Kind string

const (
	KindMissingCredential Kind = "missing_credential"
	KindNetwork           Kind = "network"
	KindHTTPStatus        Kind = "http_status"
	KindNonJSON           Kind = "non_json"
	KindBusiness          Kind = "business" // the model answered with an explicit error
	KindSchema            Kind = "schema"   // valid JSON with the wrong shape
)

// ExtractError carries a user-facing message; Message is stored verbatim on the job.
type ExtractError struct {
	Kind       Kind
	Message    string
	StatusCode int
	Cause      error
}

func (e *ExtractError) Error() string {
	return e.Message
}

func (e *ExtractError) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of err, or "" when err is not an *ExtractError.
func KindOf(err error) Kind {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

// NewMissingCredentialError is returned before any request when no API key is set.
func NewMissingCredentialError() *ExtractError {
	return &ExtractError{
		Kind:    KindMissingCredential,
		Message: "OPENAI_API_KEY não configurada. Não é possível chamar a LLM.",
	}
}

// NewNetworkError wraps a transport failure (connection refused, timeout, ...).
func NewNetworkError(cause error) *ExtractError {
	return &ExtractError{
		Kind:    KindNetwork,
		Message: fmt.Sprintf("Erro de rede ou requisição para a LLM: %v", cause),
		Cause:   cause,
	}
}

// NewHTTPStatusError reports a non-2xx answer together with its body.
func NewHTTPStatusError(status int, body []byte) *ExtractError {
	return &ExtractError{
		Kind:       KindHTTPStatus,
		Message:    fmt.Sprintf("Erro na API da LLM - Status %d: %s", status, body),
		StatusCode: status,
	}
}

// NewUnexpectedResponseError reports an envelope that is not a chat completion.
func NewUnexpectedResponseError(cause error) *ExtractError {
	return &ExtractError{
		Kind:    KindNonJSON,
		Message: fmt.Sprintf("Erro inesperado ao chamar a LLM: %v", cause),
		Cause:   cause,
	}
}
