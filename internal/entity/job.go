package entity

import (
	"time"

	"github.com/joseph-ayodele/docs-ocr/constants"
)

// Job is one document queued for OCR + field extraction.
type Job struct {
	ID          string              `json:"job_id"`
	DocumentKey string              `json:"document_key"`
	Filename    string              `json:"filename"`
	ContentType string              `json:"content_type"`
	Payload     string              `json:"-"` // base64 document bytes, cleared once terminal
	Status      constants.JobStatus `json:"status"`
	Result      *Result             `json:"result,omitempty"`
	Error       *JobError           `json:"error,omitempty"`
	WorkerID    string              `json:"worker_id,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	FinishedAt  *time.Time          `json:"finished_at,omitempty"`
}

// Result is stored on finished jobs.
type Result struct {
	Success    bool             `json:"success"`
	Data       *ExtractedFields `json:"data"`
	RawOCRText string           `json:"raw_ocr_text"`
	Checks     *DocumentChecks  `json:"checks,omitempty"`
}

// JobError is stored on failed and canceled jobs.
type JobError struct {
	Code       string  `json:"code"`
	Message    string  `json:"message"`
	RawOCRText *string `json:"raw_ocr_text,omitempty"`
}

// DocumentChecks holds check-digit validation of the tax ids, nil when the field is absent.
type DocumentChecks struct {
	CPFValid  *bool `json:"cpf_valid"`
	CNPJValid *bool `json:"cnpj_valid"`
}

// Outcome is what a processor hands back to the queue: exactly one of Result or Failure is set.
type Outcome struct {
	Result  *Result
	Failure *JobError
}

// Failed builds a failure outcome.
func Failed(code, message string, rawOCRText *string) Outcome {
	return Outcome{Failure: &JobError{Code: code, Message: message, RawOCRText: rawOCRText}}
}

// Document is an upload accepted by the API, before it is encoded into a job.
type Document struct {
	Key         string
	Filename    string
	ContentType string
	Content     []byte
}
