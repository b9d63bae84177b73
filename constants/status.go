package constants

// JobStatus is the canonical status for rows in ocr_jobs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued   JobStatus = "queued"   // waiting for a worker
	JobStatusRunning  JobStatus = "running"  // claimed by a worker
	JobStatusFinished JobStatus = "finished" // terminal success
	JobStatusFailed   JobStatus = "failed"   // terminal failure
	JobStatusCanceled JobStatus = "canceled" // removed before a worker claimed it
)

// Terminal reports whether no further transition is possible.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusFinished, JobStatusFailed, JobStatusCanceled:
		return true
	default:
		return false
	}
}

// Error codes recorded on failed jobs.
const (
	ErrCodeInternal   = "internal_error"
	ErrCodeLLM        = "llm_error"
	ErrCodeValidation = "validation_error"
	ErrCodeCanceled   = "canceled"
	ErrCodeWorkerLost = "worker_lost"
)
