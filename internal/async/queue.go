package async

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docs-ocr/internal/entity"
	"github.com/joseph-ayodele/docs-ocr/internal/repository"
)

// Queue is what the API needs from the job queue.
type Queue interface {
	Enqueue(ctx context.Context, doc entity.Document) (*entity.Job, error)
	Fetch(ctx context.Context, id string) (*entity.Job, error)
	Cancel(ctx context.Context, id string) (*entity.Job, error)
	Ping(ctx context.Context) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context, timeout time.Duration) error
}

const pingTimeout = 2 * time.Second

// StoreQueue is a Queue on top of the ocr_jobs table.
type StoreQueue struct {
	jobs   repository.JobRepository
	pinger Pinger
	logger *slog.Logger
	notify chan struct{}
}

func NewStoreQueue(jobs repository.JobRepository, pinger Pinger, logger *slog.Logger) *StoreQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreQueue{
		jobs:   jobs,
		pinger: pinger,
		logger: logger,
		notify: make(chan struct{}, 1),
	}
}

// Enqueue stores doc as a queued job. There is no admission control.
func (q *StoreQueue) Enqueue(ctx context.Context, doc entity.Document) (*entity.Job, error) {
	job := &entity.Job{
		ID:          uuid.NewString(),
		DocumentKey: doc.Key,
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		Payload:     base64.StdEncoding.EncodeToString(doc.Content),
	}
	if err := q.jobs.Create(ctx, job); err != nil {
		q.logger.Error("enqueue failed", "filename", doc.Filename, "error", err)
		return nil, err
	}
	q.logger.Info("queued document for processing",
		"job_id", job.ID,
		"document_key", job.DocumentKey,
		"bytes", len(doc.Content),
	)
	// wake an in-process worker, if any, without blocking
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return job, nil
}

func (q *StoreQueue) Fetch(ctx context.Context, id string) (*entity.Job, error) {
	return q.jobs.Get(ctx, id)
}

func (q *StoreQueue) Cancel(ctx context.Context, id string) (*entity.Job, error) {
	return q.jobs.Cancel(ctx, id)
}

func (q *StoreQueue) Ping(ctx context.Context) error {
	return q.pinger.Ping(ctx, pingTimeout)
}

// Wakeup fires after each successful enqueue; pass it to WithWakeup.
func (q *StoreQueue) Wakeup() <-chan struct{} {
	return q.notify
}
