package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/docs-ocr/constants"
	"github.com/joseph-ayodele/docs-ocr/internal/common"
	"github.com/joseph-ayodele/docs-ocr/internal/entity"
)

const jobsTable = "ocr_jobs"

var jobColumns = []string{
	"id", "document_key", "filename", "content_type", "payload", "status",
	"result", "error", "worker_id", "created_at", "started_at", "finished_at",
}

// claimAttempts bounds how often ClaimNext retries after losing a race.
const claimAttempts = 3

const (
	msgCanceled   = "Job cancelado antes do processamento."
	msgWorkerLost = "Worker interrompido durante o processamento do job."
)

// JobRepository persists ocr_jobs rows and enforces the status transitions.
type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	Get(ctx context.Context, id string) (*entity.Job, error)
	ClaimNext(ctx context.Context, workerID string) (*entity.Job, error)
	Finish(ctx context.Context, id string, result *entity.Result) error
	Fail(ctx context.Context, id string, jobErr *entity.JobError) error
	Cancel(ctx context.Context, id string) (*entity.Job, error)
	ListFinished(ctx context.Context, since time.Time) ([]*entity.Job, error)
	FailStale(ctx context.Context, startedBefore time.Time) (int64, error)
	PurgeExpired(ctx context.Context, finishedBefore time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[constants.JobStatus]int64, error)
}

type jobRepo struct {
	st  *Store
	log *slog.Logger
	now func() time.Time
}

func NewJobRepository(st *Store, log *slog.Logger) JobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &jobRepo{st: st, log: log, now: time.Now}
}

func (r *jobRepo) Create(ctx context.Context, job *entity.Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = r.now()
	}
	job.Status = constants.JobStatusQueued
	q, args := r.st.builder().Insert(jobsTable).
		Columns("id", "document_key", "filename", "content_type", "payload", "status", "created_at").
		Values(job.ID, job.DocumentKey, job.Filename, job.ContentType, job.Payload, string(job.Status), job.CreatedAt.UnixMilli()).
		Query()
	if _, err := r.st.db.ExecContext(ctx, q, args...); err != nil {
		r.log.Error("job.create failed", "job_id", job.ID, "err", err)
		return common.DatabaseError("create job", err)
	}
	r.log.Info("job.created", "job_id", job.ID, "document_key", job.DocumentKey, "filename", job.Filename)
	return nil
}

func (r *jobRepo) Get(ctx context.Context, id string) (*entity.Job, error) {
	b := r.st.builder()
	q, args := b.Select(jobColumns...).
		From(b.Table(jobsTable)).
		Where(entsql.EQ("id", id)).
		Query()
	job, err := scanJob(r.st.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("JOB_NOT_FOUND", "job "+id, common.ErrNotFound)
	}
	if err != nil {
		return nil, common.DatabaseError("get job", err)
	}
	return job, nil
}

// ClaimNext moves the oldest queued job to running for workerID.
// It returns nil, nil when nothing is queued.
func (r *jobRepo) ClaimNext(ctx context.Context, workerID string) (*entity.Job, error) {
	b := r.st.builder()
	for attempt := 0; attempt < claimAttempts; attempt++ {
		q, args := b.Select("id").
			From(b.Table(jobsTable)).
			Where(entsql.EQ("status", string(constants.JobStatusQueued))).
			OrderBy("created_at", "id").
			Limit(1).
			Query()
		var id string
		err := r.st.db.QueryRowContext(ctx, q, args...).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, common.DatabaseError("select queued job", err)
		}

		q, args = b.Update(jobsTable).
			Set("status", string(constants.JobStatusRunning)).
			Set("worker_id", workerID).
			Set("started_at", r.now().UnixMilli()).
			Where(entsql.And(
				entsql.EQ("id", id),
				entsql.EQ("status", string(constants.JobStatusQueued)),
			)).
			Query()
		res, err := r.st.db.ExecContext(ctx, q, args...)
		if err != nil {
			return nil, common.DatabaseError("claim job", err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			r.log.Info("job.claimed", "job_id", id, "worker_id", workerID)
			return r.Get(ctx, id)
		}
		r.log.Debug("job.claim lost race", "job_id", id, "worker_id", workerID, "attempt", attempt+1)
	}
	return nil, nil
}

func (r *jobRepo) Finish(ctx context.Context, id string, result *entity.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return common.NewAppError("JOB_ENCODE", "encode result", err)
	}
	q, args := r.st.builder().Update(jobsTable).
		Set("status", string(constants.JobStatusFinished)).
		Set("result", string(raw)).
		Set("payload", "").
		Set("finished_at", r.now().UnixMilli()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("status", string(constants.JobStatusRunning)),
		)).
		Query()
	if err := r.transition(ctx, id, q, args); err != nil {
		r.log.Error("job.finish failed", "job_id", id, "err", err)
		return err
	}
	r.log.Info("job.finished", "job_id", id)
	return nil
}

func (r *jobRepo) Fail(ctx context.Context, id string, jobErr *entity.JobError) error {
	raw, err := json.Marshal(jobErr)
	if err != nil {
		return common.NewAppError("JOB_ENCODE", "encode error", err)
	}
	q, args := r.st.builder().Update(jobsTable).
		Set("status", string(constants.JobStatusFailed)).
		Set("error", string(raw)).
		Set("payload", "").
		Set("finished_at", r.now().UnixMilli()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("status", string(constants.JobStatusRunning)),
		)).
		Query()
	if err := r.transition(ctx, id, q, args); err != nil {
		r.log.Error("job.fail failed", "job_id", id, "err", err)
		return err
	}
	r.log.Warn("job.failed", "job_id", id, "code", jobErr.Code, "error", jobErr.Message)
	return nil
}

// Cancel only succeeds while the job is still queued.
func (r *jobRepo) Cancel(ctx context.Context, id string) (*entity.Job, error) {
	raw, _ := json.Marshal(entity.JobError{Code: constants.ErrCodeCanceled, Message: msgCanceled})
	q, args := r.st.builder().Update(jobsTable).
		Set("status", string(constants.JobStatusCanceled)).
		Set("error", string(raw)).
		Set("payload", "").
		Set("finished_at", r.now().UnixMilli()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("status", string(constants.JobStatusQueued)),
		)).
		Query()
	if err := r.transition(ctx, id, q, args); err != nil {
		return nil, err
	}
	r.log.Info("job.canceled", "job_id", id)
	return r.Get(ctx, id)
}

// transition runs a conditional update and explains a zero-row result.
func (r *jobRepo) transition(ctx context.Context, id, q string, args []any) error {
	res, err := r.st.db.ExecContext(ctx, q, args...)
	if err != nil {
		return common.DatabaseError("update job", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	job, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	return common.NewAppError("JOB_STATE", fmt.Sprintf("job %s is %s", id, job.Status), common.ErrConflict)
}

// ListFinished returns finished jobs, oldest first. A zero since means all.
func (r *jobRepo) ListFinished(ctx context.Context, since time.Time) ([]*entity.Job, error) {
	b := r.st.builder()
	where := entsql.EQ("status", string(constants.JobStatusFinished))
	if !since.IsZero() {
		where = entsql.And(where, entsql.GTE("finished_at", since.UnixMilli()))
	}
	q, args := b.Select(jobColumns...).
		From(b.Table(jobsTable)).
		Where(where).
		OrderBy("finished_at", "id").
		Query()
	rows, err := r.st.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, common.DatabaseError("list finished jobs", err)
	}
	defer rows.Close()

	var out []*entity.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, common.DatabaseError("scan job", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, common.DatabaseError("list finished jobs", err)
	}
	return out, nil
}

// FailStale fails running jobs whose worker went away.
func (r *jobRepo) FailStale(ctx context.Context, startedBefore time.Time) (int64, error) {
	raw, _ := json.Marshal(entity.JobError{Code: constants.ErrCodeWorkerLost, Message: msgWorkerLost})
	q, args := r.st.builder().Update(jobsTable).
		Set("status", string(constants.JobStatusFailed)).
		Set("error", string(raw)).
		Set("payload", "").
		Set("finished_at", r.now().UnixMilli()).
		Where(entsql.And(
			entsql.EQ("status", string(constants.JobStatusRunning)),
			entsql.LT("started_at", startedBefore.UnixMilli()),
		)).
		Query()
	res, err := r.st.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, common.DatabaseError("fail stale jobs", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.log.Warn("job.stale failed", "count", n, "started_before", startedBefore)
	}
	return n, nil
}

// PurgeExpired deletes terminal jobs that finished before the cutoff.
func (r *jobRepo) PurgeExpired(ctx context.Context, finishedBefore time.Time) (int64, error) {
	q, args := r.st.builder().Delete(jobsTable).
		Where(entsql.And(
			entsql.In("status",
				string(constants.JobStatusFinished),
				string(constants.JobStatusFailed),
				string(constants.JobStatusCanceled),
			),
			entsql.LT("finished_at", finishedBefore.UnixMilli()),
		)).
		Query()
	res, err := r.st.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, common.DatabaseError("purge jobs", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.log.Info("job.purged", "count", n, "finished_before", finishedBefore)
	}
	return n, nil
}

func (r *jobRepo) CountByStatus(ctx context.Context) (map[constants.JobStatus]int64, error) {
	b := r.st.builder()
	q, args := b.Select("status", entsql.Count("*")).
		From(b.Table(jobsTable)).
		GroupBy("status").
		Query()
	rows, err := r.st.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, common.DatabaseError("count jobs", err)
	}
	defer rows.Close()

	out := make(map[constants.JobStatus]int64)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, common.DatabaseError("count jobs", err)
		}
		out[constants.JobStatus(status)] = n
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*entity.Job, error) {
	var (
		job                      entity.Job
		status                   string
		result, jobErr, workerID sql.NullString
		createdAt                int64
		startedAt, finishedAt    sql.NullInt64
	)
	if err := row.Scan(
		&job.ID, &job.DocumentKey, &job.Filename, &job.ContentType, &job.Payload, &status,
		&result, &jobErr, &workerID, &createdAt, &startedAt, &finishedAt,
	); err != nil {
		return nil, err
	}
	job.Status = constants.JobStatus(status)
	job.WorkerID = workerID.String
	job.CreatedAt = time.UnixMilli(createdAt).UTC()
	job.StartedAt = millisPtr(startedAt)
	job.FinishedAt = millisPtr(finishedAt)
	if result.Valid && result.String != "" {
		job.Result = new(entity.Result)
		if err := json.Unmarshal([]byte(result.String), job.Result); err != nil {
			return nil, fmt.Errorf("decode result of job %s: %w", job.ID, err)
		}
	}
	if jobErr.Valid && jobErr.String != "" {
		job.Error = new(entity.JobError)
		if err := json.Unmarshal([]byte(jobErr.String), job.Error); err != nil {
			return nil, fmt.Errorf("decode error of job %s: %w", job.ID, err)
		}
	}
	return &job, nil
}

func millisPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}
