package async

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docs-ocr/constants"
	"github.com/joseph-ayodele/docs-ocr/internal/entity"
	"github.com/joseph-ayodele/docs-ocr/internal/repository"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestQueue(t *testing.T) (*StoreQueue, repository.JobRepository) {
	t.Helper()
	st, err := repository.Open(t.Context(), repository.Config{
		URL: "sqlite://" + filepath.Join(t.TempDir(), "jobs.db"),
	}, quietLogger())
	require.NoError(t, err)
	t.Cleanup(st.Close)
	jobs := repository.NewJobRepository(st, quietLogger())
	return NewStoreQueue(jobs, st, quietLogger()), jobs
}

type processFunc func(ctx context.Context, job *entity.Job) entity.Outcome

func (f processFunc) Process(ctx context.Context, job *entity.Job) entity.Outcome { return f(ctx, job) }

func waitForStatus(t *testing.T, q *StoreQueue, id string, want constants.JobStatus) *entity.Job {
	t.Helper()
	var job *entity.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = q.Fetch(context.Background(), id)
		return err == nil && job.Status == want
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestEnqueueStoresEncodedDocument(t *testing.T) {
	q, _ := newTestQueue(t)
	job, err := q.Enqueue(t.Context(), entity.Document{
		Key: "rg", Filename: "rg_teste.jpg", ContentType: "image/jpeg", Content: []byte("jpeg-bytes"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	got, err := q.Fetch(t.Context(), job.ID)
	require.NoError(t, err)
	require.Equal(t, constants.JobStatusQueued, got.Status)
	require.Equal(t, "rg", got.DocumentKey)
	decoded, err := base64.StdEncoding.DecodeString(got.Payload)
	require.NoError(t, err)
	require.Equal(t, "jpeg-bytes", string(decoded))

	select {
	case <-q.Wakeup():
	default:
		t.Fatal("enqueue did not signal wakeup")
	}
	require.NoError(t, q.Ping(t.Context()))
}

func TestPoolFinishesJob(t *testing.T) {
	q, jobs := newTestQueue(t)
	proc := processFunc(func(_ context.Context, job *entity.Job) entity.Outcome {
		raw, _ := base64.StdEncoding.DecodeString(job.Payload)
		return entity.Outcome{Result: &entity.Result{Success: true, RawOCRText: string(raw)}}
	})
	pool := NewWorkerPool(jobs, proc, quietLogger(),
		WithWorkers(2), WithPollInterval(time.Hour), WithWakeup(q.Wakeup()), WithName("test"))
	t.Cleanup(func() { pool.Shutdown(context.Background()) })

	job, err := q.Enqueue(t.Context(), entity.Document{Key: "cnh", Filename: "cnh.pdf", ContentType: "application/pdf", Content: []byte("texto")})
	require.NoError(t, err)

	got := waitForStatus(t, q, job.ID, constants.JobStatusFinished)
	require.Equal(t, "texto", got.Result.RawOCRText)
	require.Empty(t, got.Payload)
	require.Contains(t, got.WorkerID, "test/")
}

func TestPoolRecordsFailure(t *testing.T) {
	q, jobs := newTestQueue(t)
	proc := processFunc(func(context.Context, *entity.Job) entity.Outcome {
		raw := ""
		return entity.Failed(constants.ErrCodeLLM, "Erro na API da LLM - Status 429: slow down", &raw)
	})
	pool := NewWorkerPool(jobs, proc, quietLogger(), WithPollInterval(10*time.Millisecond))
	t.Cleanup(func() { pool.Shutdown(context.Background()) })

	job, err := q.Enqueue(t.Context(), entity.Document{Key: "rg", Filename: "rg.png", ContentType: "image/png"})
	require.NoError(t, err)

	got := waitForStatus(t, q, job.ID, constants.JobStatusFailed)
	require.Equal(t, constants.ErrCodeLLM, got.Error.Code)
	require.NotNil(t, got.Error.RawOCRText)
}

func TestPoolRecoversProcessorPanic(t *testing.T) {
	q, jobs := newTestQueue(t)
	proc := processFunc(func(context.Context, *entity.Job) entity.Outcome { panic("tesseract exploded") })
	pool := NewWorkerPool(jobs, proc, quietLogger(), WithPollInterval(10*time.Millisecond))
	t.Cleanup(func() { pool.Shutdown(context.Background()) })

	first, err := q.Enqueue(t.Context(), entity.Document{Key: "rg", Filename: "rg.png", ContentType: "image/png"})
	require.NoError(t, err)
	second, err := q.Enqueue(t.Context(), entity.Document{Key: "cpf", Filename: "cpf.png", ContentType: "image/png"})
	require.NoError(t, err)

	got := waitForStatus(t, q, first.ID, constants.JobStatusFailed)
	require.Equal(t, constants.ErrCodeInternal, got.Error.Code)
	require.Contains(t, got.Error.Message, "tesseract exploded")
	waitForStatus(t, q, second.ID, constants.JobStatusFailed)
}

func TestPoolAppliesProcessTimeout(t *testing.T) {
	q, jobs := newTestQueue(t)
	proc := processFunc(func(ctx context.Context, _ *entity.Job) entity.Outcome {
		<-ctx.Done()
		return entity.Failed(constants.ErrCodeInternal, ctx.Err().Error(), nil)
	})
	pool := NewWorkerPool(jobs, proc, quietLogger(),
		WithPollInterval(10*time.Millisecond), WithProcessTimeout(50*time.Millisecond))
	t.Cleanup(func() { pool.Shutdown(context.Background()) })

	job, err := q.Enqueue(t.Context(), entity.Document{Key: "rg", Filename: "rg.png", ContentType: "image/png"})
	require.NoError(t, err)
	got := waitForStatus(t, q, job.ID, constants.JobStatusFailed)
	require.Contains(t, got.Error.Message, context.DeadlineExceeded.Error())
}

func TestShutdownDrainsInFlightJob(t *testing.T) {
	q, jobs := newTestQueue(t)
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	proc := processFunc(func(context.Context, *entity.Job) entity.Outcome {
		once.Do(func() { close(started) })
		<-release
		return entity.Outcome{Result: &entity.Result{Success: true}}
	})
	pool := NewWorkerPool(jobs, proc, quietLogger(), WithWorkers(1), WithPollInterval(10*time.Millisecond))

	job, err := q.Enqueue(t.Context(), entity.Document{Key: "rg", Filename: "rg.png", ContentType: "image/png"})
	require.NoError(t, err)
	<-started

	done := make(chan struct{})
	go func() {
		pool.Shutdown(context.Background())
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("shutdown returned while a job was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	<-done

	got, err := q.Fetch(t.Context(), job.ID)
	require.NoError(t, err)
	require.Equal(t, constants.JobStatusFinished, got.Status)

	pool.Shutdown(context.Background()) // idempotent
}

type staleRepo struct {
	repository.JobRepository
	mu     sync.Mutex
	stale  []time.Time
	purged []time.Time
}

func (s *staleRepo) ClaimNext(context.Context, string) (*entity.Job, error) { return nil, nil }

func (s *staleRepo) FailStale(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stale = append(s.stale, before)
	return 0, nil
}

func (s *staleRepo) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purged = append(s.purged, before)
	return 0, errors.New("locked")
}

func TestJanitorRunsRetention(t *testing.T) {
	repo := &staleRepo{}
	pool := NewWorkerPool(repo, processFunc(nil), quietLogger(),
		WithWorkers(1),
		WithRetention(24*time.Hour, 30*time.Minute, 10*time.Millisecond))

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.stale) >= 2 && len(repo.purged) >= 2
	}, 2*time.Second, 5*time.Millisecond)
	pool.Shutdown(context.Background())

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.WithinDuration(t, time.Now().Add(-30*time.Minute), repo.stale[0], time.Minute)
	require.WithinDuration(t, time.Now().Add(-24*time.Hour), repo.purged[0], time.Minute)
}
