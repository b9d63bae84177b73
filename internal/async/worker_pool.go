package async

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/joseph-ayodele/docs-ocr/constants"
	"github.com/joseph-ayodele/docs-ocr/internal/common"
	"github.com/joseph-ayodele/docs-ocr/internal/entity"
	"github.com/joseph-ayodele/docs-ocr/internal/repository"
)

// Processor turns a claimed job into an outcome. It must always return one.
type Processor interface {
	Process(ctx context.Context, job *entity.Job) entity.Outcome
}

// recordTimeout bounds the final status write, independent of the job timeout.
const recordTimeout = 10 * time.Second

type WorkerPool struct {
	jobs    repository.JobRepository
	proc    Processor
	logger  *slog.Logger
	workers int
	poll    time.Duration
	timeout time.Duration
	name    string
	wake    <-chan struct{}

	resultTTL  time.Duration
	staleAfter time.Duration
	janitor    time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*WorkerPool)

func WithWorkers(n int) Option {
	return func(p *WorkerPool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(p *WorkerPool) {
		if d > 0 {
			p.poll = d
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(p *WorkerPool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithRetention enables the janitor. Zero values disable that half of it.
func WithRetention(resultTTL, staleAfter, every time.Duration) Option {
	return func(p *WorkerPool) {
		p.resultTTL = resultTTL
		p.staleAfter = staleAfter
		if every > 0 {
			p.janitor = every
		}
	}
}

// WithWakeup lets an in-process enqueue interrupt the poll wait.
func WithWakeup(ch <-chan struct{}) Option {
	return func(p *WorkerPool) { p.wake = ch }
}

// WithName sets the worker id prefix; defaults to hostname-pid.
func WithName(name string) Option {
	return func(p *WorkerPool) {
		if name != "" {
			p.name = name
		}
	}
}

func NewWorkerPool(jobs repository.JobRepository, proc Processor, logger *slog.Logger, opts ...Option) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	host, _ := os.Hostname()
	p := &WorkerPool{
		jobs:    jobs,
		proc:    proc,
		logger:  logger,
		workers: 2,
		poll:    time.Second,
		timeout: 5 * time.Minute,
		name:    fmt.Sprintf("%s-%d", host, os.Getpid()),
		janitor: time.Minute,
		stop:    make(chan struct{}),
	}
	for _, o := range opts {
		o(p)
	}
	p.start()
	return p
}

func (p *WorkerPool) start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.work(fmt.Sprintf("%s/%d", p.name, i+1))
		}
		if p.resultTTL > 0 || p.staleAfter > 0 {
			p.wg.Add(1)
			go p.sweep()
		}
	})
}

func (p *WorkerPool) work(workerID string) {
	defer p.wg.Done()
	p.logger.Info("worker started", "worker_id", workerID)
	defer p.logger.Info("worker stopped", "worker_id", workerID)

	for {
		select {
		case <-p.stop:
			return
		default:
		}

		job, err := p.jobs.ClaimNext(context.Background(), workerID)
		if err != nil {
			p.logger.Error("claim failed", "worker_id", workerID, "error", err)
		}
		if job != nil {
			p.run(workerID, job)
			continue
		}

		select {
		case <-p.stop:
			return
		case <-p.wake:
		case <-time.After(p.poll):
		}
	}
}

func (p *WorkerPool) run(workerID string, job *entity.Job) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(common.WithWorkerID(context.Background(), workerID), p.timeout)
	outcome := p.process(ctx, job)
	cancel()

	rctx, rcancel := context.WithTimeout(context.Background(), recordTimeout)
	defer rcancel()

	var err error
	switch {
	case outcome.Failure != nil:
		err = p.jobs.Fail(rctx, job.ID, outcome.Failure)
	case outcome.Result != nil:
		err = p.jobs.Finish(rctx, job.ID, outcome.Result)
	default:
		err = p.jobs.Fail(rctx, job.ID, &entity.JobError{
			Code:    constants.ErrCodeInternal,
			Message: "Erro interno no worker durante o processamento: processador não retornou resultado",
		})
	}
	if err != nil {
		p.logger.Error("recording job outcome failed", "worker_id", workerID, "job_id", job.ID, "error", err)
		return
	}
	p.logger.Info("processed job",
		"worker_id", workerID,
		"job_id", job.ID,
		"failed", outcome.Failure != nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// process guards the worker goroutine against processor panics.
func (p *WorkerPool) process(ctx context.Context, job *entity.Job) (out entity.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("processor panic", "job_id", job.ID, "panic", r, "stack", string(debug.Stack()))
			out = entity.Failed(constants.ErrCodeInternal,
				fmt.Sprintf("Erro interno no worker durante o processamento: %v", r), nil)
		}
	}()
	return p.proc.Process(ctx, job)
}

func (p *WorkerPool) sweep() {
	defer p.wg.Done()
	t := time.NewTicker(p.janitor)
	defer t.Stop()
	for {
		p.sweepOnce(context.Background())
		select {
		case <-p.stop:
			return
		case <-t.C:
		}
	}
}

func (p *WorkerPool) sweepOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()
	now := time.Now()
	if p.staleAfter > 0 {
		if _, err := p.jobs.FailStale(ctx, now.Add(-p.staleAfter)); err != nil {
			p.logger.Error("janitor: fail stale jobs", "error", err)
		}
	}
	if p.resultTTL > 0 {
		if _, err := p.jobs.PurgeExpired(ctx, now.Add(-p.resultTTL)); err != nil {
			p.logger.Error("janitor: purge expired jobs", "error", err)
		}
	}
}

// Shutdown stops claiming new jobs and waits for in-flight ones.
func (p *WorkerPool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.stop)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); p.wg.Wait() }()

	select {
	case <-ctx.Done():
		p.logger.Warn("shutdown interrupted by context")
	case <-done:
		p.logger.Info("workers drained, shutdown complete")
	}
}
