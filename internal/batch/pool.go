package batch

import (
	"context"
	"sync"
	"time"

	"github.com/RowanDark/0xcrack/internal/analysis"
	"github.com/RowanDark/0xcrack/internal/cipher"
	"github.com/RowanDark/0xcrack/internal/observability/metrics"
)

// Result is the outcome of one job.
type Result struct {
	Index   int
	JobID   string
	Report  *cipher.Report
	Error   error
	Elapsed time.Duration
}

type indexedJob struct {
	index int
	job   Job
}

// WorkerPool runs jobs on a fixed number of goroutines.
type WorkerPool struct {
	workers  int
	timeout  time.Duration
	executor *analysis.Executor
	jobs     chan indexedJob
	results  chan Result
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewWorkerPool creates a pool bound to ctx. A zero timeout leaves jobs
// bounded only by ctx.
func NewWorkerPool(ctx context.Context, workers int, timeout time.Duration, executor *analysis.Executor) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		workers:  workers,
		timeout:  timeout,
		executor: executor,
		jobs:     make(chan indexedJob, workers*2),
		results:  make(chan Result, workers*2),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker goroutines.
func (p *WorkerPool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return

		case item, ok := <-p.jobs:
			if !ok {
				return
			}
			result := p.run(item)

			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

func (p *WorkerPool) run(item indexedJob) Result {
	metrics.BatchJobStarted()
	defer metrics.BatchJobFinished()

	ctx := p.ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	report, err := p.executor.Execute(ctx, item.job.ID, item.job.Operation, item.job.Input, item.job.Params)
	return Result{
		Index:   item.index,
		JobID:   item.job.ID,
		Report:  report,
		Error:   err,
		Elapsed: time.Since(start),
	}
}

// Submit queues a job. It blocks while the queue is full and fails once the
// pool is cancelled.
func (p *WorkerPool) Submit(index int, job Job) error {
	select {
	case p.jobs <- indexedJob{index: index, job: job}:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Results returns the results channel.
func (p *WorkerPool) Results() <-chan Result {
	return p.results
}

// Stop waits for queued jobs to drain and closes Results.
func (p *WorkerPool) Stop() {
	close(p.jobs)
	p.wg.Wait()
	close(p.results)
	p.cancel()
}

// Cancel abandons outstanding jobs.
func (p *WorkerPool) Cancel() {
	p.cancel()
}
