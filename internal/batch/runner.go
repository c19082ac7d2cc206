package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/RowanDark/0xcrack/internal/analysis"
	"github.com/RowanDark/0xcrack/internal/cipher"
	"github.com/RowanDark/0xcrack/internal/logging"
	"github.com/RowanDark/0xcrack/internal/observability/metrics"
)

// Outcome labels recorded for each job.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeCanceled  = "canceled"
)

// Options configures a Runner.
type Options struct {
	Workers    int
	JobTimeout time.Duration
	Logger     *logging.AuditLogger
}

// Runner executes job files through the analysis executor.
type Runner struct {
	opts     Options
	executor *analysis.Executor
}

// NewRunner builds a runner. Workers defaults to 1.
func NewRunner(opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Runner{opts: opts, executor: analysis.NewExecutor(opts.Logger)}
}

// Summary counts job outcomes.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Canceled  int `json:"canceled"`
}

// Run executes jobs and returns results in input order. Jobs left unstarted
// when ctx ends report ctx's error.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, Summary) {
	pool := NewWorkerPool(ctx, r.opts.Workers, r.opts.JobTimeout, r.executor)
	pool.Start()

	go func() {
		for i, job := range jobs {
			if err := pool.Submit(i, job); err != nil {
				break
			}
		}
		pool.Stop()
	}()

	results := make([]Result, len(jobs))
	seen := make([]bool, len(jobs))
	for res := range pool.Results() {
		results[res.Index] = res
		seen[res.Index] = true
	}

	var summary Summary
	summary.Total = len(jobs)
	for i, job := range jobs {
		if !seen[i] {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = Result{Index: i, JobID: job.ID, Error: err}
		}
		outcome := outcomeOf(results[i].Error)
		switch outcome {
		case OutcomeSucceeded:
			summary.Succeeded++
		case OutcomeCanceled:
			summary.Canceled++
		default:
			summary.Failed++
		}
		metrics.RecordBatchJob(outcome)
		r.audit(job, results[i], outcome)
	}
	return results, summary
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSucceeded
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}

func (r *Runner) audit(job Job, res Result, outcome string) {
	if r.opts.Logger == nil {
		return
	}
	event := logging.AuditEvent{
		EventType: logging.EventBatchJob,
		RequestID: job.ID,
		Operation: job.Operation,
		Decision:  logging.DecisionInfo,
		Metadata: map[string]any{
			"line":       job.Line,
			"outcome":    outcome,
			"elapsed_ms": res.Elapsed.Milliseconds(),
		},
	}
	if res.Error != nil {
		event.Decision = logging.DecisionError
		event.Reason = res.Error.Error()
	}
	_ = r.opts.Logger.Emit(event)
}

// Record is the JSONL output form of a Result.
type Record struct {
	ID        string         `json:"id"`
	Line      int            `json:"line"`
	Operation string         `json:"operation"`
	Report    *cipher.Report `json:"report,omitempty"`
	Error     string         `json:"error,omitempty"`
	Kind      string         `json:"kind,omitempty"`
}

// WriteResults writes one Record per line.
func WriteResults(w io.Writer, jobs []Job, results []Result) error {
	if len(jobs) != len(results) {
		return fmt.Errorf("have %d jobs but %d results", len(jobs), len(results))
	}
	enc := json.NewEncoder(w)
	for i, res := range results {
		rec := Record{
			ID:        jobs[i].ID,
			Line:      jobs[i].Line,
			Operation: jobs[i].Operation,
			Report:    res.Report,
		}
		if res.Error != nil {
			rec.Error = res.Error.Error()
			rec.Kind = analysis.Kind(res.Error)
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write result %s: %w", rec.ID, err)
		}
	}
	return nil
}
