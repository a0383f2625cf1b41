// Package batch deciphers many independent messages concurrently.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/RowanDark/adfgvx/internal/adfgvx"
	"github.com/RowanDark/adfgvx/internal/logging"
)

const defaultWorkers = 4

// Runner fans jobs out over a bounded set of workers.
type Runner struct {
	workers int
	logger  *logging.AuditLogger
	opts    []adfgvx.Option
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers overrides the worker pool size.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithAuditLogger sends one batch_job event per finished job to logger.
func WithAuditLogger(logger *logging.AuditLogger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCipherOptions forwards capacity options to every Decipher call.
func WithCipherOptions(opts ...adfgvx.Option) RunnerOption {
	return func(r *Runner) {
		r.opts = append(r.opts, opts...)
	}
}

func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{workers: defaultWorkers}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	return r
}

// Run deciphers every job and returns outcomes in input order. If ctx is
// cancelled, jobs that had not started carry ctx.Err() and Run returns it.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Outcome, error) {
	outcomes := make([]Outcome, len(jobs))
	for i, job := range jobs {
		outcomes[i].Job = job
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range jobs {
		if gctx.Err() != nil {
			outcomes[i].Err = gctx.Err()
			continue
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				outcomes[i].Err = err
				return nil
			}
			outcomes[i] = r.runOne(jobs[i])
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, ctx.Err()
}

func (r *Runner) runOne(job Job) Outcome {
	res, err := adfgvx.Decipher(job.Ciphertext, job.Key, r.opts...)

	event := logging.AuditEvent{
		RequestID: job.ID,
		EventType: logging.EventBatchJob,
		Decision:  logging.DecisionAllow,
		Metadata: map[string]any{
			"key":     job.Key,
			"symbols": res.Symbols,
			"chars":   len(res.Plaintext),
			"partial": res.Partial(),
		},
	}
	if job.Line > 0 {
		event.Metadata["line"] = job.Line
	}
	if err != nil {
		event.Decision = logging.DecisionDeny
		event.Reason = err.Error()
	}
	_ = r.logger.Emit(event)

	return Outcome{Job: job, Result: res, Err: err}
}
