// Package worker defines worker contracts for asynchronous scoring and
// aggregate updates.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/eqscore/eqs/internal/domain/model"
	"github.com/eqscore/eqs/internal/domain/scoring"
	"github.com/eqscore/eqs/pkg/logger"
	"github.com/eqscore/eqs/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Evaluation abstracts what workers read off the queue.
type Evaluation = model.EventEvaluation

// Aggregator folds a scored evaluation into its article aggregate.
type Aggregator interface {
	Observe(ctx context.Context, articleID string, exact float64) (model.ArticleScore, error)
}

// Queue defines how workers receive evaluations.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Evaluation
}

// Worker processes evaluations and writes aggregate updates using the
// provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing evaluations.
type InMemoryWorker struct {
	queue      Queue
	scorer     scoring.Scorer
	aggregator Aggregator
	name       string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, scorer scoring.Scorer, aggregator Aggregator, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      queue,
		scorer:     scorer,
		aggregator: aggregator,
		name:       "worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	evalChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-evalChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}
			if err := w.processEvaluation(ctx, e); err != nil {
				w.logger.Error(ctx, "error processing evaluation", logger.Error(err))
			}
		}
	}
}

// signalStop closes the shutdown channel exactly once.
func (w *InMemoryWorker) signalStop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.signalStop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvaluation scores a single evaluation and folds the exact (not the
// rounded) EQS into the article aggregate.
func (w *InMemoryWorker) processEvaluation(ctx context.Context, e Evaluation) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	scoreStart := time.Now()
	result, err := w.scorer.Score(ctx, e)
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Milliseconds()))

	if err != nil {
		// Submissions are validated at the API boundary, so a rubric
		// violation here means the caller bypassed it.
		switch {
		case errors.Is(err, scoring.ErrMissingField):
			metrics.RecordValidationFailure("missing_field")
		case errors.Is(err, scoring.ErrOutOfRange):
			metrics.RecordValidationFailure("out_of_range")
		default:
			metrics.RecordScoringError()
		}
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "scoring failed for evaluation",
			logger.String("evalID", e.EvalID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to score evaluation %s: %w", e.EvalID, err)
	}

	aggregate, err := w.aggregator.Observe(ctx, e.ArticleID, result.Exact)
	if err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "aggregate update failed for evaluation",
			logger.String("evalID", e.EvalID),
			logger.String("articleID", e.ArticleID),
			logger.Error(err),
		)
		return fmt.Errorf("aggregate update failed: %w", err)
	}

	metrics.RecordEvaluationScored()
	w.logger.Debug(ctx, "evaluation scored",
		logger.String("evalID", e.EvalID),
		logger.String("articleID", e.ArticleID),
		logger.String("model", e.Model),
		logger.Float64("eqs", result.EQS),
		logger.Float64("meanEQS", aggregate.MeanEQS),
		logger.Int("events", aggregate.Events),
	)

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers    []*InMemoryWorker
	queue      Queue
	scorer     scoring.Scorer
	aggregator Aggregator

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, scorer scoring.Scorer, aggregator Aggregator) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:    make([]*InMemoryWorker, workerCount),
		queue:      queue,
		scorer:     scorer,
		aggregator: aggregator,
		shutdown:   make(chan struct{}),
		logger:     logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			scorer,
			aggregator,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		w.signalStop()
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
	metrics.UpdateWorkerActiveCount(0)
}

// Shutdown gracefully shuts down the entire worker pool, closing the queue
// first so no new evaluations arrive.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)

	return nil
}
