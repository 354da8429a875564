// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"

	evalqueue "github.com/eqscore/eqs/internal/adapters/mq/queue"
	workerpool "github.com/eqscore/eqs/internal/adapters/mq/worker"
	repository "github.com/eqscore/eqs/internal/adapters/repository"
	"github.com/eqscore/eqs/internal/domain/dedupe"
	"github.com/eqscore/eqs/internal/domain/model"
	"github.com/eqscore/eqs/internal/domain/scoring"
	"github.com/eqscore/eqs/internal/domain/types"
	"github.com/eqscore/eqs/pkg/logger"
	"github.com/eqscore/eqs/pkg/metrics"
)

// Service implements the API dependencies for the EQS scoring system.
type Service struct {
	mu sync.RWMutex

	// Core components
	report     repository.Store
	deduper    dedupe.Deduper
	evalQueue  evalqueue.Queue
	calculator *scoring.Calculator
	workerPool *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	weights     map[string]float64
	precision   int

	// State
	started bool
	stopCh  chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the evaluation queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithWeights sets rubric weight overrides for scoring.
func WithWeights(weights map[string]float64) Option {
	return func(s *Service) {
		s.weights = weights
	}
}

// WithPrecision sets the number of decimal places on reported EQS values.
func WithPrecision(places int) Option {
	return func(s *Service) {
		if places >= 0 {
			s.precision = places
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   100_000,
		dedupeSize:  50_000,
		precision:   4,
		stopCh:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	// The calculator is stateless, so it is built eagerly; synchronous
	// scoring works even before Start.
	s.calculator = scoring.NewCalculator(
		scoring.WithWeightsFromConfig(s.weights),
		scoring.WithPrecision(s.precision),
	)

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting EQS scoring service...")

	s.report = repository.NewMeanStore(ctx)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.evalQueue = evalqueue.NewInMemoryQueue(
		evalqueue.WithCapacity(s.queueSize),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.evalQueue, s.calculator, s.report)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "EQS scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("precision", s.precision),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping EQS scoring service...")

	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	if s.report != nil {
		if closer, ok := s.report.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}

	if q, ok := s.evalQueue.(*evalqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	select {
	case <-s.stopCh:
		// already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(ctx, "EQS scoring service stopped")
}

// SeenAndRecord atomically checks if an evaluation id was seen and records
// it if not. Returns true if the id was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEvaluationDuplicate()
	}
	return seen
}

// Unrecord removes an evaluation id from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Score validates e and computes its EQS synchronously. Nothing is stored.
func (s *Service) Score(ctx context.Context, e model.EventEvaluation) (scoring.Result, error) {
	return s.calculator.Score(ctx, e)
}

// Submit enqueues a validated evaluation for asynchronous scoring.
// Returns false on backpressure.
func (s *Service) Submit(ctx context.Context, e model.EventEvaluation) bool {
	ok := s.evalQueue.Enqueue(ctx, e)
	if !ok {
		s.logger.Warn(ctx, "evaluation rejected by queue",
			logger.String("evalID", e.EvalID),
			logger.String("articleID", e.ArticleID),
		)
		return false
	}
	s.logger.Debug(ctx, "evaluation enqueued",
		logger.String("evalID", e.EvalID),
		logger.String("articleID", e.ArticleID),
		logger.String("model", e.Model),
	)
	return true
}

// TopN returns the top N article report entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.report.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	apiEntries := make([]types.Entry, len(entries))
	for i, entry := range entries {
		apiEntries[i] = types.Entry{
			Rank:      entry.Rank,
			ArticleID: entry.ArticleID,
			MeanEQS:   entry.MeanEQS,
			Events:    entry.Events,
		}
	}

	return apiEntries, nil
}

// ArticleScore returns the rank and aggregate for a given article id.
func (s *Service) ArticleScore(ctx context.Context, articleID string) (types.Entry, error) {
	entry, err := s.report.Rank(ctx, articleID)
	if err != nil {
		return types.Entry{}, err
	}

	return types.Entry{
		Rank:      entry.Rank,
		ArticleID: entry.ArticleID,
		MeanEQS:   entry.MeanEQS,
		Events:    entry.Events,
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.evalQueue.Len(ctx)
		articles := s.report.Count(ctx)

		stats["queueLength"] = queueLen
		stats["articles"] = articles

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStoreArticles(articles)
	}

	return stats
}
