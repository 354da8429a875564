// Package repository defines the article report store interface and errors.
package repository

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/eqscore/eqs/internal/domain/model"
	"github.com/eqscore/eqs/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: mean EQS DESC, then articleID ASC (deterministic). The BST
// comparator treats "less" as "ranks earlier", so an in-order traversal
// yields the report from best to worst. Every Observe reorders the
// article's node, since a running mean moves in both directions.

// meanScale controls fixed-point scaling of the mean. EQS lives in [0,1],
// so nine decimal places fit comfortably in int64.
const meanScale = 1_000_000_000

type meanFP int64

func toFixedPoint(x float64) meanFP {
	if math.IsNaN(x) {
		return 0
	}
	return meanFP(math.Round(x * meanScale))
}

func toFloat(x meanFP) float64 {
	return float64(x) / meanScale
}

// aggregate holds the running totals for one article. The sum keeps exact
// (unrounded) EQS values so the mean never accumulates rounding error.
type aggregate struct {
	count int
	sum   float64
}

func (a aggregate) mean() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// treap node
type node struct {
	id    string
	mean  meanFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aMean, aID) ranks earlier than (bMean, bID).
func less(aMean meanFP, aID string, bMean meanFP, bID string) bool {
	if aMean != bMean {
		return aMean > bMean // higher mean ranks earlier
	}
	return aID < bID // tie-breaker by id asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// priority derives the heap priority from the key so the treap shape is
// deterministic for a given entry set.
func priority(mean meanFP, id string) uint64 {
	const offset = uint64(1) << 63
	h := uint64(14695981039346656037) // FNV-1a
	for i := 0; i < len(id); i++ {
		h ^= uint64(id[i])
		h *= 1099511628211
	}
	return (uint64(mean) + offset) ^ (h >> 1)
}

func insert(n *node, id string, mean meanFP) *node {
	if n == nil {
		return &node{id: id, mean: mean, prio: priority(mean, id), size: 1}
	}
	if less(mean, id, n.mean, n.id) {
		n.left = insert(n.left, id, mean)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, mean)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, id string, mean meanFP) *node {
	if n == nil {
		return nil
	}
	if mean == n.mean && id == n.id {
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, id, mean)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, id, mean)
		}
	} else if less(mean, id, n.mean, n.id) {
		n.left = remove(n.left, id, mean)
	} else {
		n.right = remove(n.right, id, mean)
	}
	fix(n)
	return n
}

// walk visits nodes in rank order until fn returns false.
func walk(n *node, fn func(*node) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, fn) {
		return false
	}
	if !fn(n) {
		return false
	}
	return walk(n.right, fn)
}

// MeanStore implements Store with a treap over running means.
type MeanStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]aggregate

	metricsInterval time.Duration
	wg              sync.WaitGroup
	stopChan        chan struct{}
	stopOnce        sync.Once
}

// NewMeanStore constructs a mean store with configuration options.
func NewMeanStore(ctx context.Context, opts ...Option) *MeanStore {
	s := &MeanStore{
		byID:            make(map[string]aggregate),
		metricsInterval: 5 * time.Second,
		stopChan:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.startMetricsUpdater(ctx)

	return s
}

// Close stops the background metrics goroutine.
func (s *MeanStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Observe implements Store.Observe with O(log n) expected time.
func (s *MeanStore) Observe(ctx context.Context, articleID string, exact float64) (model.ArticleScore, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	agg, known := s.byID[articleID]
	if known {
		s.root = remove(s.root, articleID, toFixedPoint(agg.mean()))
	}
	agg.count++
	agg.sum += exact
	s.byID[articleID] = agg
	s.root = insert(s.root, articleID, toFixedPoint(agg.mean()))
	total := len(s.byID)
	s.mu.Unlock()

	metrics.RecordStoreObservation()
	if !known {
		metrics.UpdateStoreArticles(total)
	}

	return model.ArticleScore{
		ArticleID: articleID,
		Events:    agg.count,
		MeanEQS:   agg.mean(),
	}, nil
}

// Rank returns the current rank and aggregate for an article.
func (s *MeanStore) Rank(ctx context.Context, articleID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	agg, ok := s.byID[articleID]
	if !ok {
		return Entry{}, ErrNotFound
	}

	// Dense rank: articles with an equal mean share a rank.
	rank := 0
	var prev meanFP
	target := toFixedPoint(agg.mean())
	walk(s.root, func(n *node) bool {
		if rank == 0 || n.mean != prev {
			rank++
			prev = n.mean
		}
		return n.mean != target
	})

	return Entry{
		Rank:      rank,
		ArticleID: articleID,
		MeanEQS:   agg.mean(),
		Events:    agg.count,
	}, nil
}

// TopN returns the top-N entries ordered by mean EQS desc.
func (s *MeanStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, n)
	rank := 0
	var prev meanFP
	walk(s.root, func(nd *node) bool {
		if len(out) >= n {
			return false
		}
		if rank == 0 || nd.mean != prev {
			rank++
			prev = nd.mean
		}
		agg := s.byID[nd.id]
		out = append(out, Entry{
			Rank:      rank,
			ArticleID: nd.id,
			MeanEQS:   agg.mean(),
			Events:    agg.count,
		})
		return true
	})

	return out, nil
}

// Count returns the total number of articles.
func (s *MeanStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *MeanStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStoreArticles(s.Count(ctx))
			}
		}
	}()
}
