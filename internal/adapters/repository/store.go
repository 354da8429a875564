// Package repository defines the article report store interface and errors.
package repository

import (
	"context"

	"github.com/eqscore/eqs/internal/domain/model"
)

// Entry represents one article report row.
type Entry struct {
	Rank      int
	ArticleID string
	MeanEQS   float64
	Events    int
}

// Store maintains per-article EQS aggregates ranked by mean score.
type Store interface {
	// Observe folds one exact (unrounded) EQS value into the article's
	// running aggregate and returns the updated aggregate.
	Observe(ctx context.Context, articleID string, exact float64) (model.ArticleScore, error)

	// Rank returns the current rank and aggregate for an article.
	// Returns ErrNotFound if the article is unknown.
	Rank(ctx context.Context, articleID string) (Entry, error)

	// TopN returns the top-N entries ordered by mean EQS desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of articles tracked.
	Count(ctx context.Context) int
}
