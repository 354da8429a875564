// Package model contains domain models passed between layers.
package model

// EventEvaluation holds one annotator's judgment of a single extracted
// timeline event. The five rubric fields are pointers so that an absent
// value is distinguishable from a legitimate zero.
type EventEvaluation struct {
	EvalID    string // unique id for idempotency
	ArticleID string // article whose timeline the event belongs to
	Model     string // model that extracted the event, e.g. "gpt-4o-mini"

	DateCorrect    *int // 0 or 1
	RootEvent      *int // 0 or 1
	EventType      *int // 0 or 1
	EventAmbiguity *int // 1..3
	Relevance      *int // 1..3

	Comment string // free-form annotator note; never scored
}

// Rating returns a pointer to v, for building evaluation literals.
func Rating(v int) *int { return &v }

// ArticleScore captures the running EQS aggregate for one article.
type ArticleScore struct {
	ArticleID string
	Events    int
	MeanEQS   float64
}
