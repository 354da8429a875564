// Package scoring validates event evaluations against the annotation rubric
// and computes the composite Event Quality Score (EQS).
package scoring

import (
	"context"
	"fmt"
	"math"

	"github.com/eqscore/eqs/internal/domain/model"
)

// Rubric domains.
const (
	binaryMin = 0
	binaryMax = 1
	scaleMin  = 1
	scaleMax  = 3
)

// defaultPrecision is the number of decimal places kept on the reported EQS.
const defaultPrecision = 4

// Weights holds the per-dimension weighting of the EQS formula.
// The denominator is always the sum of the weights, so any weight set
// keeps the score in [0,1].
type Weights struct {
	DateCorrect float64
	RootEvent   float64
	EventType   float64
	Ambiguity   float64
	Relevance   float64
}

// DefaultWeights returns the rubric's published weighting.
func DefaultWeights() Weights {
	return Weights{
		DateCorrect: 2.0,
		RootEvent:   1.5,
		EventType:   1.0,
		Ambiguity:   0.75,
		Relevance:   0.75,
	}
}

// Total returns the sum of all weights, i.e. the maximum attainable
// numerator and therefore the score denominator.
func (w Weights) Total() float64 {
	return w.DateCorrect + w.RootEvent + w.EventType + w.Ambiguity + w.Relevance
}

// Result carries the computed score for one evaluation.
//
// EQS is rounded to the calculator's precision for reporting. Exact is the
// unrounded value; anything that aggregates scores (per-article means and
// the like) must consume Exact to avoid compounding rounding error.
type Result struct {
	EQS           float64
	Exact         float64
	AmbiguityNorm float64
	RelevanceNorm float64
}

// Scorer computes an EQS from one evaluation.
type Scorer interface {
	// Score validates the evaluation and computes its EQS, honoring ctx
	// for cancellation.
	Score(ctx context.Context, e model.EventEvaluation) (Result, error)
}

// Calculator implements Scorer. It is stateless after construction and
// safe for concurrent use.
type Calculator struct {
	weights   Weights
	precision int
}

// NewCalculator creates a calculator with configuration options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		weights:   DefaultWeights(),
		precision: defaultPrecision,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Weights returns the calculator's active weight set.
func (c *Calculator) Weights() Weights { return c.weights }

// Validate checks one evaluation against the rubric domains. Binary fields
// must be exactly 0 or 1, the 1-3 scales exactly 1, 2 or 3, and all five
// numeric fields must be present. Values are never clamped or defaulted.
func Validate(e model.EventEvaluation) error {
	if err := checkBinary("date_correct", e.DateCorrect); err != nil {
		return err
	}
	if err := checkBinary("root_event", e.RootEvent); err != nil {
		return err
	}
	if err := checkBinary("event_type", e.EventType); err != nil {
		return err
	}
	if err := checkScale("event_ambiguity", e.EventAmbiguity); err != nil {
		return err
	}
	return checkScale("relevance", e.Relevance)
}

// Score validates e and computes its EQS. On validation failure no partial
// result is produced. The computation itself cannot fail.
func (c *Calculator) Score(ctx context.Context, e model.EventEvaluation) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, fmt.Errorf("scoring cancelled: %w", ctx.Err())
	default:
	}

	if err := Validate(e); err != nil {
		return Result{}, err
	}

	ambiguityNorm := normalizeScale(*e.EventAmbiguity)
	relevanceNorm := normalizeScale(*e.Relevance)

	numerator := c.weights.DateCorrect*float64(*e.DateCorrect) +
		c.weights.RootEvent*float64(*e.RootEvent) +
		c.weights.EventType*float64(*e.EventType) +
		c.weights.Ambiguity*ambiguityNorm +
		c.weights.Relevance*relevanceNorm

	exact := numerator / c.weights.Total()

	return Result{
		EQS:           roundTo(exact, c.precision),
		Exact:         exact,
		AmbiguityNorm: ambiguityNorm,
		RelevanceNorm: relevanceNorm,
	}, nil
}

// normalizeScale maps a 1-3 rating onto [0,1]: {1,2,3} -> {0, 0.5, 1}.
func normalizeScale(v int) float64 {
	return float64(v-scaleMin) / float64(scaleMax-scaleMin)
}

// roundTo rounds x to the given number of decimal places.
func roundTo(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}

func checkBinary(name string, v *int) error {
	if v == nil {
		return fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	if *v < binaryMin || *v > binaryMax {
		return fmt.Errorf("%w: %s = %d, want 0 or 1", ErrOutOfRange, name, *v)
	}
	return nil
}

func checkScale(name string, v *int) error {
	if v == nil {
		return fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	if *v < scaleMin || *v > scaleMax {
		return fmt.Errorf("%w: %s = %d, want 1, 2 or 3", ErrOutOfRange, name, *v)
	}
	return nil
}
