package evalgen

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/eqscore/eqs/internal/domain/model"
	"github.com/eqscore/eqs/internal/domain/scoring"
)

// meanEpsilon bounds the allowed difference between a locally computed
// mean and the one the service reports. The service folds exact scores
// in submission order, so floating point drift stays tiny.
const meanEpsilon = 1e-6

// expectedMeans recomputes the per-article mean from the generated
// evaluations using the same calculator the service runs.
func expectedMeans(ctx context.Context, evals []Evaluation) (map[string]float64, map[string]int, error) {
	calc := scoring.NewCalculator()

	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, ev := range evals {
		e := model.EventEvaluation{
			EvalID:         ev.EvalID,
			ArticleID:      ev.ArticleID,
			Model:          ev.Model,
			DateCorrect:    model.Rating(ev.DateCorrect),
			RootEvent:      model.Rating(ev.RootEvent),
			EventType:      model.Rating(ev.EventType),
			EventAmbiguity: model.Rating(ev.EventAmbiguity),
			Relevance:      model.Rating(ev.Relevance),
		}
		result, err := calc.Score(ctx, e)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to score generated evaluation %s: %w", ev.EvalID, err)
		}
		sums[ev.ArticleID] += result.Exact
		counts[ev.ArticleID]++
	}

	means := make(map[string]float64, len(sums))
	for id, sum := range sums {
		means[id] = sum / float64(counts[id])
	}
	return means, counts, nil
}

// verifyResults checks the service report against locally recomputed
// means and ordering.
func verifyResults(ctx context.Context, config *Config, evals []Evaluation, report []Entry, stats *Stats) error {
	log.Println("verifying results...")

	if len(report) == 0 {
		return fmt.Errorf("empty report")
	}

	means, counts, err := expectedMeans(ctx, evals)
	if err != nil {
		return err
	}

	mismatches := 0
	for _, entry := range report {
		stats.ArticlesChecked++
		want, ok := means[entry.ArticleID]
		if !ok {
			mismatches++
			log.Printf("report contains unknown article %s", entry.ArticleID)
			continue
		}
		if diff := entry.MeanEQS - want; diff > meanEpsilon || diff < -meanEpsilon {
			mismatches++
			log.Printf("mean mismatch for %s: got %.9f, want %.9f", entry.ArticleID, entry.MeanEQS, want)
		}
		if entry.Events != counts[entry.ArticleID] {
			mismatches++
			log.Printf("event count mismatch for %s: got %d, want %d", entry.ArticleID, entry.Events, counts[entry.ArticleID])
		}
	}
	stats.MeanMismatches = mismatches

	if err := verifyReportOrdering(report); err != nil {
		log.Printf("report ordering warning: %v", err)
	} else {
		log.Println("report ordering verified")
	}

	displayTopArticles(report, means, config.Verbose)

	if mismatches > 0 {
		return fmt.Errorf("%d report entries disagreed with locally computed means", mismatches)
	}

	log.Println("result verification completed")
	return nil
}

// verifyReportOrdering checks the report is sorted by mean descending
// with ties broken by article ID ascending, and ranks are dense.
func verifyReportOrdering(report []Entry) error {
	for i := 1; i < len(report); i++ {
		prev, cur := report[i-1], report[i]
		if cur.MeanEQS > prev.MeanEQS {
			return fmt.Errorf("entry %d has higher mean than entry %d", i, i-1)
		}
		if cur.MeanEQS == prev.MeanEQS {
			if cur.ArticleID < prev.ArticleID {
				return fmt.Errorf("tie between entries %d and %d not ordered by article ID", i-1, i)
			}
			if cur.Rank != prev.Rank {
				return fmt.Errorf("tied entries %d and %d have different ranks", i-1, i)
			}
		} else if cur.Rank != prev.Rank+1 {
			return fmt.Errorf("rank not dense between entries %d and %d", i-1, i)
		}
	}
	return nil
}

// displayTopArticles shows the top articles from the report.
func displayTopArticles(report []Entry, means map[string]float64, verbose bool) {
	topN := 10
	if len(report) < topN {
		topN = len(report)
	}

	log.Printf("top %d articles from report:", topN)
	for i := 0; i < topN; i++ {
		entry := report[i]
		log.Printf("   %d. %s - mean EQS: %.4f over %d events", entry.Rank, entry.ArticleID, entry.MeanEQS, entry.Events)
	}

	if verbose && len(means) > 0 {
		values := make([]float64, 0, len(means))
		for _, m := range means {
			values = append(values, m)
		}
		sort.Float64s(values)

		sum := 0.0
		for _, v := range values {
			sum += v
		}

		log.Printf("local mean statistics: average=%.4f max=%.4f min=%.4f articles=%d",
			sum/float64(len(values)), values[len(values)-1], values[0], len(values))
	}
}
