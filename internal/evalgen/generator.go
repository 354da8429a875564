package evalgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/google/uuid"

	"github.com/eqscore/eqs/pkg/logger"
)

// Extraction models the annotators score. Spread mirrors the real
// annotation sheet, which covers more than one model per article.
var extractionModels = []string{
	"gemini-2.0-flash",
	"gpt-4o-mini",
}

// Annotation quality profiles; weights skew toward mostly-correct
// extractions the way real annotation rounds do.
const (
	profileDivisor     = 8
	caseAllCorrect     = 0
	caseMostlyCorrect  = 1
	caseWrongDate      = 2
	caseWrongRoot      = 3
	caseAmbiguous      = 4
	caseOffTopic       = 5
	caseMixed          = 6
	caseAllWrong       = 7
	binaryUpper        = 2 // exclusive bound for {0,1}
	scaleOffset        = 1 // ratings start at 1
	scaleSpan          = 3 // ratings span {1,2,3}
	evalIDSuffixBound  = 10000
	defaultNumArticles = 100
)

// randomInt returns a uniform int in [0, n) using crypto/rand.
func randomInt(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// generateEvaluations creates the requested number of evaluations spread
// across a fixed pool of article IDs so per-article means aggregate more
// than one observation.
func generateEvaluations(ctx context.Context, config *Config, stats *Stats) ([]Evaluation, error) {
	numArticles := config.NumArticles
	if numArticles <= 0 {
		numArticles = defaultNumArticles
	}
	if numArticles > config.NumEvals {
		numArticles = config.NumEvals
	}

	logger.Get().Info(ctx, "generating evaluations",
		logger.Int("numEvals", config.NumEvals),
		logger.Int("numArticles", numArticles))

	articleIDs := make([]string, numArticles)
	for i := range articleIDs {
		articleIDs[i] = uuid.New().String()
	}

	evals := make([]Evaluation, config.NumEvals)
	for i := 0; i < config.NumEvals; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during evaluation generation: %w", ctx.Err())
		default:
		}
		articleID := articleIDs[i%numArticles]
		evals[i] = generateSingleEvaluation(i, articleID)
	}

	stats.EvalsGenerated = len(evals)
	logger.Get().Info(ctx, "generated evaluations successfully", logger.Int("count", len(evals)))

	return evals, nil
}

// generateSingleEvaluation creates one evaluation with rubric values drawn
// from an annotation quality profile. All generated values are in-range;
// range violations are exercised by unit tests, not the load tool.
func generateSingleEvaluation(index int, articleID string) Evaluation {
	dc, re, et, amb, rel := generateRubricProfile()

	model := extractionModels[index%len(extractionModels)]
	evalID := "eval_" + strconv.Itoa(index) + "_" + strconv.FormatInt(randomInt(evalIDSuffixBound), 10) + "_" + uuid.New().String()

	return Evaluation{
		EvalID:         evalID,
		ArticleID:      articleID,
		Model:          model,
		DateCorrect:    dc,
		RootEvent:      re,
		EventType:      et,
		EventAmbiguity: amb,
		Relevance:      rel,
		Comment:        "",
	}
}

// generateRubricProfile draws one of eight annotation profiles and fills
// the rubric accordingly.
func generateRubricProfile() (dc, re, et, amb, rel int) {
	switch randomInt(profileDivisor) {
	case caseAllCorrect:
		// Clean extraction: everything right, unambiguous, central.
		return 1, 1, 1, 3, 3
	case caseMostlyCorrect:
		// Right event, slightly hazy framing.
		return 1, 1, 1, 2, 3
	case caseWrongDate:
		// Date off by one but otherwise solid.
		return 0, 1, 1, 2, 2
	case caseWrongRoot:
		// Picked a follow-up event instead of the root.
		return 1, 0, 1, 2, 2
	case caseAmbiguous:
		// Hard to tell what the event even is.
		return 1, 1, 0, 1, 2
	case caseOffTopic:
		// Marginally related to the article's timeline.
		return 0, 1, 0, 2, 1
	case caseMixed:
		// Fully random in-range values.
		return int(randomInt(binaryUpper)), int(randomInt(binaryUpper)), int(randomInt(binaryUpper)),
			scaleOffset + int(randomInt(scaleSpan)), scaleOffset + int(randomInt(scaleSpan))
	case caseAllWrong:
		// Worst case extraction.
		return 0, 0, 0, 1, 1
	default:
		return 1, 1, 1, 2, 2
	}
}
