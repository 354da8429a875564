package scoring_test

import (
	"context"
	"errors"
	"testing"

	"github.com/eqscore/eqs/internal/domain/model"
	scoring "github.com/eqscore/eqs/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func evaluation(dc, re, et, amb, rel int) model.EventEvaluation {
	return model.EventEvaluation{
		EvalID:         "eval-1",
		ArticleID:      "article-1",
		Model:          "gemini-2.0-flash",
		DateCorrect:    model.Rating(dc),
		RootEvent:      model.Rating(re),
		EventType:      model.Rating(et),
		EventAmbiguity: model.Rating(amb),
		Relevance:      model.Rating(rel),
	}
}

func TestCalculator_Score(t *testing.T) {
	Convey("Given a calculator with default weights", t, func() {
		calc := scoring.NewCalculator()

		Convey("When scoring a perfect evaluation", func() {
			result, err := calc.Score(context.Background(), evaluation(1, 1, 1, 3, 3))

			Convey("Then the score should be exactly 1", func() {
				So(err, ShouldBeNil)
				So(result.EQS, ShouldEqual, 1.0)
				So(result.Exact, ShouldEqual, 1.0)
				So(result.AmbiguityNorm, ShouldEqual, 1.0)
				So(result.RelevanceNorm, ShouldEqual, 1.0)
			})
		})

		Convey("When scoring a worst-case evaluation", func() {
			result, err := calc.Score(context.Background(), evaluation(0, 0, 0, 1, 1))

			Convey("Then the score should be exactly 0", func() {
				So(err, ShouldBeNil)
				So(result.EQS, ShouldEqual, 0.0)
				So(result.Exact, ShouldEqual, 0.0)
				So(result.AmbiguityNorm, ShouldEqual, 0.0)
				So(result.RelevanceNorm, ShouldEqual, 0.0)
			})
		})

		Convey("When scoring a mixed evaluation", func() {
			// dc=1 re=0 et=1 amb=2 rel=2
			// (2*1 + 1.5*0 + 1*1 + 0.75*0.5 + 0.75*0.5) / 6 = 0.625
			result, err := calc.Score(context.Background(), evaluation(1, 0, 1, 2, 2))

			Convey("Then the weighted mean should be 0.625", func() {
				So(err, ShouldBeNil)
				So(result.EQS, ShouldEqual, 0.625)
				So(result.Exact, ShouldEqual, 0.625)
				So(result.AmbiguityNorm, ShouldEqual, 0.5)
				So(result.RelevanceNorm, ShouldEqual, 0.5)
			})
		})

		Convey("When scoring the same evaluation repeatedly", func() {
			e := evaluation(1, 1, 0, 2, 3)

			Convey("Then results should be identical", func() {
				first, err1 := calc.Score(context.Background(), e)
				second, err2 := calc.Score(context.Background(), e)
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.EQS, ShouldEqual, second.EQS)
				So(first.Exact, ShouldEqual, second.Exact)
			})
		})

		Convey("When the three-point scales take each value", func() {
			Convey("Then they normalize to 0, 0.5 and 1", func() {
				for rating, want := range map[int]float64{1: 0.0, 2: 0.5, 3: 1.0} {
					result, err := calc.Score(context.Background(), evaluation(0, 0, 0, rating, rating))
					So(err, ShouldBeNil)
					So(result.AmbiguityNorm, ShouldEqual, want)
					So(result.RelevanceNorm, ShouldEqual, want)
				}
			})
		})

		Convey("When context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			Convey("Then it should return the context error", func() {
				_, err := calc.Score(ctx, evaluation(1, 1, 1, 3, 3))
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestCalculator_Validation(t *testing.T) {
	Convey("Given a calculator with default weights", t, func() {
		calc := scoring.NewCalculator()

		Convey("When a binary field is out of range", func() {
			e := evaluation(2, 1, 1, 2, 2)

			Convey("Then it should fail with ErrOutOfRange", func() {
				_, err := calc.Score(context.Background(), e)
				So(err, ShouldNotBeNil)
				So(errors.Is(err, scoring.ErrOutOfRange), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "date_correct")
			})
		})

		Convey("When ambiguity is zero", func() {
			e := evaluation(1, 1, 1, 0, 2)

			Convey("Then it should fail with ErrOutOfRange, never clamp", func() {
				_, err := calc.Score(context.Background(), e)
				So(err, ShouldNotBeNil)
				So(errors.Is(err, scoring.ErrOutOfRange), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "event_ambiguity")
			})
		})

		Convey("When relevance is above the scale", func() {
			e := evaluation(1, 1, 1, 2, 4)

			Convey("Then it should fail with ErrOutOfRange", func() {
				_, err := calc.Score(context.Background(), e)
				So(errors.Is(err, scoring.ErrOutOfRange), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "relevance")
			})
		})

		Convey("When a binary field is negative", func() {
			e := evaluation(1, -1, 1, 2, 2)

			Convey("Then it should fail with ErrOutOfRange", func() {
				_, err := calc.Score(context.Background(), e)
				So(errors.Is(err, scoring.ErrOutOfRange), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "root_event")
			})
		})

		Convey("When a field is missing entirely", func() {
			e := evaluation(1, 1, 1, 2, 2)
			e.EventType = nil

			Convey("Then it should fail with ErrMissingField", func() {
				_, err := calc.Score(context.Background(), e)
				So(err, ShouldNotBeNil)
				So(errors.Is(err, scoring.ErrMissingField), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "event_type")
			})
		})

		Convey("When Validate is called directly on a valid evaluation", func() {
			Convey("Then it should pass", func() {
				So(scoring.Validate(evaluation(0, 1, 0, 1, 3)), ShouldBeNil)
			})
		})
	})
}

func TestCalculator_Options(t *testing.T) {
	Convey("Given a calculator with uniform weights", t, func() {
		calc := scoring.NewCalculator(
			scoring.WithWeights(scoring.Weights{
				DateCorrect: 1,
				RootEvent:   1,
				EventType:   1,
				Ambiguity:   1,
				Relevance:   1,
			}),
		)

		Convey("When scoring an evaluation", func() {
			// (1 + 0 + 1 + 0.5 + 1) / 5 = 0.7
			result, err := calc.Score(context.Background(), evaluation(1, 0, 1, 2, 3))

			Convey("Then the denominator should follow the weight sum", func() {
				So(err, ShouldBeNil)
				So(result.EQS, ShouldEqual, 0.7)
			})
		})
	})

	Convey("Given a calculator configured from a weight map", t, func() {
		calc := scoring.NewCalculator(
			scoring.WithWeightsFromConfig(map[string]float64{
				"date_correct": 4,
				"root_event":   3,
				"event_type":   2,
				"ambiguity":    1.5,
				"relevance":    1.5,
			}),
		)

		Convey("When scoring a perfect evaluation", func() {
			result, err := calc.Score(context.Background(), evaluation(1, 1, 1, 3, 3))

			Convey("Then the score should still be 1", func() {
				So(err, ShouldBeNil)
				So(result.EQS, ShouldEqual, 1.0)
			})
		})
	})

	Convey("Given a calculator with reduced precision", t, func() {
		calc := scoring.NewCalculator(scoring.WithPrecision(2))

		Convey("When the exact score does not terminate", func() {
			// (2 + 1.5) / 6 = 0.58333...
			result, err := calc.Score(context.Background(), evaluation(1, 1, 0, 1, 1))

			Convey("Then eqs should be rounded while exact is not", func() {
				So(err, ShouldBeNil)
				So(result.EQS, ShouldEqual, 0.58)
				So(result.Exact, ShouldAlmostEqual, 0.5833333333, 1e-9)
			})
		})
	})

	Convey("Given zero-total weights", t, func() {
		calc := scoring.NewCalculator(scoring.WithWeights(scoring.Weights{}))

		Convey("When scoring, the default weights should apply", func() {
			result, err := calc.Score(context.Background(), evaluation(1, 0, 1, 2, 2))
			So(err, ShouldBeNil)
			So(result.EQS, ShouldEqual, 0.625)
		})
	})
}
