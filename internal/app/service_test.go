package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repository "github.com/eqscore/eqs/internal/adapters/repository"
	app "github.com/eqscore/eqs/internal/app"
	"github.com/eqscore/eqs/internal/domain/model"
	"github.com/eqscore/eqs/internal/domain/scoring"
	logging "github.com/eqscore/eqs/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func validEvaluation(evalID, articleID string) model.EventEvaluation {
	return model.EventEvaluation{
		EvalID:         evalID,
		ArticleID:      articleID,
		Model:          "gemini-2.0-flash",
		DateCorrect:    model.Rating(1),
		RootEvent:      model.Rating(1),
		EventType:      model.Rating(1),
		EventAmbiguity: model.Rating(3),
		Relevance:      model.Rating(3),
	}
}

func waitForArticle(ctx context.Context, svc *app.Service, articleID string, events int) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		entry, err := svc.ArticleScore(ctx, articleID)
		if err == nil && entry.Events >= events {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestService(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		_ = logging.Init()

		ctx := context.Background()
		svc := app.New(
			app.WithWorkerCount(2),
			app.WithQueueSize(100),
			app.WithDedupeSize(1000),
		)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("When scoring synchronously", func() {
			result, err := svc.Score(ctx, validEvaluation("eval-sync", "article-sync"))

			convey.Convey("Then the score should be computed without storing", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(result.EQS, convey.ShouldEqual, 1.0)

				_, err := svc.ArticleScore(ctx, "article-sync")
				convey.So(errors.Is(err, repository.ErrNotFound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When scoring an invalid evaluation synchronously", func() {
			e := validEvaluation("eval-bad", "article-bad")
			e.EventAmbiguity = model.Rating(0)

			_, err := svc.Score(ctx, e)

			convey.Convey("Then it should surface the validation error", func() {
				convey.So(errors.Is(err, scoring.ErrOutOfRange), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When submitting evaluations for async processing", func() {
			convey.So(svc.Submit(ctx, validEvaluation("eval-1", "article-a")), convey.ShouldBeTrue)
			convey.So(svc.Submit(ctx, validEvaluation("eval-2", "article-a")), convey.ShouldBeTrue)

			convey.Convey("Then the article aggregate should appear in the report", func() {
				convey.So(waitForArticle(ctx, svc, "article-a", 2), convey.ShouldBeTrue)

				entry, err := svc.ArticleScore(ctx, "article-a")
				convey.So(err, convey.ShouldBeNil)
				convey.So(entry.ArticleID, convey.ShouldEqual, "article-a")
				convey.So(entry.Events, convey.ShouldEqual, 2)
				convey.So(entry.MeanEQS, convey.ShouldEqual, 1.0)
				convey.So(entry.Rank, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When recording evaluation ids", func() {
			convey.So(svc.SeenAndRecord(ctx, "eval-dup"), convey.ShouldBeFalse)

			convey.Convey("Then a repeat should be flagged as duplicate", func() {
				convey.So(svc.SeenAndRecord(ctx, "eval-dup"), convey.ShouldBeTrue)
			})

			convey.Convey("And unrecording should allow a retry", func() {
				svc.Unrecord(ctx, "eval-dup")
				convey.So(svc.SeenAndRecord(ctx, "eval-dup"), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When fetching the report", func() {
			lowQuality := validEvaluation("eval-low", "article-low")
			lowQuality.DateCorrect = model.Rating(0)
			lowQuality.RootEvent = model.Rating(0)

			convey.So(svc.Submit(ctx, validEvaluation("eval-high", "article-high")), convey.ShouldBeTrue)
			convey.So(svc.Submit(ctx, lowQuality), convey.ShouldBeTrue)
			convey.So(waitForArticle(ctx, svc, "article-high", 1), convey.ShouldBeTrue)
			convey.So(waitForArticle(ctx, svc, "article-low", 1), convey.ShouldBeTrue)

			convey.Convey("Then entries should be ordered by mean EQS", func() {
				entries, err := svc.TopN(ctx, 10)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(entries), convey.ShouldBeGreaterThanOrEqualTo, 2)
				for i := 0; i < len(entries)-1; i++ {
					convey.So(entries[i].MeanEQS, convey.ShouldBeGreaterThanOrEqualTo, entries[i+1].MeanEQS)
				}
			})
		})

		convey.Convey("When fetching service stats", func() {
			stats := svc.GetStats()

			convey.Convey("Then they should describe the running service", func() {
				convey.So(stats["started"], convey.ShouldBeTrue)
				convey.So(stats["workerCount"], convey.ShouldEqual, 2)
				convey.So(stats["queueSize"], convey.ShouldEqual, 100)
				convey.So(stats, convey.ShouldContainKey, "queueLength")
				convey.So(stats, convey.ShouldContainKey, "articles")
			})
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	convey.Convey("Given a new service", t, func() {
		_ = logging.Init()
		ctx := context.Background()

		svc := app.New(app.WithWorkerCount(1), app.WithQueueSize(10))

		convey.Convey("When scoring before Start", func() {
			result, err := svc.Score(ctx, validEvaluation("eval-pre", "article-pre"))

			convey.Convey("Then synchronous scoring should already work", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(result.EQS, convey.ShouldEqual, 1.0)
			})
		})

		convey.Convey("When starting twice", func() {
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then the second start should be a no-op", func() {
				convey.So(svc.Start(ctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When stopping twice", func() {
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			svc.Stop()

			convey.Convey("Then the second stop should not panic", func() {
				convey.So(svc.Stop, convey.ShouldNotPanic)
			})
		})
	})
}

func TestService_CustomScoring(t *testing.T) {
	convey.Convey("Given a service with custom weights and precision", t, func() {
		_ = logging.Init()
		ctx := context.Background()

		svc := app.New(
			app.WithWeights(map[string]float64{
				"date_correct": 1,
				"root_event":   1,
				"event_type":   1,
				"ambiguity":    1,
				"relevance":    1,
			}),
			app.WithPrecision(2),
		)

		convey.Convey("When scoring an evaluation", func() {
			e := validEvaluation("eval-w", "article-w")
			e.RootEvent = model.Rating(0)
			e.EventAmbiguity = model.Rating(2)

			result, err := svc.Score(ctx, e)

			convey.Convey("Then the configured weights should apply", func() {
				convey.So(err, convey.ShouldBeNil)
				// (1 + 0 + 1 + 0.5 + 1) / 5 = 0.7
				convey.So(result.EQS, convey.ShouldEqual, 0.7)
			})
		})
	})
}
