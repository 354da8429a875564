package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	repository "github.com/eqscore/eqs/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMeanStore_Observe(t *testing.T) {
	Convey("Given an empty mean store", t, func() {
		ctx := context.Background()
		store := repository.NewMeanStore(ctx)
		defer store.Close()

		Convey("When observing a first score for an article", func() {
			score, err := store.Observe(ctx, "article-a", 1.0)

			Convey("Then the mean should equal the score", func() {
				So(err, ShouldBeNil)
				So(score.ArticleID, ShouldEqual, "article-a")
				So(score.Events, ShouldEqual, 1)
				So(score.MeanEQS, ShouldEqual, 1.0)
			})
		})

		Convey("When observing several scores for the same article", func() {
			_, err := store.Observe(ctx, "article-a", 1.0)
			So(err, ShouldBeNil)
			score, err := store.Observe(ctx, "article-a", 0.5)

			Convey("Then the running mean should fold them in", func() {
				So(err, ShouldBeNil)
				So(score.Events, ShouldEqual, 2)
				So(score.MeanEQS, ShouldEqual, 0.75)
			})

			Convey("And a third observation keeps the fold exact", func() {
				third, err := store.Observe(ctx, "article-a", 0.25)
				So(err, ShouldBeNil)
				So(third.Events, ShouldEqual, 3)
				So(third.MeanEQS, ShouldAlmostEqual, (1.0+0.5+0.25)/3, 1e-12)
			})
		})

		Convey("When a new observation lowers an article's mean", func() {
			_, _ = store.Observe(ctx, "article-a", 0.9)
			_, _ = store.Observe(ctx, "article-b", 0.6)
			_, _ = store.Observe(ctx, "article-a", 0.1) // mean drops to 0.5

			Convey("Then the ordering should move the article down", func() {
				top, err := store.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
				So(top[0].ArticleID, ShouldEqual, "article-b")
				So(top[1].ArticleID, ShouldEqual, "article-a")
				So(top[1].MeanEQS, ShouldEqual, 0.5)
			})
		})
	})
}

func TestMeanStore_Rank(t *testing.T) {
	Convey("Given a store with several articles", t, func() {
		ctx := context.Background()
		store := repository.NewMeanStore(ctx)
		defer store.Close()

		_, _ = store.Observe(ctx, "article-a", 0.9)
		_, _ = store.Observe(ctx, "article-b", 0.9)
		_, _ = store.Observe(ctx, "article-c", 0.5)

		Convey("When ranking articles with equal means", func() {
			a, errA := store.Rank(ctx, "article-a")
			b, errB := store.Rank(ctx, "article-b")
			c, errC := store.Rank(ctx, "article-c")

			Convey("Then ties should share a dense rank", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(errC, ShouldBeNil)
				So(a.Rank, ShouldEqual, 1)
				So(b.Rank, ShouldEqual, 1)
				So(c.Rank, ShouldEqual, 2)
			})
		})

		Convey("When ranking an unknown article", func() {
			_, err := store.Rank(ctx, "article-zzz")

			Convey("Then it should return ErrNotFound", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestMeanStore_TopN(t *testing.T) {
	Convey("Given a store with several articles", t, func() {
		ctx := context.Background()
		store := repository.NewMeanStore(ctx)
		defer store.Close()

		_, _ = store.Observe(ctx, "article-d", 0.2)
		_, _ = store.Observe(ctx, "article-b", 0.8)
		_, _ = store.Observe(ctx, "article-c", 0.8)
		_, _ = store.Observe(ctx, "article-a", 0.95)

		Convey("When fetching the full report", func() {
			top, err := store.TopN(ctx, 10)

			Convey("Then entries should be ordered by mean desc, id asc", func() {
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 4)
				So(top[0].ArticleID, ShouldEqual, "article-a")
				So(top[1].ArticleID, ShouldEqual, "article-b")
				So(top[2].ArticleID, ShouldEqual, "article-c")
				So(top[3].ArticleID, ShouldEqual, "article-d")
			})

			Convey("And ranks should be dense across ties", func() {
				So(top[0].Rank, ShouldEqual, 1)
				So(top[1].Rank, ShouldEqual, 2)
				So(top[2].Rank, ShouldEqual, 2)
				So(top[3].Rank, ShouldEqual, 3)
			})
		})

		Convey("When fetching fewer entries than stored", func() {
			top, err := store.TopN(ctx, 2)

			Convey("Then only the best articles should be returned", func() {
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
				So(top[0].ArticleID, ShouldEqual, "article-a")
				So(top[1].ArticleID, ShouldEqual, "article-b")
			})
		})

		Convey("When the limit is not positive", func() {
			_, err := store.TopN(ctx, 0)

			Convey("Then it should return ErrInvalidLimit", func() {
				So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
			})
		})
	})
}

func TestMeanStore_Count(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store := repository.NewMeanStore(ctx)
		defer store.Close()

		So(store.Count(ctx), ShouldEqual, 0)

		Convey("When observing many articles", func() {
			for i := 0; i < 100; i++ {
				_, _ = store.Observe(ctx, fmt.Sprintf("article-%03d", i), 0.5)
			}

			Convey("Then count should track distinct articles", func() {
				So(store.Count(ctx), ShouldEqual, 100)
			})

			Convey("And repeat observations should not add articles", func() {
				_, _ = store.Observe(ctx, "article-050", 0.9)
				So(store.Count(ctx), ShouldEqual, 100)
			})
		})
	})
}

func TestMeanStore_Deterministic(t *testing.T) {
	Convey("Given two stores fed the same observations in different order", t, func() {
		ctx := context.Background()
		first := repository.NewMeanStore(ctx)
		defer first.Close()
		second := repository.NewMeanStore(ctx)
		defer second.Close()

		type obs struct {
			id    string
			score float64
		}
		observations := []obs{
			{"article-a", 0.9}, {"article-b", 0.7}, {"article-c", 0.7},
			{"article-d", 0.3}, {"article-e", 1.0}, {"article-f", 0.0},
		}

		for _, o := range observations {
			_, _ = first.Observe(ctx, o.id, o.score)
		}
		for i := len(observations) - 1; i >= 0; i-- {
			_, _ = second.Observe(ctx, observations[i].id, observations[i].score)
		}

		Convey("When fetching both reports", func() {
			topFirst, err1 := first.TopN(ctx, 10)
			topSecond, err2 := second.TopN(ctx, 10)

			Convey("Then the reports should be identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(topFirst, ShouldResemble, topSecond)
			})
		})
	})
}
