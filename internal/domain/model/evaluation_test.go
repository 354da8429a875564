package model_test

import (
	"testing"

	model "github.com/eqscore/eqs/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEventEvaluation(t *testing.T) {
	Convey("Given an event evaluation", t, func() {
		Convey("When built with Rating helpers", func() {
			e := model.EventEvaluation{
				EvalID:         "eval-1",
				ArticleID:      "article-1",
				Model:          "gemini-2.0-flash",
				DateCorrect:    model.Rating(1),
				RootEvent:      model.Rating(0),
				EventType:      model.Rating(1),
				EventAmbiguity: model.Rating(2),
				Relevance:      model.Rating(3),
				Comment:        "date off by one day",
			}

			Convey("Then all rubric fields should be set", func() {
				So(e.DateCorrect, ShouldNotBeNil)
				So(*e.DateCorrect, ShouldEqual, 1)
				So(*e.RootEvent, ShouldEqual, 0)
				So(*e.EventType, ShouldEqual, 1)
				So(*e.EventAmbiguity, ShouldEqual, 2)
				So(*e.Relevance, ShouldEqual, 3)
			})
		})

		Convey("When a rubric field is left unset", func() {
			e := model.EventEvaluation{
				EvalID:      "eval-2",
				ArticleID:   "article-1",
				DateCorrect: model.Rating(0),
			}

			Convey("Then nil should be distinguishable from zero", func() {
				So(e.DateCorrect, ShouldNotBeNil)
				So(*e.DateCorrect, ShouldEqual, 0)
				So(e.RootEvent, ShouldBeNil)
				So(e.EventAmbiguity, ShouldBeNil)
			})
		})

		Convey("When Rating is called repeatedly", func() {
			a := model.Rating(1)
			b := model.Rating(1)

			Convey("Then each call should return an independent pointer", func() {
				So(a, ShouldNotPointTo, b)
				*a = 0
				So(*b, ShouldEqual, 1)
			})
		})
	})
}

func TestArticleScore(t *testing.T) {
	Convey("Given an article score aggregate", t, func() {
		score := model.ArticleScore{
			ArticleID: "article-1",
			Events:    4,
			MeanEQS:   0.8125,
		}

		Convey("Then it should carry the aggregate values", func() {
			So(score.ArticleID, ShouldEqual, "article-1")
			So(score.Events, ShouldEqual, 4)
			So(score.MeanEQS, ShouldEqual, 0.8125)
		})
	})
}
