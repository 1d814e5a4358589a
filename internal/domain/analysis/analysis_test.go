package analysis_test

import (
	"testing"
	"time"

	"github.com/okian/zerodeadline/internal/domain/analysis"
	"github.com/okian/zerodeadline/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fixedPolicy int

func (fixedPolicy) Name() string { return "fixed" }

func (f fixedPolicy) Score([]model.ScheduleItem, time.Time) int { return int(f) }

func TestClassify(t *testing.T) {
	Convey("Given tier boundaries", t, func() {
		So(analysis.Classify(100), ShouldEqual, analysis.TierVeryHigh)
		So(analysis.Classify(80), ShouldEqual, analysis.TierVeryHigh)
		So(analysis.Classify(79), ShouldEqual, analysis.TierHigh)
		So(analysis.Classify(50), ShouldEqual, analysis.TierHigh)
		So(analysis.Classify(49), ShouldEqual, analysis.TierModerate)
		So(analysis.Classify(20), ShouldEqual, analysis.TierModerate)
		So(analysis.Classify(19), ShouldEqual, analysis.TierLow)
		So(analysis.Classify(0), ShouldEqual, analysis.TierLow)
	})
}

func TestAnalyzer_Analyze(t *testing.T) {
	today := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	Convey("Given the default analyzer", t, func() {
		a := analysis.New()

		Convey("When the schedule is empty", func() {
			got := a.Analyze(nil, today)

			Convey("Then the risk is low", func() {
				So(got.Score, ShouldEqual, 0)
				So(got.Tier, ShouldEqual, analysis.TierLow)
				So(got.Advice, ShouldStartWith, "Low")
			})
		})

		Convey("When a critical task is due today", func() {
			items := []model.ScheduleItem{{Title: "launch", Deadline: "2025-06-01", Importance: model.NewImportance(10)}}
			got := a.Analyze(items, today)

			Convey("Then the risk is very high", func() {
				So(got.Score, ShouldEqual, 100)
				So(got.Tier, ShouldEqual, analysis.TierVeryHigh)
				So(got.Advice, ShouldEqual, analysis.Advice(analysis.TierVeryHigh))
			})
		})
	})

	Convey("Given an analyzer with a custom policy", t, func() {
		a := analysis.New(analysis.WithPolicy(fixedPolicy(55)), analysis.WithPolicy(nil))
		got := a.Analyze(nil, today)
		So(got.Score, ShouldEqual, 55)
		So(got.Tier, ShouldEqual, analysis.TierHigh)
	})
}
