package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metrics are registered under the namespace", func() {
				m.evaluations.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_evaluations_total" {
						found = true
					}
					So(strings.HasPrefix(f.GetName(), "test_unit_"), ShouldBeTrue)
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are given", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "zerodeadline")
				So(m.subsystem, ShouldEqual, "risk")
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When an evaluation is recorded", func() {
			before := testutil.ToFloat64(globalManager.evaluations)
			RecordEvaluation(40, 30, 37, 6.5)

			Convey("Then the gauges hold the latest scores", func() {
				So(testutil.ToFloat64(globalManager.evaluations), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.combinedScore), ShouldEqual, 37)
				So(testutil.ToFloat64(globalManager.stressMean), ShouldEqual, 6.5)
			})
		})

		Convey("When history records are counted", func() {
			appended := testutil.ToFloat64(globalManager.historyAppended)
			skipped := testutil.ToFloat64(globalManager.historySkipped)
			RecordHistoryAppend(true)
			RecordHistoryAppend(false)
			RecordHistoryAppend(false)
			UpdateHistorySize(12)

			So(testutil.ToFloat64(globalManager.historyAppended), ShouldEqual, appended+1)
			So(testutil.ToFloat64(globalManager.historySkipped), ShouldEqual, skipped+2)
			So(testutil.ToFloat64(globalManager.historySize), ShouldEqual, 12)
		})

		Convey("When stress samples are counted", func() {
			dup := testutil.ToFloat64(globalManager.stressDuplicates)
			RecordStressSample(true)
			RecordStressSample(false)
			So(testutil.ToFloat64(globalManager.stressDuplicates), ShouldEqual, dup+1)
		})

		Convey("When labeled metrics are recorded", func() {
			So(func() {
				RecordDegraded("schedule")
				UpdateSchedulesTotal(4)
				RecordStoreLatency("history_file", "record", 1.5)
				RecordLLMRequest("advice", "success", 820)
				RecordLLMRetry()
				RecordCalendarRequest("error")
				RecordHTTPRequest("/api/dashboard", "GET", "200")
				RecordHTTPRequestDuration("/api/dashboard", "GET", "200", 3)
				RecordErrorByComponent("llm", "timeout")
				RecordErrorByEndpoint("/api/advice", "POST", "upstream")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)

			So(testutil.ToFloat64(globalManager.llmRequests.WithLabelValues("advice", "success")), ShouldBeGreaterThanOrEqualTo, 1)
			So(testutil.ToFloat64(globalManager.schedulesTotal), ShouldEqual, 4)
		})

		Convey("Then the custom registry is exposed", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
