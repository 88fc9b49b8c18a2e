package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered on that registry", func() {
				So(manager, ShouldNotBeNil)
				manager.evaluations.WithLabelValues("scored").Inc()
				mfs, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, mf := range mfs {
					names[mf.GetName()] = true
				}
				So(names["test_unit_evaluations_total"], ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording evaluation metrics", func() {
			So(func() {
				RecordEvaluation("scored")
				RecordEvaluation("fallback")
				RecordFallback("no_candidate")
				RecordScores(3, 4)
			}, ShouldNotPanic)
		})

		Convey("When recording generation and queue metrics", func() {
			So(func() {
				RecordGenerationLatency(0.25)
				RecordGenerationError("ollama")
				UpdateQueueSize(2)
				UpdateQueueCapacity(64)
				RecordQueueEnqueueError("queue_full")
				UpdateWorkerCount(1)
				WorkerBusy()
				WorkerIdle()
				RecordWorkerJobDropped()
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("evaluate", "POST", "200")
				RecordHTTPRequestDuration("evaluate", "POST", "200", 0.01)
			}, ShouldNotPanic)
		})
	})
}

func TestCounterTotals(t *testing.T) {
	Convey("Given fallbacks recorded under two reasons", t, func() {
		before, err := CounterTotals("sway_evaluator_fallbacks_total", "reason")
		So(err, ShouldBeNil)

		RecordFallback("empty_input")
		RecordFallback("empty_input")
		RecordFallback("out_of_range")

		Convey("Then totals are keyed by the label value", func() {
			after, err := CounterTotals("sway_evaluator_fallbacks_total", "reason")
			So(err, ShouldBeNil)
			So(after["empty_input"]-before["empty_input"], ShouldEqual, 2.0)
			So(after["out_of_range"]-before["out_of_range"], ShouldEqual, 1.0)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	if GetRegistry() == nil {
		t.Fatal("registry is nil")
	}
}
