package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When metrics are disabled", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithMetricsEnabled(false),
				WithPrometheusRegistry(registry),
			)

			Convey("Then creation should still succeed", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the package-level recording helpers", t, func() {
		Convey("When recording scoring metrics", func() {
			Convey("Then none of them should panic", func() {
				So(func() {
					RecordEvaluationScored()
					RecordEvaluationDuplicate()
					RecordValidationFailure("out_of_range")
					RecordValidationFailure("missing_field")
					RecordScoringLatency(1.5)
					RecordScoringError()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording queue metrics", func() {
			So(func() {
				UpdateQueueSize(10)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
			}, ShouldNotPanic)
		})

		Convey("When recording worker metrics", func() {
			So(func() {
				UpdateWorkerActiveCount(4)
				RecordWorkerProcessingLatency(2.0)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording store metrics", func() {
			So(func() {
				UpdateStoreArticles(42)
				RecordStoreObservation()
				RecordStoreUpdateLatency(0.2)
				RecordStoreQueryLatency(0.1)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("score", "POST", "200")
				RecordHTTPRequestDuration("score", "POST", "200", 3.5)
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(25)
				RecordSystemGCPauseTime(0.05)
			}, ShouldNotPanic)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the global metrics setup", t, func() {
		Convey("When fetching the registry", func() {
			registry := GetRegistry()

			Convey("Then it should gather the registered families", func() {
				So(registry, ShouldNotBeNil)

				RecordEvaluationScored()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
