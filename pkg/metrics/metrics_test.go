package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it uses the default namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "tourboard")
				So(manager.subsystem, ShouldEqual, "leaderboard")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.snapshotDuplicates.Inc()

			Convey("Then metric names carry the namespace and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_snapshot_jobs_duplicate_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When creating with empty values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "tourboard")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.constLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording standings computations", func() {
			RecordStandingsComputed("season", 12.5, 40, 180)
			RecordStandingsComputed("season", 7.5, 41, 182)

			Convey("Then the per-scope gauges hold the latest values", func() {
				So(testutil.ToFloat64(globalManager.standingsPlayers.WithLabelValues("season")), ShouldEqual, 41)
				So(testutil.ToFloat64(globalManager.factsInScope.WithLabelValues("season")), ShouldEqual, 182)
				So(testutil.ToFloat64(globalManager.standingsComputed.WithLabelValues("season")), ShouldBeGreaterThanOrEqualTo, 2)
			})
		})

		Convey("When recording snapshots", func() {
			before := testutil.ToFloat64(globalManager.snapshotRowsWritten.WithLabelValues("hr"))
			RecordSnapshotPersisted("hr", 25, 1700000000)
			RecordSnapshotSkipped("hr", "empty")

			Convey("Then rows and timestamps are tracked", func() {
				So(testutil.ToFloat64(globalManager.snapshotRowsWritten.WithLabelValues("hr"))-before, ShouldEqual, 25)
				So(testutil.ToFloat64(globalManager.snapshotLastUnix.WithLabelValues("hr")), ShouldEqual, 1700000000)
				So(testutil.ToFloat64(globalManager.snapshotsSkipped.WithLabelValues("hr", "empty")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording operational metrics", func() {
			So(func() {
				RecordSnapshotDuplicate()
				RecordRepositoryQueryLatency("fetch_result_facts", 3)
				UpdateRepositoryRecords("results", 1000)
				UpdateQueueSize(3)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(3)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(1)
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(4)
				RecordWorkerProcessingLatency(20)
				RecordWorkerError()
				RecordHTTPRequest("/standings", "GET", "200")
				RecordHTTPRequestDuration("/standings", "GET", "200", 4)
				RecordErrorByComponent("service", "adapter_failure")
				RecordErrorByEndpoint("/snapshots", "POST", "backpressure")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)

			Convey("Then gauges reflect the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
			})
		})

		Convey("When gathering the custom registry", func() {
			RecordHTTPRequest("/healthz", "GET", "200")
			families, err := GetRegistry().Gather()

			Convey("Then only namespaced metrics are exposed", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "tourboard_leaderboard_"), ShouldBeTrue)
				}
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given metrics concurrency", t, func() {
		Convey("When recording metrics concurrently", func() {
			done := make(chan bool, 10)

			for i := 0; i < 10; i++ {
				go func() {
					for j := 0; j < 100; j++ {
						RecordStandingsComputed("concurrent", float64(j), j, j)
						UpdateQueueSize(j)
						RecordHTTPRequest("/test", "GET", "200")
					}
					done <- true
				}()
			}

			for i := 0; i < 10; i++ {
				<-done
			}

			Convey("Then every increment is counted", func() {
				So(testutil.ToFloat64(globalManager.standingsComputed.WithLabelValues("concurrent")), ShouldEqual, 1000)
			})
		})
	})
}
