package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager()

			Convey("Then it should use its own registry", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Registry(), ShouldNotBeNil)
				So(manager.Registry(), ShouldNotEqual, prometheus.DefaultRegisterer)
			})
		})

		Convey("When creating two managers with default options", func() {
			Convey("Then registration should not collide", func() {
				So(func() {
					NewManager()
					NewManager()
				}, ShouldNotPanic)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRegistry(registry),
			)
			manager.LevelAllocated()

			Convey("Then metrics should be registered under the namespace", func() {
				n, err := testutil.GatherAndCount(registry, "test_levels_allocated_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})
}

func TestEngineRecording(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		m := NewManager()

		Convey("When levels are allocated and scored", func() {
			m.LevelAllocated()
			m.LevelAllocated()
			m.LevelScored(true)
			m.LevelScored(false)
			m.LevelScored(true)

			Convey("Then the counters should reflect them", func() {
				So(testutil.ToFloat64(m.levelsAllocated), ShouldEqual, 2)
				So(testutil.ToFloat64(m.levelsScored.WithLabelValues("true")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.levelsScored.WithLabelValues("false")), ShouldEqual, 1)
			})
		})

		Convey("When requests are rejected", func() {
			m.Rejected("allocate", "OUT_OF_VIDEOS")
			m.Rejected("save", "INVALID_RESULTS")
			m.Rejected("save", "INVALID_RESULTS")

			Convey("Then rejections should be counted by op and kind", func() {
				So(testutil.ToFloat64(m.rejections.WithLabelValues("allocate", "OUT_OF_VIDEOS")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.rejections.WithLabelValues("save", "INVALID_RESULTS")), ShouldEqual, 2)
			})
		})

		Convey("When labels are reconciled", func() {
			m.LabelsReconciled(3, 20*time.Millisecond)
			m.LabelsReconciled(0, 10*time.Millisecond)

			Convey("Then runs and corrections should be counted", func() {
				So(testutil.ToFloat64(m.reconcileRuns), ShouldEqual, 2)
				So(testutil.ToFloat64(m.labelsChanged), ShouldEqual, 3)
			})
		})
	})
}

func TestDisabledManager(t *testing.T) {
	Convey("Given a disabled metrics manager", t, func() {
		m := NewManager(WithMetricsEnabled(false))

		Convey("When events are recorded", func() {
			m.LevelAllocated()
			m.LevelScored(true)
			m.LabelsReconciled(5, time.Second)
			m.ObserveHTTP("/api/start", "POST", 200, time.Millisecond)

			Convey("Then nothing should be counted", func() {
				So(testutil.ToFloat64(m.levelsAllocated), ShouldEqual, 0)
				So(testutil.ToFloat64(m.labelsChanged), ShouldEqual, 0)
			})
		})
	})
}

func TestHandler(t *testing.T) {
	Convey("Given a manager with recorded HTTP traffic", t, func() {
		m := NewManager()
		m.ObserveHTTP("/api/users/{id}", "GET", 200, 5*time.Millisecond)
		m.ObserveHTTP("/api/start", "POST", 403, time.Millisecond)

		Convey("When scraping the handler", func() {
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
			body, err := io.ReadAll(rec.Body)

			Convey("Then it should expose the request counters", func() {
				So(err, ShouldBeNil)
				So(rec.Code, ShouldEqual, 200)
				So(string(body), ShouldContainSubstring, `memento_http_requests_total{method="GET",route="/api/users/{id}",status_code="200"} 1`)
				So(string(body), ShouldContainSubstring, `status_code="403"`)
				So(string(body), ShouldContainSubstring, "memento_http_request_duration_seconds_bucket")
			})
		})
	})
}
