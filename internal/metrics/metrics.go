package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tidecharts"

var (
	requestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_latency_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.2, 0.4, 0.8, 1.0, 2.0, 4.0},
		},
		[]string{"verb", "path", "code"},
	)

	cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Station refresh cycles by result.",
		},
		[]string{"station", "result"},
	)

	cycleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_cycle_seconds",
			Help:      "Duration of station refresh cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"station"},
	)

	fetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "Upstream fetches by payload kind and result.",
		},
		[]string{"kind", "result"},
	)

	renders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Artifact renders by kind and result.",
		},
		[]string{"kind", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		requestLatency,
		cycles,
		cycleDuration,
		fetches,
		renders,
	)
}

// Result label values.
const (
	ResultSuccess    = "success"
	ResultFailure    = "failure"
	ResultDiagnostic = "diagnostic"
)

func ObserveCycle(stationID, result string, d time.Duration) {
	cycles.WithLabelValues(stationID, result).Inc()
	cycleDuration.WithLabelValues(stationID).Observe(d.Seconds())
}

func ObserveFetch(kind, result string) {
	fetches.WithLabelValues(kind, result).Inc()
}

func ObserveRender(kind, result string) {
	renders.WithLabelValues(kind, result).Inc()
}

func ObserveRequestLatency(verb, path, code string, latency float64) {
	requestLatency.With(prometheus.Labels{
		"code": code,
		"verb": verb,
		"path": path,
	}).Observe(latency)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LatencyHandler records request latency labelled by route template, so
// station ids do not blow up label cardinality.
func LatencyHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			path := routePath(r)
			if err := recover(); err != nil {
				ObserveRequestLatency(r.Method, path, "500", time.Since(start).Seconds())
				panic(err)
			}
			ObserveRequestLatency(r.Method, path, strconv.Itoa(rec.status), time.Since(start).Seconds())
		}()

		next.ServeHTTP(rec, r)
	})
}

func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	if r.URL != nil {
		return r.URL.Path
	}
	return ""
}
