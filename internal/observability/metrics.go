package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creative_requests_total",
			Help: "Total HTTP requests",
		}, []string{"code"},
	)
	Latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "creative_request_duration_seconds",
		Help:    "Request latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "creative_in_flight",
		Help: "In-flight HTTP requests",
	})
	CreativesGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creatives_generated_total",
			Help: "Rendered creatives by creative type",
		}, []string{"creative_type"},
	)
	RenderFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "render_job_failures_total",
			Help: "Failed render jobs by creative type",
		}, []string{"creative_type"},
	)
	GenerationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "generation_duration_seconds",
		Help:    "End-to-end batch generation seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal, Latency, InFlight, CreativesGenerated, RenderFailures, GenerationDuration)
}

func MetricsHandler() http.Handler { return promhttp.Handler() }

type rec struct {
	http.ResponseWriter
	code int
}

func (r *rec) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InFlight.Inc()
		defer InFlight.Dec()

		rr := &rec{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rr, r)

		Latency.Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(strconv.Itoa(rr.code)).Inc()
	})
}
