package api

import (
	"net/http"
	"strconv"
	"time"

	"goanalyst/internal/analysis"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "goanalyst"

// Metrics holds the Prometheus collectors of one server. Each server owns its
// registry so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// requests counts HTTP requests. Labels: route, method, status
	requests *prometheus.CounterVec
	// latency measures HTTP handling time. Labels: route
	latency *prometheus.HistogramVec
	// trainings counts finished training runs. Labels: algorithm, problem_type
	trainings *prometheus.CounterVec
	// trainingDuration measures training wall time
	trainingDuration prometheus.Histogram
	// predictions counts predictions. Labels: algorithm
	predictions *prometheus.CounterVec
}

// NewMetrics registers the HTTP, training and analysis cache collectors
func NewMetrics(analyzer *analysis.Analyzer) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "method", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route"}),
		trainings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "automl",
			Name:      "trainings_total",
			Help:      "Completed training runs by selected algorithm",
		}, []string{"algorithm", "problem_type"}),
		trainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "automl",
			Name:      "training_duration_seconds",
			Help:      "Training wall time in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "automl",
			Name:      "predictions_total",
			Help:      "Predictions served by model algorithm",
		}, []string{"algorithm"}),
	}

	if analyzer != nil {
		factory.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis_cache",
			Name:      "hits_total",
			Help:      "Analyses answered from the memo",
		}, func() float64 { return float64(analyzer.Stats().Hits) })
		factory.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis_cache",
			Name:      "misses_total",
			Help:      "Analyses computed",
		}, func() float64 { return float64(analyzer.Stats().Misses) })
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis_cache",
			Name:      "entries",
			Help:      "Memoized analysis results",
		}, func() float64 { return float64(analyzer.Stats().Size) })
	}
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency by route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// ObserveTraining records one finished training run
func (m *Metrics) ObserveTraining(algorithm, problemType string, elapsed time.Duration) {
	m.trainings.WithLabelValues(algorithm, problemType).Inc()
	m.trainingDuration.Observe(elapsed.Seconds())
}

// ObservePrediction records one prediction
func (m *Metrics) ObservePrediction(algorithm string) {
	m.predictions.WithLabelValues(algorithm).Inc()
}
