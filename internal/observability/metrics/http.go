package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	tierAttemptsTotal  *prometheus.CounterVec
	tierServedTotal    *prometheus.CounterVec
	retrievedDocs      *prometheus.HistogramVec
	retrievalDuration  *prometheus.HistogramVec
	cacheResultTotal   *prometheus.CounterVec
	answerConfidence   *prometheus.HistogramVec
	generationFailures *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bnav",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bnav",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bnav",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	tierAttemptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bnav",
			Subsystem: "retrieval",
			Name:      "tier_attempts_total",
			Help:      "Total tier attempts by tier and outcome.",
		},
		[]string{"service", "tier", "outcome"},
	)
	tierServedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bnav",
			Subsystem: "retrieval",
			Name:      "tier_served_total",
			Help:      "Total answers served by the tier that produced the context.",
		},
		[]string{"service", "tier"},
	)
	retrievedDocs := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bnav",
			Subsystem: "retrieval",
			Name:      "documents",
			Help:      "Distribution of documents in the assembled context.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 15},
		},
		[]string{"service"},
	)
	retrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bnav",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "End-to-end retrieval duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	cacheResultTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bnav",
			Subsystem: "cache",
			Name:      "result_total",
			Help:      "Answer cache lookups by result.",
		},
		[]string{"service", "result"},
	)
	answerConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bnav",
			Subsystem: "answer",
			Name:      "confidence",
			Help:      "Distribution of final answer confidence scores.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{"service"},
	)
	generationFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bnav",
			Subsystem: "answer",
			Name:      "generation_failures_total",
			Help:      "Total answer generation failures.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		tierAttemptsTotal,
		tierServedTotal,
		retrievedDocs,
		retrievalDuration,
		cacheResultTotal,
		answerConfidence,
		generationFailures,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		tierAttemptsTotal:  tierAttemptsTotal,
		tierServedTotal:    tierServedTotal,
		retrievedDocs:      retrievedDocs,
		retrievalDuration:  retrievalDuration,
		cacheResultTotal:   cacheResultTotal,
		answerConfidence:   answerConfidence,
		generationFailures: generationFailures,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/answers/"):
		return "/v1/answers/{action}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordTierAttempt(service string, tier int, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.tierAttemptsTotal.WithLabelValues(service, strconv.Itoa(tier), outcome).Inc()
}

func (m *HTTPServerMetrics) RecordAnswerServed(service string, tier, docCount int, duration time.Duration, confidence float64) {
	m.tierServedTotal.WithLabelValues(service, strconv.Itoa(tier)).Inc()
	m.retrievedDocs.WithLabelValues(service).Observe(float64(docCount))
	m.retrievalDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.answerConfidence.WithLabelValues(service).Observe(confidence)
}

func (m *HTTPServerMetrics) RecordCacheResult(service string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheResultTotal.WithLabelValues(service, result).Inc()
}

func (m *HTTPServerMetrics) RecordGenerationFailure(service string) {
	m.generationFailures.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
