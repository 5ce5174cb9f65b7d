package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/benefits-navigator/internal/core/domain"
	"github.com/kirillkom/benefits-navigator/internal/core/ports"
	"github.com/kirillkom/benefits-navigator/internal/observability/metrics"
)

type Router struct {
	answerer ports.QuestionAnswerer
	admin    ports.CacheAdmin
	metrics  *metrics.HTTPServerMetrics
	logger   *slog.Logger
	service  string

	rateLimitRPS     float64
	rateLimitBurst   int
	maxInFlight      int
	backpressureWait time.Duration
}

type Options struct {
	Service        string
	RateLimitRPS   float64
	RateLimitBurst int
	// MaxInFlight bounds concurrent requests; 0 disables the gate.
	MaxInFlight      int
	BackpressureWait time.Duration
}

func NewRouter(
	answerer ports.QuestionAnswerer,
	admin ports.CacheAdmin,
	m *metrics.HTTPServerMetrics,
	logger *slog.Logger,
	opts Options,
) *Router {
	service := opts.Service
	if service == "" {
		service = "api"
	}
	return &Router{
		answerer:         answerer,
		admin:            admin,
		metrics:          m,
		logger:           logger,
		service:          service,
		rateLimitRPS:     opts.RateLimitRPS,
		rateLimitBurst:   opts.RateLimitBurst,
		maxInFlight:      opts.MaxInFlight,
		backpressureWait: opts.BackpressureWait,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/ask", rt.ask)
	mux.HandleFunc("/v1/answers/cache", rt.cacheAdmin)
	mux.HandleFunc("/v1/answers/cache/stats", rt.cacheStats)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.maxInFlight, rt.backpressureWait)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Question string              `json:"question"`
	Filters  map[string][]string `json:"filters,omitempty"`
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	answer, err := rt.answerer.Ask(r.Context(), req.Question, domain.Filters(req.Filters))
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		if rt.metrics != nil && domain.IsKind(err, domain.ErrGenerationFailed) {
			rt.metrics.RecordGenerationFailure(rt.service)
		}
		rt.logger.Error("ask_failed",
			"request_id", requestIDFromContext(r.Context()),
			"status", status,
			"error", err,
		)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordCacheResult(rt.service, answer.Cached)
		if !answer.Cached {
			docCount := 0
			for _, attempt := range answer.Attempts {
				rt.metrics.RecordTierAttempt(rt.service, attempt.Tier, attempt.Success)
				if attempt.Tier == answer.Tier {
					docCount = attempt.ResultCount
				}
			}
			rt.metrics.RecordAnswerServed(rt.service, answer.Tier, docCount, time.Since(start), answer.Confidence.Final)
		}
	}

	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) cacheAdmin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if err := rt.admin.ClearAnswers(r.Context()); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (rt *Router) cacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	writeJSON(w, http.StatusOK, rt.admin.AnswerCacheStats(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
