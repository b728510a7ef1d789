package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/finassist/qa-engine/internal/core/domain"
	"github.com/finassist/qa-engine/internal/core/ports"
	"github.com/finassist/qa-engine/internal/observability/metrics"
)

const (
	defaultSuggestLimit = 8
	defaultRelatedLimit = 5
	maxListLimit        = 20
	recentErrorsInStats = 10
)

// StatsSource is the ledger view behind GET /v1/stats.
type StatsSource interface {
	Snapshot() domain.CostLedger
	Remaining() int
}

// Probes supplies the live engine readings that stats and health reporting
// need without coupling the router to infrastructure types.
type Probes struct {
	CacheEntries func() int
	QueueDepth   func() int
	QueueDropped func() int64
	Online       func() bool
	RecentErrors func(n int) []domain.QAError
}

type Router struct {
	service   string
	resolver  ports.QuestionResolver
	suggester ports.Suggester
	related   ports.RelatedReader
	feedback  ports.FeedbackRecorder
	stats     StatsSource
	probes    Probes
	metrics   *metrics.HTTPServerMetrics
	logger    *slog.Logger
}

func NewRouter(
	service string,
	resolver ports.QuestionResolver,
	suggester ports.Suggester,
	related ports.RelatedReader,
	feedback ports.FeedbackRecorder,
	stats StatsSource,
	probes Probes,
	serverMetrics *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) *Router {
	return &Router{
		service:   service,
		resolver:  resolver,
		suggester: suggester,
		related:   related,
		feedback:  feedback,
		stats:     stats,
		probes:    probes,
		metrics:   serverMetrics,
		logger:    logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", rt.handleHealthz)
	mux.HandleFunc("POST /v1/resolve", rt.handleResolve)
	mux.HandleFunc("GET /v1/suggest", rt.handleSuggest)
	mux.HandleFunc("GET /v1/related/{entry_id}", rt.handleRelated)
	mux.HandleFunc("POST /v1/feedback", rt.handleFeedback)
	mux.HandleFunc("GET /v1/stats", rt.handleStats)
	mux.Handle("GET /metrics", rt.metrics.Handler())

	var handler http.Handler = mux
	handler = rt.metrics.Middleware(rt.service, handler)
	handler = accessLogMiddleware(rt.logger, handler)
	handler = requestIDMiddleware(handler)
	return handler
}

type resolveRequest struct {
	Question string `json:"question"`
}

type resolveResponse struct {
	Answer      string   `json:"answer"`
	Source      string   `json:"source"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (rt *Router) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, r, rt.logger, domain.WrapError(domain.ErrInvalidInput, "decode resolve request", err))
		return
	}

	started := time.Now()
	resolution, err := rt.resolver.Resolve(r.Context(), req.Question)
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}

	rt.metrics.RecordResolution(rt.service, string(resolution.Source), time.Since(started))
	writeJSON(w, http.StatusOK, resolveResponse{
		Answer:      resolution.Text,
		Source:      string(resolution.Source),
		Suggestions: resolution.Suggestions,
	})
}

type suggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

func (rt *Router) handleSuggest(w http.ResponseWriter, r *http.Request) {
	partial := strings.TrimSpace(r.URL.Query().Get("q"))
	if partial == "" {
		writeError(w, r, rt.logger, domain.WrapError(domain.ErrInvalidInput, "suggest", errMissingQueryParam("q")))
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"), defaultSuggestLimit)

	suggestions, err := rt.suggester.Suggest(r.Context(), partial, limit)
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}

	rt.metrics.RecordSuggestRequest(rt.service)
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, suggestResponse{Suggestions: suggestions})
}

type relatedEntry struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Category string `json:"category_id"`
}

type relatedResponse struct {
	Related []relatedEntry `json:"related"`
}

func (rt *Router) handleRelated(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("entry_id")
	limit := parseLimit(r.URL.Query().Get("limit"), defaultRelatedLimit)

	entries, err := rt.related.Related(r.Context(), entryID, limit)
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}

	out := make([]relatedEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, relatedEntry{
			ID:       entry.ID,
			Question: entry.Question,
			Category: entry.CategoryID,
		})
	}
	writeJSON(w, http.StatusOK, relatedResponse{Related: out})
}

type feedbackRequest struct {
	Query   string `json:"query"`
	EntryID string `json:"entry_id"`
	Kind    string `json:"kind"`
	Comment string `json:"comment"`
}

func (rt *Router) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, r, rt.logger, domain.WrapError(domain.ErrInvalidInput, "decode feedback request", err))
		return
	}

	err := rt.feedback.RecordFeedback(r.Context(), domain.Feedback{
		Query:   req.Query,
		EntryID: req.EntryID,
		Kind:    domain.FeedbackKind(req.Kind),
		Comment: req.Comment,
	})
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}

	rt.metrics.RecordFeedback(rt.service, req.Kind)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type statsResponse struct {
	TotalQueries         int64            `json:"total_queries"`
	CacheHits            int64            `json:"cache_hits"`
	CacheMisses          int64            `json:"cache_misses"`
	CacheHitRate         float64          `json:"cache_hit_rate"`
	TotalCostSavingsUSD  float64          `json:"total_cost_savings_usd"`
	AccruedCostUSD       float64          `json:"accrued_cost_usd"`
	EscalationsUsed      int              `json:"escalations_used"`
	EscalationsRemaining int              `json:"escalations_remaining"`
	AvgResponseMillis    float64          `json:"avg_response_millis"`
	PeriodStart          time.Time        `json:"period_start"`
	CacheEntries         int              `json:"cache_entries"`
	OfflineQueueDepth    int              `json:"offline_queue_depth"`
	OfflineDropped       int64            `json:"offline_dropped"`
	Online               bool             `json:"online"`
	RecentErrors         []domain.QAError `json:"recent_errors"`
}

func (rt *Router) handleStats(w http.ResponseWriter, r *http.Request) {
	ledger := rt.stats.Snapshot()

	hitRate := 0.0
	if ledger.TotalQueries > 0 {
		hitRate = float64(ledger.CacheHits) / float64(ledger.TotalQueries)
	}

	resp := statsResponse{
		TotalQueries:         ledger.TotalQueries,
		CacheHits:            ledger.CacheHits,
		CacheMisses:          ledger.CacheMisses,
		CacheHitRate:         hitRate,
		TotalCostSavingsUSD:  ledger.TotalCostSavings,
		AccruedCostUSD:       ledger.AccruedCost,
		EscalationsUsed:      ledger.EscalationsUsed,
		EscalationsRemaining: rt.stats.Remaining(),
		AvgResponseMillis:    ledger.AvgResponseMillis,
		PeriodStart:          ledger.PeriodStart,
		RecentErrors:         []domain.QAError{},
	}
	if rt.probes.CacheEntries != nil {
		resp.CacheEntries = rt.probes.CacheEntries()
	}
	if rt.probes.QueueDepth != nil {
		resp.OfflineQueueDepth = rt.probes.QueueDepth()
	}
	if rt.probes.QueueDropped != nil {
		resp.OfflineDropped = rt.probes.QueueDropped()
	}
	if rt.probes.Online != nil {
		resp.Online = rt.probes.Online()
	}
	if rt.probes.RecentErrors != nil {
		if recent := rt.probes.RecentErrors(recentErrorsInStats); recent != nil {
			resp.RecentErrors = recent
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}
	if rt.probes.Online != nil {
		status["online"] = rt.probes.Online()
	}
	writeJSON(w, http.StatusOK, status)
}

func decodeJSONBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
