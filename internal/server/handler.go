// Package server exposes the read-only course intelligence API: enriched
// course listings, recommendations, subject rankings, catalog stats, and
// price advice, plus a manual snapshot refresh trigger.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"courseintel/internal/analytics"
	"courseintel/internal/catalog"
	"courseintel/internal/recommend"
	"courseintel/pkg/config"
	apperrors "courseintel/pkg/errors"
	"courseintel/pkg/logger"
	"courseintel/pkg/metrics"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Handler serves the HTTP API from the engine's active snapshot.
type Handler struct {
	engine  *recommend.Engine
	cache   *recommend.ResultCache
	metrics *metrics.Metrics
	cfg     config.EngineConfig
	logger  *slog.Logger
}

// New creates a Handler. cache and m may be nil.
func New(engine *recommend.Engine, cache *recommend.ResultCache, m *metrics.Metrics, cfg config.EngineConfig) *Handler {
	return &Handler{
		engine:  engine,
		cache:   cache,
		metrics: m,
		cfg:     cfg,
		logger:  slog.Default().With("component", "api-handler"),
	}
}

// Routes registers every API route on the mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/courses", h.Courses)
	mux.HandleFunc("GET /api/v1/courses/{id}", h.Course)
	mux.HandleFunc("GET /api/v1/recommendations", h.Recommendations)
	mux.HandleFunc("GET /api/v1/subjects", h.Subjects)
	mux.HandleFunc("GET /api/v1/subjects/top", h.TopInSubject)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/price-advice", h.PriceAdvice)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/refresh", h.Refresh)
}

// Recommendations handles GET /api/v1/recommendations.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	courseID, err := strconv.ParseInt(r.URL.Query().Get("course_id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "query parameter 'course_id' must be an integer")
		return
	}
	topN, ok := h.intParam(w, r, "n", h.cfg.DefaultTopN)
	if !ok {
		return
	}
	if topN > h.cfg.MaxTopN {
		topN = h.cfg.MaxTopN
	}
	minReviews, ok := h.int64Param(w, r, "min_reviews", h.cfg.DefaultMinReviews)
	if !ok {
		return
	}

	snap, err := h.engine.Snapshot()
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	var results []recommend.Recommendation
	cacheHit := false
	if h.cache != nil {
		results, cacheHit, err = h.cache.GetOrCompute(ctx, snap.Version, courseID, topN, minReviews, func() ([]recommend.Recommendation, error) {
			return snap.Recommend(courseID, topN, minReviews)
		})
	} else {
		results, err = snap.Recommend(courseID, topN, minReviews)
	}
	if err != nil {
		h.countRecommendation(err)
		h.writeAppError(w, err)
		return
	}

	if h.metrics != nil {
		outcome := "ok"
		if len(results) == 0 {
			outcome = "empty"
		}
		h.metrics.RecommendationsTotal.WithLabelValues(outcome).Inc()
		h.metrics.RecommendationSize.Observe(float64(len(results)))
		cacheStatus := "miss"
		if cacheHit {
			cacheStatus = "hit"
		}
		if h.cache != nil {
			if cacheHit {
				h.metrics.CacheHitsTotal.Inc()
			} else {
				h.metrics.CacheMissesTotal.Inc()
			}
		}
		h.metrics.QueryLatency.WithLabelValues("recommend", cacheStatus).Observe(time.Since(start).Seconds())
	}
	log.Info("recommendations served",
		"course_id", courseID,
		"returned", len(results),
		"cache_hit", cacheHit,
		"snapshot", snap.Version,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	h.writeJSON(w, http.StatusOK, map[string]any{
		"course_id":       courseID,
		"snapshot":        snap.Version,
		"recommendations": results,
	})
}

// TopInSubject handles GET /api/v1/subjects/top.
func (h *Handler) TopInSubject(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'subject' is required")
		return
	}
	topN, ok := h.intParam(w, r, "n", h.cfg.DefaultTopN)
	if !ok {
		return
	}
	if topN > h.cfg.MaxTopN {
		topN = h.cfg.MaxTopN
	}
	minReviews, ok := h.int64Param(w, r, "min_reviews", h.cfg.DefaultMinReviews)
	if !ok {
		return
	}

	snap, err := h.engine.Snapshot()
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	courses, err := snap.TopInSubject(subject, minReviews, topN)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"subject":  subject,
		"snapshot": snap.Version,
		"courses":  courses,
	})
}

// Courses handles GET /api/v1/courses.
func (h *Handler) Courses(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Snapshot()
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	q := r.URL.Query()
	subject := q.Get("subject")
	level := q.Get("level")
	priceCategory := q.Get("price_category")
	showAll := q.Get("show_all") == "true"
	limit, ok := h.intParam(w, r, "limit", defaultListLimit)
	if !ok {
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	filtered := make([]catalog.EnrichedCourse, 0, limit)
	for _, c := range snap.Courses {
		if !showAll && (c.Suspicious || c.Reviews < h.cfg.ExplorerMinReviews) {
			continue
		}
		if subject != "" && c.Subject != subject {
			continue
		}
		if level != "" && c.Level != level {
			continue
		}
		if priceCategory != "" && c.PriceCategory != priceCategory {
			continue
		}
		filtered = append(filtered, c)
	}

	sortKey := q.Get("sort")
	if sortKey == "" {
		sortKey = "bayesian_popularity"
	}
	less, ok := courseSorters[sortKey]
	if !ok {
		h.writeError(w, http.StatusBadRequest, "unknown sort key: "+sortKey)
		return
	}
	sort.SliceStable(filtered, func(i, j int) bool { return less(filtered[i], filtered[j]) })

	total := len(filtered)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"total":    total,
		"snapshot": snap.Version,
		"courses":  filtered,
	})
}

// courseSorters maps sort keys to descending comparison funcs.
var courseSorters = map[string]func(a, b catalog.EnrichedCourse) bool{
	"bayesian_popularity": func(a, b catalog.EnrichedCourse) bool { return a.BayesianPopularity > b.BayesianPopularity },
	"bayesian_quality":    func(a, b catalog.EnrichedCourse) bool { return a.BayesianQuality > b.BayesianQuality },
	"subscribers":         func(a, b catalog.EnrichedCourse) bool { return a.Subscribers > b.Subscribers },
	"reviews":             func(a, b catalog.EnrichedCourse) bool { return a.Reviews > b.Reviews },
	"price":               func(a, b catalog.EnrichedCourse) bool { return a.Price > b.Price },
}

// Course handles GET /api/v1/courses/{id}.
func (h *Handler) Course(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "course id must be an integer")
		return
	}
	snap, err := h.engine.Snapshot()
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	course, err := snap.Lookup(id)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, course)
}

// Subjects handles GET /api/v1/subjects.
func (h *Handler) Subjects(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Snapshot()
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"snapshot": snap.Version,
		"subjects": analytics.Subjects(snap.Courses),
	})
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	minReviews, ok := h.int64Param(w, r, "min_reviews", h.cfg.DefaultMinReviews)
	if !ok {
		return
	}
	snap, err := h.engine.Snapshot()
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	start := time.Now()
	overview := analytics.BuildOverview(snap.Courses, minReviews)
	if h.metrics != nil {
		h.metrics.QueryLatency.WithLabelValues("stats", "miss").Observe(time.Since(start).Seconds())
	}
	h.writeJSON(w, http.StatusOK, overview)
}

// PriceAdvice handles GET /api/v1/price-advice.
func (h *Handler) PriceAdvice(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	level := r.URL.Query().Get("level")
	if subject == "" || level == "" {
		h.writeError(w, http.StatusBadRequest, "query parameters 'subject' and 'level' are required")
		return
	}
	minReviews, ok := h.int64Param(w, r, "min_reviews", h.cfg.DefaultMinReviews)
	if !ok {
		return
	}
	snap, err := h.engine.Snapshot()
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	report, err := analytics.AdvisePrice(snap.Courses, subject, level, minReviews, h.cfg.PriceAdvisorTopPercent)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// Refresh handles POST /api/v1/refresh: a manual snapshot rebuild.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	snap, err := h.engine.Rebuild(r.Context())
	if err != nil {
		log.Error("manual refresh failed", "error", err)
		h.writeAppError(w, err)
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context()); err != nil {
			log.Error("cache invalidation failed", "error", err)
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"snapshot": snap.Version,
		"courses":  len(snap.Courses),
		"built_at": snap.BuiltAt,
	})
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": strconv.FormatFloat(hitRate, 'f', 1, 64) + "%",
	})
}

func (h *Handler) countRecommendation(err error) {
	if h.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, apperrors.ErrCourseNotFound):
		h.metrics.RecommendationsTotal.WithLabelValues("not_found").Inc()
	case errors.Is(err, apperrors.ErrInvalidParameter):
		h.metrics.RecommendationsTotal.WithLabelValues("invalid").Inc()
	default:
		h.metrics.RecommendationsTotal.WithLabelValues("error").Inc()
	}
}

func (h *Handler) intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "query parameter '"+name+"' must be an integer")
		return 0, false
	}
	return parsed, true
}

func (h *Handler) int64Param(w http.ResponseWriter, r *http.Request, name string, def int64) (int64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "query parameter '"+name+"' must be an integer")
		return 0, false
	}
	return parsed, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeAppError maps engine errors to their HTTP status.
func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
}
