// Package api exposes the derived operations over a read-only HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/tradeflow/internal/config"
	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/monitoring"
	"github.com/sells-group/tradeflow/internal/rows"
	"github.com/sells-group/tradeflow/internal/service"
	"github.com/sells-group/tradeflow/internal/textutil"
)

// Backend is the part of the service the handlers read from.
type Backend interface {
	Snapshots(ctx context.Context) ([]*service.Snapshot, error)
	Operations(ctx context.Context) ([]*model.OperationDetail, error)
	Operation(ctx context.Context, id string) (*model.OperationDetail, error)
	Rows(ctx context.Context, path string) (*service.Snapshot, error)
	Refresh(ctx context.Context) ([]*service.Snapshot, error)
	Stats() ([]rows.Stats, error)
}

// SourceStatus summarizes one snapshot without its rows.
type SourceStatus struct {
	Source     string    `json:"source"`
	Country    string    `json:"country,omitempty"`
	Available  bool      `json:"available"`
	Stale      bool      `json:"stale,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Rows       int       `json:"rows"`
	Dropped    int       `json:"dropped"`
	Operations int       `json:"operations"`
	Skipped    int       `json:"skipped"`
	LoadedAt   time.Time `json:"loaded_at"`
}

type handler struct {
	backend   Backend
	collector *monitoring.Collector
	log       *zap.Logger
}

// NewRouter builds the HTTP handler for backend.
func NewRouter(backend Backend, cfg config.ServerConfig) http.Handler {
	h := &handler{
		backend:   backend,
		collector: monitoring.NewCollector(backend),
		log:       zap.L().With(zap.String("component", "api")),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLog)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(cfg.RequestsPerSecond, cfg.Burst))
		r.Get("/sources", h.sources)
		r.Get("/operations", h.operations)
		r.Get("/operations/{id}", h.operation)
		r.Get("/alerts", h.alerts)
		r.Get("/rows", h.rows)
		r.Get("/stats", h.stats)
		r.Post("/refresh", h.refresh)
	})
	return r
}

func (h *handler) sources(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.backend.Snapshots(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statuses(snaps))
}

// operations lists operations, optionally filtered by ?country=, ?client=
// (case and accent insensitive substring) and ?valid=.
func (h *handler) operations(w http.ResponseWriter, r *http.Request) {
	ops, err := h.backend.Operations(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}

	q := r.URL.Query()
	countryCode := strings.ToUpper(strings.TrimSpace(q.Get("country")))
	client := textutil.Fold(q.Get("client"))
	var valid *bool
	if v := q.Get("valid"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "valid must be a boolean")
			return
		}
		valid = &b
	}

	out := make([]*model.OperationDetail, 0, len(ops))
	for _, op := range ops {
		if countryCode != "" && op.Country != countryCode {
			continue
		}
		if client != "" && !strings.Contains(textutil.Fold(op.Client), client) {
			continue
		}
		if valid != nil && op.Validation.Valid != *valid {
			continue
		}
		out = append(out, op)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) operation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	op, err := h.backend.Operation(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	if op == nil {
		writeError(w, http.StatusNotFound, "operation not found")
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (h *handler) alerts(w http.ResponseWriter, r *http.Request) {
	d, err := h.collector.Collect(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handler) rows(w http.ResponseWriter, r *http.Request) {
	snap, err := h.backend.Rows(r.Context(), r.URL.Query().Get("source"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source":   snap.Source,
		"country":  snap.Country,
		"stale":    snap.Stale,
		"fields":   snap.Fields,
		"rows":     snap.Rows,
		"warnings": snap.Warnings,
	})
}

func (h *handler) stats(w http.ResponseWriter, _ *http.Request) {
	st, err := h.backend.Stats()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.backend.Refresh(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	h.log.Info("api: sources refreshed", zap.Int("sources", len(snaps)))
	writeJSON(w, http.StatusOK, statuses(snaps))
}

// fail maps service errors to status codes.
func (h *handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownSource):
		writeError(w, http.StatusNotFound, "unknown source")
	case errors.Is(err, service.ErrSourceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.log.Error("api: request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *handler) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// rateLimit rejects requests beyond rps with a 429. rps <= 0 disables it.
func rateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func statuses(snaps []*service.Snapshot) []SourceStatus {
	out := make([]SourceStatus, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, SourceStatus{
			Source:     s.Source,
			Country:    s.Country,
			Available:  s.Available,
			Stale:      s.Stale,
			Reason:     s.Reason,
			Rows:       len(s.Rows),
			Dropped:    len(s.Warnings),
			Operations: len(s.Operations),
			Skipped:    s.Skipped,
			LoadedAt:   s.LoadedAt,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
