// Package api exposes the upload, snapshot, and analysis endpoints consumed
// by the web client.
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/polisee/polisee-cli/internal/analytics"
	"github.com/polisee/polisee-cli/internal/config"
	"github.com/polisee/polisee-cli/internal/ingest"
	"github.com/polisee/polisee-cli/internal/model"
	"github.com/polisee/polisee-cli/internal/store"
)

// Server wires the HTTP handlers to a Store and the analytics engine.
type Server struct {
	store    store.Store
	cfg      *config.Config
	rules    analytics.Config
	limiter  *rate.Limiter
	maxBytes int64
	now      func() time.Time
}

// New creates a Server. The upload limiter is shared across callers since the
// service fronts a single household's data, not a fleet.
func New(st store.Store, cfg *config.Config) *Server {
	perMinute := cfg.Server.UploadsPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	maxBytes := cfg.Ingest.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 8 << 20
	}
	return &Server{
		store:    st,
		cfg:      cfg,
		rules:    analytics.FromConfig(cfg.Analytics),
		limiter:  rate.NewLimiter(rate.Limit(perMinute/60), int(perMinute)),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/policies", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/analysis", s.handleAnalysis)
		r.With(s.uploadRateLimit).Post("/upload", s.handleUpload)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	policies, err := s.store.ListPolicies(r.Context(), userID)
	if err != nil {
		zap.L().Error("api: list policies failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load policies")
		return
	}
	if policies == nil {
		policies = []model.Policy{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"policies": policies})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	policies, err := s.store.ListPolicies(r.Context(), userID)
	if err != nil {
		zap.L().Error("api: load snapshot failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load policies")
		return
	}

	writeJSON(w, http.StatusOK, analytics.Analyze(policies, s.rules, s.now()))
}

// handleUpload ingests a multipart export and replaces the user's snapshot.
// Parse errors come back as 422 with the full error list so the client can
// render them line by line; persistence never happens on a non-empty list.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := userFrom(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "X-User-ID header is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	batchID := uuid.New().String()

	var result *model.ParseResult
	if strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		result, err = ingest.ParseCSV(bytes.NewReader(data), batchID)
	} else {
		result, err = ingest.Parse(data, batchID)
	}
	if err != nil {
		zap.L().Warn("api: unreadable upload",
			zap.String("filename", header.Filename),
			zap.Error(err),
		)
		writeError(w, http.StatusBadRequest, "file is not a readable export")
		return
	}
	if len(result.Errors) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": result.Errors})
		return
	}

	inserted, err := s.store.ReplacePolicies(r.Context(), userID, result.Policies)
	if err != nil {
		zap.L().Error("api: replace policies failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save policies")
		return
	}

	zap.L().Info("api: upload ingested",
		zap.String("batch_id", batchID),
		zap.Int("policies", inserted),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"batch_id": batchID,
		"policies": inserted,
	})
}

func (s *Server) uploadRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "too many uploads, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// userFrom resolves the acting user. Authentication itself lives in front of
// this service; the header is trusted as the resolved identity.
func userFrom(r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
	return userID, userID != ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
