package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/labscore/internal/app"
	"github.com/shrimpsizemoose/labscore/internal/metrics"
)

type Handler struct {
	service *app.Service
	flags   *userLimiter
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{
		service: service,
		flags: newUserLimiter(
			service.Config.RateLimit.FlagSubmitsPerMinute,
			service.Config.RateLimit.Burst,
		),
	}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/scoreboard", h.instrument("/api/v1/scoreboard", h.HandleScoreboard))
	mux.HandleFunc("GET /api/v1/scoreboard/{lab}", h.instrument("/api/v1/scoreboard/{lab}", h.HandleScoreboard))
	mux.HandleFunc("GET /api/v1/groups/{group}/default-lab", h.instrument("/api/v1/groups/{group}/default-lab", h.HandleDefaultLab))
	mux.HandleFunc("POST /api/v1/labs/{lab}/flags", h.instrument("/api/v1/labs/{lab}/flags", h.HandleSubmitFlag))

	mux.HandleFunc("GET /api/v1/admin/labs/{lab}/overview", h.admin("/api/v1/admin/labs/{lab}/overview", h.HandleOverview))
	mux.HandleFunc("GET /api/v1/admin/labs/{lab}/groups/{group}", h.admin("/api/v1/admin/labs/{lab}/groups/{group}", h.HandleGroupDetails))
	mux.HandleFunc("GET /api/v1/admin/labs/{lab}/users/{user}", h.admin("/api/v1/admin/labs/{lab}/users/{user}", h.HandleUserDetails))
	mux.HandleFunc("POST /api/v1/admin/exercise-submissions", h.admin("/api/v1/admin/exercise-submissions", h.HandleCreateExerciseSubmission))
	mux.HandleFunc("PUT /api/v1/admin/exercise-submissions/{id}", h.admin("/api/v1/admin/exercise-submissions/{id}", h.HandleUpdateExerciseSubmission))
	mux.HandleFunc("DELETE /api/v1/admin/exercise-submissions/{id}", h.admin("/api/v1/admin/exercise-submissions/{id}", h.HandleDeleteExerciseSubmission))
	mux.HandleFunc("DELETE /api/v1/admin/flag-submissions/{id}", h.admin("/api/v1/admin/flag-submissions/{id}", h.HandleDeleteFlagSubmission))
	mux.HandleFunc("POST /api/v1/admin/users/{user}/token", h.admin("/api/v1/admin/users/{user}/token", h.HandleIssueToken))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *Handler) instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		metrics.APIRequestDuration.WithLabelValues(
			path,
			r.Method,
			strconv.Itoa(rec.status),
		).Observe(time.Since(start).Seconds())
	}
}

func (h *Handler) admin(path string, next http.HandlerFunc) http.HandlerFunc {
	return h.instrument(path, func(w http.ResponseWriter, r *http.Request) {
		if !h.service.ValidateHeaders(r.Header) {
			http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

// pathID parses a positive numeric path value.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
