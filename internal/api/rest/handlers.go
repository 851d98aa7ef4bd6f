package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/clintrovert/relnotes/internal/temporal"
	"github.com/clintrovert/relnotes/pkg/types"
)

const (
	errCommitLogRequired = "commitLog is required"
	errGenerateFailed    = "failed to generate release notes"
)

// Service runs release-notes pipelines on behalf of the API
type Service interface {
	Generate(ctx context.Context, commitLog string) (*types.FinalResult, error)
	Submit(ctx context.Context, commitLog string) (string, error)
	Status(ctx context.Context, runID string) (*temporal.RunStatus, error)
	Cancel(ctx context.Context, runID string) error
}

// Handler handles REST API requests
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new REST handler
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// StartRunResponse represents the response from starting a run
type StartRunResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
}

// Query handles POST /api/query
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	commitLog, ok := decodeCommitLog(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: errCommitLogRequired})
		return
	}

	result, err := h.service.Generate(r.Context(), commitLog)
	if err != nil {
		h.logger.Error("failed to generate release notes",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: errGenerateFailed})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// StartRun handles POST /api/runs
func (h *Handler) StartRun(w http.ResponseWriter, r *http.Request) {
	commitLog, ok := decodeCommitLog(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: errCommitLogRequired})
		return
	}

	runID, err := h.service.Submit(r.Context(), commitLog)
	if err != nil {
		h.logger.Error("failed to start run", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: errGenerateFailed})
		return
	}

	writeJSON(w, http.StatusAccepted, StartRunResponse{RunID: runID, Status: "started"})
}

// GetRun handles GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	status, err := h.service.Status(r.Context(), runID)
	if err != nil {
		h.writeRunError(w, runID, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// CancelRun handles DELETE /api/runs/{id}
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	if err := h.service.Cancel(r.Context(), runID); err != nil {
		h.writeRunError(w, runID, err)
		return
	}

	writeJSON(w, http.StatusOK, StartRunResponse{RunID: runID, Status: "cancel_requested"})
}

func (h *Handler) writeRunError(w http.ResponseWriter, runID string, err error) {
	if errors.Is(err, temporal.ErrRunNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "run not found"})
		return
	}
	h.logger.Error("run request failed", zap.String("run_id", runID), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// RegisterRoutes registers REST API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/query", h.Query)
	r.Post("/runs", h.StartRun)
	r.Get("/runs/{id}", h.GetRun)
	r.Delete("/runs/{id}", h.CancelRun)
}

// NewRouter mounts the API under /api next to a /health probe.
func NewRouter(h *Handler) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r)
	})
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return router
}

// decodeCommitLog accepts only a JSON object whose commitLog is a non-empty string.
func decodeCommitLog(r *http.Request) (string, bool) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", false
	}
	raw, ok := body["commitLog"]
	if !ok {
		return "", false
	}
	var commitLog string
	if err := json.Unmarshal(raw, &commitLog); err != nil || commitLog == "" {
		return "", false
	}
	return commitLog, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
