// Package api provides HTTP handlers for the API.
package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/concordsrs/concord-api/internal/api/shared"
	"github.com/concordsrs/concord-api/internal/platform/logger"
	"github.com/concordsrs/concord-api/internal/service/review"
)

// ReviewHandler handles interaction recording, queue and stats requests.
type ReviewHandler struct {
	recorder review.Recorder
	selector review.QueueSelector
	logger   *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(
	recorder review.Recorder,
	selector review.QueueSelector,
	logger *slog.Logger,
) *ReviewHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}

	return &ReviewHandler{
		recorder: recorder,
		selector: selector,
		logger:   logger.With(slog.String("component", "review_handler")),
	}
}

// RecordInteraction handles POST /interactions requests.
// It records one graded attempt and returns the new schedule.
func (h *ReviewHandler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req RecordInteractionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("failed to decode record interaction request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.recorder.RecordInteraction(r.Context(), userID, review.RecordRequest{
		ConceptID:   req.ConceptID,
		UserAnswer:  req.UserAnswer,
		IsCorrect:   req.IsCorrect,
		TimeSpentMs: req.TimeSpentMs,
		SessionID:   req.SessionID,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RecordInteractionResponse{
		NextReview:    result.NextReview,
		ScheduledDays: result.ScheduledDays,
		NewState:      string(result.NewState),
	})
}

// GetQueue handles GET /queue requests.
// Query parameters: view, search, sort, cursor, page_size.
func (h *ReviewHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	req := review.QueueRequest{
		View:   r.URL.Query().Get("view"),
		Search: r.URL.Query().Get("search"),
		Sort:   r.URL.Query().Get("sort"),
		Cursor: r.URL.Query().Get("cursor"),
	}
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid page size")
			return
		}
		req.PageSize = size
	}

	page, err := h.selector.BuildQueue(r.Context(), userID, req)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, page)
}

// Postpone handles POST /concepts/{id}/postpone requests.
func (h *ReviewHandler) Postpone(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	conceptID, ok := parseIDParam(w, r, log, "Concept")
	if !ok {
		return
	}

	var req PostponeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.recorder.Postpone(r.Context(), userID, conceptID, req.Days)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RecordInteractionResponse{
		NextReview: result.NextReview,
		NewState:   string(result.NewState),
	})
}

// GetStats handles GET /stats requests.
func (h *ReviewHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	summary, err := h.selector.Summary(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// requireUserID extracts the authenticated user ID from the request context,
// writing a 401 response when it is missing.
func requireUserID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, false
	}
	return userID, true
}

// parseIDParam parses the {id} URL parameter as a UUID, writing a 400
// response on failure. kind names the entity for the error message.
func parseIDParam(w http.ResponseWriter, r *http.Request, log *slog.Logger, kind string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, kind+" ID is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		log.Warn("invalid ID format", slog.String("id", raw))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+kind+" ID format")
		return uuid.Nil, false
	}
	return id, true
}
