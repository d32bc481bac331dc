package api

import (
	"log/slog"
	"net/http"

	"github.com/concordsrs/concord-api/internal/api/shared"
	"github.com/concordsrs/concord-api/internal/platform/logger"
	"github.com/concordsrs/concord-api/internal/service/review"
)

// PhrasingHandler handles phrasing-related HTTP requests.
type PhrasingHandler struct {
	phrasings review.PhrasingService
	logger    *slog.Logger
}

// NewPhrasingHandler creates a new PhrasingHandler.
func NewPhrasingHandler(phrasings review.PhrasingService, logger *slog.Logger) *PhrasingHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for PhrasingHandler")
	}

	return &PhrasingHandler{
		phrasings: phrasings,
		logger:    logger.With(slog.String("component", "phrasing_handler")),
	}
}

// CreatePhrasing handles POST /concepts/{id}/phrasings requests.
func (h *PhrasingHandler) CreatePhrasing(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	conceptID, ok := parseIDParam(w, r, log, "Concept")
	if !ok {
		return
	}

	var req CreatePhrasingRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	phrasing, err := h.phrasings.CreatePhrasing(r.Context(), userID, conceptID, req.Text, req.Options)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, phrasing)
}

// ListPhrasings handles GET /concepts/{id}/phrasings requests.
// Pass include_archived=true to include archived phrasings.
func (h *PhrasingHandler) ListPhrasings(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	conceptID, ok := parseIDParam(w, r, log, "Concept")
	if !ok {
		return
	}

	includeArchived := r.URL.Query().Get("include_archived") == "true"

	phrasings, err := h.phrasings.ListPhrasings(r.Context(), userID, conceptID, includeArchived)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, phrasings)
}

// SetCanonical handles POST /phrasings/{id}/canonical requests.
func (h *PhrasingHandler) SetCanonical(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	phrasingID, ok := parseIDParam(w, r, log, "Phrasing")
	if !ok {
		return
	}

	if err := h.phrasings.SetCanonical(r.Context(), userID, phrasingID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ArchivePhrasing handles POST /phrasings/{id}/archive requests.
func (h *PhrasingHandler) ArchivePhrasing(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	phrasingID, ok := parseIDParam(w, r, log, "Phrasing")
	if !ok {
		return
	}

	if err := h.phrasings.ArchivePhrasing(r.Context(), userID, phrasingID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetOptions handles GET /questions/{id}/options requests.
// It returns the phrasing's answer options in the caller's stable shuffled
// order.
func (h *PhrasingHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	phrasingID, ok := parseIDParam(w, r, log, "Question")
	if !ok {
		return
	}

	options, err := h.phrasings.ShuffledOptions(r.Context(), userID, phrasingID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, OptionsResponse{
		PhrasingID: phrasingID,
		Options:    options,
	})
}
