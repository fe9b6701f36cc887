package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tmarkov/tradebook/internal/modules/planning"
)

// Handler handles planning HTTP requests
type Handler struct {
	planner *planning.Planner
	log     zerolog.Logger
}

// NewHandler creates a new planning handler
func NewHandler(planner *planning.Planner, log zerolog.Logger) *Handler {
	return &Handler{
		planner: planner,
		log:     log.With().Str("handler", "planning").Logger(),
	}
}

// HandleValidateTargets handles POST /api/planning/targets/validate
func (h *Handler) HandleValidateTargets(w http.ResponseWriter, r *http.Request) {
	var request planning.PlanRequest

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result := h.planner.Validate(request)

	h.log.Info().
		Str("plan_id", result.PlanID).
		Bool("is_valid", result.IsValid).
		Int("targets", len(request.Targets)).
		Msg("Plan validation served")

	// Field-level failures are part of the result, not transport errors.
	h.writeJSON(w, http.StatusOK, result)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
