package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tmarkov/tradebook/internal/domain"
	"github.com/tmarkov/tradebook/internal/modules/analytics"
)

// Handler handles analytics HTTP requests
type Handler struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleComparison handles GET /api/analytics/comparison?range=30d
func (h *Handler) HandleComparison(w http.ResponseWriter, r *http.Request) {
	rangeParam := r.URL.Query().Get("range")
	if rangeParam == "" {
		rangeParam = string(domain.Range30d)
	}

	timeRange, err := domain.ParseTimeRange(rangeParam)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	startTime := time.Now()
	report, err := h.service.ComparisonReport(r.Context(), timeRange)
	if err != nil {
		if domain.IsValidation(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Comparison failed: "+err.Error())
		return
	}

	h.log.Info().
		Str("range", rangeParam).
		Dur("elapsed", time.Since(startTime)).
		Msg("Comparison report served")

	h.writeJSON(w, http.StatusOK, report)
}

// HandleExpectation handles GET /api/analytics/expectation
func (h *Handler) HandleExpectation(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.Expectation()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Expectation failed: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, metrics)
}

// HandleHoldings handles GET /api/holdings
func (h *Handler) HandleHoldings(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.CurrentHoldings(r.Context())
	if err != nil {
		if domain.IsValidation(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Holdings aggregation failed: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// Helper methods

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
