package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tmarkov/tradebook/internal/domain"
	"github.com/tmarkov/tradebook/internal/modules/journal"
)

// Handler handles trade journal HTTP requests
type Handler struct {
	service *journal.Service
	log     zerolog.Logger
}

// NewHandler creates a new journal handler
func NewHandler(service *journal.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "journal").Logger(),
	}
}

// CreateTradeRequest is the POST /api/trades payload.
type CreateTradeRequest struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Quantity   int64   `json:"quantity"`
	Price      float64 `json:"price"`
	Reason     string  `json:"reason"`
	ExecutedAt string  `json:"executed_at"` // RFC3339
}

// HandleCreateTrade handles POST /api/trades
func (h *Handler) HandleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var request CreateTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	executedAt, err := time.Parse(time.RFC3339, request.ExecutedAt)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid executed_at, expected RFC3339: "+err.Error())
		return
	}

	trade := domain.Trade{
		Symbol:     request.Symbol,
		Side:       domain.TradeSide(request.Side),
		Quantity:   request.Quantity,
		Price:      request.Price,
		Reason:     request.Reason,
		ExecutedAt: executedAt,
	}

	if err := h.service.Record(&trade); err != nil {
		if domain.IsValidation(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to record trade: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, trade)
}

// HandleListTrades handles GET /api/trades?range=30d
func (h *Handler) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	rangeParam := r.URL.Query().Get("range")
	if rangeParam == "" {
		rangeParam = string(domain.RangeAll)
	}

	timeRange, err := domain.ParseTimeRange(rangeParam)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trades, err := h.service.List(timeRange)
	if err != nil {
		if domain.IsValidation(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to list trades: "+err.Error())
		return
	}

	if trades == nil {
		trades = []domain.Trade{}
	}
	h.writeJSON(w, http.StatusOK, trades)
}

// HandleGetTrade handles GET /api/trades/{id}
func (h *Handler) HandleGetTrade(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid trade id")
		return
	}

	trade, err := h.service.Get(id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to get trade: "+err.Error())
		return
	}
	if trade == nil {
		h.writeError(w, http.StatusNotFound, "Trade not found")
		return
	}

	h.writeJSON(w, http.StatusOK, trade)
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
