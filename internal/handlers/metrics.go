package handlers

import (
	"net/http"
	"strconv"

	"github.com/felipeah-dev/echo-app/internal/services/dealstats"
	"github.com/gorilla/mux"
)

const maxRecentLimit = 100

// DealMetricsHandler serves the deal summary built from recorded syncs
type DealMetricsHandler struct {
	ledger *dealstats.Ledger
}

// NewDealMetricsHandler creates a deal metrics handler
func NewDealMetricsHandler(ledger *dealstats.Ledger) *DealMetricsHandler {
	return &DealMetricsHandler{ledger: ledger}
}

// RegisterRoutes registers the deal summary route on the /api/v1 router
func (h *DealMetricsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/metrics", h.Summary).Methods(http.MethodGet)
}

// Summary handles GET /api/v1/metrics
func (h *DealMetricsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	limit := dealstats.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRecentLimit {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	w.Header().Set("Cache-Control", "no-store, max-age=0")
	respondJSON(w, http.StatusOK, h.ledger.Summary(limit))
}
