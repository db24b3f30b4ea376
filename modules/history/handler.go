package history

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"ai-lens-server/modules/common/apperr"
	"ai-lens-server/modules/common/metrics"
)

// Response - GET /api/history 응답
type Response struct {
	Success bool    `json:"success"`
	Entries []Entry `json:"entries"`
}

type Handler struct {
	store   Store
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewHandler(store Store, m *metrics.Metrics, log *slog.Logger) *Handler {
	if store == nil {
		store = NopStore{}
	}
	return &Handler{store: store, metrics: m, log: log}
}

// RegisterRoutes - /history, /api/history
func (h *Handler) RegisterRoutes(r *mux.Router) {
	for _, prefix := range []string{"", "/api"} {
		r.HandleFunc(prefix+"/history", h.handleList).Methods(http.MethodGet)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = DefaultLimit
	}

	entries, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.log.Error("❌ [History] Failed to load history", "error", err)
		apperr.WriteJSON(w, http.StatusInternalServerError, apperr.APIError{Error: "Failed to load history", Details: err.Error()})
		h.metrics.ObserveRequest("/history", http.StatusInternalServerError)
		return
	}

	apperr.WriteJSON(w, http.StatusOK, Response{Success: true, Entries: entries})
	h.metrics.ObserveRequest("/history", http.StatusOK)
}
