package photo

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"ai-lens-server/modules/common/apperr"
	"ai-lens-server/modules/common/logger"
	"ai-lens-server/modules/common/metrics"
)

const maxRequestBody = 1 << 20

// Handler - /generate, /generate/ws
type Handler struct {
	service  Generator
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewHandler - ratePerMinute 가 0 이하면 제한 없음
func NewHandler(service Generator, ratePerMinute int, m *metrics.Metrics, log *slog.Logger) *Handler {
	h := &Handler{
		service: service,
		metrics: m,
		log:     log,
		upgrader: websocket.Upgrader{
			// origin 검사는 CORS 설정에 맡김
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	if ratePerMinute > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60), ratePerMinute)
	}
	return h
}

// RegisterRoutes - 루트와 /api 둘 다 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	for _, prefix := range []string{"", "/api"} {
		r.HandleFunc(prefix+"/generate", h.handleGenerate).Methods(http.MethodPost)
		r.HandleFunc(prefix+"/generate/ws", h.handleStream).Methods(http.MethodGet)
	}
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	status := h.generate(w, r)
	h.metrics.ObserveRequest("/generate", status)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) int {
	log := h.log.With("request_id", logger.RequestID(r.Context()))

	if !h.allow() {
		return writeTooManyRequests(w)
	}

	var req GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		log.Warn("⚠️ [Photo] Invalid request body", "error", err)
		apperr.WriteJSON(w, http.StatusBadRequest, apperr.APIError{Error: "Invalid request body", Details: err.Error()})
		return http.StatusBadRequest
	}

	result, err := h.service.Generate(r.Context(), req, nil)
	if err != nil {
		status := apperr.WriteError(w, err)
		if status >= http.StatusInternalServerError {
			log.Error("❌ [Photo] Generation error", "status", status, "error", err)
		}
		return status
	}

	apperr.WriteJSON(w, http.StatusOK, result.Response())
	return http.StatusOK
}

func (h *Handler) allow() bool {
	return h.limiter == nil || h.limiter.Allow()
}

func writeTooManyRequests(w http.ResponseWriter) int {
	apperr.WriteJSON(w, http.StatusTooManyRequests, apperr.APIError{
		Error:   "Too many requests",
		Details: "Generation rate limit exceeded. Please wait and try again.",
	})
	return http.StatusTooManyRequests
}
