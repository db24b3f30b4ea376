package photo

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ai-lens-server/modules/common/apperr"
	"ai-lens-server/modules/common/logger"
)

const (
	streamReadTimeout  = 30 * time.Second
	streamWriteTimeout = 10 * time.Second
)

// StreamMessage - /generate/ws 로 보내는 메시지
type StreamMessage struct {
	Type    string            `json:"type"` // stage | result | error
	Session string            `json:"session"`
	Stage   Stage             `json:"stage,omitempty"`
	Result  *GenerateResponse `json:"result,omitempty"`
	Status  int               `json:"status,omitempty"`
	Error   string            `json:"error,omitempty"`
	Details any               `json:"details,omitempty"`
}

// handleStream - 요청 하나를 받아서 단계별 진행 상황과 결과를 전송
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	if !h.allow() {
		h.metrics.ObserveRequest("/generate/ws", writeTooManyRequests(w))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("⚠️ [Stream] WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	session := uuid.NewString()
	log := h.log.With("session", session, "request_id", logger.RequestID(r.Context()))
	log.Info("🔌 [Stream] Client connected")

	send := make(chan StreamMessage, 8)
	done := make(chan struct{})
	go h.writePump(conn, send, done, log)

	status := h.runStream(conn, r, session, send, log)
	close(send)
	<-done

	h.metrics.ObserveRequest("/generate/ws", status)
	log.Info("👋 [Stream] Client finished", "status", status)
}

func (h *Handler) runStream(conn *websocket.Conn, r *http.Request, session string, send chan<- StreamMessage, log *slog.Logger) int {
	conn.SetReadLimit(maxRequestBody)
	_ = conn.SetReadDeadline(time.Now().Add(streamReadTimeout))

	var req GenerateRequest
	if err := conn.ReadJSON(&req); err != nil {
		log.Warn("⚠️ [Stream] Invalid request message", "error", err)
		send <- StreamMessage{Type: "error", Session: session, Status: http.StatusBadRequest, Error: "Invalid request body", Details: err.Error()}
		return http.StatusBadRequest
	}
	_ = conn.SetReadDeadline(time.Time{})

	// 클라이언트가 끊기면 provider 호출도 취소
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go watchDisconnect(conn, cancel, log)

	progress := func(stage Stage) {
		send <- StreamMessage{Type: "stage", Session: session, Stage: stage}
	}

	result, err := h.service.Generate(ctx, req, progress)
	if err != nil {
		status, body := apperr.StatusAndBody(err)
		send <- StreamMessage{Type: "error", Session: session, Status: status, Error: body.Error, Details: body.Details}
		return status
	}

	resp := result.Response()
	send <- StreamMessage{Type: "result", Session: session, Result: &resp}
	return http.StatusOK
}

// watchDisconnect - 요청 이후 들어오는 메시지는 버리고, 읽기 실패 시 cancel
func watchDisconnect(conn *websocket.Conn, cancel context.CancelFunc, log *slog.Logger) {
	for {
		if _, _, err := conn.NextReader(); err != nil {
			log.Debug("🔌 [Stream] Read loop ended", "error", err)
			cancel()
			return
		}
	}
}

// writePump - send 채널이 닫힐 때까지 순서대로 전송 후 정상 종료 frame
func (h *Handler) writePump(conn *websocket.Conn, send <-chan StreamMessage, done chan<- struct{}, log *slog.Logger) {
	defer close(done)

	failed := false
	for msg := range send {
		if failed {
			continue // 채널을 비워서 생산자가 막히지 않게
		}
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			log.Warn("⚠️ [Stream] Write failed", "error", err)
			failed = true
		}
	}

	if !failed {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}
