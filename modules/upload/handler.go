package upload

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"ai-lens-server/modules/common/apperr"
	"ai-lens-server/modules/common/logger"
	"ai-lens-server/modules/common/metrics"
)

// multipart 헤더/boundary 여유분
const formOverhead = 1 << 20

// ValidateFunc - 업로드 바이트가 이미지인지 확인하고 MIME 반환
type ValidateFunc func(data []byte) (string, error)

// Response - POST /upload 응답
type Response struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Message  string `json:"message"`
}

// Handler - 참조 이미지 업로드
type Handler struct {
	store    *Store
	validate ValidateFunc
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewHandler - validate 가 nil 이면 Content-Type 감지만 함
func NewHandler(store *Store, validate ValidateFunc, m *metrics.Metrics, log *slog.Logger) *Handler {
	if validate == nil {
		validate = detectOnly
	}
	return &Handler{store: store, validate: validate, metrics: m, log: log}
}

// RegisterRoutes - /upload, /api/upload
func (h *Handler) RegisterRoutes(r *mux.Router) {
	for _, prefix := range []string{"", "/api"} {
		r.HandleFunc(prefix+"/upload", h.handleUpload).Methods(http.MethodPost)
	}
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	status := h.upload(w, r)
	h.metrics.ObserveRequest("/upload", status)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) int {
	log := h.log.With("request_id", logger.RequestID(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+formOverhead)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		if isTooLarge(err) {
			return writeError(w, http.StatusRequestEntityTooLarge, "File too large", "Maximum upload size is 10MB")
		}
		return writeError(w, http.StatusBadRequest, "No file uploaded", nil)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("image")
	if err != nil {
		return writeError(w, http.StatusBadRequest, "No file uploaded", nil)
	}
	defer file.Close()

	if header.Size > MaxUploadSize {
		return writeError(w, http.StatusRequestEntityTooLarge, "File too large", "Maximum upload size is 10MB")
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		log.Error("❌ [Upload] Failed to read file", "error", err)
		return writeError(w, http.StatusInternalServerError, "Failed to upload image", err.Error())
	}
	if len(data) > MaxUploadSize {
		return writeError(w, http.StatusRequestEntityTooLarge, "File too large", "Maximum upload size is 10MB")
	}

	mimeType, err := h.validate(data)
	if err != nil {
		log.Warn("⚠️ [Upload] Rejected non-image upload", "filename", header.Filename, "error", err)
		return writeError(w, http.StatusBadRequest, "Only image files are allowed", err.Error())
	}

	stored, err := h.store.Save(header.Filename, mimeType, bytes.NewReader(data))
	if err != nil {
		log.Error("❌ [Upload] Failed to store file", "error", err)
		return writeError(w, http.StatusInternalServerError, "Failed to upload image", err.Error())
	}

	h.metrics.IncUploads()
	log.Info("📤 [Upload] Image uploaded", "filename", stored.Filename, "mime", mimeType, "bytes", stored.Size)

	apperr.WriteJSON(w, http.StatusOK, Response{
		Success:  true,
		Filename: stored.Filename,
		Path:     stored.Path,
		Message:  "Image uploaded successfully",
	})
	return http.StatusOK
}

func writeError(w http.ResponseWriter, status int, msg string, details any) int {
	apperr.WriteJSON(w, status, apperr.APIError{Error: msg, Details: details})
	return status
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func detectOnly(data []byte) (string, error) {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", errors.New("file is not an image: " + mimeType)
	}
	return mimeType, nil
}
