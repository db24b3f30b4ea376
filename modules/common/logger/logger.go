package logger

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
)

type contextKey string

// ContextKeyRequestID is the key for request ID in the context.
const ContextKeyRequestID contextKey = "request_id"

// HeaderRequestID - 클라이언트가 보낸 값을 그대로 재사용
const HeaderRequestID = "X-Request-ID"

// Config holds the configuration of the logger.
type Config struct {
	Level  slog.Level
	Format string
}

// FromConfig - LOG_LEVEL / LOG_FORMAT 문자열을 Config 로 변환
func FromConfig(logLevel, logFormat string) Config {
	cfg := Config{
		Level:  slog.LevelInfo,
		Format: "text",
	}

	switch logLevel {
	case "debug":
		cfg.Level = slog.LevelDebug
	case "warn":
		cfg.Level = slog.LevelWarn
	case "error":
		cfg.Level = slog.LevelError
	}

	if logFormat == "json" {
		cfg.Format = "json"
	}
	return cfg
}

// New creates a new logger with the given config.
func New(cfg Config) *slog.Logger {
	return NewWithWriter(os.Stdout, cfg)
}

// NewWithWriter - 출력 대상을 지정해서 생성 (테스트용)
func NewWithWriter(w io.Writer, cfg Config) *slog.Logger {
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: cfg.Level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.String(a.Key, a.Value.Time().Format(time.RFC3339))
				}
				return a
			},
		}))
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      cfg.Level,
		TimeFormat: time.Kitchen,
	}))
}

// Discard - 아무것도 출력하지 않는 logger
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// GenerateRequestID generates a new request ID.
func GenerateRequestID() string {
	return uuid.New().String()
}

// Middleware - request id 부여 + 요청 로그
func Middleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = GenerateRequestID()
			}
			w.Header().Set(HeaderRequestID, requestID)

			start := time.Now()
			next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), requestID)))

			log.Debug("http request",
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration", time.Since(start)))
		})
	}
}
