package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Category - UnexpectedError 를 사용자 메시지용으로 분류한 결과
type Category string

const (
	CategoryAuth          Category = "auth"
	CategoryModelNotFound Category = "model_not_found"
	CategoryGeneric       Category = "generic"
)

// APIError - 클라이언트에게 보내는 에러 응답 body
type APIError struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// ValidationError - 필수 파라미터 누락/허용되지 않은 값 (400)
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required camera parameters: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid camera parameters: "+strings.Join(e.Invalid, ", "))
	}
	if len(parts) == 0 {
		return "invalid request"
	}
	return strings.Join(parts, "; ")
}

// ConfigurationError - 운영자가 고쳐야 하는 설정 문제 (503)
type ConfigurationError struct {
	Message     string
	Remediation string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// UnexpectedError - 그 외 모든 실패 (500)
type UnexpectedError struct {
	Op  string
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// Unexpected - op 이름을 붙여서 감싸기
func Unexpected(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UnexpectedError{Op: op, Err: err}
}

// Classify - 에러 메시지 문자열로 auth / model-not-found 판별
func Classify(err error) Category {
	if err == nil {
		return CategoryGeneric
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(msg, "API key") || strings.Contains(lower, "api_key") ||
		strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(lower, "permission denied") || strings.Contains(lower, "unauthenticated") {
		return CategoryAuth
	}
	if strings.Contains(msg, "404") || strings.Contains(lower, "not found") || strings.Contains(lower, "not supported") {
		return CategoryModelNotFound
	}
	return CategoryGeneric
}

// UserMessage - 분류별 사용자 노출 메시지
func UserMessage(c Category) string {
	switch c {
	case CategoryAuth:
		return "Invalid or missing Gemini API key. Add GEMINI_API_KEY to the root .env file."
	case CategoryModelNotFound:
		return "Model not available. The Gemini API model name may have changed. Please check Google AI Studio for available models."
	default:
		return "Failed to generate image"
	}
}

// StatusAndBody - 에러 종류에 맞는 HTTP status 와 body
func StatusAndBody(err error) (int, APIError) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		details := map[string][]string{}
		if len(validationErr.Missing) > 0 {
			details["missing"] = validationErr.Missing
		}
		if len(validationErr.Invalid) > 0 {
			details["invalid"] = validationErr.Invalid
		}
		msg := "Missing required camera parameters"
		if len(validationErr.Missing) == 0 {
			msg = "Invalid camera parameters"
		}
		return http.StatusBadRequest, APIError{Error: msg, Details: details}
	}

	var configErr *ConfigurationError
	if errors.As(err, &configErr) {
		return http.StatusServiceUnavailable, APIError{Error: configErr.Message, Details: configErr.Remediation}
	}

	var details string
	var unexpected *UnexpectedError
	if errors.As(err, &unexpected) {
		details = unexpected.Err.Error()
	} else if err != nil {
		details = err.Error()
	}
	return http.StatusInternalServerError, APIError{Error: UserMessage(Classify(err)), Details: details}
}

// WriteJSON - JSON 응답 쓰기
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError - 에러를 분류해서 응답
func WriteError(w http.ResponseWriter, err error) int {
	status, body := StatusAndBody(err)
	WriteJSON(w, status, body)
	return status
}
