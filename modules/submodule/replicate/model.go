package replicate

import replicatego "github.com/replicate/replicate-go"

// PredictionInput - Imagen 4 입력
type PredictionInput struct {
	Prompt            string `json:"prompt"`
	Image             string `json:"image,omitempty"` // data URI (참조 이미지 원본 바이트)
	AspectRatio       string `json:"aspect_ratio,omitempty"`
	SafetyFilterLevel string `json:"safety_filter_level,omitempty"`
}

// values - SDK 입력 map 으로 변환. 빈 값은 보내지 않음
func (in PredictionInput) values() replicatego.PredictionInput {
	values := replicatego.PredictionInput{"prompt": in.Prompt}
	if in.Image != "" {
		values["image"] = in.Image
	}
	if in.AspectRatio != "" {
		values["aspect_ratio"] = in.AspectRatio
	}
	if in.SafetyFilterLevel != "" {
		values["safety_filter_level"] = in.SafetyFilterLevel
	}
	return values
}

// 종료 상태 (Prediction.Status)
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// Imagen 4 기본 입력 값
const (
	DefaultAspectRatio       = "16:9"
	DefaultSafetyFilterLevel = "block_medium_and_above"
)
