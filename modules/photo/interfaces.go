package photo

import (
	"context"
	"encoding/json"

	"ai-lens-server/modules/common/gemini"
	"ai-lens-server/modules/submodule/replicate"
	"ai-lens-server/modules/upload"
)

// TextProvider - 분석 텍스트 생성 (Gemini)
type TextProvider interface {
	Analyze(ctx context.Context, prompt string, image *gemini.InlineImage) (*gemini.Analysis, error)
}

// ImageProvider - 이미지 생성 (Replicate)
type ImageProvider interface {
	UploadFile(ctx context.Context, data []byte, mimeType, filename string) (string, error)
	Run(ctx context.Context, model string, input replicate.PredictionInput) (json.RawMessage, error)
}

// ReferenceLoader - 업로드된 참조 이미지 조회
type ReferenceLoader interface {
	Load(name string) (*upload.Reference, error)
}

// PrepareFunc - text 모델에 보내기 전에 이미지 변환
type PrepareFunc func(data []byte) ([]byte, string, error)

// ProgressFunc - 단계가 바뀔 때마다 호출
type ProgressFunc func(stage Stage)

// Generator - handler 가 사용하는 orchestrator
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest, progress ProgressFunc) (*GenerationResult, error)
}
