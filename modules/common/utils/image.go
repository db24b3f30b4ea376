package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // GIF 디코더 등록
	_ "image/jpeg" // JPEG 디코더 등록
	"image/png"
	"log/slog"
	"net/http"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// ErrNotImage - 이미지가 아니거나 디코딩 불가
var ErrNotImage = errors.New("file is not a supported image")

// WebPQuality - PNG → WebP 변환 품질
const WebPQuality float32 = 90

// DetectMIME - 바이트 앞부분으로 MIME 판별
func DetectMIME(data []byte) string {
	return http.DetectContentType(data)
}

// ValidateImage - 지원하는 이미지인지 확인 후 MIME 반환
func ValidateImage(data []byte) (string, error) {
	mimeType := DetectMIME(data)

	switch mimeType {
	case "image/webp":
		if _, err := webp.Decode(bytes.NewReader(data), &decoder.Options{}); err != nil {
			return "", fmt.Errorf("%w: %v", ErrNotImage, err)
		}
	case "image/png", "image/jpeg", "image/gif":
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			return "", fmt.Errorf("%w: %v", ErrNotImage, err)
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrNotImage, mimeType)
	}
	return mimeType, nil
}

// PrepareReference - 모델에 inline 으로 보낼 참조 이미지 준비.
// PNG 는 WebP 로 변환해서 더 작을 때만 교체
func PrepareReference(data []byte) ([]byte, string, error) {
	mimeType, err := ValidateImage(data)
	if err != nil {
		return nil, "", err
	}
	if mimeType != "image/png" {
		return data, mimeType, nil
	}

	webpData, err := ConvertPNGToWebP(data, WebPQuality)
	if err != nil {
		slog.Warn("⚠️ PNG → WebP conversion failed, sending original", "error", err)
		return data, mimeType, nil
	}
	if len(webpData) >= len(data) {
		return data, mimeType, nil
	}
	return webpData, "image/webp", nil
}

// ConvertPNGToWebP - PNG 바이너리를 WebP로 변환
func ConvertPNGToWebP(pngData []byte, quality float32) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %w", err)
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var webpBuffer bytes.Buffer
	if err := webp.Encode(&webpBuffer, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}

	webpData := webpBuffer.Bytes()
	slog.Debug("✅ PNG converted to WebP",
		"png_bytes", len(pngData),
		"webp_bytes", len(webpData))
	return webpData, nil
}
