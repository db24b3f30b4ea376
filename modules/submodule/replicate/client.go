package replicate

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	replicatego "github.com/replicate/replicate-go"

	"ai-lens-server/modules/common/logger"
)

// DefaultBaseURL - Replicate HTTP API
const DefaultBaseURL = "https://api.replicate.com/v1"

// ErrNoToken - REPLICATE_API_TOKEN 미설정
var ErrNoToken = errors.New("replicate api token is not set")

// Options - 클라이언트 생성 옵션
type Options struct {
	APIToken     string
	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Client - replicate-go SDK 를 감싼 이미지 provider
type Client struct {
	api          *replicatego.Client
	pollInterval time.Duration
	log          *slog.Logger
}

// NewClient - replicate-go 클라이언트 생성. 토큰이 없으면 ErrNoToken
func NewClient(opts Options) (*Client, error) {
	if opts.APIToken == "" {
		return nil, ErrNoToken
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	api, err := replicatego.NewClient(
		replicatego.WithToken(opts.APIToken),
		replicatego.WithBaseURL(baseURL),
		replicatego.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create replicate client: %w", err)
	}

	return &Client{api: api, pollInterval: pollInterval, log: log}, nil
}

// UploadFile - 참조 이미지를 Replicate file store 에 올리고 GET URL 반환
func (c *Client) UploadFile(ctx context.Context, data []byte, mimeType, filename string) (string, error) {
	file, err := c.api.CreateFileFromBytes(ctx, data, &replicatego.CreateFileOptions{
		Filename:    filename,
		ContentType: mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("replicate file upload: %w", err)
	}

	url := file.URLs["get"]
	if url == "" {
		return "", errors.New("replicate file upload: response has no urls.get")
	}

	c.log.InfoContext(ctx, "✓ [Replicate] Reference image uploaded",
		"request_id", logger.RequestID(ctx), "file_id", file.ID, "size", file.Size)
	return url, nil
}

// Run - prediction 생성 후 끝날 때까지 대기. 성공 시 output 을 JSON 으로 반환
func (c *Client) Run(ctx context.Context, model string, input PredictionInput) (json.RawMessage, error) {
	owner, name, ok := strings.Cut(model, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("invalid model %q: want owner/name", model)
	}

	c.log.InfoContext(ctx, "🎨 [Replicate] Creating prediction",
		"request_id", logger.RequestID(ctx), "model", model, "with_image", input.Image != "")

	prediction, err := c.api.CreatePredictionWithModel(ctx, owner, name, input.values(), nil, false)
	if err != nil {
		return nil, fmt.Errorf("replicate create prediction: %w", err)
	}

	if !terminated(prediction.Status) {
		if err := c.api.Wait(ctx, prediction, replicatego.WithPollingInterval(c.pollInterval)); err != nil {
			return nil, fmt.Errorf("replicate wait prediction %s: %w", prediction.ID, err)
		}
	}

	switch string(prediction.Status) {
	case StatusSucceeded:
	case StatusFailed, StatusCanceled:
		if prediction.Error != nil {
			return nil, fmt.Errorf("prediction %s %s: %v", prediction.ID, prediction.Status, prediction.Error)
		}
		return nil, fmt.Errorf("prediction %s %s", prediction.ID, prediction.Status)
	default:
		return nil, fmt.Errorf("prediction %s ended in unexpected status %q", prediction.ID, prediction.Status)
	}

	raw, err := json.Marshal(prediction.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction output: %w", err)
	}
	return raw, nil
}

func terminated(status replicatego.Status) bool {
	switch string(status) {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// DataURI - 바이트를 data URI 로 (Replicate file input 형식)
func DataURI(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
