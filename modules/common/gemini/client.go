package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"ai-lens-server/modules/common/logger"
)

// contentGenerator - *genai.Models 가 만족하는 부분 (테스트에서 교체)
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options - Gemini 클라이언트 생성 옵션
type Options struct {
	APIKey   string
	Model    string
	Backend  string // "gemini" | "vertex"
	Project  string
	Location string
	Logger   *slog.Logger
}

// InlineImage - 요청에 같이 보낼 참조 이미지
type InlineImage struct {
	Data     []byte
	MIMEType string
}

// Analysis - 응답에서 뽑아낸 텍스트와, 텍스트가 없을 때 쓸 재료들
type Analysis struct {
	Text         string
	BlockReason  string
	Fragments    []string
	FinishReason string
}

// Client - text/vision 모델 호출
type Client struct {
	models contentGenerator
	model  string
	log    *slog.Logger
}

// NewClient - Genai 클라이언트 초기화
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.Backend == "vertex" {
		cc = &genai.ClientConfig{
			Project:  opts.Project,
			Location: opts.Location,
			Backend:  genai.BackendVertexAI,
		}
	}

	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Genai client: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	log.Info("✅ [Gemini] Client initialized", "model", opts.Model, "backend", opts.Backend)

	return newClient(gc.Models, opts.Model, log), nil
}

func newClient(models contentGenerator, model string, log *slog.Logger) *Client {
	return &Client{models: models, model: model, log: log}
}

// Model - 사용 중인 모델명
func (c *Client) Model() string {
	return c.model
}

// Analyze - 프롬프트 (+ 참조 이미지) 로 한 번 호출. 재시도 없음
func (c *Client) Analyze(ctx context.Context, prompt string, image *InlineImage) (*Analysis, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if image != nil && len(image.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(image.Data, image.MIMEType))
	}

	c.log.InfoContext(ctx, "🎨 [Gemini] Generating analysis",
		"request_id", logger.RequestID(ctx),
		"model", c.model,
		"with_image", len(parts) > 1)

	resp, err := c.models.GenerateContent(ctx, c.model, []*genai.Content{{Parts: parts}}, nil)
	if err != nil {
		c.log.ErrorContext(ctx, "❌ [Gemini] API error", "request_id", logger.RequestID(ctx), "error", err)
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	analysis := ExtractAnalysis(resp)
	if analysis.Text == "" {
		c.log.WarnContext(ctx, "⚠️ [Gemini] No text in response",
			"request_id", logger.RequestID(ctx),
			"block_reason", analysis.BlockReason,
			"finish_reason", analysis.FinishReason,
			"fragments", len(analysis.Fragments))
	}
	return analysis, nil
}

// ExtractAnalysis - 첫 번째 candidate 의 텍스트 파트 추출.
// 프롬프트가 차단됐거나 비정상 종료면 Text 는 비우고 조각만 Fragments 로 넘김
func ExtractAnalysis(resp *genai.GenerateContentResponse) *Analysis {
	a := &Analysis{}
	if resp == nil {
		return a
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		a.BlockReason = string(fb.BlockReason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return a
	}

	candidate := resp.Candidates[0]
	a.FinishReason = string(candidate.FinishReason)

	var texts []string
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought || part.Text == "" {
				continue
			}
			texts = append(texts, part.Text)
		}
	}

	if a.BlockReason != "" || !finishedCleanly(candidate.FinishReason) {
		a.Fragments = texts
		return a
	}

	a.Text = strings.Join(texts, "")
	return a
}

func finishedCleanly(reason genai.FinishReason) bool {
	switch reason {
	case "", genai.FinishReasonUnspecified, genai.FinishReasonStop, genai.FinishReasonMaxTokens:
		return true
	}
	return false
}
