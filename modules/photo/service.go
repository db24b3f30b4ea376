package photo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ai-lens-server/modules/common/apperr"
	"ai-lens-server/modules/common/fallback"
	"ai-lens-server/modules/common/gemini"
	"ai-lens-server/modules/common/logger"
	"ai-lens-server/modules/common/metrics"
	"ai-lens-server/modules/history"
	"ai-lens-server/modules/submodule/replicate"
	"ai-lens-server/modules/upload"
)

const (
	DefaultImageModel      = "google/imagen-4"
	DefaultProviderTimeout = 120 * time.Second

	historyTimeout = 5 * time.Second
)

// Options - Service 의존성. Text 가 nil 이면 /generate 는 503
type Options struct {
	Text       TextProvider
	Image      ImageProvider
	ImageModel string
	References ReferenceLoader
	Prepare    PrepareFunc
	History    history.Store
	Metrics    *metrics.Metrics
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Service - 사진 생성 orchestrator
type Service struct {
	text       TextProvider
	image      ImageProvider
	imageModel string
	references ReferenceLoader
	prepare    PrepareFunc
	history    history.Store
	metrics    *metrics.Metrics
	timeout    time.Duration
	log        *slog.Logger
}

func NewService(opts Options) *Service {
	s := &Service{
		text:       opts.Text,
		image:      opts.Image,
		imageModel: opts.ImageModel,
		references: opts.References,
		prepare:    opts.Prepare,
		history:    opts.History,
		metrics:    opts.Metrics,
		timeout:    opts.Timeout,
		log:        opts.Logger,
	}
	if s.imageModel == "" {
		s.imageModel = DefaultImageModel
	}
	if s.timeout <= 0 {
		s.timeout = DefaultProviderTimeout
	}
	if s.history == nil {
		s.history = history.NopStore{}
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	return s
}

// Generate - 설정 확인 → 검증 → 프롬프트 → text 호출 → (image 호출) → 병합
func (s *Service) Generate(ctx context.Context, req GenerateRequest, progress ProgressFunc) (*GenerationResult, error) {
	log := s.log.With("request_id", logger.RequestID(ctx))
	report := func(stage Stage) {
		if progress != nil {
			progress(stage)
		}
	}

	if s.text == nil {
		return nil, &apperr.ConfigurationError{
			Message:     "Gemini API key not configured",
			Remediation: "Add your GEMINI_API_KEY to the .env file in the project root. Get a key at https://aistudio.google.com/apikey",
		}
	}

	report(StageValidating)
	params, err := Validate(req)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(params)
	report(StagePromptBuilt)
	log.Info("📝 [Photo] Prompt built",
		"iso", params.ISO,
		"aperture", params.Aperture,
		"shutter", params.ShutterSpeed,
		"lens", params.LensType,
		"lighting", params.Lighting,
		"reference", req.UploadedImage != "")

	ref := s.loadReference(log, req.UploadedImage)

	analysis, err := s.analyze(ctx, log, prompt, ref)
	if err != nil {
		return nil, apperr.Unexpected("text generation", err)
	}
	report(StageTextCallDone)

	result := &GenerationResult{Prompt: prompt, Analysis: analysis}

	if s.image != nil {
		result.ImageURL = s.generateImage(ctx, log, prompt, params, ref)
		report(StageImageCallAttempted)
	} else {
		log.Warn("⚠️ [Photo] Image provider not configured - skipping image generation")
		s.metrics.ObserveProvider("replicate", metrics.OutcomeSkipped, 0)
	}

	if result.ImageURL == "" {
		result.Note = NoteImageUnavailable
	}
	report(StageMerged)

	s.record(ctx, log, params, result)
	return result, nil
}

// loadReference - 없거나 읽을 수 없으면 nil (text-only 로 진행)
func (s *Service) loadReference(log *slog.Logger, name string) *upload.Reference {
	if name == "" || s.references == nil {
		return nil
	}

	ref, err := s.references.Load(name)
	if err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			log.Warn("⚠️ [Photo] Reference image not found, continuing without it", "file", name)
		} else {
			log.Warn("⚠️ [Photo] Reference image unreadable, continuing without it", "file", name, "error", err)
		}
		return nil
	}
	return ref
}

func (s *Service) analyze(ctx context.Context, log *slog.Logger, prompt string, ref *upload.Reference) (string, error) {
	var image *gemini.InlineImage
	if ref != nil {
		image = &gemini.InlineImage{Data: ref.Data, MIMEType: ref.MIMEType}
		if s.prepare != nil {
			data, mimeType, err := s.prepare(ref.Data)
			if err != nil {
				log.Warn("⚠️ [Photo] Reference preparation failed, sending original", "error", err)
			} else {
				image = &gemini.InlineImage{Data: data, MIMEType: mimeType}
			}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.text.Analyze(callCtx, BuildTextPrompt(prompt, image != nil), image)
	if err != nil {
		s.metrics.ObserveProvider("gemini", metrics.OutcomeError, time.Since(start))
		log.Error("❌ [Photo] Text generation failed", "error", err)
		return "", err
	}

	if result == nil {
		result = &gemini.Analysis{}
	}
	outcome := metrics.OutcomeOK
	if result.Text == "" {
		outcome = metrics.OutcomeDegraded
		log.Warn("⚠️ [Photo] Text response empty or blocked",
			"block_reason", result.BlockReason,
			"finish_reason", result.FinishReason,
			"fragments", len(result.Fragments))
	}
	s.metrics.ObserveProvider("gemini", outcome, time.Since(start))

	return fallback.Analysis(result.Text, result.BlockReason, result.Fragments), nil
}

// generateImage - 실패해도 에러를 돌려주지 않음. 빈 문자열이면 이미지 없음
func (s *Service) generateImage(ctx context.Context, log *slog.Logger, prompt string, params CameraParameters, ref *upload.Reference) string {
	input := replicate.PredictionInput{
		AspectRatio:       replicate.DefaultAspectRatio,
		SafetyFilterLevel: replicate.DefaultSafetyFilterLevel,
	}

	var imageRef *ImageReference
	if ref != nil {
		imageRef = &ImageReference{}
		uploadCtx, cancel := context.WithTimeout(ctx, s.timeout)
		fileURL, err := s.image.UploadFile(uploadCtx, ref.Data, ref.MIMEType, ref.Name)
		cancel()
		if err != nil {
			log.Warn("⚠️ [Photo] Failed to upload reference image to Replicate", "error", err)
		} else {
			log.Info("✅ [Photo] Reference image uploaded to Replicate", "url", fileURL)
			imageRef.URL = fileURL
			input.Image = replicate.DataURI(ref.Data, ref.MIMEType)
		}
	}
	input.Prompt = BuildImagePrompt(prompt, params, imageRef)

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log.Info("🎨 [Photo] Generating image", "model", s.imageModel)
	start := time.Now()
	raw, err := s.image.Run(runCtx, s.imageModel, input)
	if err != nil {
		s.metrics.ObserveProvider("replicate", metrics.OutcomeError, time.Since(start))
		log.Error("❌ [Photo] Image generation failed", "error", err)
		return ""
	}

	imageURL, err := replicate.ExtractURL(raw)
	if err != nil {
		s.metrics.ObserveProvider("replicate", metrics.OutcomeDegraded, time.Since(start))
		log.Warn("⚠️ [Photo] Image output returned but URL could not be extracted", "error", err, "output", string(raw))
		return ""
	}

	s.metrics.ObserveProvider("replicate", metrics.OutcomeOK, time.Since(start))
	log.Info("✅ [Photo] Image generated", "url", imageURL)
	return imageURL
}

// record - history 저장 실패는 로그만 남김
func (s *Service) record(ctx context.Context, log *slog.Logger, params CameraParameters, result *GenerationResult) {
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()

	err := s.history.Record(recordCtx, history.Entry{
		ISO:          params.ISO,
		Aperture:     params.Aperture,
		ShutterSpeed: params.ShutterSpeed,
		LensType:     params.LensType,
		Lighting:     params.Lighting,
		Subject:      params.Subject,
		Prompt:       result.Prompt,
		Analysis:     result.Analysis,
		ImageURL:     result.ImageURL,
		Note:         result.Note,
	})
	if err != nil {
		log.Warn("⚠️ [Photo] Failed to record history", "error", err)
	}
}
