package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"ai-lens-server/modules/common/apperr"
	"ai-lens-server/modules/common/config"
	"ai-lens-server/modules/common/gemini"
	"ai-lens-server/modules/common/logger"
	"ai-lens-server/modules/common/metrics"
	redisconn "ai-lens-server/modules/common/redis"
	"ai-lens-server/modules/common/utils"
	"ai-lens-server/modules/history"
	"ai-lens-server/modules/photo"
	"ai-lens-server/modules/submodule/replicate"
	"ai-lens-server/modules/upload"
)

const shutdownTimeout = 15 * time.Second

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	apperr.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "AI Lens API is running",
	})
}

func main() {
	if err := run(); err != nil {
		slog.Error("❌ Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.FromConfig(cfg.LogLevel, cfg.LogFormat))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Text provider (Gemini)
	var text photo.TextProvider
	if cfg.HasTextProvider() {
		client, err := gemini.NewClient(ctx, gemini.Options{
			APIKey:   cfg.GeminiAPIKey,
			Model:    cfg.GeminiModel,
			Backend:  cfg.GeminiBackend,
			Project:  cfg.GoogleProject,
			Location: cfg.GoogleLocation,
			Logger:   log,
		})
		if err != nil {
			return fmt.Errorf("init gemini client: %w", err)
		}
		text = client
		log.Info("✅ Gemini client initialized", "model", client.Model(), "backend", cfg.GeminiBackend)
	} else {
		log.Warn("⚠️  GEMINI_API_KEY not set - /generate will answer 503")
	}

	// Image provider (Replicate Imagen 4)
	var image photo.ImageProvider
	if cfg.HasImageProvider() {
		client, err := replicate.NewClient(replicate.Options{
			APIToken: cfg.ReplicateAPIToken,
			BaseURL:  cfg.ReplicateAPIURL,
			Logger:   log,
		})
		if err != nil {
			return fmt.Errorf("init replicate client: %w", err)
		}
		image = client
		log.Info("✅ Replicate client initialized", "model", cfg.ReplicateModel)
	} else {
		log.Warn("⚠️  REPLICATE_API_TOKEN not set - image generation disabled")
	}

	// Uploads
	store, err := upload.NewStore(cfg.UploadDir, cfg.UploadRetention, log)
	if err != nil {
		return err
	}
	janitor, err := upload.NewJanitor(store, cfg.UploadSweepSchedule, m, log)
	if err != nil {
		return err
	}

	// History (optional)
	var hist history.Store = history.NopStore{}
	rdb, err := redisconn.Connect(ctx, cfg, log)
	if err != nil {
		log.Warn("⚠️  Redis unavailable - history disabled", "error", err)
	} else if rdb != nil {
		defer rdb.Close()
		hist = history.NewRedisStore(rdb, log)
	}

	service := photo.NewService(photo.Options{
		Text:       text,
		Image:      image,
		ImageModel: cfg.ReplicateModel,
		References: store,
		Prepare:    utils.PrepareReference,
		History:    hist,
		Metrics:    m,
		Timeout:    cfg.ProviderTimeout,
		Logger:     log,
	})

	// 라우터 설정
	r := mux.NewRouter()
	r.Use(logger.Middleware(log))

	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
	r.HandleFunc("/api/health", healthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	photo.NewHandler(service, cfg.RatePerMinute, m, log).RegisterRoutes(r)
	upload.NewHandler(store, utils.ValidateImage, m, log).RegisterRoutes(r)
	history.NewHandler(hist, m, log).RegisterRoutes(r)

	// CORS
	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", logger.HeaderRequestID},
		ExposedHeaders: []string{logger.HeaderRequestID},
	}).Handler(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitor.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("🚀 AI Lens server starting", "port", cfg.Port)
		log.Info("❤️  Health check", "url", "http://localhost:"+cfg.Port+"/api/health")
		log.Info("📊 Metrics", "url", "http://localhost:"+cfg.Port+"/metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("🛑 Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := janitor.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("janitor stop: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
