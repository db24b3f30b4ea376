package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PlaceholderGeminiKey - .env.example 에 들어있는 기본 값. 설정되지 않은 것으로 취급
const PlaceholderGeminiKey = "your_gemini_api_key_here"

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Server
	Port               string
	CORSAllowedOrigins []string
	RatePerMinute      int

	// Logging
	LogLevel  string
	LogFormat string

	// Gemini API (text/vision)
	GeminiAPIKey   string
	GeminiModel    string
	GeminiBackend  string
	GoogleProject  string
	GoogleLocation string

	// Replicate (Imagen 4)
	ReplicateAPIToken string
	ReplicateModel    string
	ReplicateAPIURL   string

	// Provider 호출 제한 시간
	ProviderTimeout time.Duration

	// Uploads
	UploadDir           string
	UploadRetention     time.Duration
	UploadSweepSchedule string

	// Redis (history, optional)
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool
}

// LoadConfig - 환경변수 로드
func LoadConfig(envFiles ...string) (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(envFiles...); err != nil {
		slog.Warn("⚠️  .env file not found, using environment variables")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "3001"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RatePerMinute:      getEnvInt("GENERATE_RATE_PER_MINUTE", 0),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		GeminiAPIKey:   strings.TrimSpace(getEnv("GEMINI_API_KEY", "")),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBackend:  getEnv("GEMINI_BACKEND", "gemini"),
		GoogleProject:  getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleLocation: getEnv("GOOGLE_CLOUD_LOCATION", "us-central1"),

		ReplicateAPIToken: strings.TrimSpace(getEnv("REPLICATE_API_TOKEN", "")),
		ReplicateModel:    getEnv("REPLICATE_MODEL", "google/imagen-4"),
		ReplicateAPIURL:   getEnv("REPLICATE_API_URL", "https://api.replicate.com/v1"),

		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 120*time.Second),

		UploadDir:           getEnv("UPLOAD_DIR", "uploads"),
		UploadRetention:     getEnvDuration("UPLOAD_RETENTION", time.Hour),
		UploadSweepSchedule: getEnv("UPLOAD_SWEEP_SCHEDULE", "@every 30m"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   getEnvBool("REDIS_USE_TLS", false),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate - 형식 검증. API 키가 없는 것은 에러가 아님 (/generate 가 503 응답)
func (c *Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.UploadRetention <= 0 {
		return fmt.Errorf("UPLOAD_RETENTION must be positive")
	}
	switch c.GeminiBackend {
	case "gemini":
	case "vertex":
		if c.GoogleProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required when GEMINI_BACKEND=vertex")
		}
	default:
		return fmt.Errorf("unknown GEMINI_BACKEND: %s", c.GeminiBackend)
	}
	return nil
}

// HasTextProvider - Gemini 키가 실제로 설정되었는지 (빈 값/placeholder 제외)
func (c *Config) HasTextProvider() bool {
	if c.GeminiBackend == "vertex" {
		return c.GoogleProject != ""
	}
	return c.GeminiAPIKey != "" && c.GeminiAPIKey != PlaceholderGeminiKey
}

// HasImageProvider - Replicate 토큰 설정 여부
func (c *Config) HasImageProvider() bool {
	return c.ReplicateAPIToken != ""
}

// HasRedis - history 저장소 사용 여부
func (c *Config) HasRedis() bool {
	return c.RedisHost != ""
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			return parsed
		}
		slog.Warn("⚠️  invalid integer env, using default", "key", key, "value", raw)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration - "90s", "2m" 형식 또는 초 단위 숫자
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	slog.Warn("⚠️  invalid duration env, using default", "key", key, "value", raw)
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
