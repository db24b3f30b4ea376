package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKey   = "ailens:generations"
	MaxEntries   = 50
	DefaultTTL   = 24 * time.Hour
	DefaultLimit = 20
)

// Entry - 생성 결과 한 건
type Entry struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	ISO          string    `json:"iso"`
	Aperture     string    `json:"aperture"`
	ShutterSpeed string    `json:"shutterSpeed"`
	LensType     string    `json:"lensType"`
	Lighting     string    `json:"lighting"`
	Subject      string    `json:"subjectDescription"`
	Prompt       string    `json:"prompt"`
	Analysis     string    `json:"analysis"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Note         string    `json:"note,omitempty"`
}

// Store - 최근 생성 기록
type Store interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// listClient - *redis.Client 중 사용하는 명령만
type listClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// RedisStore - Redis list 에 최근 MaxEntries 건 유지
type RedisStore struct {
	client listClient
	key    string
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedisStore(client *redis.Client, log *slog.Logger) *RedisStore {
	return newRedisStore(client, log)
}

func newRedisStore(client listClient, log *slog.Logger) *RedisStore {
	return &RedisStore{client: client, key: DefaultKey, ttl: DefaultTTL, log: log}
}

// Record - LPUSH → LTRIM → EXPIRE
func (s *RedisStore) Record(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	if err := s.client.LPush(ctx, s.key, payload).Err(); err != nil {
		return fmt.Errorf("history lpush: %w", err)
	}
	if err := s.client.LTrim(ctx, s.key, 0, MaxEntries-1).Err(); err != nil {
		return fmt.Errorf("history ltrim: %w", err)
	}
	if err := s.client.Expire(ctx, s.key, s.ttl).Err(); err != nil {
		return fmt.Errorf("history expire: %w", err)
	}

	s.log.Debug("📝 [History] Recorded generation", "id", entry.ID)
	return nil
}

// Recent - 최신순으로 limit 건
func (s *RedisStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	limit = clampLimit(limit)

	raw, err := s.client.LRange(ctx, s.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("history lrange: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			s.log.Warn("⚠️ [History] Skipping malformed entry", "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// NopStore - Redis 가 없을 때
type NopStore struct{}

func (NopStore) Record(context.Context, Entry) error { return nil }

func (NopStore) Recent(context.Context, int) ([]Entry, error) { return []Entry{}, nil }

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxEntries {
		return MaxEntries
	}
	return limit
}
