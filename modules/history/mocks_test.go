package history

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeList - listClient 의 메모리 구현
type fakeList struct {
	items   []string
	ttl     time.Duration
	pushErr error
	readErr error
}

func (f *fakeList) LPush(_ context.Context, _ string, values ...interface{}) *redis.IntCmd {
	if f.pushErr != nil {
		return redis.NewIntResult(0, f.pushErr)
	}
	for _, v := range values {
		var s string
		switch val := v.(type) {
		case []byte:
			s = string(val)
		case string:
			s = val
		}
		f.items = append([]string{s}, f.items...)
	}
	return redis.NewIntResult(int64(len(f.items)), nil)
}

func (f *fakeList) LTrim(_ context.Context, _ string, start, stop int64) *redis.StatusCmd {
	if int(stop+1) < len(f.items) {
		f.items = f.items[start : stop+1]
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeList) Expire(_ context.Context, _ string, expiration time.Duration) *redis.BoolCmd {
	f.ttl = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeList) LRange(_ context.Context, _ string, start, stop int64) *redis.StringSliceCmd {
	if f.readErr != nil {
		return redis.NewStringSliceResult(nil, f.readErr)
	}
	end := int(stop + 1)
	if end > len(f.items) {
		end = len(f.items)
	}
	return redis.NewStringSliceResult(append([]string{}, f.items[start:end]...), nil)
}

// mockStore - Store 의 func-field mock
type mockStore struct {
	RecordFn func(ctx context.Context, entry Entry) error
	RecentFn func(ctx context.Context, limit int) ([]Entry, error)
}

func (m *mockStore) Record(ctx context.Context, entry Entry) error {
	if m.RecordFn != nil {
		return m.RecordFn(ctx, entry)
	}
	return nil
}

func (m *mockStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if m.RecentFn != nil {
		return m.RecentFn(ctx, limit)
	}
	return nil, nil
}
