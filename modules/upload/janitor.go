package upload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"ai-lens-server/modules/common/metrics"
)

// Sweeper - Janitor 가 주기적으로 호출하는 대상
type Sweeper interface {
	Sweep(now time.Time) (int, error)
}

// Janitor - 만료된 업로드 파일 정리 (cron)
type Janitor struct {
	sweeper Sweeper
	cron    *cron.Cron
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

// NewJanitor - schedule 예: "@every 30m"
func NewJanitor(sweeper Sweeper, schedule string, m *metrics.Metrics, log *slog.Logger) (*Janitor, error) {
	j := &Janitor{
		sweeper: sweeper,
		metrics: m,
		log:     log,
		now:     time.Now,
	}

	j.cron = cron.New(cron.WithLogger(cronLogger{log: log}))
	if _, err := j.cron.AddFunc(schedule, func() { j.RunOnce() }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start - 백그라운드 스케줄 시작
func (j *Janitor) Start() {
	j.log.Info("🧹 [Janitor] Started")
	j.cron.Start()
}

// Stop - 스케줄 중지. 실행 중인 sweep 이 끝나거나 ctx 가 끝날 때까지 대기
func (j *Janitor) Stop(ctx context.Context) error {
	done := j.cron.Stop()
	select {
	case <-done.Done():
		j.log.Info("🛑 [Janitor] Stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce - 한 번 정리
func (j *Janitor) RunOnce() int {
	removed, err := j.sweeper.Sweep(j.now())
	if err != nil {
		j.log.Warn("⚠️ [Janitor] Sweep finished with errors", "error", err)
	}
	j.metrics.AddSwept(removed)
	return removed
}

// cronLogger - cron.Logger 를 slog 로 연결
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("[Cron] "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("[Cron] "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
