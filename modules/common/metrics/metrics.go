package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provider outcome labels
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
)

// Metrics - 서버 메트릭. nil 이어도 모든 메서드 호출 가능
type Metrics struct {
	requests        *prometheus.CounterVec
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	uploads         prometheus.Counter
	sweptFiles      prometheus.Counter
	gatherer        prometheus.Gatherer
}

// New - reg 에 collector 등록. 테스트에서는 prometheus.NewRegistry() 사용
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ailens",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ailens",
			Name:      "provider_calls_total",
			Help:      "External provider calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ailens",
			Name:      "provider_call_duration_seconds",
			Help:      "External provider call latency.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		}, []string{"provider"}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ailens",
			Name:      "uploads_total",
			Help:      "Reference images stored.",
		}),
		sweptFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ailens",
			Name:      "uploads_swept_total",
			Help:      "Expired reference images deleted by the janitor.",
		}),
		gatherer: reg,
	}

	reg.MustRegister(m.requests, m.providerCalls, m.providerLatency, m.uploads, m.sweptFiles)
	return m
}

// ObserveRequest - route 별 응답 코드 카운트
func (m *Metrics) ObserveRequest(route string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// ObserveProvider - 외부 호출 결과와 소요 시간
func (m *Metrics) ObserveProvider(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(provider, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.providerLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) IncUploads() {
	if m == nil {
		return
	}
	m.uploads.Inc()
}

func (m *Metrics) AddSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sweptFiles.Add(float64(n))
}

// Handler - GET /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
