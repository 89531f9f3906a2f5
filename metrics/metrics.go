// Package metrics 는 LLM 파이프라인과 일기 분석 큐의 Prometheus 지표를 모은다
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "soulbin"

// Metrics 는 전용 레지스트리에 수집기를 모아 둔다. nil *Metrics 도 쓸 수 있고 아무것도 기록하지 않는다
type Metrics struct {
	registry *prometheus.Registry

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	fallbacks   *prometheus.CounterVec

	analyses      *prometheus.CounterVec
	queueTasks    *prometheus.CounterVec
	queueInFlight prometheus.Gauge
}

// New 수집기를 만들고 Go 런타임 수집기와 함께 등록한다
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.llmRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Completion requests by operation and outcome",
		},
		[]string{"operation", "status"},
	)
	m.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Completion request latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40},
		},
		[]string{"operation"},
	)
	m.fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "fallbacks_total",
			Help:      "Pipeline operations that returned their fixed fallback value",
		},
		[]string{"operation"},
	)
	m.analyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "diary",
			Name:      "analyses_total",
			Help:      "Background diary analyses by terminal outcome",
		},
		[]string{"outcome"},
	)
	m.queueTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "tasks_total",
			Help:      "Queue tasks by kind and event",
		},
		[]string{"kind", "event"},
	)
	m.queueInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "in_flight",
			Help:      "Tasks currently being handled by workers",
		},
	)

	m.registry.MustRegister(
		m.llmRequests,
		m.llmLatency,
		m.fallbacks,
		m.analyses,
		m.queueTasks,
		m.queueInFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveLLM 완성 호출 한 건을 기록한다
func (m *Metrics) ObserveLLM(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.llmRequests.WithLabelValues(operation, status).Inc()
	m.llmLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) IncFallback(operation string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(operation).Inc()
}

// IncAnalysis 분석 결과(completed, failed, duplicate)
func (m *Metrics) IncAnalysis(outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
}

// IncQueue 큐 이벤트(enqueued, rejected, done, error)
func (m *Metrics) IncQueue(kind, event string) {
	if m == nil {
		return
	}
	m.queueTasks.WithLabelValues(kind, event).Inc()
}

func (m *Metrics) TaskStarted() {
	if m == nil {
		return
	}
	m.queueInFlight.Inc()
}

func (m *Metrics) TaskFinished() {
	if m == nil {
		return
	}
	m.queueInFlight.Dec()
}

// Registry 테스트에서 값을 확인할 때 쓴다
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler Prometheus 텍스트 형식으로 내보낸다
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
