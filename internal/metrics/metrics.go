// Package metrics описывает метрики Prometheus для разбора переписок.
// Парсер метрики не пишет: их фиксируют вызывающие компоненты (HTTP-сервер, воркер, загрузчик медиа).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/syetrk/whatsapp-chat-viewer/internal/domain"
)

const namespace = "chatviewer"

// Metrics: набор метрик одного процесса.
type Metrics struct {
	registry *prometheus.Registry

	parseDuration  prometheus.Histogram
	parsedMessages prometheus.Counter
	parseFailures  prometheus.Counter
	mediaMessages  *prometheus.CounterVec
	lazyLoads      *prometheus.CounterVec
}

// New создает метрики в собственном реестре вместе со стандартными метриками процесса и Go.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		parseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Время разбора одной переписки.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		parsedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parsed_messages_total",
			Help:      "Количество выпущенных сообщений, включая системные.",
		}),
		parseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Количество неудачных разборов.",
		}),
		mediaMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_messages_total",
			Help:      "Сообщения с вложениями по состоянию привязки.",
		}, []string{"state"}),
		lazyLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lazy_loads_total",
			Help:      "Попытки ленивой загрузки медиа по результату.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.parseDuration,
		m.parsedMessages,
		m.parseFailures,
		m.mediaMessages,
		m.lazyLoads,
	)

	return m
}

// ObserveParse фиксирует успешный разбор.
func (m *Metrics) ObserveParse(d time.Duration, chat *domain.ParsedChat) {
	m.parseDuration.Observe(d.Seconds())
	if chat == nil {
		return
	}
	m.parsedMessages.Add(float64(len(chat.Messages)))
	for _, msg := range chat.Messages {
		if !msg.IsMedia {
			continue
		}
		if msg.MediaURL != "" {
			m.mediaMessages.WithLabelValues("resolved").Inc()
		} else {
			m.mediaMessages.WithLabelValues("unresolved").Inc()
		}
	}
}

// ObserveParseFailure фиксирует неудачный разбор.
func (m *Metrics) ObserveParseFailure() {
	m.parseFailures.Inc()
}

// ObserveLazyLoad фиксирует результат ленивой загрузки.
func (m *Metrics) ObserveLazyLoad(result string) {
	m.lazyLoads.WithLabelValues(result).Inc()
}

// Handler возвращает HTTP-обработчик для /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
